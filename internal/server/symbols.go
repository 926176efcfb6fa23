package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"gocode-navigator/internal/format"
	"gocode-navigator/internal/query"
	"gocode-navigator/internal/telemetry"
)

type FindSymbolsInput struct {
	Path   string `json:"path"             jsonschema:"solution path"`
	Query  string `json:"query"            jsonschema:"substring or exact name to match"`
	Kind   string `json:"kind,omitempty"   jsonschema:"optional kind filter: type, interface, func, method, var, field, const"`
	Exact  bool   `json:"exact,omitempty"  jsonschema:"match the name exactly instead of case-insensitive substring"`
	Detail string `json:"detail,omitempty" jsonschema:"'compact' (default) or 'full' to include doc summary and source body"`
}

type FileSymbolsInput struct {
	Path     string `json:"path"             jsonschema:"solution path"`
	FilePath string `json:"filePath"         jsonschema:"file to list, absolute or solution-relative"`
	Depth    int    `json:"depth,omitempty"  jsonschema:"0 (top-level types only, default) or 1 (expand members)"`
	Detail   string `json:"detail,omitempty" jsonschema:"'compact' (default) or 'full'"`
}

type TypeMembersInput struct {
	Path     string `json:"path"             jsonschema:"solution path"`
	TypeName string `json:"typeName"         jsonschema:"short or fully qualified type name"`
	Detail   string `json:"detail,omitempty" jsonschema:"'compact' (default) or 'full'"`
}

func (s *Server) registerSymbolTools(srv *mcp.Server) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "findSymbols",
		Title:       "Find Symbols",
		Annotations: readOnly(),
		Description: "Searches every loaded package's symbols by name (substring or exact), optionally filtered by kind.\nExample: findSymbols { \"path\": \".\", \"query\": \"Handler\", \"exact\": false }",
	}, s.FindSymbols)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "fileSymbols",
		Title:       "File Symbols",
		Annotations: readOnly(),
		Description: "Lists the top-level type and function declarations in one file, optionally expanded with members.\nExample: fileSymbols { \"path\": \".\", \"filePath\": \"internal/query/query.go\", \"depth\": 1 }",
	}, s.FileSymbols)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "typeMembers",
		Title:       "Type Members",
		Annotations: readOnly(),
		Description: "Lists the fields and methods of a resolved type.\nExample: typeMembers { \"path\": \".\", \"typeName\": \"SolutionHandle\" }",
	}, s.TypeMembers)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "listNamespaces",
		Title:       "List Namespaces",
		Annotations: readOnly(),
		Description: "Lists the distinct import paths of packages that declare at least one source-defined type.\nExample: listNamespaces { \"path\": \".\" }",
	}, s.ListNamespaces)
}

func (s *Server) FindSymbols(ctx context.Context, _ *mcp.CallToolRequest, input FindSymbolsInput) (*mcp.CallToolResult, Output, error) {
	start := telemetry.Start("findSymbols", map[string]string{"path": input.Path, "query": input.Query})

	h, err := s.mgr.Acquire(ctx, input.Path)
	if err != nil {
		telemetry.Fail("findSymbols", err, "acquire failed")
		return errOutput(err)
	}

	results := relSymbols(solutionDir(h), query.FindSymbols(h, input.Query, input.Kind, input.Exact, detailOf(input.Detail)))

	telemetry.End("findSymbols", start, len(results))

	return ok(format.Symbols(results, detailOf(input.Detail) == "full"))
}

func (s *Server) FileSymbols(ctx context.Context, _ *mcp.CallToolRequest, input FileSymbolsInput) (*mcp.CallToolResult, Output, error) {
	start := telemetry.Start("fileSymbols", map[string]string{"path": input.Path, "file": input.FilePath})

	h, err := s.mgr.Acquire(ctx, input.Path)
	if err != nil {
		telemetry.Fail("fileSymbols", err, "acquire failed")
		return errOutput(err)
	}

	results, err := query.FileSymbols(h, input.FilePath, input.Depth, detailOf(input.Detail))
	if err != nil {
		telemetry.Fail("fileSymbols", err, "not found")
		return errOutput(err)
	}

	results = relSymbols(solutionDir(h), results)

	telemetry.End("fileSymbols", start, len(results))

	return ok(format.Symbols(results, detailOf(input.Detail) == "full"))
}

func (s *Server) TypeMembers(ctx context.Context, _ *mcp.CallToolRequest, input TypeMembersInput) (*mcp.CallToolResult, Output, error) {
	start := telemetry.Start("typeMembers", map[string]string{"path": input.Path, "type": input.TypeName})

	h, err := s.mgr.Acquire(ctx, input.Path)
	if err != nil {
		telemetry.Fail("typeMembers", err, "acquire failed")
		return errOutput(err)
	}

	results, err := query.TypeMembers(h, input.TypeName, detailOf(input.Detail))
	if err != nil {
		telemetry.Fail("typeMembers", err, "not found")
		return errOutput(err)
	}

	results = relSymbols(solutionDir(h), results)

	telemetry.End("typeMembers", start, len(results))

	return ok(format.Symbols(results, detailOf(input.Detail) == "full"))
}

func (s *Server) ListNamespaces(ctx context.Context, _ *mcp.CallToolRequest, input PathInput) (*mcp.CallToolResult, Output, error) {
	start := telemetry.Start("listNamespaces", map[string]string{"path": input.Path})

	h, err := s.mgr.Acquire(ctx, input.Path)
	if err != nil {
		telemetry.Fail("listNamespaces", err, "acquire failed")
		return errOutput(err)
	}

	namespaces := query.ListNamespaces(h)

	telemetry.End("listNamespaces", start, len(namespaces))

	return ok(format.Namespaces(namespaces))
}

func detailOf(d string) string {
	if d == "" {
		return "compact"
	}

	return d
}
