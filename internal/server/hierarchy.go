package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"gocode-navigator/internal/format"
	"gocode-navigator/internal/query"
	"gocode-navigator/internal/telemetry"
)

type TypeNameInput struct {
	Path     string `json:"path"     jsonschema:"solution path"`
	TypeName string `json:"typeName" jsonschema:"short or fully qualified type name"`
}

type FindOverridesInput struct {
	Path       string `json:"path"       jsonschema:"solution path"`
	TypeName   string `json:"typeName"   jsonschema:"type embedding the method"`
	MethodName string `json:"methodName" jsonschema:"method name to find overrides of"`
}

func (s *Server) registerHierarchyTools(srv *mcp.Server) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "findDerivedTypes",
		Title:       "Find Derived Types",
		Annotations: readOnly(),
		Description: "For an interface, lists every implementation in the solution; for a struct, every type embedding it.\nExample: findDerivedTypes { \"path\": \".\", \"typeName\": \"Compilation\" }",
	}, s.FindDerivedTypes)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "typeHierarchy",
		Title:       "Type Hierarchy",
		Annotations: readOnly(),
		Description: "Walks a type's embedding chain and lists every interface it satisfies.\nExample: typeHierarchy { \"path\": \".\", \"typeName\": \"SolutionHandle\" }",
	}, s.TypeHierarchy)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "findOverrides",
		Title:       "Find Overrides",
		Annotations: readOnly(),
		Description: "Lists every type embedding typeName that redeclares methodName.\nExample: findOverrides { \"path\": \".\", \"typeName\": \"Base\", \"methodName\": \"Save\" }",
	}, s.FindOverrides)
}

func (s *Server) FindDerivedTypes(ctx context.Context, _ *mcp.CallToolRequest, input TypeNameInput) (*mcp.CallToolResult, Output, error) {
	start := telemetry.Start("findDerivedTypes", map[string]string{"path": input.Path, "type": input.TypeName})

	h, err := s.mgr.Acquire(ctx, input.Path)
	if err != nil {
		telemetry.Fail("findDerivedTypes", err, "acquire failed")
		return errOutput(err)
	}

	results, err := query.FindDerivedTypes(h, input.TypeName)
	if err != nil {
		telemetry.Fail("findDerivedTypes", err, "failed")
		return errOutput(err)
	}

	results = relSymbols(solutionDir(h), results)

	telemetry.End("findDerivedTypes", start, len(results))

	return ok(format.Symbols(results, false))
}

func (s *Server) TypeHierarchy(ctx context.Context, _ *mcp.CallToolRequest, input TypeNameInput) (*mcp.CallToolResult, Output, error) {
	start := telemetry.Start("typeHierarchy", map[string]string{"path": input.Path, "type": input.TypeName})

	h, err := s.mgr.Acquire(ctx, input.Path)
	if err != nil {
		telemetry.Fail("typeHierarchy", err, "acquire failed")
		return errOutput(err)
	}

	result, err := query.TypeHierarchy(h, input.TypeName)
	if err != nil {
		telemetry.Fail("typeHierarchy", err, "failed")
		return errOutput(err)
	}

	result = relHierarchy(solutionDir(h), result)

	telemetry.End("typeHierarchy", start, 1)

	return ok(format.TypeHierarchy(result))
}

func (s *Server) FindOverrides(ctx context.Context, _ *mcp.CallToolRequest, input FindOverridesInput) (*mcp.CallToolResult, Output, error) {
	start := telemetry.Start("findOverrides", map[string]string{"path": input.Path, "type": input.TypeName, "method": input.MethodName})

	h, err := s.mgr.Acquire(ctx, input.Path)
	if err != nil {
		telemetry.Fail("findOverrides", err, "acquire failed")
		return errOutput(err)
	}

	results, err := query.FindOverrides(h, input.TypeName, input.MethodName)
	if err != nil {
		telemetry.Fail("findOverrides", err, "failed")
		return errOutput(err)
	}

	results = relReferences(solutionDir(h), results)

	telemetry.End("findOverrides", start, len(results))

	return ok(format.References(results))
}
