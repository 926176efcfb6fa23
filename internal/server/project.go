package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"gocode-navigator/internal/format"
	"gocode-navigator/internal/query"
	"gocode-navigator/internal/telemetry"
)

// PathInput is the input shape shared by every read-only operation that
// takes nothing but a solution path.
type PathInput struct {
	Path string `json:"path" jsonschema:"solution path: a Go module root directory, or a single .go file"`
}

// ProjectScopedInput adds an optional project (package) name filter.
type ProjectScopedInput struct {
	Path        string `json:"path" jsonschema:"solution path: a Go module root directory, or a single .go file"`
	ProjectName string `json:"projectName,omitempty" jsonschema:"optional package path or name to scope the result to"`
}

func (s *Server) registerProjectTools(srv *mcp.Server) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "listProjects",
		Title:       "List Projects",
		Annotations: readOnly(),
		Description: "Lists every Go package loaded for the solution, with its framework/output-type and file count.\nExample: listProjects { \"path\": \".\" }",
	}, s.ListProjects)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "projectInfo",
		Title:       "Project Info",
		Annotations: readOnly(),
		Description: "Returns detail for one package: path, Go version, output type, source file count, and dependencies.\nExample: projectInfo { \"path\": \".\", \"projectName\": \"internal/query\" }",
	}, s.ProjectInfo)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "listSourceFiles",
		Title:       "List Source Files",
		Annotations: readOnly(),
		Description: "Lists every compiled Go source file in the solution, optionally scoped to one package.\nExample: listSourceFiles { \"path\": \".\" }",
	}, s.ListSourceFiles)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "diagnostics",
		Title:       "Diagnostics",
		Annotations: readOnly(),
		Description: "Lists compiler/type-checker diagnostics at warning severity or higher, errors first.\nExample: diagnostics { \"path\": \".\" }",
	}, s.Diagnostics)
}

func (s *Server) ListProjects(ctx context.Context, _ *mcp.CallToolRequest, input PathInput) (*mcp.CallToolResult, Output, error) {
	start := telemetry.Start("listProjects", map[string]string{"path": input.Path})

	h, err := s.mgr.Acquire(ctx, input.Path)
	if err != nil {
		telemetry.Fail("listProjects", err, "acquire failed")
		return errOutput(err)
	}

	base := solutionDir(h)
	results := relProjects(base, query.ListProjects(h))

	telemetry.End("listProjects", start, len(results))

	return ok(format.Projects(results))
}

func (s *Server) ProjectInfo(ctx context.Context, _ *mcp.CallToolRequest, input ProjectScopedInput) (*mcp.CallToolResult, Output, error) {
	start := telemetry.Start("projectInfo", map[string]string{"path": input.Path, "project": input.ProjectName})

	h, err := s.mgr.Acquire(ctx, input.Path)
	if err != nil {
		telemetry.Fail("projectInfo", err, "acquire failed")
		return errOutput(err)
	}

	info, err := query.ProjectInfo(h, input.ProjectName)
	if err != nil {
		telemetry.Fail("projectInfo", err, "not found")
		return errOutput(err)
	}

	info = relProject(solutionDir(h), info)

	telemetry.End("projectInfo", start, 1)

	return ok(format.Project(info))
}

func (s *Server) ListSourceFiles(ctx context.Context, _ *mcp.CallToolRequest, input ProjectScopedInput) (*mcp.CallToolResult, Output, error) {
	start := telemetry.Start("listSourceFiles", map[string]string{"path": input.Path, "project": input.ProjectName})

	h, err := s.mgr.Acquire(ctx, input.Path)
	if err != nil {
		telemetry.Fail("listSourceFiles", err, "acquire failed")
		return errOutput(err)
	}

	files := relFiles(solutionDir(h), query.SourceFiles(h, input.ProjectName))

	telemetry.End("listSourceFiles", start, len(files))

	return ok(format.SourceFiles(files))
}

func (s *Server) Diagnostics(ctx context.Context, _ *mcp.CallToolRequest, input ProjectScopedInput) (*mcp.CallToolResult, Output, error) {
	start := telemetry.Start("diagnostics", map[string]string{"path": input.Path, "project": input.ProjectName})

	h, err := s.mgr.Acquire(ctx, input.Path)
	if err != nil {
		telemetry.Fail("diagnostics", err, "acquire failed")
		return errOutput(err)
	}

	diags := relDiagnostics(solutionDir(h), query.Diagnostics(h, input.ProjectName))

	telemetry.End("diagnostics", start, len(diags))

	return ok(format.Diagnostics(diags))
}
