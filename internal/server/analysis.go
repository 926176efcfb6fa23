package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"gocode-navigator/internal/format"
	"gocode-navigator/internal/smells"
	"gocode-navigator/internal/telemetry"
	"gocode-navigator/internal/unused"
)

type FindUnusedCodeInput struct {
	Path        string `json:"path"                  jsonschema:"solution path"`
	Scope       string `json:"scope,omitempty"       jsonschema:"'all' (default), 'types', 'funcs', 'vars', or 'consts'"`
	ProjectName string `json:"projectName,omitempty" jsonschema:"restrict results to one package"`
}

type FindCodeSmellsInput struct {
	Path        string `json:"path"                  jsonschema:"solution path"`
	Category    string `json:"category,omitempty"    jsonschema:"'all' (default), 'complexity', 'design', or 'inheritance'"`
	ProjectName string `json:"projectName,omitempty" jsonschema:"restrict results to one package"`
	Deep        bool   `json:"deep,omitempty"        jsonschema:"also run the more expensive cross-package checks"`
}

func (s *Server) registerAnalysisTools(srv *mcp.Server) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "findUnusedCode",
		Title:       "Find Unused Code",
		Annotations: readOnly(),
		Description: "Reports unexported package-level declarations with no observed reference anywhere in the solution. Exported identifiers are never candidates.\nExample: findUnusedCode { \"path\": \".\", \"scope\": \"funcs\" }",
	}, s.FindUnusedCode)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "findCodeSmells",
		Title:       "Find Code Smells",
		Annotations: readOnly(),
		Description: "Runs complexity, design, and inheritance checks over the solution and reports findings by severity.\nExample: findCodeSmells { \"path\": \".\", \"category\": \"complexity\" }",
	}, s.FindCodeSmells)
}

func (s *Server) FindUnusedCode(ctx context.Context, _ *mcp.CallToolRequest, input FindUnusedCodeInput) (*mcp.CallToolResult, Output, error) {
	start := telemetry.Start("findUnusedCode", map[string]string{"path": input.Path, "scope": input.Scope})

	h, err := s.mgr.Acquire(ctx, input.Path)
	if err != nil {
		telemetry.Fail("findUnusedCode", err, "acquire failed")
		return errOutput(err)
	}

	scope := input.Scope
	if scope == "" {
		scope = unused.ScopeAll
	}

	results := unused.FindUnusedCode(h, scope, input.ProjectName)
	results = relUnused(solutionDir(h), results)

	telemetry.End("findUnusedCode", start, len(results))

	return ok(format.Unused(results))
}

func (s *Server) FindCodeSmells(ctx context.Context, _ *mcp.CallToolRequest, input FindCodeSmellsInput) (*mcp.CallToolResult, Output, error) {
	start := telemetry.Start("findCodeSmells", map[string]string{"path": input.Path, "category": input.Category})

	h, err := s.mgr.Acquire(ctx, input.Path)
	if err != nil {
		telemetry.Fail("findCodeSmells", err, "acquire failed")
		return errOutput(err)
	}

	category := input.Category
	if category == "" {
		category = smells.CategoryAll
	}

	results := smells.FindCodeSmells(h, smells.Options{
		Category:    category,
		ProjectName: input.ProjectName,
		Deep:        input.Deep,
	})
	results = relSmells(solutionDir(h), results)

	telemetry.End("findCodeSmells", start, len(results))

	return ok(format.Smells(results))
}
