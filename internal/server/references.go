package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"gocode-navigator/internal/codeerr"
	"gocode-navigator/internal/format"
	"gocode-navigator/internal/references"
	"gocode-navigator/internal/resolve"
	"gocode-navigator/internal/telemetry"
)

type FindReferencesInput struct {
	Path           string `json:"path"                     jsonschema:"solution path"`
	SymbolName     string `json:"symbolName"               jsonschema:"name of the symbol to find references to"`
	ContainingType string `json:"containingType,omitempty" jsonschema:"type that declares symbolName, when it is a member"`
	ProjectScope   string `json:"projectScope,omitempty"   jsonschema:"restrict results to one package"`
	Detail         string `json:"detail,omitempty"         jsonschema:"'compact' (default) or 'full' for ±2 lines of context and the containing symbol"`
	Mode           string `json:"mode,omitempty"           jsonschema:"'all' (default), 'callers', or 'usages'"`
}

func (s *Server) registerReferenceTools(srv *mcp.Server) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "findReferences",
		Title:       "Find References",
		Annotations: readOnly(),
		Description: "Finds references or callers of a resolved symbol across the whole solution; mode 'usages' returns the same set as 'all'.\nExample: findReferences { \"path\": \".\", \"symbolName\": \"Acquire\", \"mode\": \"callers\" }",
	}, s.FindReferences)
}

func (s *Server) FindReferences(ctx context.Context, _ *mcp.CallToolRequest, input FindReferencesInput) (*mcp.CallToolResult, Output, error) {
	start := telemetry.Start("findReferences", map[string]string{
		"path": input.Path, "symbol": input.SymbolName, "mode": input.Mode,
	})

	h, err := s.mgr.Acquire(ctx, input.Path)
	if err != nil {
		telemetry.Fail("findReferences", err, "acquire failed")
		return errOutput(err)
	}

	mode := input.Mode
	if mode == "" {
		mode = references.ModeAll
	}

	obj, err := resolve.ResolveSymbol(h, input.SymbolName, input.ContainingType)
	if err != nil {
		telemetry.Fail("findReferences", err, "resolve failed")
		return errOutput(err)
	}

	if mode == references.ModeCallers {
		fn, warn, err := resolve.ResolveMethod(h, input.SymbolName, input.ContainingType)
		if err != nil {
			telemetry.Fail("findReferences", err, "resolve failed")
			return errOutput(err)
		}

		if warn {
			telemetry.Warn("findReferences", "multiple overloads resolved, using the first match", map[string]string{"symbol": input.SymbolName})
		}

		obj = fn
	}

	results, err := references.FindReferences(h, obj, references.Options{
		Mode:         mode,
		Detail:       detailOf(input.Detail),
		ProjectScope: input.ProjectScope,
	})
	if err != nil {
		telemetry.Fail("findReferences", err, "analysis failed")
		return errOutput(codeerr.Wrap(codeerr.AnalysisFailed, "findReferences", err))
	}

	results = relReferences(solutionDir(h), results)

	telemetry.End("findReferences", start, len(results))

	return ok(format.References(results))
}
