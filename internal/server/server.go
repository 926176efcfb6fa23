// Package server wires every operation in spec section 6.1's request
// surface to the core components (internal/workspace, internal/resolve,
// internal/references, internal/query, internal/refactor, internal/smells,
// internal/source, internal/unused) as MCP tools, following the teacher's
// mcp.AddTool[Input, Output] registration idiom. This package is the
// outer tool-dispatch glue the spec names as an external collaborator
// (section 1): it owns no domain logic of its own, only acquisition,
// relativization, formatting, and error rendering around the core calls.
package server

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"gocode-navigator/internal/pathutil"
	"gocode-navigator/internal/workspace"
)

// Server holds the single process-wide workspace manager every handler
// acquires a solution snapshot from.
type Server struct {
	mgr *workspace.Manager
}

// New creates a Server backed by a fresh workspace manager.
func New() *Server {
	return &Server{mgr: workspace.New()}
}

// Close releases the underlying workspace manager's background watcher.
func (s *Server) Close() {
	s.mgr.Close()
}

// Output is the plain-text transport shape shared by every operation
// (spec section 6.2: all operations return LF-separated plain text, never
// a machine-parseable schema).
type Output struct {
	Text string `json:"text" jsonschema:"plain-text result, LF-separated"`
}

// Register adds every spec section 6.1 tool to srv.
func (s *Server) Register(srv *mcp.Server) {
	s.registerProjectTools(srv)
	s.registerSymbolTools(srv)
	s.registerHierarchyTools(srv)
	s.registerReferenceTools(srv)
	s.registerSourceTools(srv)
	s.registerRefactorTools(srv)
	s.registerAnalysisTools(srv)
}

// errOutput renders err as the "Error: <message>" text form mandated by
// spec section 7; the tool call itself still succeeds so the message
// reaches the client as ordinary content instead of a protocol-level
// failure. Warnings never reach here — they go to telemetry.Warn instead.
func errOutput(err error) (*mcp.CallToolResult, Output, error) {
	return nil, Output{Text: "Error: " + err.Error()}, nil
}

func ok(text string) (*mcp.CallToolResult, Output, error) {
	return nil, Output{Text: text}, nil
}

func readOnly() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{ReadOnlyHint: true}
}

func writes() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{ReadOnlyHint: false}
}

// solutionDir resolves the display base for a request: the normalized
// directory the workspace manager loaded the handle from, so every
// handler relativizes against the same value (Design Notes,
// "caller-supplied solution directory everywhere" — here it is a property
// reachable from the handle instead of recomputed per call).
func solutionDir(h *workspace.SolutionHandle) string {
	return h.Path
}

func rel(base, path string) string {
	if path == "" {
		return path
	}

	return pathutil.Relative(base, path)
}
