package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"gocode-navigator/internal/format"
	"gocode-navigator/internal/refactor"
	"gocode-navigator/internal/resolve"
	"gocode-navigator/internal/telemetry"
)

type RenameInput struct {
	Path             string `json:"path"                       jsonschema:"solution path"`
	SymbolName       string `json:"symbolName"                 jsonschema:"name of the symbol to rename"`
	ContainingType   string `json:"containingType,omitempty"   jsonschema:"type that declares symbolName, when it is a member"`
	NewName          string `json:"newName"                    jsonschema:"new identifier name"`
	RenameInComments bool   `json:"renameInComments,omitempty" jsonschema:"also rewrite textual occurrences in comments and doc comments"`
	DryRun           bool   `json:"dryRun,omitempty"           jsonschema:"produce a unified-diff preview without writing any file"`
}

type ExtractInterfaceInput struct {
	Path          string `json:"path"                    jsonschema:"solution path"`
	TypeName      string `json:"typeName"                jsonschema:"struct to extract an interface from"`
	InterfaceName string `json:"interfaceName,omitempty" jsonschema:"defaults to 'I{TypeName}'"`
	Apply         bool   `json:"apply,omitempty"         jsonschema:"write the interface file and annotate the struct; otherwise return a preview"`
}

type ImplementInterfaceInput struct {
	Path          string `json:"path"                    jsonschema:"solution path"`
	TypeName      string `json:"typeName"                jsonschema:"struct to generate stubs on"`
	InterfaceName string `json:"interfaceName,omitempty" jsonschema:"restrict to one declared interface; default considers every interface the type partially satisfies"`
}

type ChangeSignatureInput struct {
	Path              string `json:"path"                        jsonschema:"solution path"`
	SymbolName        string `json:"symbolName"                  jsonschema:"method to change the signature of"`
	ContainingType    string `json:"containingType,omitempty"     jsonschema:"type that declares the method"`
	AddParameters     string `json:"addParameters,omitempty"      jsonschema:"comma-separated 'type name[=default]' list, commas inside generic brackets are respected"`
	RemoveParameters  string `json:"removeParameters,omitempty"   jsonschema:"comma-separated parameter names to remove"`
	ReorderParameters string `json:"reorderParameters,omitempty"  jsonschema:"comma-separated surviving parameter names in their new order"`
	DryRun            bool   `json:"dryRun,omitempty"             jsonschema:"produce a preview without writing any file"`
}

func (s *Server) registerRefactorTools(srv *mcp.Server) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "rename",
		Title:       "Rename",
		Annotations: writes(),
		Description: "Renames a type, function, method, variable, field, or constant across every reference, renaming its declaring file when appropriate.\nExample: rename { \"path\": \".\", \"symbolName\": \"Foo\", \"newName\": \"Bar\", \"dryRun\": true }",
	}, s.Rename)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "extractInterface",
		Title:       "Extract Interface",
		Annotations: writes(),
		Description: "Generates an interface covering a struct's exported methods; with apply=true, writes the file and annotates the struct.\nExample: extractInterface { \"path\": \".\", \"typeName\": \"Greeter\", \"apply\": false }",
	}, s.ExtractInterface)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "implementInterface",
		Title:       "Implement Interface",
		Annotations: writes(),
		Description: "Generates not-implemented stubs for every interface method a struct does not already satisfy.\nExample: implementInterface { \"path\": \".\", \"typeName\": \"Greeter\", \"interfaceName\": \"Greeting\" }",
	}, s.ImplementInterface)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "changeSignature",
		Title:       "Change Signature",
		Annotations: writes(),
		Description: "Adds, removes, or reorders a method's parameters and rewrites every direct call site.\nExample: changeSignature { \"path\": \".\", \"symbolName\": \"Foo\", \"reorderParameters\": \"b,a\" }",
	}, s.ChangeSignature)
}

func (s *Server) Rename(ctx context.Context, _ *mcp.CallToolRequest, input RenameInput) (*mcp.CallToolResult, Output, error) {
	start := telemetry.Start("rename", map[string]string{"path": input.Path, "symbol": input.SymbolName, "newName": input.NewName})

	h, err := s.mgr.Acquire(ctx, input.Path)
	if err != nil {
		telemetry.Fail("rename", err, "acquire failed")
		return errOutput(err)
	}

	obj, err := resolve.ResolveSymbol(h, input.SymbolName, input.ContainingType)
	if err != nil {
		telemetry.Fail("rename", err, "resolve failed")
		return errOutput(err)
	}

	result, err := refactor.Rename(ctx, s.mgr, input.Path, h, obj, refactor.RenameOptions{
		RenameInComments: input.RenameInComments,
		DryRun:           input.DryRun,
	}, input.NewName)
	if err != nil {
		telemetry.Fail("rename", err, "rename failed")
		return errOutput(err)
	}

	telemetry.End("rename", start, len(result.Changes))

	return ok(format.RenameSummary(toFormatChanges(result.Changes)))
}

func (s *Server) ExtractInterface(ctx context.Context, _ *mcp.CallToolRequest, input ExtractInterfaceInput) (*mcp.CallToolResult, Output, error) {
	start := telemetry.Start("extractInterface", map[string]string{"path": input.Path, "type": input.TypeName})

	h, err := s.mgr.Acquire(ctx, input.Path)
	if err != nil {
		telemetry.Fail("extractInterface", err, "acquire failed")
		return errOutput(err)
	}

	result, err := refactor.ExtractInterface(s.mgr, input.Path, h, input.TypeName, refactor.ExtractInterfaceOptions{
		InterfaceName: input.InterfaceName,
		Apply:         input.Apply,
	})
	if err != nil {
		telemetry.Fail("extractInterface", err, "failed")
		return errOutput(err)
	}

	telemetry.End("extractInterface", start, len(result.Files))

	if !result.Applied {
		return ok(result.Text)
	}

	return ok(format.RenameSummary(toFormatChanges(result.Files)))
}

func (s *Server) ImplementInterface(ctx context.Context, _ *mcp.CallToolRequest, input ImplementInterfaceInput) (*mcp.CallToolResult, Output, error) {
	start := telemetry.Start("implementInterface", map[string]string{"path": input.Path, "type": input.TypeName, "interface": input.InterfaceName})

	h, err := s.mgr.Acquire(ctx, input.Path)
	if err != nil {
		telemetry.Fail("implementInterface", err, "acquire failed")
		return errOutput(err)
	}

	result, err := refactor.ImplementInterface(s.mgr, input.Path, h, input.TypeName, input.InterfaceName)
	if err != nil {
		telemetry.Fail("implementInterface", err, "failed")
		return errOutput(err)
	}

	count := 0
	for _, g := range result.Groups {
		count += len(g.Stubs)
	}

	telemetry.End("implementInterface", start, count)

	var b stubSummary

	return ok(b.render(result))
}

func (s *Server) ChangeSignature(ctx context.Context, _ *mcp.CallToolRequest, input ChangeSignatureInput) (*mcp.CallToolResult, Output, error) {
	start := telemetry.Start("changeSignature", map[string]string{"path": input.Path, "symbol": input.SymbolName})

	h, err := s.mgr.Acquire(ctx, input.Path)
	if err != nil {
		telemetry.Fail("changeSignature", err, "acquire failed")
		return errOutput(err)
	}

	fn, warn, err := resolve.ResolveMethod(h, input.SymbolName, input.ContainingType)
	if err != nil {
		telemetry.Fail("changeSignature", err, "resolve failed")
		return errOutput(err)
	}

	if warn {
		telemetry.Warn("changeSignature", "multiple overloads resolved, using the first match", map[string]string{"symbol": input.SymbolName})
	}

	result, err := refactor.ChangeSignature(ctx, s.mgr, input.Path, h, fn, refactor.ChangeSignatureOptions{
		AddParameters:     input.AddParameters,
		RemoveParameters:  input.RemoveParameters,
		ReorderParameters: input.ReorderParameters,
		DryRun:            input.DryRun,
	})
	if err != nil {
		telemetry.Fail("changeSignature", err, "failed")
		return errOutput(err)
	}

	telemetry.End("changeSignature", start, len(result.Files))

	return ok(format.RenameSummary(toFormatChanges(result.Files)))
}

func toFormatChanges(changes []refactor.FileChange) []format.Change {
	out := make([]format.Change, len(changes))
	for i, c := range changes {
		out[i] = format.Change{Path: c.Path, Renamed: c.Renamed, OldPath: c.OldPath, Diff: c.Diff}
	}

	return out
}

// stubSummary renders an ImplementInterfaceResult grouped by source
// interface, per spec section 4.5.3 step 6.
type stubSummary struct{}

func (stubSummary) render(r refactor.ImplementInterfaceResult) string {
	if len(r.Groups) == 0 {
		return "(0 stubs added)\n"
	}

	var b strings.Builder

	for _, g := range r.Groups {
		fmt.Fprintf(&b, "-- %s --\n", g.InterfaceName)

		for _, stub := range g.Stubs {
			fmt.Fprintf(&b, "%s\n", stub)
		}
	}

	return b.String()
}
