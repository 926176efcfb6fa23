package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"gocode-navigator/internal/resolve"
	"gocode-navigator/internal/source"
	"gocode-navigator/internal/telemetry"
)

type SymbolSourceInput struct {
	Path           string `json:"path"                     jsonschema:"solution path"`
	SymbolName     string `json:"symbolName"               jsonschema:"name of the symbol to read"`
	ContainingType string `json:"containingType,omitempty" jsonschema:"type that declares symbolName, when it is a member"`
}

type FileContentInput struct {
	FilePath  string `json:"filePath"            jsonschema:"absolute or working-directory-relative path to read"`
	StartLine int    `json:"startLine,omitempty" jsonschema:"1-based first line to include (default 1)"`
	EndLine   int    `json:"endLine,omitempty"   jsonschema:"1-based last line to include (default: end of file)"`
}

func (s *Server) registerSourceTools(srv *mcp.Server) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "symbolSource",
		Title:       "Symbol Source",
		Annotations: readOnly(),
		Description: "Returns the doc comment and full declaration text of a resolved symbol.\nExample: symbolSource { \"path\": \".\", \"symbolName\": \"Acquire\", \"containingType\": \"Manager\" }",
	}, s.SymbolSource)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "fileContent",
		Title:       "File Content",
		Annotations: readOnly(),
		Description: "Reads a file with 1-based line numbers prepended; fails with TooLarge above 5 MiB.\nExample: fileContent { \"filePath\": \"internal/query/query.go\", \"startLine\": 1, \"endLine\": 40 }",
	}, s.FileContent)
}

func (s *Server) SymbolSource(ctx context.Context, _ *mcp.CallToolRequest, input SymbolSourceInput) (*mcp.CallToolResult, Output, error) {
	start := telemetry.Start("symbolSource", map[string]string{"path": input.Path, "symbol": input.SymbolName})

	h, err := s.mgr.Acquire(ctx, input.Path)
	if err != nil {
		telemetry.Fail("symbolSource", err, "acquire failed")
		return errOutput(err)
	}

	obj, err := resolve.ResolveSymbol(h, input.SymbolName, input.ContainingType)
	if err != nil {
		telemetry.Fail("symbolSource", err, "resolve failed")
		return errOutput(err)
	}

	doc, body, err := source.SymbolSource(h, obj)
	if err != nil {
		telemetry.Fail("symbolSource", err, "no source")
		return errOutput(err)
	}

	telemetry.End("symbolSource", start, 1)

	text := body
	if doc != "" {
		text = doc + "\n" + body
	}

	return ok(text)
}

func (s *Server) FileContent(ctx context.Context, _ *mcp.CallToolRequest, input FileContentInput) (*mcp.CallToolResult, Output, error) {
	start := telemetry.Start("fileContent", map[string]string{"file": input.FilePath})

	content, err := source.FileContent(input.FilePath, input.StartLine, input.EndLine)
	if err != nil {
		telemetry.Fail("fileContent", err, "read failed")
		return errOutput(err)
	}

	telemetry.End("fileContent", start, 1)

	return ok(content)
}
