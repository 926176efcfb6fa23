package server_test

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocode-navigator/internal/server"
)

func newTestServer(t *testing.T) *server.Server {
	t.Helper()

	s := server.New()
	t.Cleanup(s.Close)

	return s
}

func TestFindSymbols(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.FindSymbols(context.Background(), &mcp.CallToolRequest{}, server.FindSymbolsInput{
		Path:  "../../testdata/sample",
		Query: "Foo",
		Exact: true,
	})
	require.NoError(t, err)
	assert.Contains(t, out.Text, "Foo")
}

func TestFindReferences(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.FindReferences(context.Background(), &mcp.CallToolRequest{}, server.FindReferencesInput{
		Path:       "../../testdata/sample",
		SymbolName: "DoSomething",
	})
	require.NoError(t, err)
	assert.NotContains(t, out.Text, "Error:")
}

func TestFindUnusedCode(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.FindUnusedCode(context.Background(), &mcp.CallToolRequest{}, server.FindUnusedCodeInput{
		Path: "../../testdata/sample",
	})
	require.NoError(t, err)
	assert.Contains(t, out.Text, "deadFunc")
	assert.NotContains(t, out.Text, "DoSomething")
}

func TestRenameDryRun(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.Rename(context.Background(), &mcp.CallToolRequest{}, server.RenameInput{
		Path:       "../../testdata/sample",
		SymbolName: "Simple",
		NewName:    "SimpleRenamed",
		DryRun:     true,
	})
	require.NoError(t, err)
	assert.NotContains(t, out.Text, "Error:")
}

func TestFindCodeSmells(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.FindCodeSmells(context.Background(), &mcp.CallToolRequest{}, server.FindCodeSmellsInput{
		Path: "../../testdata/sample",
	})
	require.NoError(t, err)
	assert.Contains(t, out.Text, "Deep nesting")
	assert.Contains(t, out.Text, "WithDeepNesting")
	assert.Contains(t, out.Text, "Middle-man")
	assert.Contains(t, out.Text, "CachingStore")
	assert.Contains(t, out.Text, "Refused bequest")
	assert.Contains(t, out.Text, "NullStore")
}

func TestUnknownSymbolReturnsErrorText(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.FindSymbols(context.Background(), &mcp.CallToolRequest{}, server.FindSymbolsInput{
		Path: "../../does-not-exist",
	})
	require.NoError(t, err)
	assert.Contains(t, out.Text, "Error:")
}
