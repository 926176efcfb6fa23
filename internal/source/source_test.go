package source_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocode-navigator/internal/codeerr"
	"gocode-navigator/internal/resolve"
	"gocode-navigator/internal/source"
	"gocode-navigator/internal/workspace"
)

func TestSymbolSource(t *testing.T) {
	mgr := workspace.New()
	t.Cleanup(mgr.Close)

	h, err := mgr.Acquire(context.Background(), "../../testdata/sample")
	require.NoError(t, err)

	obj, err := resolve.ResolveSymbol(h, "DoSomething", "Foo")
	require.NoError(t, err)

	doc, body, err := source.SymbolSource(h, obj)
	require.NoError(t, err)

	assert.Contains(t, body, "func (f *Foo) DoSomething() string")
	assert.Empty(t, doc)
}

func TestFileContent_LineRange(t *testing.T) {
	text, err := source.FileContent("../../testdata/sample/foo.go", 8, 10)
	require.NoError(t, err)

	assert.Contains(t, text, "8: type Foo struct {")
	assert.Contains(t, text, "9: \tID int")
	assert.Contains(t, text, "10: }")
	assert.NotContains(t, text, "11:")
}

func TestFileContent_MissingFile(t *testing.T) {
	_, err := source.FileContent("../../testdata/sample/nonexistent.go", 0, 0)
	require.Error(t, err)
	assert.Equal(t, codeerr.NotFound, codeerr.KindOf(err))
}
