package unused_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocode-navigator/internal/unused"
	"gocode-navigator/internal/workspace"
)

func acquireSample(t *testing.T) *workspace.SolutionHandle {
	t.Helper()

	mgr := workspace.New()
	t.Cleanup(mgr.Close)

	h, err := mgr.Acquire(context.Background(), "../../testdata/sample")
	require.NoError(t, err)

	return h
}

func TestFindUnusedCode_ExcludesExported(t *testing.T) {
	h := acquireSample(t)

	results := unused.FindUnusedCode(h, unused.ScopeAll, "")

	names := make(map[string]string, len(results))
	for _, r := range results {
		names[r.Name] = r.Kind
	}

	assert.Equal(t, "var", names["deadVar"])
	assert.Equal(t, "const", names["deadConst"])
	assert.Equal(t, "type", names["deadType"])
	assert.Equal(t, "func", names["deadFunc"])

	assert.NotContains(t, names, "Foo")
	assert.NotContains(t, names, "DoSomething")
	assert.NotContains(t, names, "Storage")
}

func TestFindUnusedCode_ScopeFilter(t *testing.T) {
	h := acquireSample(t)

	results := unused.FindUnusedCode(h, unused.ScopeFuncs, "")

	for _, r := range results {
		assert.Equal(t, "func", r.Kind)
	}

	found := false

	for _, r := range results {
		if r.Name == "deadFunc" {
			found = true
		}
	}

	assert.True(t, found, "expected deadFunc among func-scoped results")
}
