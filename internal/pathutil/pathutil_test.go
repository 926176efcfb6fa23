package pathutil_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocode-navigator/internal/pathutil"
)

func TestNormalize(t *testing.T) {
	got, err := pathutil.Normalize("./testdata/../pathutil_test.go")
	require.NoError(t, err)

	want, err := filepath.Abs("pathutil_test.go")
	require.NoError(t, err)

	assert.Equal(t, filepath.Clean(want), filepath.Clean(got))
}

func TestRelative(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		target string
		want   string
	}{
		{
			name:   "target under base becomes relative",
			base:   filepath.FromSlash("/solution"),
			target: filepath.FromSlash("/solution/internal/query/query.go"),
			want:   filepath.FromSlash("internal/query/query.go"),
		},
		{
			name:   "target outside base is returned unchanged",
			base:   filepath.FromSlash("/solution"),
			target: filepath.FromSlash("/elsewhere/query.go"),
			want:   filepath.FromSlash("/elsewhere/query.go"),
		},
		{
			name:   "target equal to base becomes a dot",
			base:   filepath.FromSlash("/solution"),
			target: filepath.FromSlash("/solution"),
			want:   ".",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pathutil.Relative(tt.base, tt.target))
		})
	}
}

func TestSameFile(t *testing.T) {
	assert.True(t, pathutil.SameFile("a/b/c.go", "a/b/./c.go"))
	assert.False(t, pathutil.SameFile("a/b/c.go", "a/b/d.go"))
}
