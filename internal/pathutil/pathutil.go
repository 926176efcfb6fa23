// Package pathutil normalizes filesystem paths and computes display paths
// relative to a solution root.
package pathutil

import (
	"path/filepath"
	"runtime"
	"strings"
)

// Normalize returns the absolute, cleaned form of path. On case-insensitive
// filesystems (Windows, by convention also honored here for darwin) the
// result is lower-cased so two differently-cased spellings of the same path
// collide in map keys the way the workspace cache requires.
func Normalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	abs = filepath.Clean(abs)

	if caseInsensitiveFS() {
		abs = strings.ToLower(abs)
	}

	return abs, nil
}

func caseInsensitiveFS() bool {
	return runtime.GOOS == "windows" || runtime.GOOS == "darwin"
}

// Relative renders target relative to base when target lies under base
// ("." when the two are the same path); otherwise it returns target
// unchanged. On case-insensitive filesystems (see Normalize) the prefix
// comparison ignores case. The result always uses host path separators.
func Relative(base, target string) string {
	cmpBase := base

	if caseInsensitiveFS() {
		cb, ct := filepath.Clean(base), filepath.Clean(target)
		if len(ct) >= len(cb) && strings.EqualFold(ct[:len(cb)], cb) {
			cmpBase = ct[:len(cb)]
		}
	}

	rel, err := filepath.Rel(cmpBase, target)
	if err != nil {
		return target
	}

	if strings.HasPrefix(rel, "..") {
		return target
	}

	return rel
}

// SameFile reports whether two paths name the same file, honoring the
// filesystem's case sensitivity.
func SameFile(a, b string) bool {
	if caseInsensitiveFS() {
		return strings.EqualFold(filepath.Clean(a), filepath.Clean(b))
	}

	return filepath.Clean(a) == filepath.Clean(b)
}
