// Package refactor implements rename, extract-interface,
// implement-interface, and change-signature, each producing syntactic
// edits written back to disk. Rename writes its files inside the workspace
// manager's exclusive Apply step; the other three write their files first
// and then evict the cached solution.
package refactor

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"regexp"
	"sort"

	"gocode-navigator/internal/codeerr"
)

var identifierRe = regexp.MustCompile(`^@?[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateIdentifier checks newName against a permissive identifier
// grammar: one optional leading "@", then a letter or underscore, then
// letters, decimal digits, or underscores.
func ValidateIdentifier(newName string) error {
	if !identifierRe.MatchString(newName) {
		return codeerr.Newf(codeerr.InvalidInput, "%q is not a valid identifier", newName)
	}

	return nil
}

// edit is a single byte-range replacement within one file, applied in
// descending start-offset order so earlier edits never invalidate the
// offsets of later ones.
type edit struct {
	start, end int
	text       string
}

func applyEdits(src []byte, edits []edit) []byte {
	sort.Slice(edits, func(i, j int) bool { return edits[i].start > edits[j].start })

	out := append([]byte{}, src...)

	for _, e := range edits {
		out = append(out[:e.start], append([]byte(e.text), out[e.end:]...)...)
	}

	return out
}

// fileText reads a file's current bytes, used both for producing a dry-run
// diff and as the base for text splicing.
func fileText(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, codeerr.Wrap(codeerr.NotFound, "cannot read "+path, err)
	}

	return data, nil
}

// parseFile re-parses src with a fresh FileSet, used to get fresh offsets
// after a prior splice to the same text.
func parseFile(path string, src []byte) (*token.FileSet, *ast.File, error) {
	fset := token.NewFileSet()

	file, err := parser.ParseFile(fset, path, src, parser.ParseComments)
	if err != nil {
		return nil, nil, err
	}

	return fset, file, nil
}

func offsetOf(fset *token.FileSet, pos token.Pos) int {
	f := fset.File(pos)
	if f == nil {
		return -1
	}

	return f.Offset(pos)
}
