package refactor

import (
	"context"
	"go/ast"
	"go/format"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/tools/go/packages"

	"gocode-navigator/internal/codeerr"
	"gocode-navigator/internal/pathutil"
	"gocode-navigator/internal/workspace"
)

// renamable restricts rename targets to named types, functions/methods,
// variables and fields (types.Var covers both), and constants.
func renamable(obj types.Object) bool {
	switch obj.(type) {
	case *types.TypeName, *types.Func, *types.Var, *types.Const:
		return true
	default:
		return false
	}
}

// RenameOptions configures Rename.
type RenameOptions struct {
	RenameInComments bool // also rewrite textual occurrences in comments/doc-comments
	DryRun           bool
}

// FileChange is one file touched by a refactor, with the rename flag set
// when the file itself was also moved on disk.
type FileChange struct {
	Path    string
	Renamed bool
	OldPath string
	Diff    string
}

// RenameResult is the summary returned to the caller.
type RenameResult struct {
	Changes []FileChange
}

// Rename validates newName, locates every reference to sym across the
// workspace, rewrites the identifiers, renames a type's declaring file when
// its base name (modulo extension) equals the old identifier, and publishes
// the result through mgr under a single exclusive grant: writing the
// rewritten files, moving the renamed file, and evicting the cached handle
// all happen inside one Apply call.
func Rename(ctx context.Context, mgr *workspace.Manager, solutionPath string, h *workspace.SolutionHandle, sym types.Object, opts RenameOptions, newName string) (RenameResult, error) {
	if err := ValidateIdentifier(newName); err != nil {
		return RenameResult{}, err
	}

	if !renamable(sym) {
		return RenameResult{}, codeerr.New(codeerr.InvalidInput, "symbol kind cannot be renamed")
	}

	oldName := sym.Name()
	if oldName == newName {
		return RenameResult{}, nil
	}

	fileRewrites := map[string][]edit{}

	for _, pkg := range h.Packages {
		if pkg.TypesInfo == nil {
			continue
		}

		for _, file := range pkg.Syntax {
			filename := pkg.Fset.Position(file.Pos()).Filename

			var edits []edit

			ast.Inspect(file, func(n ast.Node) bool {
				ident, ok := n.(*ast.Ident)
				if !ok || ident.Name != oldName {
					return true
				}

				obj := identObject(pkg, ident)
				if obj == nil || !sameObject(obj, sym) {
					return true
				}

				edits = append(edits, edit{
					start: offsetOf(pkg.Fset, ident.Pos()),
					end:   offsetOf(pkg.Fset, ident.End()),
					text:  newName,
				})

				return true
			})

			if opts.RenameInComments {
				edits = append(edits, commentEdits(pkg, file, oldName, newName)...)
			}

			if len(edits) > 0 {
				fileRewrites[filename] = append(fileRewrites[filename], edits...)
			}
		}
	}

	if len(fileRewrites) == 0 {
		return RenameResult{}, codeerr.Newf(codeerr.NotFound, "no references to %q found", oldName)
	}

	renameFile := ""
	renameTo := ""

	if _, ok := sym.(*types.TypeName); ok {
		renameFile, renameTo = filePathForTypeRename(h, sym, oldName, newName)
	}

	var result RenameResult

	var filenames []string
	for f := range fileRewrites {
		filenames = append(filenames, f)
	}

	sort.Strings(filenames)

	pending := map[string][]byte{}

	for _, filename := range filenames {
		orig, err := fileText(filename)
		if err != nil {
			return RenameResult{}, err
		}

		updated := applyEdits(orig, fileRewrites[filename])

		formatted := formatGo(updated)

		rel := pathutil.Relative(h.Path, filename)

		change := FileChange{Path: rel}
		if filename == renameFile {
			change.Renamed = true
			change.OldPath = rel
			change.Path = pathutil.Relative(h.Path, renameTo)
		}

		if opts.DryRun {
			change.Diff = unifiedDiff(orig, formatted, rel)
			result.Changes = append(result.Changes, change)

			continue
		}

		pending[filename] = formatted
		result.Changes = append(result.Changes, change)
	}

	if opts.DryRun {
		return result, nil
	}

	postAction := func() error {
		for _, filename := range filenames {
			if err := os.WriteFile(filename, pending[filename], 0o644); err != nil {
				return err
			}
		}

		if renameFile == "" {
			return nil
		}

		if _, err := os.Stat(renameFile); err != nil {
			return nil
		}

		return os.Rename(renameFile, renameTo)
	}

	if err := mgr.Apply(ctx, solutionPath, postAction); err != nil {
		return RenameResult{}, err
	}

	return result, nil
}

func identObject(pkg *packages.Package, ident *ast.Ident) types.Object {
	if obj, ok := pkg.TypesInfo.Defs[ident]; ok && obj != nil {
		return obj
	}

	if obj, ok := pkg.TypesInfo.Uses[ident]; ok && obj != nil {
		return obj
	}

	return nil
}

func sameObject(a, b types.Object) bool {
	if a == nil || b == nil {
		return false
	}

	if a == b {
		return true
	}

	return a.Pkg() == b.Pkg() && a.Pos() == b.Pos() && a.Name() == b.Name()
}

// commentEdits rewrites whole-word occurrences of oldName inside comments
// and doc comments.
func commentEdits(pkg *packages.Package, file *ast.File, oldName, newName string) []edit {
	var edits []edit

	for _, cg := range file.Comments {
		for _, c := range cg.List {
			for _, rng := range wordRanges(c.Text, oldName) {
				edits = append(edits, edit{
					start: offsetOf(pkg.Fset, c.Pos()) + rng[0],
					end:   offsetOf(pkg.Fset, c.Pos()) + rng[1],
					text:  newName,
				})
			}
		}
	}

	return edits
}

// wordRanges finds every whole-word occurrence of word in text, returning
// byte-offset [start,end) pairs relative to text's start.
func wordRanges(text, word string) [][2]int {
	var out [][2]int

	idx := 0

	for {
		pos := strings.Index(text[idx:], word)
		if pos < 0 {
			break
		}

		start := idx + pos
		end := start + len(word)

		before := byte(' ')
		if start > 0 {
			before = text[start-1]
		}

		after := byte(' ')
		if end < len(text) {
			after = text[end]
		}

		if !isIdentByte(before) && !isIdentByte(after) {
			out = append(out, [2]int{start, end})
		}

		idx = end
	}

	return out
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// filePathForTypeRename pre-computes the new file path when the type's
// containing file's base name (case-insensitive, ignoring extension)
// equals the old identifier.
func filePathForTypeRename(h *workspace.SolutionHandle, sym types.Object, oldName, newName string) (oldPath, newPath string) {
	for _, pkg := range h.Packages {
		if pkg.Types != sym.Pkg() {
			continue
		}

		posn := pkg.Fset.Position(sym.Pos())
		if posn.Filename == "" {
			continue
		}

		base := strings.TrimSuffix(filepath.Base(posn.Filename), ".go")
		if !strings.EqualFold(base, oldName) {
			continue
		}

		dir := filepath.Dir(posn.Filename)

		return posn.Filename, filepath.Join(dir, newName+".go")
	}

	return "", ""
}

// formatGo re-formats spliced source text with gofmt rules. If the splice
// left the file syntactically invalid, the unformatted text is kept rather
// than failing the whole operation.
func formatGo(src []byte) []byte {
	out, err := format.Source(src)
	if err != nil {
		return src
	}

	return out
}

func unifiedDiff(a, b []byte, path string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a)),
		B:        difflib.SplitLines(string(b)),
		FromFile: path,
		ToFile:   path,
		Context:  2,
	}

	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}

	return text
}
