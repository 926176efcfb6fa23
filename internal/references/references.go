// Package references produces reference, caller, and usage results by
// walking the type-checked syntax trees go/packages and go/types already
// built.
package references

import (
	"go/ast"
	"go/token"
	"go/types"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/tools/go/packages"

	"gocode-navigator/internal/codeerr"
	"gocode-navigator/internal/model"
	"gocode-navigator/internal/workspace"
)

const (
	ModeAll     = "all"
	ModeCallers = "callers"
	ModeUsages  = "usages"
)

// Options configures FindReferences.
type Options struct {
	Mode         string
	Detail       string // "full" or "compact"
	ProjectScope string
}

// FindReferences walks every loaded package's type-checked syntax against
// an already-resolved symbol.
func FindReferences(h *workspace.SolutionHandle, sym types.Object, opts Options) ([]model.ReferenceResult, error) {
	switch opts.Mode {
	case ModeAll, ModeCallers, ModeUsages:
	default:
		return nil, codeerr.Newf(codeerr.InvalidInput, "unknown reference mode %q", opts.Mode)
	}

	if opts.Mode == ModeCallers {
		if _, ok := sym.(*types.Func); !ok {
			return nil, codeerr.New(codeerr.InvalidInput, "callers mode requires a method or function symbol")
		}
	}

	var results []model.ReferenceResult

	for _, pkg := range h.Packages {
		if pkg.TypesInfo == nil {
			continue
		}

		if opts.ProjectScope != "" && pkg.PkgPath != opts.ProjectScope && pkg.Name != opts.ProjectScope {
			continue
		}

		for ident, obj := range pkg.TypesInfo.Uses {
			if !sameObject(obj, sym) {
				continue
			}

			if opts.Mode == ModeCallers && !isCallPosition(pkg, ident) {
				continue
			}

			results = append(results, buildResult(pkg, ident, opts.Detail))
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].RelativeFile != results[j].RelativeFile {
			return results[i].RelativeFile < results[j].RelativeFile
		}

		return results[i].Line < results[j].Line
	})

	return results, nil
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

// isCallPosition reports whether ident names the callee of a call
// expression containing it anywhere in pkg's syntax trees.
func isCallPosition(pkg *packages.Package, ident *ast.Ident) bool {
	found := false

	for _, file := range pkg.Syntax {
		ast.Inspect(file, func(n ast.Node) bool {
			if found {
				return false
			}

			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}

			switch fun := call.Fun.(type) {
			case *ast.Ident:
				if fun == ident {
					found = true
				}
			case *ast.SelectorExpr:
				if fun.Sel == ident {
					found = true
				}
			}

			return true
		})

		if found {
			break
		}
	}

	return found
}

func buildResult(pkg *packages.Package, ident *ast.Ident, detail string) model.ReferenceResult {
	posn := pkg.Fset.Position(ident.Pos())
	lines := fileLines(posn.Filename)

	r := model.ReferenceResult{
		RelativeFile: posn.Filename,
		Line:         posn.Line,
		Column:       posn.Column,
		CodeSnippet:  snippet(lines, posn.Line),
	}

	if detail == "full" {
		r.ContextBefore = contextLines(lines, posn.Line, -2)
		r.ContextAfter = contextLines(lines, posn.Line, 2)
		r.ContainingSymbol = enclosingSymbol(pkg, posn)
	}

	return r
}

func enclosingSymbol(pkg *packages.Package, posn token.Position) string {
	var best string

	var bestLen = -1

	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			fd, ok := decl.(*ast.FuncDecl)
			if !ok {
				continue
			}

			start := pkg.Fset.Position(fd.Pos())
			end := pkg.Fset.Position(fd.End())

			if posn.Line < start.Line || posn.Line > end.Line {
				continue
			}

			length := end.Line - start.Line
			if bestLen == -1 || length < bestLen {
				bestLen = length
				best = funcSignature(fd)
			}
		}
	}

	return best
}

func funcSignature(fd *ast.FuncDecl) string {
	name := fd.Name.Name
	if fd.Recv != nil && len(fd.Recv.List) > 0 {
		if recv, ok := fd.Recv.List[0].Type.(*ast.StarExpr); ok {
			if id, ok := recv.X.(*ast.Ident); ok {
				return "(*" + id.Name + ")." + name
			}
		}

		if id, ok := fd.Recv.List[0].Type.(*ast.Ident); ok {
			return id.Name + "." + name
		}
	}

	return name
}

func snippet(lines []string, line int) string {
	if line-1 < 0 || line-1 >= len(lines) {
		return ""
	}

	return strings.TrimSpace(lines[line-1])
}

func contextLines(lines []string, line, dir int) []string {
	var out []string

	if dir < 0 {
		for l := line - 1; l >= line+dir && l >= 1; l-- {
			out = append([]string{strings.TrimSpace(lines[l-1])}, out...)
		}
	} else {
		for l := line + 1; l <= line+dir && l <= len(lines); l++ {
			out = append(out, strings.TrimSpace(lines[l-1]))
		}
	}

	return out
}

type linesCacheEntry struct {
	lines   []string
	modTime time.Time
}

var (
	fileLinesMu    sync.Mutex
	fileLinesCache = map[string]linesCacheEntry{}
)

// fileLines returns path split into lines, cached by modification time so
// repeated queries against an unchanged file skip the read.
func fileLines(path string) []string {
	st, statErr := os.Stat(path)

	fileLinesMu.Lock()
	defer fileLinesMu.Unlock()

	if entry, ok := fileLinesCache[path]; ok && statErr == nil && entry.modTime.Equal(st.ModTime()) {
		return entry.lines
	}

	data, err := os.ReadFile(path)

	var lines []string
	if err == nil {
		lines = strings.Split(string(data), "\n")
	}

	var modTime time.Time
	if statErr == nil {
		modTime = st.ModTime()
	}

	fileLinesCache[path] = linesCacheEntry{lines: lines, modTime: modTime}

	return lines
}
