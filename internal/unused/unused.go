// Package unused implements findUnusedCode, the dead-code analyzer named
// in spec section 6.1's Analysis group. It reports only; it never edits.
//
// Per the Open Question decision recorded in DESIGN.md, every exported
// (capitalized) identifier is excluded from candidacy outright: Go has no
// "public API root" list to consult, so the conservative default from the
// original spec (exclude all public types) is applied verbatim to every
// unexported/exported boundary.
package unused

import (
	"go/ast"
	"go/types"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	"gocode-navigator/internal/model"
	"gocode-navigator/internal/workspace"
)

// Scope selects which declaration kinds are candidates.
const (
	ScopeAll       = "all"
	ScopeTypes     = "types"
	ScopeFuncs     = "funcs"
	ScopeVars      = "vars"
	ScopeConsts    = "consts"
)

// FindUnusedCode reports package-level declarations that are never
// referenced anywhere in the solution. Exported identifiers are never
// candidates: a consumer outside the loaded package graph may depend on
// them, and this tool has no reliable way to observe that.
func FindUnusedCode(h *workspace.SolutionHandle, scope, projectName string) []model.UnusedResult {
	var out []model.UnusedResult

	for _, pkg := range h.Packages {
		if pkg.Types == nil || pkg.TypesInfo == nil {
			continue
		}

		if projectName != "" && pkg.PkgPath != projectName && pkg.Name != projectName {
			continue
		}

		used := usedObjects(pkg)

		for _, file := range pkg.Syntax {
			out = append(out, candidatesInFile(pkg, file, scope, used)...)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].RelativeFile != out[j].RelativeFile {
			return out[i].RelativeFile < out[j].RelativeFile
		}

		return out[i].Line < out[j].Line
	})

	return out
}

func usedObjects(pkg *packages.Package) map[types.Object]bool {
	used := make(map[types.Object]bool, len(pkg.TypesInfo.Uses))
	for _, obj := range pkg.TypesInfo.Uses {
		used[obj] = true
	}

	return used
}

func candidatesInFile(pkg *packages.Package, file *ast.File, scope string, used map[types.Object]bool) []model.UnusedResult {
	var out []model.UnusedResult

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if !scopeAllows(scope, ScopeFuncs) || d.Recv != nil {
				continue
			}

			if obj := candidateObject(pkg, d.Name, used); obj != nil {
				out = append(out, unusedResult(pkg, obj, "func"))
			}
		case *ast.GenDecl:
			out = append(out, candidatesInGenDecl(pkg, d, scope, used)...)
		}
	}

	return out
}

func candidatesInGenDecl(pkg *packages.Package, d *ast.GenDecl, scope string, used map[types.Object]bool) []model.UnusedResult {
	var out []model.UnusedResult

	for _, spec := range d.Specs {
		switch s := spec.(type) {
		case *ast.TypeSpec:
			if !scopeAllows(scope, ScopeTypes) {
				continue
			}

			if obj := candidateObject(pkg, s.Name, used); obj != nil {
				out = append(out, unusedResult(pkg, obj, "type"))
			}
		case *ast.ValueSpec:
			wantScope := ScopeVars
			if d.Tok.String() == "const" {
				wantScope = ScopeConsts
			}

			if !scopeAllows(scope, wantScope) {
				continue
			}

			kind := "var"
			if wantScope == ScopeConsts {
				kind = "const"
			}

			for _, name := range s.Names {
				if obj := candidateObject(pkg, name, used); obj != nil {
					out = append(out, unusedResult(pkg, obj, kind))
				}
			}
		}
	}

	return out
}

func scopeAllows(scope, want string) bool {
	return scope == "" || scope == ScopeAll || scope == want
}

// candidateObject returns obj's definition if it is unexported, has an
// in-source declaration, and is never referenced elsewhere; nil otherwise.
func candidateObject(pkg *packages.Package, name *ast.Ident, used map[types.Object]bool) types.Object {
	if name.Name == "_" || ast.IsExported(name.Name) {
		return nil
	}

	obj := pkg.TypesInfo.Defs[name]
	if obj == nil {
		return nil
	}

	if used[obj] {
		return nil
	}

	return obj
}

func unusedResult(pkg *packages.Package, obj types.Object, kind string) model.UnusedResult {
	posn := pkg.Fset.Position(obj.Pos())

	return model.UnusedResult{
		Name:         obj.Name(),
		Kind:         kind,
		RelativeFile: posn.Filename,
		Line:         posn.Line,
		Package:      strings.TrimSuffix(pkg.PkgPath, "_test"),
	}
}
