// Package resolve maps textual names to semantic entities across the
// whole workspace, with 0/1/N match semantics shared by type, symbol, and
// method resolution.
package resolve

import (
	"go/ast"
	"go/token"
	"go/types"
	"strings"

	"golang.org/x/tools/go/packages"

	"gocode-navigator/internal/codeerr"
	"gocode-navigator/internal/workspace"
)

// Candidate is one match surfaced in an Ambiguous error message.
type Candidate struct {
	DisplayName string
	File        string
}

// ResolveType enumerates every named type in every package of the
// solution (recursive nested-type traversal has no Go analogue beyond
// package scope, since Go has no namespace nesting) and matches on short
// name or fully qualified form, deduplicating identical entities reached
// through more than one package path.
func ResolveType(h *workspace.SolutionHandle, name string) (*types.TypeName, error) {
	matches := map[types.Object]bool{}

	var firstMatch *types.TypeName

	var candidates []Candidate

	for _, pkg := range h.Packages {
		if pkg.Types == nil {
			continue
		}

		scope := pkg.Types.Scope()

		for _, n := range scope.Names() {
			obj := scope.Lookup(n)

			tn, ok := obj.(*types.TypeName)
			if !ok {
				continue
			}

			if !matchesName(tn, pkg, name) {
				continue
			}

			if matches[tn] {
				continue
			}

			matches[tn] = true
			if firstMatch == nil {
				firstMatch = tn
			}

			candidates = append(candidates, Candidate{
				DisplayName: pkg.PkgPath + "." + tn.Name(),
				File:        position(pkg, tn).Filename,
			})
		}
	}

	switch len(candidates) {
	case 0:
		return nil, codeerr.Newf(codeerr.NotFound, "no type named %q", name)
	case 1:
		return firstMatch, nil
	default:
		return nil, ambiguous(name, candidates)
	}
}

func matchesName(tn *types.TypeName, pkg *packages.Package, name string) bool {
	if tn.Name() == name {
		return true
	}

	return pkg.PkgPath+"."+tn.Name() == name
}

// ResolveSymbol resolves name to a single semantic entity. When
// containingType is non-empty, the type is resolved first and its first
// matching member is returned; otherwise every compilation's package
// scope is scanned.
func ResolveSymbol(h *workspace.SolutionHandle, name, containingType string) (types.Object, error) {
	if containingType != "" {
		tn, err := ResolveType(h, containingType)
		if err != nil {
			return nil, err
		}

		obj, _, _ := types.LookupFieldOrMethod(tn.Type(), true, tn.Pkg(), name)
		if obj == nil {
			return nil, codeerr.Newf(codeerr.NotFound, "no member %q on %q", name, containingType)
		}

		return obj, nil
	}

	var candidates []Candidate

	var found types.Object

	seen := map[types.Object]bool{}

	record := func(pkg *packages.Package, obj types.Object) {
		if obj == nil || seen[obj] {
			return
		}

		seen[obj] = true
		if found == nil {
			found = obj
		}

		candidates = append(candidates, Candidate{
			DisplayName: pkg.PkgPath + "." + obj.Name(),
			File:        position(pkg, obj).Filename,
		})
	}

	for _, pkg := range h.Packages {
		if pkg.Types == nil {
			continue
		}

		scope := pkg.Types.Scope()
		for _, n := range scope.Names() {
			if n == name {
				record(pkg, scope.Lookup(n))
			}
		}

		// Package scope only ever holds package-level declarations: methods
		// and struct fields never appear there, so they need their own walk
		// of the syntax trees, keyed on the type-checker's Defs map.
		if pkg.TypesInfo == nil {
			continue
		}

		for _, file := range pkg.Syntax {
			for _, decl := range file.Decls {
				switch d := decl.(type) {
				case *ast.FuncDecl:
					if d.Recv == nil || d.Name.Name != name {
						continue
					}

					record(pkg, pkg.TypesInfo.Defs[d.Name])
				case *ast.GenDecl:
					for _, spec := range d.Specs {
						ts, ok := spec.(*ast.TypeSpec)
						if !ok {
							continue
						}

						st, ok := ts.Type.(*ast.StructType)
						if !ok {
							continue
						}

						for _, field := range st.Fields.List {
							for _, fname := range field.Names {
								if fname.Name == name {
									record(pkg, pkg.TypesInfo.Defs[fname])
								}
							}
						}
					}
				}
			}
		}
	}

	switch len(candidates) {
	case 0:
		return nil, codeerr.Newf(codeerr.NotFound, "no symbol named %q", name)
	case 1:
		return found, nil
	default:
		return nil, ambiguous(name, candidates)
	}
}

// ResolveMethod is ResolveSymbol filtered to method-kind symbols. Go has
// no method overloading, so "multiple overloads" corresponds to the same
// method name resolving on more than one candidate when containingType is
// omitted; rather than failing Ambiguous, the first match is returned and
// a warning is the caller's responsibility to emit (callers pass the
// returned Warn bool through to the side channel).
func ResolveMethod(h *workspace.SolutionHandle, name, containingType string) (*types.Func, bool, error) {
	if containingType != "" {
		obj, err := ResolveSymbol(h, name, containingType)
		if err != nil {
			return nil, false, err
		}

		fn, ok := obj.(*types.Func)
		if !ok {
			return nil, false, codeerr.Newf(codeerr.InvalidInput, "%q is not a method", name)
		}

		return fn, false, nil
	}

	var matches []*types.Func

	seen := map[types.Object]bool{}

	for _, pkg := range h.Packages {
		if pkg.TypesInfo == nil {
			continue
		}

		for _, file := range pkg.Syntax {
			for _, decl := range file.Decls {
				fd, ok := decl.(*ast.FuncDecl)
				if !ok || fd.Recv == nil || fd.Name.Name != name {
					continue
				}

				obj, ok := pkg.TypesInfo.Defs[fd.Name]
				if !ok || obj == nil {
					continue
				}

				fn, ok := obj.(*types.Func)
				if !ok || seen[fn] {
					continue
				}

				seen[fn] = true
				matches = append(matches, fn)
			}
		}
	}

	switch len(matches) {
	case 0:
		return nil, false, codeerr.Newf(codeerr.NotFound, "no method named %q", name)
	case 1:
		return matches[0], false, nil
	default:
		return matches[0], true, nil
	}
}

// AllNamedTypes yields every named type declared in pkg's package scope.
// A Go package scope is a flat list of declarations with no nesting, so
// this is a single scan rather than a recursive namespace walk.
func AllNamedTypes(pkg *packages.Package) []*types.TypeName {
	if pkg.Types == nil {
		return nil
	}

	scope := pkg.Types.Scope()

	var out []*types.TypeName

	for _, n := range scope.Names() {
		if tn, ok := scope.Lookup(n).(*types.TypeName); ok {
			out = append(out, tn)
		}
	}

	return out
}

func position(pkg *packages.Package, obj types.Object) token.Position {
	if pkg.Fset == nil {
		return token.Position{}
	}

	return pkg.Fset.Position(obj.Pos())
}

func ambiguous(name string, candidates []Candidate) error {
	var b strings.Builder

	b.WriteString("multiple matches for " + name + ": ")

	for i, c := range candidates {
		if i > 0 {
			b.WriteString(", ")
		}

		b.WriteString(c.DisplayName + " (" + c.File + ")")
	}

	return codeerr.New(codeerr.Ambiguous, b.String())
}
