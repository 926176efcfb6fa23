package smells

import (
	"fmt"
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/packages"

	"gocode-navigator/internal/model"
	"gocode-navigator/internal/pathutil"
	"gocode-navigator/internal/workspace"
)

// featureEnvy is the optional deep check: for each method of named, group
// every selector expression rooted at an identifier whose type is a
// different named type, and flag a method that touches one other type more
// than it touches its own receiver.
func featureEnvy(h *workspace.SolutionHandle, pkg *packages.Package, named *types.Named) []model.SmellResult {
	var out []model.SmellResult

	for i := 0; i < named.NumMethods(); i++ {
		m := named.Method(i)

		fd := funcDeclOf(pkg, m)
		if fd == nil || fd.Body == nil || fd.Recv == nil {
			continue
		}

		recvName := ""
		if len(fd.Recv.List) == 1 && len(fd.Recv.List[0].Names) == 1 {
			recvName = fd.Recv.List[0].Names[0].Name
		}

		counts := map[types.Object]int{}
		selfCount := 0

		ast.Inspect(fd.Body, func(n ast.Node) bool {
			sel, ok := n.(*ast.SelectorExpr)
			if !ok {
				return true
			}

			ident, ok := sel.X.(*ast.Ident)
			if !ok {
				return true
			}

			if ident.Name == recvName {
				selfCount++

				return true
			}

			obj := pkg.TypesInfo.ObjectOf(ident)
			if obj == nil {
				return true
			}

			t := obj.Type()
			if ptr, ok := t.(*types.Pointer); ok {
				t = ptr.Elem()
			}

			otherNamed, ok := t.(*types.Named)
			if !ok || otherNamed == named {
				return true
			}

			counts[otherNamed.Obj()]++

			return true
		})

		posn := pkg.Fset.Position(fd.Pos())
		file := pathutil.Relative(h.Path, posn.Filename)

		for obj, count := range counts {
			if count > selfCount && count >= 3 {
				out = append(out, smell("Feature envy", model.SeverityInfo,
					named.Obj().Name()+"."+m.Name(),
					fmt.Sprintf("accesses %s %d times vs. its own receiver %d times", obj.Name(), count, selfCount),
					file, posn.Line))
			}
		}
	}

	return out
}

// funcDeclOf finds fn's declaration among pkg's syntax trees by matching
// the *ast.Ident position recorded as the function name.
func funcDeclOf(pkg *packages.Package, fn *types.Func) *ast.FuncDecl {
	for _, file := range pkg.Syntax {
		var result *ast.FuncDecl

		ast.Inspect(file, func(n ast.Node) bool {
			fd, ok := n.(*ast.FuncDecl)
			if !ok || fd.Name.Pos() != fn.Pos() {
				return result == nil
			}

			result = fd

			return false
		})

		if result != nil {
			return result
		}
	}

	return nil
}
