// Package smells finds structural and complexity issues in Go source:
// oversized types, long parameter lists, deep nesting, feature envy, and
// related findings, reported as grouped text rather than a machine schema.
package smells

import (
	"go/ast"
	"go/token"

	"gocode-navigator/internal/model"
)

// analyzeMethodBody computes every MethodBodyMetrics field in one
// traversal of fd's body. Add new metrics to this walk rather than
// introducing a second one.
func analyzeMethodBody(fset *token.FileSet, fd *ast.FuncDecl) model.MethodBodyMetrics {
	if fd.Body == nil {
		return model.MethodBodyMetrics{CyclomaticComplexity: 1}
	}

	m := model.MethodBodyMetrics{CyclomaticComplexity: 1}

	m.LineCount = lineCount(fset, fd.Body)
	m.IsSingleDelegation = isSingleDelegation(fd.Body)

	var walk func(n ast.Node, depth int)

	walk = func(n ast.Node, depth int) {
		if n == nil {
			return
		}

		if depth > m.MaxNestingDepth {
			m.MaxNestingDepth = depth
		}

		switch stmt := n.(type) {
		case *ast.IfStmt:
			m.CyclomaticComplexity++
			walk(stmt.Init, depth)
			walk(stmt.Cond, depth)
			walk(stmt.Body, depth+1)
			walk(stmt.Else, depth+1)

			return
		case *ast.ForStmt:
			walk(stmt.Init, depth)
			walk(stmt.Cond, depth)
			walk(stmt.Post, depth)
			walk(stmt.Body, depth+1)

			return
		case *ast.RangeStmt:
			walk(stmt.X, depth)
			walk(stmt.Body, depth+1)

			return
		case *ast.SwitchStmt:
			walk(stmt.Init, depth)
			walk(stmt.Tag, depth)
			walk(stmt.Body, depth+1)

			return
		case *ast.TypeSwitchStmt:
			walk(stmt.Init, depth)
			walk(stmt.Assign, depth)
			walk(stmt.Body, depth+1)

			return
		case *ast.SelectStmt:
			walk(stmt.Body, depth+1)

			return
		case *ast.CaseClause:
			if len(stmt.List) > 0 {
				m.CyclomaticComplexity++
			}

			for _, e := range stmt.List {
				walk(e, depth)
			}

			for _, s := range stmt.Body {
				walk(s, depth)
			}

			return
		case *ast.CommClause:
			m.CyclomaticComplexity++
			walk(stmt.Comm, depth)

			for _, s := range stmt.Body {
				walk(s, depth)
			}

			return
		case *ast.BlockStmt:
			for _, s := range stmt.List {
				walk(s, depth)
			}

			return
		}

		ast.Inspect(n, func(inner ast.Node) bool {
			if inner == n {
				return true
			}

			switch e := inner.(type) {
			case *ast.IfStmt, *ast.ForStmt, *ast.RangeStmt, *ast.SwitchStmt,
				*ast.TypeSwitchStmt, *ast.SelectStmt, *ast.BlockStmt:
				walk(inner, depth)

				return false
			case *ast.BinaryExpr:
				if e.Op == token.LAND || e.Op == token.LOR {
					m.CyclomaticComplexity++
				}
			}

			return true
		})
	}

	walk(fd.Body, 0)

	return m
}

func lineCount(fset *token.FileSet, n ast.Node) int {
	start := fset.Position(n.Pos()).Line
	end := fset.Position(n.End()).Line

	count := end - start + 1
	if count < 1 {
		count = 1
	}

	return count
}

// isSingleDelegation reports whether body is exactly one statement that
// either calls through to another invocation as an expression statement
// or returns one.
func isSingleDelegation(body *ast.BlockStmt) bool {
	if len(body.List) != 1 {
		return false
	}

	switch s := body.List[0].(type) {
	case *ast.ExprStmt:
		_, ok := s.X.(*ast.CallExpr)
		return ok
	case *ast.ReturnStmt:
		if len(s.Results) != 1 {
			return false
		}

		_, ok := s.Results[0].(*ast.CallExpr)

		return ok
	default:
		return false
	}
}
