package smells

import (
	"fmt"
	"go/types"

	"golang.org/x/tools/go/packages"

	"gocode-navigator/internal/model"
	"gocode-navigator/internal/workspace"
)

// bodySmells runs every check derived from analyzeMethodBody across
// named's methods: long method, deep nesting, complex method, and (via
// isSingleDelegation) middle-man.
func bodySmells(h *workspace.SolutionHandle, pkg *packages.Package, named *types.Named) []model.SmellResult {
	var out []model.SmellResult

	methodCount := 0
	delegatingCount := 0

	for i := 0; i < named.NumMethods(); i++ {
		m := named.Method(i)

		fd := funcDeclOf(pkg, m)
		if fd == nil {
			continue
		}

		metrics := analyzeMethodBody(pkg.Fset, fd)

		methodCount++
		if metrics.IsSingleDelegation {
			delegatingCount++
		}

		label := named.Obj().Name() + "." + m.Name()
		file, line := location(h, pkg, m)

		switch {
		case metrics.LineCount > 100:
			out = append(out, smell("Long method", model.SeverityCritical, label,
				fmt.Sprintf("%d lines (> 100)", metrics.LineCount), file, line))
		case metrics.LineCount > 50:
			out = append(out, smell("Long method", model.SeverityWarning, label,
				fmt.Sprintf("%d lines (> 50)", metrics.LineCount), file, line))
		}

		switch {
		case metrics.MaxNestingDepth > 5:
			out = append(out, smell("Deep nesting", model.SeverityCritical, label,
				fmt.Sprintf("nesting depth %d (> 5)", metrics.MaxNestingDepth), file, line))
		case metrics.MaxNestingDepth > 3:
			out = append(out, smell("Deep nesting", model.SeverityWarning, label,
				fmt.Sprintf("nesting depth %d (> 3)", metrics.MaxNestingDepth), file, line))
		}

		switch {
		case metrics.CyclomaticComplexity > 20:
			out = append(out, smell("Complex method", model.SeverityCritical, label,
				fmt.Sprintf("cyclomatic complexity %d (> 20)", metrics.CyclomaticComplexity), file, line))
		case metrics.CyclomaticComplexity > 10:
			out = append(out, smell("Complex method", model.SeverityWarning, label,
				fmt.Sprintf("cyclomatic complexity %d (> 10)", metrics.CyclomaticComplexity), file, line))
		}
	}

	if methodCount >= 3 {
		ratio := float64(delegatingCount) / float64(methodCount)
		if ratio > 0.8 {
			file, line := location(h, pkg, named.Obj())
			out = append(out, smell("Middle-man", model.SeverityWarning, named.Obj().Name(),
				fmt.Sprintf("%d/%d methods are single delegations (%.0f%%, > 80%%)", delegatingCount, methodCount, ratio*100),
				file, line))
		}
	}

	return out
}
