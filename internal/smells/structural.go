package smells

import (
	"fmt"
	"go/types"

	"golang.org/x/tools/go/packages"

	"gocode-navigator/internal/model"
	"gocode-navigator/internal/pathutil"
	"gocode-navigator/internal/resolve"
	"gocode-navigator/internal/workspace"
)

// Category selects which family of checks FindCodeSmells runs.
const (
	CategoryAll         = "all"
	CategoryComplexity  = "complexity"
	CategoryDesign      = "design"
	CategoryInheritance = "inheritance"
)

// Options configures FindCodeSmells.
type Options struct {
	Category    string
	ProjectName string
	Deep        bool
}

// FindCodeSmells runs every enabled check and returns every finding,
// unsorted. Callers format with internal/format, which groups findings
// by severity then smell name.
func FindCodeSmells(h *workspace.SolutionHandle, opts Options) []model.SmellResult {
	var out []model.SmellResult

	for _, pkg := range h.Packages {
		if opts.ProjectName != "" && pkg.PkgPath != opts.ProjectName && pkg.Name != opts.ProjectName {
			continue
		}

		for _, tn := range resolve.AllNamedTypes(pkg) {
			if excludedType(tn) {
				continue
			}

			named, ok := tn.Type().(*types.Named)
			if !ok {
				continue
			}

			if opts.Category == CategoryAll || opts.Category == CategoryComplexity {
				out = append(out, bodySmells(h, pkg, named)...)
			}

			if opts.Category == CategoryAll || opts.Category == CategoryDesign {
				out = append(out, designSmells(h, pkg, named)...)
			}

			if opts.Category == CategoryAll || opts.Category == CategoryInheritance {
				out = append(out, inheritanceSmells(h, pkg, named)...)
			}

			if opts.Deep {
				out = append(out, featureEnvy(h, pkg, named)...)
			}
		}
	}

	return out
}

// excludedType is the shared type filter for every structural check: skip
// interfaces (they declare no implementation to measure) and skip types
// with no in-source declaration (builtins, synthesized types).
func excludedType(tn *types.TypeName) bool {
	if !tn.Exported() && tn.Name() == "_" {
		return true
	}

	if tn.Pos() == 0 {
		return true
	}

	if _, isIface := tn.Type().Underlying().(*types.Interface); isIface {
		return true
	}

	return false
}

// location resolves a types.Object's position to a solution-relative
// file path and 1-based line.
func location(h *workspace.SolutionHandle, pkg *packages.Package, obj types.Object) (string, int) {
	posn := pkg.Fset.Position(obj.Pos())
	if posn.Filename == "" {
		return "", 0
	}

	return pathutil.Relative(h.Path, posn.Filename), posn.Line
}

// designSmells runs the structural checks that only need a type's member
// shape: large class, god class, data class, too many dependencies, long
// parameter list, speculative generality.
func designSmells(h *workspace.SolutionHandle, pkg *packages.Package, named *types.Named) []model.SmellResult {
	var out []model.SmellResult

	file, line := location(h, pkg, named.Obj())
	name := named.Obj().Name()

	memberCount, nonPrimitiveTypes := memberStats(named)

	switch {
	case memberCount > 40:
		out = append(out, smell("Large class", model.SeverityCritical, name, fmt.Sprintf("%d members (> 40)", memberCount), file, line))
	case memberCount > 20:
		out = append(out, smell("Large class", model.SeverityWarning, name, fmt.Sprintf("%d members (> 20)", memberCount), file, line))
	}

	if memberCount > 20 && nonPrimitiveTypes >= 5 {
		out = append(out, smell("God class", model.SeverityWarning, name,
			fmt.Sprintf("%d members, %d distinct non-primitive field types", memberCount, nonPrimitiveTypes), file, line))
	}

	ordinaryMethods, properties := methodAndFieldCounts(named)
	if ordinaryMethods == 0 && properties >= 2 {
		out = append(out, smell("Data class", model.SeverityInfo, name,
			fmt.Sprintf("0 methods, %d properties", properties), file, line))
	}

	maxCtorParams := maxConstructorParams(pkg.Types, named)

	switch {
	case maxCtorParams > 8:
		out = append(out, smell("Too many dependencies", model.SeverityCritical, name,
			fmt.Sprintf("constructor takes %d parameters (> 8)", maxCtorParams), file, line))
	case maxCtorParams > 5:
		out = append(out, smell("Too many dependencies", model.SeverityWarning, name,
			fmt.Sprintf("constructor takes %d parameters (> 5)", maxCtorParams), file, line))
	}

	out = append(out, longParameterLists(h, pkg, named)...)
	out = append(out, speculativeGenerality(h, pkg, named)...)

	return out
}

func memberStats(named *types.Named) (memberCount, nonPrimitiveTypes int) {
	seen := map[string]bool{}

	if st, ok := named.Underlying().(*types.Struct); ok {
		for i := 0; i < st.NumFields(); i++ {
			f := st.Field(i)
			if f.Embedded() {
				continue
			}

			memberCount++

			if !isPrimitive(f.Type()) {
				seen[f.Type().String()] = true
			}
		}
	}

	memberCount += named.NumMethods()

	return memberCount, len(seen)
}

func isPrimitive(t types.Type) bool {
	b, ok := t.Underlying().(*types.Basic)

	return ok && b.Info()&types.IsUntyped == 0
}

func methodAndFieldCounts(named *types.Named) (methods, properties int) {
	methods = named.NumMethods()

	if st, ok := named.Underlying().(*types.Struct); ok {
		for i := 0; i < st.NumFields(); i++ {
			if !st.Field(i).Embedded() {
				properties++
			}
		}
	}

	return methods, properties
}

// maxConstructorParams finds the largest parameter count among package-level
// functions that return named, the Go idiom for a constructor.
func maxConstructorParams(pkg *types.Package, named *types.Named) int {
	scope := pkg.Scope()

	max := 0

	for _, n := range scope.Names() {
		fn, ok := scope.Lookup(n).(*types.Func)
		if !ok {
			continue
		}

		sig, ok := fn.Type().(*types.Signature)
		if !ok || sig.Recv() != nil {
			continue
		}

		if !returnsType(sig, named) {
			continue
		}

		if sig.Params().Len() > max {
			max = sig.Params().Len()
		}
	}

	return max
}

func returnsType(sig *types.Signature, named *types.Named) bool {
	for i := 0; i < sig.Results().Len(); i++ {
		t := sig.Results().At(i).Type()
		if ptr, ok := t.(*types.Pointer); ok {
			t = ptr.Elem()
		}

		if n, ok := t.(*types.Named); ok && n == named {
			return true
		}
	}

	return false
}

// longParameterLists checks every method of named plus any package-level
// constructor function that returns it.
func longParameterLists(h *workspace.SolutionHandle, pkg *packages.Package, named *types.Named) []model.SmellResult {
	var out []model.SmellResult

	check := func(fn *types.Func, label string) {
		sig, ok := fn.Type().(*types.Signature)
		if !ok {
			return
		}

		n := sig.Params().Len()

		file, line := location(h, pkg, fn)

		switch {
		case n > 8:
			out = append(out, smell("Long parameter list", model.SeverityCritical, label,
				fmt.Sprintf("%d parameters (> 8)", n), file, line))
		case n > 5:
			out = append(out, smell("Long parameter list", model.SeverityWarning, label,
				fmt.Sprintf("%d parameters (> 5)", n), file, line))
		}
	}

	for i := 0; i < named.NumMethods(); i++ {
		m := named.Method(i)
		check(m, named.Obj().Name()+"."+m.Name())
	}

	scope := pkg.Types.Scope()
	for _, n := range scope.Names() {
		fn, ok := scope.Lookup(n).(*types.Func)
		if !ok {
			continue
		}

		if sig, ok := fn.Type().(*types.Signature); ok && sig.Recv() == nil && returnsType(sig, named) {
			check(fn, fn.Name())
		}
	}

	return out
}

// speculativeGenerality flags any type parameter of named that does not
// appear in any field or method signature.
func speculativeGenerality(h *workspace.SolutionHandle, pkg *packages.Package, named *types.Named) []model.SmellResult {
	tparams := named.TypeParams()
	if tparams == nil || tparams.Len() == 0 {
		return nil
	}

	used := map[string]bool{}

	if st, ok := named.Underlying().(*types.Struct); ok {
		for i := 0; i < st.NumFields(); i++ {
			collectTypeParamUses(st.Field(i).Type(), used)
		}
	}

	for i := 0; i < named.NumMethods(); i++ {
		if sig, ok := named.Method(i).Type().(*types.Signature); ok {
			for j := 0; j < sig.Params().Len(); j++ {
				collectTypeParamUses(sig.Params().At(j).Type(), used)
			}

			for j := 0; j < sig.Results().Len(); j++ {
				collectTypeParamUses(sig.Results().At(j).Type(), used)
			}
		}
	}

	var out []model.SmellResult

	file, line := location(h, pkg, named.Obj())

	for i := 0; i < tparams.Len(); i++ {
		tp := tparams.At(i)
		if !used[tp.Obj().Name()] {
			out = append(out, smell("Speculative generality", model.SeverityInfo, named.Obj().Name(),
				fmt.Sprintf("type parameter %s is unused in any member signature", tp.Obj().Name()), file, line))
		}
	}

	return out
}

// collectTypeParamUses walks t recursively (generic argument lists and
// array/slice/pointer/map element types) to record every type-parameter
// name it mentions.
func collectTypeParamUses(t types.Type, used map[string]bool) {
	switch tt := t.(type) {
	case *types.TypeParam:
		used[tt.Obj().Name()] = true
	case *types.Pointer:
		collectTypeParamUses(tt.Elem(), used)
	case *types.Slice:
		collectTypeParamUses(tt.Elem(), used)
	case *types.Array:
		collectTypeParamUses(tt.Elem(), used)
	case *types.Map:
		collectTypeParamUses(tt.Key(), used)
		collectTypeParamUses(tt.Elem(), used)
	case *types.Chan:
		collectTypeParamUses(tt.Elem(), used)
	case *types.Named:
		args := tt.TypeArgs()
		for i := 0; i < args.Len(); i++ {
			collectTypeParamUses(args.At(i), used)
		}
	}
}

func smell(name, severity, symbol, detail, file string, line int) model.SmellResult {
	return model.SmellResult{
		Smell:        name,
		Severity:     severity,
		SymbolName:   symbol,
		Detail:       detail,
		RelativeFile: file,
		Line:         line,
	}
}
