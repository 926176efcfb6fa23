package smells

import (
	"fmt"
	"go/types"

	"golang.org/x/tools/go/packages"

	"gocode-navigator/internal/model"
	"gocode-navigator/internal/workspace"
)

// inheritanceSmells checks embedding depth and refused bequest: how deep
// named's embedding chain runs, and for each embedded base, how much of
// its virtual-eligible method set named actually overrides.
func inheritanceSmells(h *workspace.SolutionHandle, pkg *packages.Package, named *types.Named) []model.SmellResult {
	var out []model.SmellResult

	file, line := location(h, pkg, named.Obj())
	name := named.Obj().Name()

	depth := embeddingDepth(named)

	switch {
	case depth > 6:
		out = append(out, smell("Deep inheritance", model.SeverityCritical, name,
			fmt.Sprintf("%d levels of embedding (> 6)", depth), file, line))
	case depth > 3:
		out = append(out, smell("Deep inheritance", model.SeverityWarning, name,
			fmt.Sprintf("%d levels of embedding (> 3)", depth), file, line))
	}

	out = append(out, refusedBequest(h, pkg, named)...)

	return out
}

// embeddingDepth returns the longest chain of named struct fields reachable
// by following embedded fields.
func embeddingDepth(named *types.Named) int {
	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return 0
	}

	max := 0

	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if !f.Embedded() {
			continue
		}

		embedded := namedOf(f.Type())
		if embedded == nil {
			continue
		}

		d := 1 + embeddingDepth(embedded)
		if d > max {
			max = d
		}
	}

	return max
}

func namedOf(t types.Type) *types.Named {
	switch tt := t.(type) {
	case *types.Named:
		return tt
	case *types.Pointer:
		return namedOf(tt.Elem())
	default:
		return nil
	}
}

// refusedBequest checks each of named's embedded bases (another struct, or
// an embedded interface field) that exposes at least three virtual-eligible
// members, and flags named when it directly overrides fewer than 20% of
// them. Overriding is name-based: a trivial or even empty override still
// counts as "overrides", since the smell is about breadth of engagement
// with the base's contract, not body quality.
func refusedBequest(h *workspace.SolutionHandle, pkg *packages.Package, named *types.Named) []model.SmellResult {
	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return nil
	}

	var out []model.SmellResult

	file, line := location(h, pkg, named.Obj())
	name := named.Obj().Name()

	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if !f.Embedded() {
			continue
		}

		base := namedOf(f.Type())
		if base == nil {
			continue
		}

		members := baseMemberNames(base)
		if len(members) < 3 {
			continue
		}

		overridden := 0

		for _, mname := range members {
			if hasMethod(named, mname) {
				overridden++
			}
		}

		ratio := float64(overridden) / float64(len(members))
		if ratio >= 0.2 {
			continue
		}

		out = append(out, smell("Refused bequest", model.SeverityWarning, name,
			fmt.Sprintf("overrides %d/%d base members (%.0f%%)", overridden, len(members), ratio*100), file, line))
	}

	return out
}

// baseMemberNames lists a base type's virtual-or-abstract members: an
// embedded interface's full method set, or a struct base's own directly
// declared methods.
func baseMemberNames(base *types.Named) []string {
	if iface, ok := base.Underlying().(*types.Interface); ok {
		names := make([]string, iface.NumMethods())
		for i := range names {
			names[i] = iface.Method(i).Name()
		}

		return names
	}

	names := make([]string, base.NumMethods())
	for i := range names {
		names[i] = base.Method(i).Name()
	}

	return names
}

func hasMethod(named *types.Named, name string) bool {
	for i := 0; i < named.NumMethods(); i++ {
		if named.Method(i).Name() == name {
			return true
		}
	}

	return false
}
