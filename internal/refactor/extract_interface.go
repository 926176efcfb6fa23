package refactor

import (
	"fmt"
	"go/ast"
	"go/types"
	"os"
	"path/filepath"
	"strings"

	"gocode-navigator/internal/codeerr"
	"gocode-navigator/internal/pathutil"
	"gocode-navigator/internal/resolve"
	"gocode-navigator/internal/workspace"
)

// ExtractInterfaceOptions configures ExtractInterface.
type ExtractInterfaceOptions struct {
	InterfaceName string // defaults to "I{TypeName}" when empty
	Apply         bool
}

// ExtractInterfaceResult carries the generated declaration text and, when
// applied, the files touched.
type ExtractInterfaceResult struct {
	InterfaceName string
	Text          string
	Applied       bool
	Files         []FileChange
}

// ExtractInterface generates an interface covering typeName's exported
// methods. Go resolves interface satisfaction structurally, so there is no
// base-list declaration to edit; the generated relationship is instead
// recorded as a `// implements {InterfaceName}` comment placed immediately
// above the struct declaration.
func ExtractInterface(mgr *workspace.Manager, solutionPath string, h *workspace.SolutionHandle, typeName string, opts ExtractInterfaceOptions) (ExtractInterfaceResult, error) {
	tn, err := resolve.ResolveType(h, typeName)
	if err != nil {
		return ExtractInterfaceResult{}, err
	}

	named, ok := tn.Type().(*types.Named)
	if !ok {
		return ExtractInterfaceResult{}, codeerr.Newf(codeerr.InvalidInput, "%s is not a class or struct", typeName)
	}

	if _, isIface := named.Underlying().(*types.Interface); isIface {
		return ExtractInterfaceResult{}, codeerr.Newf(codeerr.InvalidInput, "%s is an interface, not a class or struct", typeName)
	}

	members := publicMembers(named)
	if len(members) == 0 {
		return ExtractInterfaceResult{}, codeerr.Newf(codeerr.InvalidInput, "%s has no public non-static members to extract", typeName)
	}

	ifaceName := opts.InterfaceName
	if ifaceName == "" {
		ifaceName = "I" + tn.Name()
	}

	text := renderInterface(named.Obj().Pkg(), ifaceName, members)

	result := ExtractInterfaceResult{InterfaceName: ifaceName, Text: text}

	if !opts.Apply {
		return result, nil
	}

	pkg := packageOf(h, named)
	if pkg == nil {
		return ExtractInterfaceResult{}, codeerr.Newf(codeerr.NotFound, "no package for %s", typeName)
	}

	declFile := declaringFile(h, named)
	if declFile == "" {
		return ExtractInterfaceResult{}, codeerr.Newf(codeerr.NotFound, "no declaration file for %s", typeName)
	}

	dir := filepath.Dir(declFile)
	newFile := filepath.Join(dir, ifaceName+".go")

	if err := os.WriteFile(newFile, []byte(text), 0o644); err != nil {
		return ExtractInterfaceResult{}, codeerr.Wrap(codeerr.ConflictFailed, "failed to write "+newFile, err)
	}

	if err := annotateStruct(declFile, tn.Name(), ifaceName); err != nil {
		return ExtractInterfaceResult{}, err
	}

	mgr.Invalidate(solutionPath)

	result.Applied = true
	result.Files = []FileChange{
		{Path: pathutil.Relative(h.Path, newFile)},
		{Path: pathutil.Relative(h.Path, declFile)},
	}

	return result, nil
}

type memberSig struct {
	name string
	text string
}

// publicMembers collects exported methods. Exported struct fields are
// deliberately left out: a Go interface cannot name a plain data field, so
// listing one would make the generated interface unsatisfiable by the very
// struct it was extracted from.
func publicMembers(named *types.Named) []memberSig {
	var out []memberSig

	for i := 0; i < named.NumMethods(); i++ {
		m := named.Method(i)
		if !m.Exported() {
			continue
		}

		sig, ok := m.Type().(*types.Signature)
		if !ok {
			continue
		}

		out = append(out, memberSig{name: m.Name(), text: m.Name() + formatParamsResults(sig)})
	}

	return out
}

func formatParamsResults(sig *types.Signature) string {
	var params []string

	for i := 0; i < sig.Params().Len(); i++ {
		p := sig.Params().At(i)

		name := p.Name()
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}

		params = append(params, name+" "+types.TypeString(p.Type(), types.RelativeTo(sig.Recv().Pkg())))
	}

	paramList := "(" + strings.Join(params, ", ") + ")"

	results := ""

	switch sig.Results().Len() {
	case 0:
	case 1:
		results = " " + types.TypeString(sig.Results().At(0).Type(), types.RelativeTo(sig.Recv().Pkg()))
	default:
		var rs []string
		for i := 0; i < sig.Results().Len(); i++ {
			rs = append(rs, types.TypeString(sig.Results().At(i).Type(), types.RelativeTo(sig.Recv().Pkg())))
		}

		results = " (" + strings.Join(rs, ", ") + ")"
	}

	return paramList + results
}

func renderInterface(pkg *types.Package, ifaceName string, members []memberSig) string {
	var b strings.Builder

	fmt.Fprintf(&b, "package %s\n\n", pkg.Name())
	fmt.Fprintf(&b, "type %s interface {\n", ifaceName)

	for _, m := range members {
		fmt.Fprintf(&b, "\t%s\n", m.text)
	}

	b.WriteString("}\n")

	return b.String()
}

func packageOf(h *workspace.SolutionHandle, named *types.Named) *types.Package {
	return named.Obj().Pkg()
}

func declaringFile(h *workspace.SolutionHandle, named *types.Named) string {
	for _, pkg := range h.Packages {
		if pkg.Types != named.Obj().Pkg() {
			continue
		}

		return pkg.Fset.Position(named.Obj().Pos()).Filename
	}

	return ""
}

// annotateStruct inserts a `// implements {ifaceName}` line immediately
// above the struct's type declaration. This documents intent; Go resolves
// interface satisfaction structurally regardless of the comment.
func annotateStruct(path, typeName, ifaceName string) error {
	src, err := fileText(path)
	if err != nil {
		return err
	}

	fset, file, err := parseFile(path, src)
	if err != nil {
		return codeerr.Wrap(codeerr.AnalysisFailed, "failed to re-parse "+path, err)
	}

	var insertAt int = -1

	ast.Inspect(file, func(n ast.Node) bool {
		gd, ok := n.(*ast.GenDecl)
		if !ok {
			return insertAt < 0
		}

		for _, spec := range gd.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok || ts.Name.Name != typeName || insertAt >= 0 {
				continue
			}

			pos := ts.Pos()
			if !gd.Lparen.IsValid() {
				pos = gd.Pos()
			}

			insertAt = offsetOf(fset, pos)
		}

		return insertAt < 0
	})

	if insertAt < 0 {
		return codeerr.Newf(codeerr.NotFound, "type %s not found in %s", typeName, path)
	}

	annotation := "// implements " + ifaceName + "\n"
	updated := applyEdits(src, []edit{{start: insertAt, end: insertAt, text: annotation}})
	formatted := formatGo(updated)

	return os.WriteFile(path, formatted, 0o644)
}
