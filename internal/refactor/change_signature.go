package refactor

import (
	"context"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"os"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	"gocode-navigator/internal/codeerr"
	"gocode-navigator/internal/pathutil"
	"gocode-navigator/internal/workspace"
)

// Param is one parameter in the new signature: either a surviving
// parameter carried over from the old signature, or a newly added one.
type Param struct {
	Name    string
	Type    string // new parameters only
	Default string // new parameters only; empty means no default
	IsNew   bool
}

// ChangeSignatureOptions carries the three comma-separated edit lists.
type ChangeSignatureOptions struct {
	AddParameters     string
	RemoveParameters  string
	ReorderParameters string
	DryRun            bool
}

// ChangeSignatureResult summarizes every file touched.
type ChangeSignatureResult struct {
	Files []FileChange
}

// ChangeSignature is a text-oriented rewrite, not a type-model mutation.
// It computes the new parameter order, finds every direct call site, and
// splices both the declaration and each call's argument list, applying
// edits within a file in descending start-offset order.
func ChangeSignature(ctx context.Context, mgr *workspace.Manager, solutionPath string, h *workspace.SolutionHandle, fn *types.Func, opts ChangeSignatureOptions) (ChangeSignatureResult, error) {
	sig, ok := fn.Type().(*types.Signature)
	if !ok {
		return ChangeSignatureResult{}, codeerr.New(codeerr.InvalidInput, "symbol is not a method")
	}

	oldNames := paramNames(sig)

	removeSet, err := splitNames(opts.RemoveParameters)
	if err != nil {
		return ChangeSignatureResult{}, err
	}

	reorderNames, err := splitNames(opts.ReorderParameters)
	if err != nil {
		return ChangeSignatureResult{}, err
	}

	for name := range toSet(removeSet) {
		if !contains(oldNames, name) {
			return ChangeSignatureResult{}, codeerr.Newf(codeerr.InvalidInput, "removeParameters: no parameter named %q", name)
		}
	}

	surviving := subtract(oldNames, removeSet)

	for _, name := range reorderNames {
		if !contains(surviving, name) {
			return ChangeSignatureResult{}, codeerr.Newf(codeerr.InvalidInput, "reorderParameters: %q is not a surviving parameter", name)
		}
	}

	added, err := parseAddedParams(opts.AddParameters)
	if err != nil {
		return ChangeSignatureResult{}, err
	}

	newOrder := buildNewOrder(surviving, reorderNames, added)

	declFile, declPkg := declaringFileAndPkg(h, fn)
	if declFile == "" {
		return ChangeSignatureResult{}, codeerr.Newf(codeerr.NotFound, "no declaration file for method %s", fn.Name())
	}

	callerFiles := findCallSiteFiles(h, fn)
	callerFiles[declFile] = true

	var filenames []string
	for f := range callerFiles {
		filenames = append(filenames, f)
	}

	sort.Strings(filenames)

	var result ChangeSignatureResult

	for _, filename := range filenames {
		orig, err := fileText(filename)
		if err != nil {
			return ChangeSignatureResult{}, err
		}

		var edits []edit

		if filename == declFile {
			declEdit, err := declarationEdit(declPkg, filename, orig, fn, newOrder)
			if err != nil {
				return ChangeSignatureResult{}, err
			}

			edits = append(edits, declEdit)
		}

		callEdits, err := callSiteEdits(filename, orig, fn.Name(), oldNames, newOrder)
		if err != nil {
			return ChangeSignatureResult{}, err
		}

		edits = append(edits, callEdits...)

		if len(edits) == 0 {
			continue
		}

		updated := applyEdits(orig, edits)
		formatted := formatGo(updated)

		rel := pathutil.Relative(h.Path, filename)

		change := FileChange{Path: rel}
		if opts.DryRun {
			change.Diff = unifiedDiff(orig, formatted, rel)
			result.Files = append(result.Files, change)

			continue
		}

		if err := os.WriteFile(filename, formatted, 0o644); err != nil {
			return ChangeSignatureResult{}, codeerr.Wrap(codeerr.ConflictFailed, "failed to write "+filename, err)
		}

		result.Files = append(result.Files, change)
	}

	if opts.DryRun {
		return result, nil
	}

	if err := mgr.Apply(ctx, solutionPath, nil); err != nil {
		return ChangeSignatureResult{}, err
	}

	return result, nil
}

func paramNames(sig *types.Signature) []string {
	var names []string
	for i := 0; i < sig.Params().Len(); i++ {
		n := sig.Params().At(i).Name()
		if n == "" {
			n = fmt.Sprintf("_%d", i)
		}

		names = append(names, n)
	}

	return names
}

// splitNames splits a comma-separated name list, trimming whitespace and
// dropping empties.
func splitNames(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var out []string

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}

	return out, nil
}

func toSet(names []string) map[string]bool {
	set := map[string]bool{}
	for _, n := range names {
		set[n] = true
	}

	return set
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}

	return false
}

func subtract(names, remove []string) []string {
	removeSet := toSet(remove)

	var out []string

	for _, n := range names {
		if !removeSet[n] {
			out = append(out, n)
		}
	}

	return out
}

// parseAddedParams splits the addParameters grammar `type name[ =
// defaultValue]` on top-level commas, respecting angle-bracket nesting so
// a generic type argument list's internal commas are not mistaken for
// parameter separators.
func parseAddedParams(s string) ([]Param, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var params []Param

	for _, chunk := range splitRespectingAngles(s) {
		p, err := parseOneAddedParam(chunk)
		if err != nil {
			return nil, err
		}

		params = append(params, p)
	}

	return params, nil
}

func splitRespectingAngles(s string) []string {
	var parts []string

	depth := 0
	start := 0

	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}

	parts = append(parts, strings.TrimSpace(s[start:]))

	return parts
}

// parseOneAddedParam parses "type name" or "type name = default".
func parseOneAddedParam(chunk string) (Param, error) {
	def := ""

	if idx := strings.Index(chunk, "="); idx >= 0 {
		def = strings.TrimSpace(chunk[idx+1:])
		chunk = strings.TrimSpace(chunk[:idx])
	}

	fields := strings.Fields(chunk)
	if len(fields) < 2 {
		return Param{}, codeerr.Newf(codeerr.InvalidInput, "malformed added parameter %q, expected \"type name\"", chunk)
	}

	name := fields[len(fields)-1]
	typ := strings.TrimSpace(strings.TrimSuffix(chunk, name))

	return Param{Name: name, Type: typ, Default: def, IsNew: true}, nil
}

// buildNewOrder orders surviving parameters by reorderNames, then any
// surviving names not mentioned (original order), then every added
// parameter.
func buildNewOrder(surviving, reorderNames []string, added []Param) []Param {
	var out []Param

	mentioned := toSet(reorderNames)

	for _, name := range reorderNames {
		out = append(out, Param{Name: name})
	}

	for _, name := range surviving {
		if !mentioned[name] {
			out = append(out, Param{Name: name})
		}
	}

	out = append(out, added...)

	return out
}

// findCallSiteFiles asks the already type-checked syntax trees for every
// file containing a direct call to fn: syntactic call expressions whose
// callee resolves to fn, not indirect invocations through a function
// value.
func findCallSiteFiles(h *workspace.SolutionHandle, fn *types.Func) map[string]bool {
	out := map[string]bool{}

	for _, pkg := range h.Packages {
		if pkg.TypesInfo == nil {
			continue
		}

		for _, file := range pkg.Syntax {
			filename := pkg.Fset.Position(file.Pos()).Filename

			ast.Inspect(file, func(n ast.Node) bool {
				call, ok := n.(*ast.CallExpr)
				if !ok {
					return true
				}

				var ident *ast.Ident

				switch f := call.Fun.(type) {
				case *ast.Ident:
					ident = f
				case *ast.SelectorExpr:
					ident = f.Sel
				}

				if ident == nil {
					return true
				}

				obj := identObject(pkg, ident)
				if obj == nil {
					return true
				}

				if calledFn, ok := obj.(*types.Func); ok && sameObject(calledFn, fn) {
					out[filename] = true
				}

				return true
			})
		}
	}

	return out
}

func declaringFileAndPkg(h *workspace.SolutionHandle, fn *types.Func) (string, *packages.Package) {
	for _, pkg := range h.Packages {
		if pkg.Types != fn.Pkg() {
			continue
		}

		posn := pkg.Fset.Position(fn.Pos())
		if posn.Filename != "" {
			return posn.Filename, pkg
		}
	}

	return "", nil
}

// declarationEdit locates fn's FuncDecl in the re-read text, so it
// reflects any prior splice in the same file, and replaces its
// parameter-list span with the new one.
func declarationEdit(pkg *packages.Package, filename string, src []byte, fn *types.Func, newOrder []Param) (edit, error) {
	fset, file, err := parseFile(filename, src)
	if err != nil {
		return edit{}, codeerr.Wrap(codeerr.AnalysisFailed, "failed to re-parse "+filename, err)
	}

	var target *ast.FuncDecl

	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Name.Name != fn.Name() {
			continue
		}

		if fn.Type().(*types.Signature).Recv() != nil && fd.Recv == nil {
			continue
		}

		target = fd

		break
	}

	if target == nil {
		return edit{}, codeerr.Newf(codeerr.NotFound, "declaration of %s not found in %s", fn.Name(), filename)
	}

	start := offsetOf(fset, target.Type.Params.Pos())
	end := offsetOf(fset, target.Type.Params.End())

	return edit{start: start, end: end, text: renderParamList(newOrder, fn)}, nil
}

func renderParamList(newOrder []Param, fn *types.Func) string {
	sig := fn.Type().(*types.Signature)

	oldTypes := map[string]string{}

	for i := 0; i < sig.Params().Len(); i++ {
		p := sig.Params().At(i)
		oldTypes[p.Name()] = types.TypeString(p.Type(), types.RelativeTo(fn.Pkg()))
	}

	var parts []string

	for _, p := range newOrder {
		if p.IsNew {
			parts = append(parts, p.Name+" "+p.Type)
		} else {
			parts = append(parts, p.Name+" "+oldTypes[p.Name])
		}
	}

	return "(" + strings.Join(parts, ", ") + ")"
}

// callSiteEdits produces, for every call to methodName found in filename's
// current text, a replacement of its argument-list span.
func callSiteEdits(filename string, src []byte, methodName string, oldNames []string, newOrder []Param) ([]edit, error) {
	fset, file, err := parseFile(filename, src)
	if err != nil {
		return nil, codeerr.Wrap(codeerr.AnalysisFailed, "failed to re-parse "+filename, err)
	}

	var edits []edit

	ast.Inspect(file, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}

		var ident *ast.Ident

		switch f := call.Fun.(type) {
		case *ast.Ident:
			ident = f
		case *ast.SelectorExpr:
			ident = f.Sel
		}

		if ident == nil || ident.Name != methodName {
			return true
		}

		newArgs := remapArgs(fset, src, call, oldNames, newOrder)

		start := offsetOf(fset, call.Lparen) + 1
		end := offsetOf(fset, call.Rparen)

		edits = append(edits, edit{start: start, end: end, text: strings.Join(newArgs, ", ")})

		return true
	})

	return edits, nil
}

// remapArgs maps each existing argument to its parameter name, positional
// by index since Go's call syntax has no named-argument form, drops
// removed parameters, reorders per newOrder, and inserts a synthetic
// zero-value argument for new parameters without a default.
func remapArgs(fset *token.FileSet, src []byte, call *ast.CallExpr, oldNames []string, newOrder []Param) []string {
	byName := map[string]ast.Expr{}

	for i, arg := range call.Args {
		if i < len(oldNames) {
			byName[oldNames[i]] = arg
		}
	}

	var out []string

	for _, p := range newOrder {
		if p.IsNew {
			if p.Default != "" {
				continue // no argument is added; the default text is not written anywhere
			}

			out = append(out, zeroValueExpr(p.Type))

			continue
		}

		if arg, ok := byName[p.Name]; ok {
			out = append(out, sourceSlice(fset, src, arg))
		}
	}

	return out
}

func zeroValueExpr(typ string) string {
	return "*new(" + typ + ")"
}

// sourceSlice returns the literal source text spanning node's position
// range, used to carry an existing argument expression forward verbatim.
func sourceSlice(fset *token.FileSet, src []byte, node ast.Node) string {
	start := offsetOf(fset, node.Pos())
	end := offsetOf(fset, node.End())

	if start < 0 || end < 0 || end > len(src) {
		return ""
	}

	return string(src[start:end])
}
