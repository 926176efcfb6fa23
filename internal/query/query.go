// Package query implements the independent read operations: findSymbols,
// fileSymbols, typeMembers, listNamespaces, typeHierarchy, findOverrides,
// findDerivedTypes, listProjects, projectInfo, sourceFiles, diagnostics.
// Searches return empty results rather than failing when nothing matches;
// operations that take a file, type, or project name fail with NotFound
// when that name does not resolve.
package query

import (
	"go/ast"
	"go/format"
	"go/token"
	"go/types"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/packages"

	"gocode-navigator/internal/codeerr"
	"gocode-navigator/internal/model"
	"gocode-navigator/internal/pathutil"
	"gocode-navigator/internal/resolve"
	"gocode-navigator/internal/workspace"
)

// maxSymbolScanWorkers bounds the fan-out when FindSymbols scans every
// loaded package's scope concurrently; the workspace mutex in internal/
// workspace is untouched by this since each goroutine only reads from an
// already-acquired, immutable SolutionHandle.
const maxSymbolScanWorkers = 8

// isImplicit filters compiler-generated or implicitly-declared symbols:
// blank identifiers and synthetic init funcs.
func isImplicit(name string) bool {
	return name == "_" || name == "init"
}

// FindSymbols implements findSymbols(path, query, kind, exact, detail). The
// per-package scope scan is read-only against an already-acquired,
// immutable SolutionHandle, so it fans out across packages with bounded
// concurrency and merges under one mutex; the workspace cache mutex in
// internal/workspace is never touched here.
func FindSymbols(h *workspace.SolutionHandle, query, kind string, exact bool, detail string) []model.SymbolResult {
	type key struct {
		display string
		kind    string
	}

	var (
		mu   sync.Mutex
		seen = map[key]bool{}
		out  []model.SymbolResult
	)

	g := new(errgroup.Group)
	g.SetLimit(maxSymbolScanWorkers)

	for _, pkg := range h.Packages {
		pkg := pkg

		g.Go(func() error {
			if pkg.Types == nil {
				return nil
			}

			var found []model.SymbolResult

			scope := pkg.Types.Scope()

			for _, n := range scope.Names() {
				if isImplicit(n) {
					continue
				}

				obj := scope.Lookup(n)
				if !matchesQuery(n, query, exact) {
					continue
				}

				k := objKind(obj)
				if kind != "" && k != kind {
					continue
				}

				posn := pkg.Fset.Position(obj.Pos())
				if posn.Filename == "" {
					continue // no in-source location
				}

				found = append(found, buildSymbolResult(pkg, obj, posn, detail))
			}

			found = append(found, scanMethodsAndFields(pkg, query, kind, exact, detail)...)

			if len(found) == 0 {
				return nil
			}

			mu.Lock()
			defer mu.Unlock()

			for _, sr := range found {
				ck := key{sr.QualifiedName, sr.Kind}
				if seen[ck] {
					continue
				}

				seen[ck] = true
				out = append(out, sr)
			}

			return nil
		})
	}

	_ = g.Wait() // scan goroutines never return an error

	sort.Slice(out, func(i, j int) bool {
		if out[i].RelativeFile != out[j].RelativeFile {
			return out[i].RelativeFile < out[j].RelativeFile
		}

		return out[i].Line < out[j].Line
	})

	return out
}

func matchesQuery(name, query string, exact bool) bool {
	if exact {
		return name == query
	}

	return strings.Contains(strings.ToLower(name), strings.ToLower(query))
}

// scanMethodsAndFields covers the two declaration forms a package scope
// never holds: methods (FuncDecl with a receiver) and struct fields. Both
// require a walk of the syntax trees keyed on the type-checker's Defs map
// rather than a Scope lookup.
func scanMethodsAndFields(pkg *packages.Package, query, kind string, exact bool, detail string) []model.SymbolResult {
	if pkg.TypesInfo == nil {
		return nil
	}

	var out []model.SymbolResult

	record := func(obj types.Object) {
		if obj == nil || !matchesQuery(obj.Name(), query, exact) {
			return
		}

		if k := objKind(obj); kind != "" && k != kind {
			return
		}

		posn := pkg.Fset.Position(obj.Pos())
		if posn.Filename == "" {
			return
		}

		out = append(out, buildSymbolResult(pkg, obj, posn, detail))
	}

	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				if d.Recv == nil {
					continue
				}

				record(pkg.TypesInfo.Defs[d.Name])
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
							record(pkg.TypesInfo.Defs[fname])
						}
					}
				}
			}
		}
	}

	return out
}

func objKind(obj types.Object) string {
	switch o := obj.(type) {
	case *types.Func:
		if sig, ok := o.Type().(*types.Signature); ok && sig.Recv() != nil {
			return "method"
		}

		return "func"
	case *types.Var:
		if o.IsField() {
			return "field"
		}

		return "var"
	case *types.Const:
		return "const"
	case *types.TypeName:
		if _, ok := o.Type().Underlying().(*types.Interface); ok {
			return "interface"
		}

		return "type"
	case *types.PkgName:
		return "package"
	default:
		return "unknown"
	}
}

func buildSymbolResult(pkg *packages.Package, obj types.Object, posn token.Position, detail string) model.SymbolResult {
	r := model.SymbolResult{
		Name:          obj.Name(),
		QualifiedName: pkg.PkgPath + "." + obj.Name(),
		Kind:          objKind(obj),
		Signature:     objSignature(obj),
		RelativeFile:  posn.Filename,
		Line:          posn.Line,
	}

	if detail == "full" {
		doc, body := SourceOf(pkg, obj)
		if doc != "" {
			r.DocSummary = doc
			r.HasDocSummary = true
		}

		if body != "" {
			r.SourceBody = body
			r.HasSourceBody = true
		}
	}

	return r
}

func objSignature(obj types.Object) string {
	switch o := obj.(type) {
	case *types.Func:
		return o.String()
	case *types.Var:
		return o.String()
	case *types.Const:
		return o.String()
	case *types.TypeName:
		return "type " + o.Name() + " " + o.Type().Underlying().String()
	default:
		return obj.String()
	}
}

// SourceOf returns the doc comment and rendered declaration text for obj,
// the shared lookup behind findSymbols(detail=full) and symbolSource.
func SourceOf(pkg *packages.Package, obj types.Object) (doc, body string) {
	for _, file := range pkg.Syntax {
		var found ast.Node

		var docGroup *ast.CommentGroup

		ast.Inspect(file, func(n ast.Node) bool {
			switch d := n.(type) {
			case *ast.FuncDecl:
				if d.Name.Pos() == obj.Pos() {
					found = d
					docGroup = d.Doc
				}
			case *ast.GenDecl:
				for _, spec := range d.Specs {
					ts, ok := spec.(*ast.TypeSpec)
					if !ok || ts.Name.Pos() != obj.Pos() {
						continue
					}

					found = ts
					docGroup = ts.Doc

					if docGroup == nil && !d.Lparen.IsValid() {
						docGroup = d.Doc
					}
				}
			}

			return found == nil
		})

		if found != nil {
			if docGroup != nil {
				doc = strings.TrimSpace(docGroup.Text())
			}

			return doc, renderNode(pkg.Fset, found)
		}
	}

	return "", ""
}

func renderNode(fset *token.FileSet, n ast.Node) string {
	var buf strings.Builder
	if err := format.Node(&buf, fset, n); err != nil {
		return ""
	}

	return buf.String()
}

// FileSymbols implements fileSymbols(path, filePath, depth, detail).
func FileSymbols(h *workspace.SolutionHandle, filePath string, depth int, detail string) ([]model.SymbolResult, error) {
	target, pkg, err := locateDocument(h, filePath)
	if err != nil {
		return nil, err
	}

	var out []model.SymbolResult

	for _, decl := range target.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}

			for _, spec := range d.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}

				obj := pkg.TypesInfo.Defs[ts.Name]
				if obj == nil {
					continue
				}

				posn := pkg.Fset.Position(obj.Pos())
				sr := buildSymbolResult(pkg, obj, posn, detail)
				out = append(out, sr)

				if depth >= 1 {
					out = append(out, typeMembersOf(pkg, obj, detail)...)
				}
			}
		case *ast.FuncDecl:
			obj := pkg.TypesInfo.Defs[d.Name]
			if obj == nil {
				continue
			}

			posn := pkg.Fset.Position(obj.Pos())
			out = append(out, buildSymbolResult(pkg, obj, posn, detail))
		}
	}

	return out, nil
}

func locateDocument(h *workspace.SolutionHandle, filePath string) (*ast.File, *packages.Package, error) {
	candidate := filePath
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(h.Path, filePath)
	}

	for _, pkg := range h.Packages {
		for _, file := range pkg.Syntax {
			name := pkg.Fset.Position(file.Pos()).Filename
			if pathutil.SameFile(name, candidate) {
				return file, pkg, nil
			}
		}
	}

	return nil, nil, codeerr.Newf(codeerr.NotFound, "file not found: %s", filePath)
}

// TypeMembers implements typeMembers(path, typeName, detail).
func TypeMembers(h *workspace.SolutionHandle, typeName, detail string) ([]model.SymbolResult, error) {
	tn, err := resolve.ResolveType(h, typeName)
	if err != nil {
		return nil, err
	}

	return typeMembersOf(findPackageOf(h, tn), tn, detail), nil
}

func findPackageOf(h *workspace.SolutionHandle, tn *types.TypeName) *packages.Package {
	for _, pkg := range h.Packages {
		if pkg.Types == tn.Pkg() {
			return pkg
		}
	}

	return nil
}

func typeMembersOf(pkg *packages.Package, obj types.Object, detail string) []model.SymbolResult {
	if pkg == nil {
		return nil
	}

	tn, ok := obj.(*types.TypeName)
	if !ok {
		return nil
	}

	named, ok := tn.Type().(*types.Named)
	if !ok {
		return nil
	}

	var out []model.SymbolResult

	if st, ok := named.Underlying().(*types.Struct); ok {
		for i := 0; i < st.NumFields(); i++ {
			f := st.Field(i)
			posn := pkg.Fset.Position(f.Pos())
			out = append(out, buildSymbolResult(pkg, f, posn, detail))
		}
	}

	for i := 0; i < named.NumMethods(); i++ {
		m := named.Method(i)
		posn := pkg.Fset.Position(m.Pos())
		out = append(out, buildSymbolResult(pkg, m, posn, detail))
	}

	return out
}

// ListNamespaces implements listNamespaces(path): the closest Go analogue
// to a namespace is an import path, so this collects the distinct package
// import paths of every package holding at least one source-defined type,
// excluding the solution's own root package only when it declares no
// types (mirroring "exclude the global namespace").
func ListNamespaces(h *workspace.SolutionHandle) []string {
	set := map[string]bool{}

	for _, pkg := range h.Packages {
		for _, tn := range resolve.AllNamedTypes(pkg) {
			posn := pkg.Fset.Position(tn.Pos())
			if posn.Filename != "" {
				set[pkg.PkgPath] = true
			}
		}
	}

	var out []string
	for ns := range set {
		out = append(out, ns)
	}

	sort.Strings(out)

	return out
}

// TypeHierarchy implements typeHierarchy(path, typeName). Go has no
// classical base-type chain; struct embedding is treated as the base
// relationship (nearest to furthest embedded struct), and the interface
// set is every interface the type satisfies among the solution's own
// declared interfaces.
func TypeHierarchy(h *workspace.SolutionHandle, typeName string) (model.TypeHierarchyResult, error) {
	tn, err := resolve.ResolveType(h, typeName)
	if err != nil {
		return model.TypeHierarchyResult{}, err
	}

	named, ok := tn.Type().(*types.Named)
	if !ok {
		return model.TypeHierarchyResult{}, codeerr.Newf(codeerr.InvalidInput, "%s is not a named type", typeName)
	}

	kind := "struct"
	if _, isIface := named.Underlying().(*types.Interface); isIface {
		kind = "interface"
	}

	result := model.TypeHierarchyResult{TypeName: tn.Name(), Kind: kind}
	result.BaseTypes = embeddedChain(named)
	result.BaseTypes = append(result.BaseTypes, "object")
	result.Interfaces = satisfiedInterfaces(h, named)

	return result, nil
}

func embeddedChain(named *types.Named) []string {
	var chain []string

	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return chain
	}

	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if !f.Embedded() {
			continue
		}

		if embeddedNamed, ok := f.Type().(*types.Named); ok {
			chain = append(chain, embeddedNamed.Obj().Name())
			chain = append(chain, embeddedChain(embeddedNamed)...)
		} else if ptr, ok := f.Type().(*types.Pointer); ok {
			if embeddedNamed, ok := ptr.Elem().(*types.Named); ok {
				chain = append(chain, embeddedNamed.Obj().Name())
				chain = append(chain, embeddedChain(embeddedNamed)...)
			}
		}
	}

	return chain
}

func satisfiedInterfaces(h *workspace.SolutionHandle, named *types.Named) []string {
	var out []string

	for _, pkg := range h.Packages {
		for _, tn := range resolve.AllNamedTypes(pkg) {
			iface, ok := tn.Type().Underlying().(*types.Interface)
			if !ok || iface.NumMethods() == 0 {
				continue
			}

			if types.Implements(named, iface) || types.Implements(types.NewPointer(named), iface) {
				out = append(out, pkg.PkgPath+"."+tn.Name())
			}
		}
	}

	sort.Strings(out)

	return out
}

// FindOverrides implements findOverrides(path, typeName, methodName): the
// closest Go analogue to "virtual/abstract/override" is an interface
// method being re-implemented by an embedding type, so this requires the
// method to belong to an embedded type and returns every type embedding
// it that redeclares the same method name.
func FindOverrides(h *workspace.SolutionHandle, typeName, methodName string) ([]model.ReferenceResult, error) {
	tn, err := resolve.ResolveType(h, typeName)
	if err != nil {
		return nil, err
	}

	named, ok := tn.Type().(*types.Named)
	if !ok {
		return nil, codeerr.Newf(codeerr.InvalidInput, "%s is not a named type", typeName)
	}

	if !hasEmbeddedMethod(named, methodName) {
		return nil, codeerr.Newf(codeerr.InvalidInput, "%s.%s is not an embedded/overridable method", typeName, methodName)
	}

	var out []model.ReferenceResult

	for _, pkg := range h.Packages {
		for _, other := range resolve.AllNamedTypes(pkg) {
			otherNamed, ok := other.Type().(*types.Named)
			if !ok || otherNamed == named {
				continue
			}

			if !embeds(otherNamed, named) {
				continue
			}

			if m := methodDeclaredDirectly(otherNamed, methodName); m != nil {
				posn := pkg.Fset.Position(m.Pos())
				out = append(out, model.ReferenceResult{
					RelativeFile:     posn.Filename,
					Line:             posn.Line,
					ContainingSymbol: otherNamed.Obj().Name() + "." + methodName,
				})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].RelativeFile != out[j].RelativeFile {
			return out[i].RelativeFile < out[j].RelativeFile
		}

		return out[i].Line < out[j].Line
	})

	return out, nil
}

func hasEmbeddedMethod(named *types.Named, methodName string) bool {
	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return false
	}

	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if !f.Embedded() {
			continue
		}

		if embNamed := namedOf(f.Type()); embNamed != nil {
			if methodDeclaredDirectly(embNamed, methodName) != nil {
				return true
			}
		}
	}

	return false
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

func embeds(outer, inner *types.Named) bool {
	st, ok := outer.Underlying().(*types.Struct)
	if !ok {
		return false
	}

	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if !f.Embedded() {
			continue
		}

		if n := namedOf(f.Type()); n != nil && n == inner {
			return true
		}
	}

	return false
}

func methodDeclaredDirectly(named *types.Named, name string) *types.Func {
	for i := 0; i < named.NumMethods(); i++ {
		m := named.Method(i)
		if m.Name() == name {
			return m
		}
	}

	return nil
}

// FindDerivedTypes implements findDerivedTypes(path, typeName): for an
// interface, every in-solution implementation; for a struct, every type
// that embeds it directly or transitively.
func FindDerivedTypes(h *workspace.SolutionHandle, typeName string) ([]model.SymbolResult, error) {
	tn, err := resolve.ResolveType(h, typeName)
	if err != nil {
		return nil, err
	}

	named, ok := tn.Type().(*types.Named)
	if !ok {
		return nil, codeerr.Newf(codeerr.InvalidInput, "%s is not a named type", typeName)
	}

	var out []model.SymbolResult

	if iface, ok := named.Underlying().(*types.Interface); ok {
		for _, pkg := range h.Packages {
			for _, other := range resolve.AllNamedTypes(pkg) {
				otherNamed, ok := other.Type().(*types.Named)
				if !ok {
					continue
				}

				if _, isIface := otherNamed.Underlying().(*types.Interface); isIface {
					continue
				}

				if types.Implements(otherNamed, iface) || types.Implements(types.NewPointer(otherNamed), iface) {
					posn := pkg.Fset.Position(other.Pos())
					if posn.Filename == "" {
						continue
					}

					out = append(out, buildSymbolResult(pkg, other, posn, "compact"))
				}
			}
		}
	} else if _, ok := named.Underlying().(*types.Struct); ok {
		for _, pkg := range h.Packages {
			for _, other := range resolve.AllNamedTypes(pkg) {
				otherNamed, ok := other.Type().(*types.Named)
				if !ok || otherNamed == named {
					continue
				}

				if embedsTransitively(otherNamed, named) {
					posn := pkg.Fset.Position(other.Pos())
					out = append(out, buildSymbolResult(pkg, other, posn, "compact"))
				}
			}
		}
	} else {
		return nil, codeerr.Newf(codeerr.InvalidInput, "%s is neither an interface nor a struct", typeName)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].RelativeFile != out[j].RelativeFile {
			return out[i].RelativeFile < out[j].RelativeFile
		}

		return out[i].Line < out[j].Line
	})

	return out, nil
}

func embedsTransitively(outer, inner *types.Named) bool {
	st, ok := outer.Underlying().(*types.Struct)
	if !ok {
		return false
	}

	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if !f.Embedded() {
			continue
		}

		n := namedOf(f.Type())
		if n == nil {
			continue
		}

		if n == inner || embedsTransitively(n, inner) {
			return true
		}
	}

	return false
}

// ListProjects implements listProjects(path).
func ListProjects(h *workspace.SolutionHandle) []model.ProjectInfo {
	var out []model.ProjectInfo
	for _, pkg := range h.Packages {
		out = append(out, buildProjectInfo(pkg))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

func buildProjectInfo(pkg *packages.Package) model.ProjectInfo {
	var refs []string
	for imp := range pkg.Imports {
		refs = append(refs, imp)
	}

	sort.Strings(refs)

	outputType := "library"
	if pkg.Name == "main" {
		outputType = "executable"
	}

	filePath := ""
	if len(pkg.GoFiles) > 0 {
		filePath = filepath.Dir(pkg.GoFiles[0])
	}

	return model.ProjectInfo{
		Name:            pkg.PkgPath,
		FilePath:        filePath,
		Framework:       goVersionOf(pkg),
		OutputType:      outputType,
		SourceFileCount: len(pkg.CompiledGoFiles),
		ProjectRefs:     refs,
	}
}

func goVersionOf(pkg *packages.Package) string {
	if pkg.Module != nil && pkg.Module.GoVersion != "" {
		return "go" + pkg.Module.GoVersion
	}

	return ""
}

// ProjectInfo implements projectInfo(path, projectName).
func ProjectInfo(h *workspace.SolutionHandle, projectName string) (model.ProjectInfo, error) {
	pkg := h.ByName(projectName)
	if pkg == nil {
		return model.ProjectInfo{}, codeerr.Newf(codeerr.NotFound, "no project named %q", projectName)
	}

	return buildProjectInfo(pkg), nil
}

// SourceFiles implements listSourceFiles(path, projectName?).
func SourceFiles(h *workspace.SolutionHandle, projectName string) []string {
	var out []string

	for _, pkg := range h.Packages {
		if projectName != "" && pkg.PkgPath != projectName && pkg.Name != projectName {
			continue
		}

		out = append(out, pkg.CompiledGoFiles...)
	}

	sort.Strings(out)

	return out
}

// Diagnostics implements diagnostics(path, projectName?): filtered to
// warning-or-higher, sorted errors-first then by (file, line).
func Diagnostics(h *workspace.SolutionHandle, projectName string) []model.DiagnosticInfo {
	var out []model.DiagnosticInfo

	for _, pkg := range h.Packages {
		if projectName != "" && pkg.PkgPath != projectName && pkg.Name != projectName {
			continue
		}

		for _, e := range pkg.Errors {
			severity := "error"
			if e.Kind == packages.TypeError {
				severity = "error"
			}

			file, line := splitPos(e.Pos)
			out = append(out, model.DiagnosticInfo{
				ID:       strconv.Itoa(int(e.Kind)),
				Severity: severity,
				Message:  e.Msg,
				File:     file,
				Line:     line,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return out[i].Severity == "error"
		}

		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}

		return out[i].Line < out[j].Line
	})

	return out
}

func splitPos(pos string) (file string, line int) {
	parts := strings.SplitN(pos, ":", 3)
	if len(parts) == 0 {
		return "", 0
	}

	file = parts[0]
	if len(parts) > 1 {
		line, _ = strconv.Atoi(parts[1])
	}

	return file, line
}
