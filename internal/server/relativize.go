package server

import "gocode-navigator/internal/model"

// The query/references/refactor/smells packages work in absolute paths
// (go/packages hands back absolute filenames); relativizing against the
// solution directory is this dispatch layer's job per spec section 3.2's
// invariant ("paths displayed externally are always relative ... when
// that base is a strict prefix"), mirroring C1's role as a leaf every
// other component borrows rather than reimplements.

func relSymbols(base string, rs []model.SymbolResult) []model.SymbolResult {
	for i := range rs {
		rs[i].RelativeFile = rel(base, rs[i].RelativeFile)
	}

	return rs
}

func relReferences(base string, rs []model.ReferenceResult) []model.ReferenceResult {
	for i := range rs {
		rs[i].RelativeFile = rel(base, rs[i].RelativeFile)
	}

	return rs
}

func relDiagnostics(base string, ds []model.DiagnosticInfo) []model.DiagnosticInfo {
	for i := range ds {
		ds[i].File = rel(base, ds[i].File)
	}

	return ds
}

func relSmells(base string, ss []model.SmellResult) []model.SmellResult {
	for i := range ss {
		ss[i].RelativeFile = rel(base, ss[i].RelativeFile)
	}

	return ss
}

func relUnused(base string, us []model.UnusedResult) []model.UnusedResult {
	for i := range us {
		us[i].RelativeFile = rel(base, us[i].RelativeFile)
	}

	return us
}

func relHierarchy(base string, h model.TypeHierarchyResult) model.TypeHierarchyResult {
	h.Members = relSymbols(base, h.Members)

	return h
}

func relProject(base string, p model.ProjectInfo) model.ProjectInfo {
	p.FilePath = rel(base, p.FilePath)

	return p
}

func relProjects(base string, ps []model.ProjectInfo) []model.ProjectInfo {
	for i := range ps {
		ps[i] = relProject(base, ps[i])
	}

	return ps
}

func relFiles(base string, files []string) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = rel(base, f)
	}

	return out
}
