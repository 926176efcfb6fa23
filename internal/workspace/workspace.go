// Package workspace is the process-wide cache of loaded solutions: one
// *SolutionHandle per normalized solution path, a single mutex
// serializing every cache mutation, time-gated staleness detection, and
// atomic apply-and-invalidate for write operations.
package workspace

import (
	"time"

	"golang.org/x/tools/go/packages"
)

// LoadMode constants name the combinations of packages.NeedXxx flags used
// by the different components, kept centralized so call sites read as
// intent rather than flag soup.
const (
	LoadBasic             = packages.NeedName | packages.NeedCompiledGoFiles | packages.NeedFiles
	LoadSyntax            = LoadBasic | packages.NeedSyntax
	LoadTypes             = LoadSyntax | packages.NeedTypes | packages.NeedTypesInfo
	LoadTypesNamed        = LoadTypes | packages.NeedName
	LoadTypesWithImports  = LoadTypesNamed | packages.NeedImports | packages.NeedDeps | packages.NeedModule
	LoadModuleGraph       = LoadBasic | packages.NeedModule
)

// Compilation is one fully type-checked package: the compiled semantic
// model for a project.
type Compilation = *packages.Package

// SolutionHandle owns the compiled model for one solution (a Go module
// root, or a lone file treated as an ad-hoc single-package project).
type SolutionHandle struct {
	Path           string // normalized solution directory
	LoadTime       time.Time
	LastStaleCheck time.Time
	Generation     uint64
	Packages       []*packages.Package
	FileModTimes   map[string]time.Time
}

// ByName returns the first loaded package whose Name or PkgPath matches
// name, or nil.
func (h *SolutionHandle) ByName(name string) *packages.Package {
	if name == "" {
		if len(h.Packages) == 0 {
			return nil
		}

		return h.Packages[0]
	}

	for _, p := range h.Packages {
		if p.Name == name || p.PkgPath == name || p.ID == name {
			return p
		}
	}

	return nil
}

// Stats is a diagnostic snapshot of one cached handle, exposing its
// load generation without reaching into the mutex.
type Stats struct {
	Path           string
	PackageCount   int
	Generation     uint64
	LoadTime       time.Time
	LastStaleCheck time.Time
}
