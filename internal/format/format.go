// Package format shapes semantic entities and analyzer findings into
// compact, line-oriented, LF-terminated text for an LLM-driven client,
// never a machine-parseable schema.
package format

import (
	"fmt"
	"strings"

	"gocode-navigator/internal/model"
)

// Location renders "<path>:<line>", the location text shared by every
// listing.
func Location(path string, line int) string {
	return fmt.Sprintf("%s:%d", path, line)
}

// LocationSnippet appends " - <trimmed line>" to Location.
func LocationSnippet(path string, line int, snippet string) string {
	return fmt.Sprintf("%s - %s", Location(path, line), strings.TrimSpace(snippet))
}

// Symbols renders a list of SymbolResult in compact or full form.
// Compact: one line per entity, "<kind> <qualifiedName> @ <path>:<line>".
// Full: the compact line, then an indented doc-summary line (if present)
// and the source body, each line indented (if present).
func Symbols(results []model.SymbolResult, full bool) string {
	if len(results) == 0 {
		return "(0 symbols)\n"
	}

	var b strings.Builder

	for _, r := range results {
		fmt.Fprintf(&b, "%s %s @ %s\n", r.Kind, r.QualifiedName, Location(r.RelativeFile, r.Line))

		if !full {
			continue
		}

		if r.HasDocSummary {
			fmt.Fprintf(&b, "    %s\n", r.DocSummary)
		}

		if r.HasSourceBody {
			for _, line := range strings.Split(strings.TrimRight(r.SourceBody, "\n"), "\n") {
				fmt.Fprintf(&b, "    %s\n", line)
			}
		}
	}

	return b.String()
}

// References renders a list of ReferenceResult, one snippet line per entry,
// each followed by its containing symbol and context lines when that entry
// carries them.
func References(results []model.ReferenceResult) string {
	if len(results) == 0 {
		return "(0 references)\n"
	}

	var b strings.Builder

	for _, r := range results {
		fmt.Fprintf(&b, "%s\n", LocationSnippet(r.RelativeFile, r.Line, r.CodeSnippet))

		if r.ContainingSymbol != "" {
			fmt.Fprintf(&b, "    in %s\n", r.ContainingSymbol)
		}

		for _, before := range r.ContextBefore {
			fmt.Fprintf(&b, "  - %s\n", before)
		}

		for _, after := range r.ContextAfter {
			fmt.Fprintf(&b, "  + %s\n", after)
		}
	}

	return b.String()
}

// TypeHierarchy renders a TypeHierarchyResult.
func TypeHierarchy(r model.TypeHierarchyResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s (%s)\n", r.TypeName, r.Kind)
	fmt.Fprintf(&b, "  bases: %s\n", strings.Join(r.BaseTypes, " -> "))
	fmt.Fprintf(&b, "  interfaces: %s\n", strings.Join(r.Interfaces, ", "))

	if len(r.Members) > 0 {
		b.WriteString(Symbols(r.Members, false))
	}

	return b.String()
}

// Projects renders a list of ProjectInfo, with a "(N projects)" header
// that also covers the empty-workspace case.
func Projects(results []model.ProjectInfo) string {
	var b strings.Builder

	fmt.Fprintf(&b, "(%d projects)\n", len(results))

	for _, p := range results {
		fmt.Fprintf(&b, "%s [%s, %s] %d files\n", p.Name, p.Framework, p.OutputType, p.SourceFileCount)
	}

	return b.String()
}

// Project renders a single ProjectInfo in detail.
func Project(p model.ProjectInfo) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", p.Name)
	fmt.Fprintf(&b, "  path: %s\n", p.FilePath)
	fmt.Fprintf(&b, "  framework: %s\n", p.Framework)
	fmt.Fprintf(&b, "  outputType: %s\n", p.OutputType)
	fmt.Fprintf(&b, "  sourceFiles: %d\n", p.SourceFileCount)

	if len(p.ProjectRefs) > 0 {
		fmt.Fprintf(&b, "  refs: %s\n", strings.Join(p.ProjectRefs, ", "))
	}

	if len(p.PackageRefs) > 0 {
		fmt.Fprintf(&b, "  packages: %s\n", strings.Join(p.PackageRefs, ", "))
	}

	return b.String()
}

// SourceFiles renders a plain list of file paths.
func SourceFiles(files []string) string {
	if len(files) == 0 {
		return "(0 files)\n"
	}

	return strings.Join(files, "\n") + "\n"
}

// Diagnostics renders a list of DiagnosticInfo in the order given.
func Diagnostics(diags []model.DiagnosticInfo) string {
	if len(diags) == 0 {
		return "(0 diagnostics)\n"
	}

	var b strings.Builder

	for _, d := range diags {
		fmt.Fprintf(&b, "[%s] %s %s: %s\n", d.Severity, d.ID, Location(d.File, d.Line), d.Message)
	}

	return b.String()
}

// Namespaces renders a plain, sorted list of namespace/package strings.
func Namespaces(namespaces []string) string {
	if len(namespaces) == 0 {
		return "(0 namespaces)\n"
	}

	return strings.Join(namespaces, "\n") + "\n"
}

// FileContent prepends 1-based line numbers to each line of content.
func FileContent(content string, startLine int) string {
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")

	var b strings.Builder

	for i, line := range lines {
		fmt.Fprintf(&b, "%d: %s\n", startLine+i, line)
	}

	return b.String()
}

// RenameSummary renders the changed-file summary from a rename, annotating
// the file that was also renamed on disk.
func RenameSummary(changes []Change) string {
	if len(changes) == 0 {
		return "(0 files changed)\n"
	}

	var b strings.Builder

	fmt.Fprintf(&b, "(%d files changed)\n", len(changes))

	for _, c := range changes {
		if c.Renamed {
			fmt.Fprintf(&b, "%s (renamed from %s)\n", c.Path, c.OldPath)
		} else {
			fmt.Fprintf(&b, "%s\n", c.Path)
		}

		if c.Diff != "" {
			b.WriteString(c.Diff)
		}
	}

	return b.String()
}

// Change is the formatter-facing shape of a refactor.FileChange, kept as
// its own type so this package does not import internal/refactor.
type Change struct {
	Path    string
	Renamed bool
	OldPath string
	Diff    string
}

// Smells groups SmellResult entries by severity (critical, warning, info)
// then smell name. Each smell group is headed by the smell name alone; the
// detail text appears on each finding's line, and no threshold text is
// rendered in the group header.
func Smells(results []model.SmellResult) string {
	if len(results) == 0 {
		return "(0 smells found)\n"
	}

	var b strings.Builder

	for _, sev := range []string{model.SeverityCritical, model.SeverityWarning, model.SeverityInfo} {
		bucket := filterSeverity(results, sev)
		if len(bucket) == 0 {
			continue
		}

		fmt.Fprintf(&b, "== %s ==\n", strings.ToUpper(sev))

		for _, group := range groupBySmell(bucket) {
			fmt.Fprintf(&b, "-- %s --\n", group.name)

			for _, r := range group.items {
				fmt.Fprintf(&b, "%s (%s) [%s]\n", r.SymbolName, r.Detail, Location(r.RelativeFile, r.Line))
			}
		}
	}

	return b.String()
}

// Unused renders a list of UnusedResult in the order given, one line per
// declaration, each name qualified with its package.
func Unused(results []model.UnusedResult) string {
	if len(results) == 0 {
		return "(0 unused declarations)\n"
	}

	var b strings.Builder

	fmt.Fprintf(&b, "(%d unused declarations)\n", len(results))

	for _, r := range results {
		fmt.Fprintf(&b, "%s %s.%s @ %s\n", r.Kind, r.Package, r.Name, Location(r.RelativeFile, r.Line))
	}

	return b.String()
}

type smellGroup struct {
	name  string
	items []model.SmellResult
}

func filterSeverity(results []model.SmellResult, sev string) []model.SmellResult {
	var out []model.SmellResult

	for _, r := range results {
		if r.Severity == sev {
			out = append(out, r)
		}
	}

	return out
}

func groupBySmell(results []model.SmellResult) []smellGroup {
	order := []string{}
	byName := map[string][]model.SmellResult{}

	for _, r := range results {
		if _, ok := byName[r.Smell]; !ok {
			order = append(order, r.Smell)
		}

		byName[r.Smell] = append(byName[r.Smell], r)
	}

	var groups []smellGroup
	for _, name := range order {
		groups = append(groups, smellGroup{name: name, items: byName[name]})
	}

	return groups
}
