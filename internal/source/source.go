// Package source implements the two direct-read operations from spec
// section 6.1's "Source" group: symbolSource (the declaration text of an
// already-resolved symbol) and fileContent (a raw, line-numbered file
// read with a hard size ceiling).
package source

import (
	"bufio"
	"bytes"
	"fmt"
	"go/types"
	"os"
	"strings"

	"gocode-navigator/internal/codeerr"
	"gocode-navigator/internal/query"
	"gocode-navigator/internal/workspace"
)

// MaxFileContentBytes is the hard ceiling on fileContent reads (spec
// section 6.1): 5 MiB.
const MaxFileContentBytes = 5 * 1024 * 1024

// SymbolSource returns the doc comment and full declaration text of sym,
// whichever package in the solution declares it.
func SymbolSource(h *workspace.SolutionHandle, sym types.Object) (doc, body string, err error) {
	for _, pkg := range h.Packages {
		if pkg.Types != sym.Pkg() {
			continue
		}

		doc, body = query.SourceOf(pkg, sym)

		if body == "" {
			return "", "", codeerr.New(codeerr.NotFound, "symbol has no in-source declaration")
		}

		return doc, body, nil
	}

	return "", "", codeerr.New(codeerr.NotFound, "symbol's package is not part of this solution")
}

// FileContent reads path and renders it with 1-based line numbers
// prepended to each line, optionally restricted to [startLine, endLine]
// (1-based, inclusive; a zero endLine means "to the end of the file").
// Files larger than MaxFileContentBytes fail with TooLarge before any
// line is read.
func FileContent(path string, startLine, endLine int) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", codeerr.Wrap(codeerr.NotFound, "cannot stat "+path, err)
	}

	if info.Size() > MaxFileContentBytes {
		return "", codeerr.Newf(codeerr.TooLarge, "%s is %d bytes, exceeds the %d byte ceiling", path, info.Size(), MaxFileContentBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", codeerr.Wrap(codeerr.NotFound, "cannot read "+path, err)
	}

	if startLine <= 0 {
		startLine = 1
	}

	var b strings.Builder

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), MaxFileContentBytes)

	line := 0
	for scanner.Scan() {
		line++

		if line < startLine {
			continue
		}

		if endLine > 0 && line > endLine {
			break
		}

		fmt.Fprintf(&b, "%d: %s\n", line, scanner.Text())
	}

	return b.String(), nil
}
