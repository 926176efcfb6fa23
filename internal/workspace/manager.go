package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/tools/go/packages"

	"gocode-navigator/internal/codeerr"
	"gocode-navigator/internal/pathutil"
	"gocode-navigator/internal/telemetry"
)

// StaleWindow is the fixed gating window: a handle whose last staleness
// check falls within this window is trusted without a filesystem scan.
const StaleWindow = 5 * time.Second

// Manager is the single shared workspace cache. All of its exported
// methods are safe for concurrent use; a single mutex totally orders
// every cache mutation.
type Manager struct {
	mu         sync.Mutex
	handles    map[string]*SolutionHandle
	generation uint64
	watcher    *fileWatcher
}

// New creates an empty workspace manager and starts its best-effort
// filesystem watcher.
func New() *Manager {
	m := &Manager{handles: make(map[string]*SolutionHandle)}
	m.watcher = newFileWatcher(m.markDirty)

	return m
}

// Close stops the background filesystem watcher.
func (m *Manager) Close() {
	if m.watcher != nil {
		m.watcher.Close()
	}
}

// markDirty is called by the fsnotify watcher from its own goroutine; it
// makes the next Acquire for that solution skip the time-gate and run the
// modification-time scan at once, which reloads if any tracked file changed.
func (m *Manager) markDirty(solutionPath string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.handles[solutionPath]; ok {
		h.LastStaleCheck = time.Time{}
	}
}

// Acquire returns a fresh SolutionHandle for path, loading it if absent or
// stale.
func (m *Manager) Acquire(ctx context.Context, path string) (*SolutionHandle, error) {
	norm, dir, err := resolveSolutionPath(path)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.handles[norm]; ok {
		if m.isFresh(ctx, h) {
			return h, nil
		}
	}

	h, err := m.load(ctx, norm, dir)
	if err != nil {
		return nil, err
	}

	m.handles[norm] = h
	m.watcher.watch(norm)

	return h, nil
}

// isFresh applies the time-gated staleness policy, mutating LastStaleCheck
// inside the critical section since it is the one field every Acquire call
// writes.
func (m *Manager) isFresh(ctx context.Context, h *SolutionHandle) bool {
	if time.Since(h.LastStaleCheck) < StaleWindow {
		return true
	}

	if scanModified(h.FileModTimes, h.LoadTime) {
		return false
	}

	h.LastStaleCheck = time.Now()

	return true
}

// scanModified enumerates the tracked files and reports whether any is
// missing or newer than loadTime. Stat errors during the scan force a
// reload rather than being treated as "unchanged".
func scanModified(tracked map[string]time.Time, loadTime time.Time) bool {
	for path := range tracked {
		st, err := os.Stat(path)
		if err != nil {
			return true
		}

		if st.ModTime().After(loadTime) {
			return true
		}
	}

	return false
}

func (m *Manager) load(ctx context.Context, norm, dir string) (*SolutionHandle, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, codeerr.Wrap(codeerr.NotFound, "solution path does not exist: "+dir, err)
	}

	cfg := &packages.Config{
		Mode:    LoadTypesWithImports,
		Dir:     dir,
		Context: ctx,
	}

	pattern := "./..."
	if norm != dir {
		pattern = "file=" + norm
	}

	pkgs, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, codeerr.Wrap(codeerr.LoadFailed, "failed to load packages under "+dir, err)
	}

	if len(pkgs) == 0 {
		return nil, codeerr.New(codeerr.InvalidInput, "no Go packages found under "+dir)
	}

	var loadErrs []string

	for _, p := range pkgs {
		for _, e := range p.Errors {
			loadErrs = append(loadErrs, e.Error())
		}
	}

	if len(loadErrs) > 0 {
		telemetry.Warn("workspace.load", "package load produced diagnostics", map[string]string{
			"dir":   dir,
			"count": fmt.Sprintf("%d", len(loadErrs)),
		})
	}

	modTimes := make(map[string]time.Time)

	for _, p := range pkgs {
		for _, f := range p.CompiledGoFiles {
			if st, statErr := os.Stat(f); statErr == nil {
				modTimes[f] = st.ModTime()
			}
		}
	}

	m.generation++

	return &SolutionHandle{
		Path:           dir,
		LoadTime:       time.Now(),
		LastStaleCheck: time.Now(),
		Generation:     m.generation,
		Packages:       pkgs,
		FileModTimes:   modTimes,
	}, nil
}

// Compilation delegates to Acquire then selects the named package, or the
// first loaded package when projectName is empty.
func (m *Manager) Compilation(ctx context.Context, path, projectName string) (*SolutionHandle, Compilation, error) {
	h, err := m.Acquire(ctx, path)
	if err != nil {
		return nil, nil, err
	}

	pkg := h.ByName(projectName)
	if pkg == nil {
		return nil, nil, codeerr.Newf(codeerr.NotFound, "no project named %q", projectName)
	}

	return h, pkg, nil
}

// PostAction runs under the Manager's exclusive grant before the cache is
// invalidated; rename uses it to write its rewritten files and move a
// renamed file on disk.
type PostAction func() error

// Apply runs postAction (if any) and evicts the handle at path so the
// next Acquire reloads from disk. Both steps happen under one mutex
// acquisition, so a concurrent Acquire never observes the file renamed by
// postAction without also seeing the handle already evicted.
func (m *Manager) Apply(ctx context.Context, path string, postAction PostAction) error {
	norm, _, err := resolveSolutionPath(path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if postAction != nil {
		if err := postAction(); err != nil {
			return codeerr.Wrap(codeerr.ConflictFailed, "post-apply action failed", err)
		}
	}

	delete(m.handles, norm)

	return nil
}

// Invalidate disposes and evicts the handle at path, if present.
func (m *Manager) Invalidate(path string) {
	norm, _, err := resolveSolutionPath(path)
	if err != nil {
		return
	}

	m.mu.Lock()
	delete(m.handles, norm)
	m.mu.Unlock()
}

// Stats returns a diagnostic snapshot for the handle at path, or the zero
// value if none is cached.
func (m *Manager) Stats(path string) Stats {
	norm, _, err := resolveSolutionPath(path)
	if err != nil {
		return Stats{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.handles[norm]
	if !ok {
		return Stats{}
	}

	return Stats{
		Path:           h.Path,
		PackageCount:   len(h.Packages),
		Generation:     h.Generation,
		LoadTime:       h.LoadTime,
		LastStaleCheck: h.LastStaleCheck,
	}
}

// resolveSolutionPath normalizes path and returns both the normalized form
// (cache key) and the directory to hand to packages.Load. A single-file
// path resolves to its parent directory.
func resolveSolutionPath(path string) (norm, dir string, err error) {
	if path == "" {
		path = "."
	}

	norm, err = pathutil.Normalize(path)
	if err != nil {
		return "", "", codeerr.Wrap(codeerr.InvalidInput, "invalid solution path", err)
	}

	info, statErr := os.Stat(norm)
	if statErr != nil {
		return "", "", codeerr.Wrap(codeerr.NotFound, "solution path does not exist: "+path, statErr)
	}

	if info.IsDir() {
		return norm, norm, nil
	}

	if !strings.HasSuffix(norm, ".go") {
		return "", "", codeerr.New(codeerr.InvalidInput, "path is neither a directory nor a .go file: "+path)
	}

	return norm, filepath.Dir(norm), nil
}
