package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"gocode-navigator/internal/telemetry"
)

// fileWatcher is a best-effort auxiliary invalidation signal layered on
// top of the mandatory mtime-scan staleness check: when fsnotify fires for
// a watched solution, the matching handle is marked dirty immediately
// instead of waiting out the gating window. It is never the sole source
// of truth; the scan in Manager.isFresh still runs and still forces a
// reload on error.
type fileWatcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	watched  map[string]bool // solution directories already added
	onChange func(solutionPath string)

	debounce map[string]*time.Timer
}

func newFileWatcher(onChange func(string)) *fileWatcher {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		telemetry.Warn("workspace.watch", "fsnotify unavailable, falling back to scan-only staleness", nil)

		return &fileWatcher{onChange: onChange}
	}

	fw := &fileWatcher{
		watcher:  w,
		watched:  make(map[string]bool),
		onChange: onChange,
		debounce: make(map[string]*time.Timer),
	}

	go fw.loop()

	return fw
}

func (fw *fileWatcher) loop() {
	if fw.watcher == nil {
		return
	}

	for {
		select {
		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			fw.handle(ev)
		case _, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (fw *fileWatcher) handle(ev fsnotify.Event) {
	if !strings.HasSuffix(ev.Name, ".go") {
		return
	}

	fw.mu.Lock()

	solutionPath := ""
	for dir := range fw.watched {
		if strings.HasPrefix(ev.Name, dir) {
			if len(dir) > len(solutionPath) {
				solutionPath = dir
			}
		}
	}

	if solutionPath == "" {
		fw.mu.Unlock()
		return
	}

	if t, ok := fw.debounce[solutionPath]; ok {
		t.Stop()
	}

	fw.debounce[solutionPath] = time.AfterFunc(150*time.Millisecond, func() {
		fw.onChange(solutionPath)
	})

	fw.mu.Unlock()
}

// watch registers dir (and its non-hidden, non-vendor subdirectories) for
// change notifications. Failures are logged and otherwise ignored: the
// mandatory scan in Manager.isFresh covers for a watcher that never
// started.
func (fw *fileWatcher) watch(dir string) {
	if fw.watcher == nil {
		return
	}

	fw.mu.Lock()
	if fw.watched[dir] {
		fw.mu.Unlock()
		return
	}

	fw.watched[dir] = true
	fw.mu.Unlock()

	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		if !d.IsDir() {
			return nil
		}

		base := filepath.Base(path)
		if base != "." && strings.HasPrefix(base, ".") {
			return filepath.SkipDir
		}

		if base == "vendor" || base == "node_modules" {
			return filepath.SkipDir
		}

		if err := fw.watcher.Add(path); err != nil {
			telemetry.Warn("workspace.watch", "failed to watch directory", map[string]string{"dir": path})
		}

		return nil
	})
}

// Close releases the underlying fsnotify handle.
func (fw *fileWatcher) Close() {
	if fw.watcher != nil {
		_ = fw.watcher.Close()
	}
}
