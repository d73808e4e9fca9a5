package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"phpmap/internal/engine/scanner"
	"phpmap/internal/shared/observability"
	"phpmap/internal/shared/util"
)

// Watcher follows a scan root recursively and reports batches of changed
// source files after a debounce window. Events for files outside the
// configured extension set, or matching an exclude pattern, are dropped
// before they reach the callback.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	root       string
	filter     *scanner.Filter
	debounce   time.Duration
	limiter    *util.Limiter
	onChange   func([]string)
	callbackMu sync.Mutex

	pending   map[string]time.Time
	pendingMu sync.Mutex
	timer     *time.Timer
}

// New builds a watcher for root. The limiter caps how many raw file system
// events per second get processed; editors and package managers can produce
// thousands during a single save or install.
func New(root string, filter *scanner.Filter, debounce time.Duration, onChange func([]string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher: fsw,
		root:      root,
		filter:    filter,
		debounce:  debounce,
		limiter:   util.NewLimiter(500, 1000),
		onChange:  onChange,
		pending:   make(map[string]time.Time),
	}, nil
}

// Start registers the directory tree and begins delivering change batches.
func (w *Watcher) Start() error {
	if err := w.watchRecursive(w.root); err != nil {
		return err
	}

	go w.run()
	return nil
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if w.excludedDir(path) {
				return filepath.SkipDir
			}
			return w.fsWatcher.Add(path)
		}

		return nil
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()
			if !w.limiter.Allow(1) {
				continue
			}

			if event.Op&fsnotify.Create == fsnotify.Create {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					if !w.excludedDir(event.Name) {
						if err := w.watchRecursive(event.Name); err != nil {
							slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
						} else {
							w.enqueueExistingFiles(event.Name)
						}
					}
					continue
				}
			}

			if !w.relevant(event.Name) {
				continue
			}

			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create ||
				event.Op&fsnotify.Remove == fsnotify.Remove ||
				event.Op&fsnotify.Rename == fsnotify.Rename {
				w.scheduleChange(event.Name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = time.Now()

	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.debounce, func() {
		w.flushChanges()
	})
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]time.Time)
	w.pendingMu.Unlock()

	if len(paths) > 0 {
		w.callbackMu.Lock()
		defer w.callbackMu.Unlock()
		w.onChange(paths)
	}
}

// relevant applies the same extension and exclude checks the scanner uses,
// so watch mode never rescans for files a scan would have skipped anyway.
func (w *Watcher) relevant(path string) bool {
	if !w.filter.MatchExtension(path) {
		return false
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	return !w.filter.Excluded(rel)
}

func (w *Watcher) excludedDir(path string) bool {
	if path == w.root {
		return false
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return true
	}
	return w.filter.Excluded(rel)
}

func (w *Watcher) enqueueExistingFiles(root string) {
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		if !w.relevant(path) {
			return nil
		}
		w.scheduleChange(path)
		return nil
	})
}

func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}
