package scanner

import (
	"log/slog"
	"os"
	"path/filepath"

	"phpmap/internal/core/errors"
)

// WalkOptions controls candidate enumeration under a scan root.
type WalkOptions struct {
	Filter         *Filter
	FollowSymlinks bool
}

// Walk enumerates candidate files under root in deterministic (per-directory
// sorted) order. root must already be absolute and canonical. Unreadable
// subdirectories are skipped with a warning; an unreadable root fails the
// walk. Symlinked directories are only descended into when FollowSymlinks is
// set, and never twice.
func Walk(root string, opts WalkOptions) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRootUnreadable, "cannot read scan root")
	}

	w := &walker{
		root:    root,
		opts:    opts,
		visited: map[string]bool{root: true},
	}
	w.descend(root, entries)
	return w.files, nil
}

type walker struct {
	root    string
	opts    WalkOptions
	visited map[string]bool
	files   []string
}

func (w *walker) descend(dir string, entries []os.DirEntry) {
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			w.enter(full)
			continue
		}

		if entry.Type()&os.ModeSymlink != 0 {
			info, err := os.Stat(full)
			if err != nil {
				slog.Warn("skipping broken symlink", "path", full, "error", err)
				continue
			}
			if info.IsDir() {
				if !w.opts.FollowSymlinks {
					slog.Debug("skipping symlinked directory", "path", full)
					continue
				}
				resolved, err := filepath.EvalSymlinks(full)
				if err != nil {
					slog.Warn("cannot resolve symlinked directory", "path", full, "error", err)
					continue
				}
				if w.visited[resolved] {
					slog.Debug("skipping already visited directory", "path", full)
					continue
				}
				w.visited[resolved] = true
				w.enter(full)
				continue
			}
			// Symlinked files are ordinary candidates.
		}

		w.candidate(full)
	}
}

func (w *walker) enter(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Warn("skipping unreadable directory", "path", dir, "error", err)
		return
	}
	w.descend(dir, entries)
}

func (w *walker) candidate(path string) {
	if !w.opts.Filter.MatchExtension(path) {
		return
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		slog.Warn("cannot derive root-relative path", "path", path, "error", err)
		return
	}
	if w.opts.Filter.Excluded(filepath.ToSlash(rel)) {
		slog.Debug("excluded by pattern", "path", path)
		return
	}
	w.files = append(w.files, path)
}
