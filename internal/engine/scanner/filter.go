package scanner

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"phpmap/internal/shared/util"
)

// Filter applies the extension and exclude-pattern checks shared by the tree
// walker and the mapping builder. Exclude globs are matched against the
// root-relative slash path, extensions against the lowercased file suffix.
type Filter struct {
	extensions map[string]bool
	excludes   []glob.Glob
}

func NewFilter(extensions, exclude []string) (*Filter, error) {
	f := &Filter{extensions: make(map[string]bool, len(extensions))}
	for _, ext := range extensions {
		normalized := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if normalized == "" {
			continue
		}
		f.extensions[normalized] = true
	}

	for _, pattern := range exclude {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		f.excludes = append(f.excludes, g)
	}
	return f, nil
}

// MatchExtension reports whether the file's extension is in the configured set.
func (f *Filter) MatchExtension(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return false
	}
	return f.extensions[ext]
}

// Excluded reports whether the root-relative path matches an exclude pattern.
func (f *Filter) Excluded(relPath string) bool {
	normalized := util.NormalizePatternPath(relPath)
	for _, g := range f.excludes {
		if g.Match(normalized) {
			return true
		}
	}
	return false
}
