package util

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// NormalizePatternPath cleans and normalizes paths for matcher/pattern usage.
func NormalizePatternPath(s string) string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(s, "\\", "/"))
	clean := path.Clean(trimmed)
	if clean == "." {
		return ""
	}
	return strings.TrimPrefix(clean, "./")
}

// HasPathPrefix returns true when path equals prefix or is contained within prefix.
func HasPathPrefix(path, prefix string) bool {
	path = NormalizePatternPath(path)
	prefix = NormalizePatternPath(prefix)
	if path == "" || prefix == "" {
		return path == prefix
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}

// RelativePath computes the path from baseDir to target using pure segment
// math: the longest common segment prefix is dropped, one ".." is emitted per
// remaining base segment, and the remaining target segments follow. No
// filesystem access is performed, so the result stays valid when the whole
// tree (base and target together) is relocated.
func RelativePath(baseDir, target string) string {
	base := splitSegments(baseDir)
	tgt := splitSegments(target)

	common := 0
	for common < len(base) && common < len(tgt) && base[common] == tgt[common] {
		common++
	}

	parts := make([]string, 0, len(base)-common+len(tgt)-common)
	for i := common; i < len(base); i++ {
		parts = append(parts, "..")
	}
	parts = append(parts, tgt[common:]...)
	if len(parts) == 0 {
		return "."
	}
	return strings.Join(parts, "/")
}

func splitSegments(p string) []string {
	clean := path.Clean(filepath.ToSlash(p))
	clean = strings.Trim(clean, "/")
	if clean == "" || clean == "." {
		return nil
	}
	return strings.Split(clean, "/")
}

// SortedStringKeys returns the map's keys in sorted order.
func SortedStringKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// WriteFileWithDirs creates parent directories (0755) and writes the file with perm.
func WriteFileWithDirs(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, perm)
}
