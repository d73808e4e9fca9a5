package autoload

import (
	"os"
	"sync"
)

// Includer loads a definition file into the host, at most once per path.
type Includer interface {
	Include(path string) error
}

// FileIncluder is the default include-once discipline: it verifies the file
// is readable, records it, and hands the content to an optional callback.
// Repeated Include calls for the same path are no-ops.
type FileIncluder struct {
	mu       sync.Mutex
	included map[string]bool

	// OnInclude receives the file content on first inclusion. Hosts embed
	// their own loading semantics here.
	OnInclude func(path string, content []byte)
}

func NewFileIncluder() *FileIncluder {
	return &FileIncluder{included: make(map[string]bool)}
}

func (f *FileIncluder) Include(path string) error {
	f.mu.Lock()
	if f.included[path] {
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()

	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	f.mu.Lock()
	already := f.included[path]
	f.included[path] = true
	f.mu.Unlock()
	if already {
		return nil
	}

	if f.OnInclude != nil {
		f.OnInclude(path, content)
	}
	return nil
}

// Included reports whether a path has been loaded.
func (f *FileIncluder) Included(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.included[path]
}
