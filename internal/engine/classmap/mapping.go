package classmap

import (
	"strings"
)

// Mapping is one scan's identifier table: fully qualified name to the
// absolute path of the defining file. Insertion order is traversal order and
// is preserved so case-insensitive lookup and rendered output stay
// reproducible within an invocation.
type Mapping struct {
	// Dir is the canonical scan root.
	Dir string
	// StaticFiles lists declaration-free files selected for eager inclusion.
	StaticFiles []string

	symbols map[string]string
	order   []string
}

func NewMapping(dir string) *Mapping {
	return &Mapping{
		Dir:     dir,
		symbols: make(map[string]string),
	}
}

// Add records name => path. A duplicate name silently overwrites the stored
// path (last writer wins) while keeping the name's original position.
func (m *Mapping) Add(name, path string) {
	if _, exists := m.symbols[name]; !exists {
		m.order = append(m.order, name)
	}
	m.symbols[name] = path
}

func (m *Mapping) Len() int {
	return len(m.order)
}

// Path returns the stored path for the exact declared name.
func (m *Mapping) Path(name string) (string, bool) {
	p, ok := m.symbols[name]
	return p, ok
}

// Lookup resolves a requested identifier. Case-sensitive mode is a direct
// key lookup; case-insensitive mode scans names in insertion order with
// ordinal folding, first match wins.
func (m *Mapping) Lookup(name string, caseSensitive bool) (string, bool) {
	if caseSensitive {
		return m.Path(name)
	}
	for _, candidate := range m.order {
		if strings.EqualFold(candidate, name) {
			return m.symbols[candidate], true
		}
	}
	return "", false
}

// Names returns the identifiers in insertion order.
func (m *Mapping) Names() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Table returns a copy of the identifier table.
func (m *Mapping) Table() map[string]string {
	out := make(map[string]string, len(m.symbols))
	for k, v := range m.symbols {
		out[k] = v
	}
	return out
}
