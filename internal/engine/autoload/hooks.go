// Package autoload exposes a scanned classmap either as a live resolver
// registered with a host loading chain, or as standalone generated artifacts.
package autoload

import (
	"sync"

	"github.com/google/uuid"
)

// Resolver attempts to satisfy a requested identifier. It reports whether the
// identifier was resolved and its defining file loaded.
type Resolver func(name string) bool

// Handle identifies one registered resolver. Unregistration requires the
// exact handle returned at registration time; handles are never reconstructed.
type Handle string

// HookRegistry is the host's dynamic-loading chain. The core treats it as an
// injected capability so scanning and resolution are testable without a real
// host loader.
type HookRegistry interface {
	// Register installs the resolver at the back of the chain, or the front
	// when prepend is set, and returns its handle.
	Register(r Resolver, prepend bool) (Handle, error)
	// Unregister removes a previously registered resolver. It reports false
	// when the handle is unknown, without raising.
	Unregister(h Handle) bool
}

type chainEntry struct {
	handle  Handle
	resolve Resolver
}

// ChainRegistry is the in-process HookRegistry used when no external host
// chain is supplied. Resolution walks entries in order, first success wins.
type ChainRegistry struct {
	mu      sync.Mutex
	entries []chainEntry
}

func NewChainRegistry() *ChainRegistry {
	return &ChainRegistry{}
}

func (c *ChainRegistry) Register(r Resolver, prepend bool) (Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := chainEntry{handle: Handle(uuid.NewString()), resolve: r}
	if prepend {
		c.entries = append([]chainEntry{entry}, c.entries...)
	} else {
		c.entries = append(c.entries, entry)
	}
	return entry.handle, nil
}

func (c *ChainRegistry) Unregister(h Handle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, entry := range c.entries {
		if entry.handle == h {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Resolve walks the chain until a resolver claims the identifier.
func (c *ChainRegistry) Resolve(name string) bool {
	c.mu.Lock()
	resolvers := make([]Resolver, len(c.entries))
	for i, entry := range c.entries {
		resolvers[i] = entry.resolve
	}
	c.mu.Unlock()

	for _, resolve := range resolvers {
		if resolve(name) {
			return true
		}
	}
	return false
}

// Len reports how many resolvers are currently registered.
func (c *ChainRegistry) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
