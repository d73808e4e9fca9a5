package autoload

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"phpmap/internal/core/errors"
	"phpmap/internal/engine/classmap"
	"phpmap/internal/engine/token"
	"phpmap/internal/shared/observability"
)

// Registration records one successful Activate: the scanned directory, the
// exact handle the host returned, and the mapping the resolver closed over.
type Registration struct {
	Directory string
	Handle    Handle
	Mapping   *classmap.Mapping
}

// ActiveLoader is the inspection view of a registration.
type ActiveLoader struct {
	Directory   string
	SymbolCount int
}

// Service is the consumer-facing façade over scanning, live registration and
// artifact generation. It owns the process-wide registry of active resolvers
// and the builder's scan cache; all state is mutex-guarded so the service can
// live in a multi-threaded host.
type Service struct {
	mu       sync.Mutex
	builder  *classmap.Builder
	hooks    HookRegistry
	includer Includer
	active   []Registration
}

// NewService wires the façade. hooks defaults to an in-process chain and
// includer to the include-once file includer when nil.
func NewService(builder *classmap.Builder, hooks HookRegistry, includer Includer) *Service {
	if builder == nil {
		builder = classmap.NewBuilder()
	}
	if hooks == nil {
		hooks = NewChainRegistry()
	}
	if includer == nil {
		includer = NewFileIncluder()
	}
	return &Service{builder: builder, hooks: hooks, includer: includer}
}

func checkEnvironment() error {
	if err := token.Verify(); err != nil {
		return errors.Wrap(err, errors.CodeStaleEnvironment, "grammar runtime unavailable")
	}
	return nil
}

// Activate scans dir, builds a resolver over the resulting mapping and
// registers it with the host chain. An empty scan is a failure: nothing is
// registered.
func (s *Service) Activate(ctx context.Context, dir string, opts classmap.Options) error {
	ctx, span := observability.Tracer.Start(ctx, "autoload.Activate")
	defer span.End()
	span.SetAttributes(attribute.String("phpmap.directory", dir))

	if err := checkEnvironment(); err != nil {
		return err
	}

	mapping, err := s.builder.Build(ctx, dir, opts)
	if err != nil {
		return err
	}
	if mapping.Len() == 0 {
		slog.Warn("activation skipped, scan produced no symbols", "directory", dir)
		return errors.AddContext(errors.New(errors.CodeEmptyResult, "no symbols found"), errors.CtxDirectory, dir)
	}

	handle, err := s.hooks.Register(s.resolverFor(mapping, opts.CaseSensitive), opts.Prepend)
	if err != nil {
		slog.Warn("host rejected resolver registration", "directory", dir, "error", err)
		return errors.Wrap(err, errors.CodeHookRejected, "host rejected resolver registration")
	}

	s.mu.Lock()
	s.active = append(s.active, Registration{
		Directory: mapping.Dir,
		Handle:    handle,
		Mapping:   mapping,
	})
	observability.ActiveLoaders.Set(float64(len(s.active)))
	s.mu.Unlock()

	// Static files are included eagerly at activation time; they have no
	// class names to resolve lazily.
	for _, file := range mapping.StaticFiles {
		if err := s.includer.Include(file); err != nil {
			slog.Warn("failed to include static file", "path", file, "error", err)
		}
	}
	return nil
}

func (s *Service) resolverFor(mapping *classmap.Mapping, caseSensitive bool) Resolver {
	return func(name string) bool {
		path, ok := mapping.Lookup(name, caseSensitive)
		if !ok {
			observability.ResolutionsTotal.WithLabelValues("miss").Inc()
			return false
		}
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			observability.ResolutionsTotal.WithLabelValues("unreadable").Inc()
			return false
		}
		if err := s.includer.Include(path); err != nil {
			observability.ResolutionsTotal.WithLabelValues("unreadable").Inc()
			return false
		}
		observability.ResolutionsTotal.WithLabelValues("hit").Inc()
		return true
	}
}

// ListActive returns the directory and symbol count of every registration.
func (s *Service) ListActive() []ActiveLoader {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ActiveLoader, 0, len(s.active))
	for _, reg := range s.active {
		out = append(out, ActiveLoader{
			Directory:   reg.Directory,
			SymbolCount: reg.Mapping.Len(),
		})
	}
	return out
}

// ClearCache empties the scan cache. Registered resolvers keep working: they
// hold their mapping directly.
func (s *Service) ClearCache() {
	s.builder.ClearCache()
}

// UnregisterAll removes every registered resolver from the host chain and
// clears the registry. The count only includes resolvers the host actually
// still knew about.
func (s *Service) UnregisterAll() int {
	s.mu.Lock()
	regs := s.active
	s.active = nil
	observability.ActiveLoaders.Set(0)
	s.mu.Unlock()

	count := 0
	for _, reg := range regs {
		if s.hooks.Unregister(reg.Handle) {
			count++
		}
	}
	return count
}
