package classmap

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"phpmap/internal/core/errors"
	"phpmap/internal/engine/scanner"
	"phpmap/internal/engine/token"
	"phpmap/internal/shared/observability"
)

type cacheKey struct {
	dir         string
	fingerprint uint64
}

// Builder turns a directory tree into a Mapping. Results are memoized by
// (canonical directory, option fingerprint); the cache is never invalidated
// by filesystem changes, only by an explicit ClearCache. That trade-off is
// deliberate: repeated activations of the same tree must not rescan.
type Builder struct {
	mu    sync.Mutex
	cache map[cacheKey]*Mapping
}

func NewBuilder() *Builder {
	return &Builder{cache: make(map[cacheKey]*Mapping)}
}

// Build scans dir and returns its mapping, from cache when possible. An empty
// result is still returned (and cached); callers that need to treat "nothing
// found" as a failure check Len themselves.
func (b *Builder) Build(ctx context.Context, dir string, opts Options) (*Mapping, error) {
	_, span := observability.Tracer.Start(ctx, "classmap.Build")
	defer span.End()

	root, err := canonicalizeRoot(dir)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("phpmap.directory", root))

	key := cacheKey{dir: root, fingerprint: opts.Fingerprint()}
	b.mu.Lock()
	if cached, ok := b.cache[key]; ok {
		b.mu.Unlock()
		observability.CacheHitsTotal.Inc()
		span.SetAttributes(attribute.Bool("phpmap.cache_hit", true))
		return cached, nil
	}
	b.mu.Unlock()
	observability.CacheMissesTotal.Inc()

	mapping, err := b.scan(root, opts)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.cache[key] = mapping
	b.mu.Unlock()

	span.SetAttributes(attribute.Int("phpmap.symbols", mapping.Len()))
	return mapping, nil
}

// ClearCache drops every memoized scan. Already registered live loaders keep
// their mappings.
func (b *Builder) ClearCache() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cache = make(map[cacheKey]*Mapping)
}

func (b *Builder) scan(root string, opts Options) (*Mapping, error) {
	started := time.Now()
	defer func() {
		observability.ScanDuration.Observe(time.Since(started).Seconds())
	}()

	filter, err := scanner.NewFilter(opts.Extensions, opts.Exclude)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "invalid scan options")
	}

	files, err := scanner.Walk(root, scanner.WalkOptions{
		Filter:         filter,
		FollowSymlinks: opts.FollowSymlinks,
	})
	if err != nil {
		return nil, err
	}

	mapping := NewMapping(root)
	for _, file := range files {
		// The walker already filtered, but the candidate checks are cheap
		// and guard against future walker shortcuts: re-validate against the
		// root-relative path.
		rel, relErr := filepath.Rel(root, file)
		if relErr != nil || !filter.MatchExtension(file) || filter.Excluded(filepath.ToSlash(rel)) {
			continue
		}

		content, readErr := os.ReadFile(file)
		if readErr != nil {
			observability.FileScanErrorsTotal.Inc()
			slog.Warn("skipping unreadable file", "path", file, "error", readErr)
			continue
		}
		observability.FilesScannedTotal.Inc()

		syms := scanner.ExtractSymbols(token.Tokenize(content))
		for _, name := range syms.Names {
			mapping.Add(name, file)
		}
		observability.SymbolsExtractedTotal.Add(float64(len(syms.Names)))

		if opts.IncludeStatic && syms.IsStatic() {
			mapping.StaticFiles = append(mapping.StaticFiles, file)
		}
	}
	return mapping, nil
}

func canonicalizeRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeRootNotFound, "cannot resolve scan root")
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.AddContext(errors.New(errors.CodeRootNotFound, "scan root does not exist"), errors.CtxDirectory, dir)
		}
		return "", errors.Wrap(err, errors.CodeRootUnreadable, "cannot canonicalize scan root")
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeRootUnreadable, "cannot stat scan root")
	}
	if !info.IsDir() {
		return "", errors.New(errors.CodeRootNotFound, "scan root is not a directory")
	}
	return resolved, nil
}
