package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"phpmap/internal/core/config"
	"phpmap/internal/core/watcher"
	"phpmap/internal/data/store"
	"phpmap/internal/engine/autoload"
	"phpmap/internal/engine/classmap"
	"phpmap/internal/engine/scanner"
	"phpmap/internal/shared/util"
)

type App struct {
	Config  *config.Config
	Builder *classmap.Builder
	Service *autoload.Service
	Store   *store.Store

	watcher *watcher.Watcher
}

func NewApp(cfg *config.Config) (*App, error) {
	builder := classmap.NewBuilder()
	app := &App{
		Config:  cfg,
		Builder: builder,
		Service: autoload.NewService(builder, nil, nil),
	}

	if cfg.DB.Enabled {
		st, err := store.Open(cfg.DB.Path)
		if err != nil {
			return nil, fmt.Errorf("open scan store: %w", err)
		}
		app.Store = st
	}

	return app, nil
}

func (a *App) Close() error {
	if a.watcher != nil {
		_ = a.watcher.Close()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// Generate scans the configured root and writes the loader artifact.
func (a *App) Generate(ctx context.Context) error {
	opts := a.Config.Options()

	source, err := a.Service.Render(ctx, a.Config.Root, opts)
	if err != nil {
		return err
	}

	target := a.loaderPath()
	if err := util.WriteFileWithDirs(target, []byte(source), 0o644); err != nil {
		return fmt.Errorf("write loader %q: %w", target, err)
	}
	slog.Info("loader written", "path", target)

	if a.Store != nil {
		mapping, err := a.Builder.Build(ctx, a.Config.Root, opts)
		if err != nil {
			return err
		}
		if err := a.Store.SaveMapping(mapping, opts.Fingerprint()); err != nil {
			slog.Warn("failed to persist scan", "error", err)
		}
	}
	return nil
}

// PrintTable writes the identifier table to stdout as name<TAB>path lines,
// sorted by name.
func (a *App) PrintTable(ctx context.Context) error {
	table, err := a.Service.RenderTable(ctx, a.Config.Root, a.Config.Options())
	if err != nil {
		return err
	}
	for _, name := range util.SortedStringKeys(table) {
		fmt.Printf("%s\t%s\n", name, table[name])
	}
	return nil
}

// StartWatcher regenerates the loader whenever source files under the root
// change. The loader artifact itself is excluded so a regeneration never
// triggers another one.
func (a *App) StartWatcher(ctx context.Context) error {
	opts := a.Config.Options()

	exclude := opts.Exclude
	if rel, err := filepath.Rel(a.Config.Root, a.loaderPath()); err == nil {
		exclude = append(exclude, filepath.ToSlash(rel))
	}

	filter, err := scanner.NewFilter(opts.Extensions, exclude)
	if err != nil {
		return err
	}

	w, err := watcher.New(a.Config.Root, filter, a.Config.Watch.Debounce, func(paths []string) {
		slog.Info("source changed, regenerating", "files", len(paths))
		a.Service.ClearCache()
		if err := a.Generate(ctx); err != nil {
			slog.Error("regeneration failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		_ = w.Close()
		return err
	}

	a.watcher = w
	slog.Info("watching for changes", "root", a.Config.Root, "debounce", a.Config.Watch.Debounce)
	return nil
}

// loaderPath resolves the configured loader target against the scan root so
// relative artifacts land where their __DIR__ anchoring expects them.
func (a *App) loaderPath() string {
	if filepath.IsAbs(a.Config.Output.Loader) {
		return a.Config.Output.Loader
	}
	return filepath.Join(a.Config.Root, a.Config.Output.Loader)
}
