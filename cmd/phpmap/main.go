package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"phpmap/internal/core/config"
	"phpmap/internal/shared/observability"
	"phpmap/internal/ui/cli"
)

var (
	configPath  = flag.String("config", "./phpmap.toml", "Path to config file")
	output      = flag.String("output", "", "Loader output path (overrides config)")
	table       = flag.Bool("table", false, "Print the identifier table and exit")
	watch       = flag.Bool("watch", false, "Regenerate the loader on source changes")
	dbPath      = flag.String("db", "", "Persist scans to this sqlite database")
	metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics and health on this address")
	otlp        = flag.String("otlp", "", "OTLP gRPC endpoint for traces")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	version     = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("phpmap v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		if *configPath != "./phpmap.toml" || !os.IsNotExist(err) {
			slog.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		// No config file is fine for ad-hoc runs; defaults apply.
		cfg = config.Default()
	}

	if flag.NArg() > 0 {
		cfg.Root = flag.Arg(0)
	}
	if *output != "" {
		cfg.Output.Loader = *output
	}
	if *dbPath != "" {
		cfg.DB.Enabled = true
		cfg.DB.Path = *dbPath
	}
	if *metricsAddr != "" {
		cfg.Observability.MetricsAddr = *metricsAddr
	}
	if *otlp != "" {
		cfg.Observability.OTLPEndpoint = *otlp
	}
	if *watch {
		cfg.Watch.Enabled = true
	}

	ctx := context.Background()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint)
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	app, err := NewApp(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if *table {
		if err := app.PrintTable(ctx); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		return
	}

	if err := app.Generate(ctx); err != nil {
		slog.Error("generation failed", "error", err)
		os.Exit(1)
	}

	if !cfg.Watch.Enabled {
		return
	}

	var obs *cli.ObservabilityServer
	if cfg.Observability.MetricsAddr != "" {
		obs = cli.NewObservabilityServer(cfg.Observability.MetricsAddr)
		if err := obs.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			os.Exit(1)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = obs.Stop(stopCtx)
		}()
	}

	if err := app.StartWatcher(ctx); err != nil {
		slog.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}

	select {}
}
