package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "phpmap_scan_seconds",
		Help:    "Time spent building the classmap for a directory.",
		Buckets: prometheus.DefBuckets,
	})

	FilesScannedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phpmap_files_scanned_total",
		Help: "Total number of candidate files read and tokenized.",
	})

	FileScanErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phpmap_file_scan_errors_total",
		Help: "Total number of files skipped because they could not be read or tokenized.",
	})

	SymbolsExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phpmap_symbols_extracted_total",
		Help: "Total number of fully qualified names extracted across scans.",
	})

	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phpmap_cache_hits_total",
		Help: "Total number of classmap builds served from the scan cache.",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phpmap_cache_misses_total",
		Help: "Total number of classmap builds that required a directory scan.",
	})

	ResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phpmap_resolutions_total",
		Help: "Total number of autoload resolution attempts by outcome.",
	}, []string{"result"})

	ActiveLoaders = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "phpmap_active_loaders_total",
		Help: "Number of currently registered autoload resolvers.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phpmap_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
