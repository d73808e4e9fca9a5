package cli

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"phpmap/internal/engine/token"
)

type healthStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ObservabilityServer exposes Prometheus metrics and a health endpoint for
// long-running watch mode.
type ObservabilityServer struct {
	addr   string
	server *http.Server
}

func NewObservabilityServer(addr string) *ObservabilityServer {
	return &ObservabilityServer{addr: addr}
}

func (s *ObservabilityServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	// Health is tied to the grammar runtime: if the parser cannot be
	// configured, every scan will fail.
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := healthStatus{Status: "up"}
		if err := token.Verify(); err != nil {
			status = healthStatus{Status: "down", Error: err.Error()}
		}
		w.Header().Set("Content-Type", "application/json")
		if status.Status != "up" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(status)
	})

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	slog.Info("observability server starting", "addr", s.addr)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("observability server failed", "error", err)
		}
	}()

	return nil
}

func (s *ObservabilityServer) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
