package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/senzing-garage/redoer/internal/metrics"
)

// metricsHTTPServer is the optional A6 scrape endpoint: observability
// plumbing, not a management surface.
type metricsHTTPServer struct {
	srv    *http.Server
	logger *slog.Logger
}

func startMetricsServer(addr string, m *metrics.Metrics, logger *slog.Logger) *metricsHTTPServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	logger.Info("metrics endpoint listening", "addr", addr)
	return &metricsHTTPServer{srv: srv, logger: logger}
}

func (s *metricsHTTPServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("metrics server shutdown failed", "error", err)
	}
}
