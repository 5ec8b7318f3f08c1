package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marmos91/gatehouse/internal/logger"
)

// DefaultMetricsPort is used when metrics are enabled without a port.
const DefaultMetricsPort = 9090

// MetricsServer exposes a Prometheus registry on /metrics. It runs on its
// own port so scraping never goes through the session middleware.
type MetricsServer struct {
	server       *http.Server
	port         int
	shutdownOnce sync.Once
}

// NewMetricsServer creates a metrics server for gatherer.
func NewMetricsServer(port int, gatherer prometheus.Gatherer) *MetricsServer {
	if port == 0 {
		port = DefaultMetricsPort
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorLog: promErrorLogger{},
	}))

	return &MetricsServer{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		port: port,
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (m *MetricsServer) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("Metrics server listening", "port", m.port)
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return m.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("metrics server failed: %w", err)
	}
}

// Stop shuts the server down. Safe to call more than once.
func (m *MetricsServer) Stop(ctx context.Context) error {
	var shutdownErr error
	m.shutdownOnce.Do(func() {
		if err := m.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("metrics server shutdown error: %w", err)
			return
		}
		logger.Info("Metrics server stopped")
	})
	return shutdownErr
}

// Handler returns the server's handler, for tests.
func (m *MetricsServer) Handler() http.Handler {
	return m.server.Handler
}

// promErrorLogger routes promhttp errors to the application logger.
type promErrorLogger struct{}

func (promErrorLogger) Println(v ...any) {
	logger.Error("Metrics exposition failed", "error", fmt.Sprint(v...))
}
