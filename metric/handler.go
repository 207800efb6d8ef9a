package metric

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360/inferencecache/errors"
)

// Server exposes a MetricsRegistry over HTTP
type Server struct {
	addr     string
	path     string
	server   *http.Server
	registry *MetricsRegistry
	mu       sync.Mutex // protects server and stopped
	stopped  bool
}

// NewServer creates a new metrics server with the provided registry
func NewServer(port int, path string, registry *MetricsRegistry) *Server {
	if path == "" {
		path = "/metrics"
	}
	if port == 0 {
		port = 9090
	}

	return &Server{
		addr:     fmt.Sprintf(":%d", port),
		path:     path,
		registry: registry,
	}
}

// Handler returns the mux serving the metrics path
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(s.path, promhttp.HandlerFor(
		s.registry.PrometheusRegistry(),
		promhttp.HandlerOpts{EnableOpenMetrics: true},
	))
	return mux
}

// Start serves metrics until Stop is called. It blocks.
// It returns nil without listening once Stop has been called.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	if s.server != nil {
		s.mu.Unlock()
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "MetricsServer", "Start", "start metrics server")
	}
	if s.registry == nil {
		s.mu.Unlock()
		return errors.WrapFatal(errors.ErrMissingConfig, "MetricsServer", "Start", "metrics registry not provided")
	}

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}
	s.server = srv
	s.mu.Unlock()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.WrapFatal(err, "MetricsServer", "Start", fmt.Sprintf("listen on %s", s.addr))
	}
	return nil
}

// Stop shuts the metrics server down
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	if s.server == nil {
		return nil
	}
	err := s.server.Shutdown(ctx)
	s.server = nil
	if err != nil {
		return errors.WrapTransient(err, "MetricsServer", "Stop", "shutdown HTTP server")
	}
	return nil
}

// Address returns the scrape URL
func (s *Server) Address() string {
	return fmt.Sprintf("http://localhost%s%s", s.addr, s.path)
}
