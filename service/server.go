package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/c360/inferencecache/errors"
	"github.com/c360/inferencecache/health"
	"github.com/c360/inferencecache/metric"
	"github.com/c360/inferencecache/readability"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

type contextKey string

const requestIDKey contextKey = "request_id"

// ServerConfig configures the analyze HTTP API.
type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxTextBytes int
}

// Server exposes the Analyzer over HTTP.
type Server struct {
	cfg      ServerConfig
	analyzer *Analyzer
	monitor  *health.Monitor
	metrics  *metric.Metrics
	logger   *slog.Logger

	mu      sync.Mutex // protects server and stopped
	server  *http.Server
	stopped bool

	draining atomic.Bool
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerMetrics records request counts and latencies.
func WithServerMetrics(m *metric.Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// WithServerHealth reports statuses tracked by m on /health and /ready.
func WithServerHealth(m *health.Monitor) ServerOption {
	return func(s *Server) { s.monitor = m }
}

// WithServerLogger sets the logger.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates the API server. It does not listen until Start.
func NewServer(cfg ServerConfig, analyzer *Analyzer, opts ...ServerOption) (*Server, error) {
	if analyzer == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Server", "NewServer", "analyzer is required")
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Server", "NewServer",
			fmt.Sprintf("validate port %d", cfg.Port))
	}

	s := &Server{
		cfg:      cfg,
		analyzer: analyzer,
		logger:   slog.Default().With("component", "server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.monitor == nil {
		s.monitor = health.NewMonitor()
	}
	return s, nil
}

// Handler returns the routed API handler wrapped in request middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.handle(mux, "GET /analyze", s.handleAnalyze)
	s.handle(mux, "GET /readability", s.handleReadability)
	s.handle(mux, "GET /health", s.handleHealth)
	s.handle(mux, "GET /ready", s.handleReady)
	s.handle(mux, "GET /stats", s.handleStats)
	return mux
}

func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, s.instrument(pattern, h))
}

// Start listens on the configured port and blocks until Stop.
// It returns nil without listening once Stop has been called.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	if s.server != nil {
		s.mu.Unlock()
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Server", "Start", "start API server")
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}
	s.server = srv
	s.mu.Unlock()

	s.logger.Info("API server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.WrapFatal(err, "Server", "Start", fmt.Sprintf("listen on %s", srv.Addr))
	}
	return nil
}

// Stop gracefully shuts the server down, waiting for in-flight requests
// until ctx expires. A Stop before Start prevents the server from starting.
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
		return errors.WrapTransient(err, "Server", "Stop", "shutdown HTTP server")
	}
	return nil
}

// MarkNotReady makes /ready report NotReady while other routes keep serving.
func (s *Server) MarkNotReady() {
	if s.draining.CompareAndSwap(false, true) {
		s.logger.Info("API server draining")
	}
}

// Ready reports whether the server still accepts new traffic.
func (s *Server) Ready() bool {
	return !s.draining.Load()
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	text, err := s.textParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	analysis, err := s.analyzer.Analyze(r.Context(), text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

type readabilityResponse struct {
	Grade     float64 `json:"grade"`
	Sentences int     `json:"sentences"`
	Words     int     `json:"words"`
	Syllables int     `json:"syllables"`
}

func (s *Server) handleReadability(w http.ResponseWriter, r *http.Request) {
	text, err := s.textParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	stats := readability.Analyze(text)
	writeJSON(w, http.StatusOK, readabilityResponse{
		Grade:     stats.Grade(),
		Sentences: stats.Sentences,
		Words:     stats.Words,
		Syllables: stats.Syllables,
	})
}

func (s *Server) health() health.Status {
	s.monitor.Update(HealthCache, s.analyzer.CacheHealth())
	return s.monitor.AggregateHealth("inferencecache")
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := s.health()
	code := http.StatusOK
	if status.IsUnhealthy() {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !s.Ready() || s.health().IsUnhealthy() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "NotReady"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "Ready"})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.analyzer.CacheStats())
}

func (s *Server) textParam(r *http.Request) (string, error) {
	text := r.URL.Query().Get("text")
	if text == "" {
		return "", errors.WrapInvalid(errors.ErrMissingInput, "Server", "textParam", "read text parameter")
	}
	if s.cfg.MaxTextBytes > 0 && len(text) > s.cfg.MaxTextBytes {
		return "", errors.WrapInvalid(errors.ErrInputTooLarge, "Server", "textParam",
			fmt.Sprintf("check text length %d > %d", len(text), s.cfg.MaxTextBytes))
	}
	return text, nil
}

// statusCode maps a classified error to the HTTP status returned to clients.
func statusCode(err error) int {
	switch {
	case errors.Is(err, errors.ErrMissingInput):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrInputTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.IsInvalid(err):
		return http.StatusUnprocessableEntity
	case errors.IsTransient(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusCode(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "request_id", RequestID(r.Context()), "path", r.URL.Path, "error", err)
	} else {
		s.logger.Debug("Request rejected", "request_id", RequestID(r.Context()), "path", r.URL.Path, "error", err)
	}
	writeJSONError(w, code, err.Error())
}

// RequestID returns the correlation ID attached by the server middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument attaches a request ID and records the outcome of each request.
func (s *Server) instrument(route string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, id))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next(rec, r)
		elapsed := time.Since(start)

		if s.metrics != nil {
			s.metrics.RecordRequest(route, strconv.Itoa(rec.status), elapsed)
		}
		s.logger.Debug("Handled request",
			"request_id", id, "route", route, "status", rec.status, "duration", elapsed)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("Failed to encode response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}
