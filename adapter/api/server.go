// Package api exposes the prioritization engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/prioritiai/pkg/observability"
	"github.com/google/uuid"
)

// Server is the HTTP API server.
type Server struct {
	mux     *http.ServeMux
	server  *http.Server
	logger  *slog.Logger
	handler *PrioritizationHandler
	health  *observability.HealthRegistry
	metrics http.Handler
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "0.0.0.0:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer creates a new API server. health and metrics may be nil.
func NewServer(cfg ServerConfig, handler *PrioritizationHandler, health *observability.HealthRegistry, metrics http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		handler: handler,
		health:  health,
		metrics: metrics,
	}
	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}

	s.mux.HandleFunc("POST /api/v1/prioritization/sync", s.handler.Score)
	s.mux.HandleFunc("POST /api/v1/prioritization/batch", s.handler.Batch)
	s.mux.HandleFunc("POST /api/v1/prioritization/recalculate", s.handler.Recalculate)
	s.mux.HandleFunc("GET /api/v1/prioritization/status/{id}", s.handler.Status)
	s.mux.HandleFunc("GET /api/v1/prioritization/history", s.handler.History)
	s.mux.HandleFunc("GET /api/v1/prioritization/privacy-audit", s.handler.PrivacyAudit)
	s.mux.HandleFunc("POST /api/v1/prioritization/{id}/lock", s.handler.Lock)
	s.mux.HandleFunc("POST /api/v1/prioritization/{id}/unlock", s.handler.Unlock)
	s.mux.HandleFunc("POST /api/v1/prioritization/{id}/override", s.handler.Override)
}

// Handler returns the routed handler wrapped with request context middleware.
func (s *Server) Handler() http.Handler {
	return withRequestContext(s.mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": string(observability.HealthStatusHealthy),
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	overall := s.health.GetOverallHealth(r.Context())
	status := http.StatusOK
	if overall.Status == observability.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, overall)
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.server.Shutdown(ctx)
}

// withRequestContext carries X-Correlation-ID through the request context and
// echoes it back, generating one when the caller sent none.
func withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get("X-Correlation-ID")
		if correlationID == "" {
			correlationID = uuid.NewString()
		}
		ctx := observability.WithCorrelationID(r.Context(), correlationID)
		ctx = observability.WithRequestID(ctx, uuid.NewString())
		w.Header().Set("X-Correlation-ID", correlationID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Fields  any    `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: http.StatusText(status), Message: message})
}
