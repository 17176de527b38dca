// Package api exposes the webhook ingestion endpoint: signature verification,
// payload extraction, normalization, and the idempotent bulk write, in that
// order. Requests are stateless; the only shared mutable resource is the
// store, reached exclusively through its atomic batch upsert.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/siteglance/ingest-gw/internal/event"
	"github.com/siteglance/ingest-gw/internal/storage"
)

// EventWriter is the store contract: one all-or-nothing batch upsert keyed
// by event id.
type EventWriter interface {
	IngestBatch(ctx context.Context, d storage.Delivery, events []event.Event) error
}

// Config holds ingestion server configuration.
type Config struct {
	Listen          string
	SignatureHeader string
	Secret          string
	MaxBodySize     int64
}

// Server represents the ingestion HTTP server.
type Server struct {
	config Config
	store  EventWriter
	logger *slog.Logger
	server *http.Server
}

// New creates a new ingestion server instance.
func New(config Config, store EventWriter, logger *slog.Logger) *Server {
	if config.SignatureHeader == "" {
		config.SignatureHeader = "X-Signature"
	}
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = 1 << 20
	}
	return &Server{
		config: config,
		store:  store,
		logger: logger,
	}
}

// Start starts the HTTP server (blocking).
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("ingest server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("ingest server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// setupRoutes configures the HTTP router.
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Post("/webhook/events", s.handleIngest)
	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// loggingMiddleware logs HTTP requests (no body content; payloads may carry PII).
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondJSON sends a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError sends a JSON error response.
func (s *Server) respondError(w http.ResponseWriter, status int, message, code string) {
	s.respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}
