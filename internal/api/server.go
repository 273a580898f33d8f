// Package api exposes the eligibility pipeline over HTTP for the chat
// backend.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Mutisya18/organic-fishstick-RAG/internal/cache"
	"github.com/Mutisya18/organic-fishstick-RAG/internal/domain"
	"github.com/Mutisya18/organic-fishstick-RAG/internal/orchestrator"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, cacheCfg domain.CacheConfig, orch *orchestrator.Orchestrator, counter cache.Counter, version string) *Server {
	handler := NewHandler(orch, counter, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)
	router.Use(RecoverMiddleware)
	router.Use(TracingMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(middleware.RealIP)
	router.Use(middleware.Compress(5))

	// Health endpoints (not rate limited)
	router.Get("/health", handler.Health)
	router.Get("/status", handler.Status)

	router.Route("/", func(r chi.Router) {
		if counter != nil && cacheCfg.RateLimit > 0 {
			r.Use(RateLimitMiddleware(counter, cacheCfg.RateLimit, cacheCfg.RateWindow))
		}

		r.Post("/eligibility", handler.Check)
	})

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
