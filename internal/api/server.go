// Package api provides the HTTP API server and handlers for the Lectern application.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lecternapp/lectern-server/internal/search"
	"github.com/lecternapp/lectern-server/internal/service"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	library  *service.LibraryService
	progress *service.ProgressService
	search   *search.Index
	router   *chi.Mux
	api      huma.API
	logger   *slog.Logger

	mutationLimiter *RateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(library *service.LibraryService, progress *service.ProgressService, searchIndex *search.Index, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	mutationLimiter := NewRateLimiter(60, time.Minute, 20)

	// Middleware goes on first; humachi registers the OpenAPI routes and chi
	// rejects middleware added after any route.
	setupMiddleware(router, mutationLimiter, logger)

	humaConfig := huma.DefaultConfig("Lectern API", "1.0.0")
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		library:         library,
		progress:        progress,
		search:          searchIndex,
		router:          router,
		api:             api,
		logger:          logger,
		mutationLimiter: mutationLimiter,
	}

	s.registerHealthRoutes()
	s.registerCourseRoutes()
	s.registerProgressRoutes()
	s.registerSearchRoutes()
	s.setupMediaRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func setupMiddleware(router *chi.Mux, mutationLimiter *RateLimiter, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	router.Use(RateLimitMiddlewareForMutations(mutationLimiter, logger))
}

// setupMediaRoutes registers the raw streaming endpoints. These bypass
// huma: http.ServeFile needs the ResponseWriter for range requests.
func (s *Server) setupMediaRoutes() {
	s.router.Get("/api/v1/courses/{id}/lessons/{section}/{lesson}/video", s.handleStreamVideo)
	s.router.Get("/api/v1/courses/{id}/lessons/{section}/{lesson}/subtitle", s.handleStreamSubtitle)
}

// Close releases server-owned resources.
func (s *Server) Close() {
	s.mutationLimiter.Stop()
}
