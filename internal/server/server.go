package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"log/slog"

	"github.com/me/petms/internal/auth"
	"github.com/me/petms/internal/config"
	"github.com/me/petms/internal/live"
	"github.com/me/petms/internal/photo"
	"github.com/me/petms/internal/store"
	"github.com/me/petms/internal/ui"
)

// Server is the PetMS HTTP server: JSON API plus server-rendered UI.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.ServerConfig
	startTime time.Time
	store     store.Store
	auth      *auth.Service
	registry  *live.Registry
	photos    *photo.Store
	ui        *ui.UI
}

// New creates a new Server with all routes registered.
func New(cfg config.ServerConfig, st store.Store, photos *photo.Store, logger *slog.Logger) *Server {
	registry := live.NewRegistry(logger)

	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		config:    cfg,
		startTime: time.Now(),
		store:     st,
		auth:      auth.NewService(st, registry, logger),
		registry:  registry,
		photos:    photos,
	}

	s.ui = ui.New(st, s.auth, photos, logger, ui.Config{Secure: cfg.Secure})

	s.routes()
	return s
}

// Auth exposes the auth service (used by tests and the session sweeper).
func (s *Server) Auth() *auth.Service {
	return s.auth
}

// Registry exposes the live-connection registry.
func (s *Server) Registry() *live.Registry {
	return s.registry
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	// Owner photos
	if s.photos != nil {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.photos.Dir()))))
	}

	// UI routes (HTML)
	s.ui.RegisterRoutes(r)

	// API routes (JSON)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.handleDiscovery)
		r.Get("/health", s.handleHealth)

		// Session-authenticated API
		r.Group(func(r chi.Router) {
			r.Use(s.ui.APIAuthMiddleware)

			// Owners
			r.Route("/owners", func(r chi.Router) {
				r.Get("/", s.handleListOwners)
				r.Post("/", s.handleCreateOwner)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetOwner)
					r.Put("/", s.handleUpdateOwner)
					r.Delete("/", s.handleDeleteOwner)
				})
			})

			// Accounts (admin only)
			r.Get("/users", s.handleListUsers)

			// Live event stream; connecting registers the caller's user in
			// the live registry.
			r.Get("/events", s.handleEvents)
		})
	})
}
