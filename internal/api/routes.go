package api

import (
	"time"

	"github.com/go-chi/chi/v5"
)

// RouteConfig carries the settings SetupRoutes needs from the server config.
type RouteConfig struct {
	// JWTSecret guards the mutating routes; empty leaves them open.
	JWTSecret      []byte
	RequestTimeout time.Duration
	// MaxPendingGenerations bounds concurrent regenerate and reseed calls.
	MaxPendingGenerations int
}

func SetupRoutes(handler *Handler, cfg RouteConfig) *chi.Mux {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.MaxPendingGenerations <= 0 {
		cfg.MaxPendingGenerations = 2
	}

	r := chi.NewRouter()

	// Setup middleware
	for _, middleware := range SetupMiddleware(cfg.RequestTimeout) {
		r.Use(middleware)
	}

	// Health check endpoint
	r.Get("/health", handler.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/terrain", func(r chi.Router) {
			r.Get("/", handler.GetTerrain)
			r.Get("/heights", handler.GetHeights)
			r.Get("/mesh", handler.GetMesh)

			// Mutations (authentication required when a secret is configured)
			r.Group(func(r chi.Router) {
				r.Use(RequireToken(cfg.JWTSecret))
				r.Use(ThrottleGenerations(cfg.MaxPendingGenerations))
				r.Post("/regenerate", handler.Regenerate)
				r.Post("/reseed", handler.Reseed)
			})
		})

		r.Get("/snapshots", handler.ListSnapshots)
		r.Get("/snapshots/{id}", handler.GetSnapshot)
	})

	return r
}
