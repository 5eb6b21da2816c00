package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	mw "github.com/lorrc/bug-burndown/internal/adapters/primary/http/middleware"
)

// RouterConfig holds everything the router mounts. RateLimiter, Metrics and
// Observer may be nil.
type RouterConfig struct {
	Logger         *slog.Logger
	Burndown       *BurndownHandler
	Health         *HealthHandler
	RateLimiter    *mw.RateLimiter
	Metrics        http.Handler
	Observer       mw.RequestObserver
	AllowedOrigins []string
}

// NewRouter builds the chi router with the global middleware chain.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(cfg.Logger, cfg.Observer))
	r.Use(mw.RecoveryLogger(cfg.Logger))

	// Probes and metrics are not rate limited
	cfg.Health.RegisterRoutes(r)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Group(func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Middleware)
		}

		r.Get("/", cfg.Burndown.HandlePage)

		r.Route("/api/v1", func(r chi.Router) {
			if len(cfg.AllowedOrigins) > 0 {
				r.Use(cors.Handler(cors.Options{
					AllowedOrigins: cfg.AllowedOrigins,
					AllowedMethods: []string{http.MethodGet, http.MethodOptions},
					AllowedHeaders: []string{"Accept", "Content-Type", mw.RequestIDHeader},
					ExposedHeaders: []string{mw.RequestIDHeader},
					MaxAge:         300,
				}))
			}
			r.Route("/burndown", cfg.Burndown.RegisterRoutes)
		})
	})

	return r
}
