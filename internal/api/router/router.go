package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/pratik-mahalle/soar/internal/api/handlers"
	"github.com/pratik-mahalle/soar/internal/api/middleware"
	"github.com/pratik-mahalle/soar/internal/config"
	"github.com/pratik-mahalle/soar/internal/pkg/logger"
	"github.com/pratik-mahalle/soar/internal/pkg/metrics"
)

type Handlers struct {
	Health    *handlers.HealthHandler
	Incident  *handlers.IncidentHandler
	Playbook  *handlers.PlaybookHandler
	Isolation *handlers.IsolationHandler
	Dashboard *handlers.DashboardHandler
}

func New(cfg *config.Config, log *logger.Logger, h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(metrics.Middleware)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.DefaultCORS(cfg.Server.AllowedOrigin))
	r.Use(middleware.RateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst))

	// Probes and metrics
	r.Get("/health", h.Health.Healthz)
	r.Get("/healthz", h.Health.Healthz)
	r.Get("/readyz", h.Health.Readyz)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Read-only routes
		r.Get("/incidents", h.Incident.List)
		r.Get("/incidents/stats", h.Incident.Stats)
		r.Get("/incidents/{id}", h.Incident.Get)
		r.Get("/playbooks", h.Playbook.List)
		r.Get("/playbooks/{name}", h.Playbook.Get)
		r.Get("/dashboard", h.Dashboard.Get)

		// Mutating and compute routes require a token when auth is configured
		r.Group(func(r chi.Router) {
			if cfg.Auth.Enabled() {
				r.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret))
				r.Use(middleware.SubjectRateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst))
			}

			r.Post("/incidents", h.Incident.Submit)
			r.Post("/playbooks/score", h.Playbook.Score)
			r.Post("/isolation/strategy", h.Isolation.Strategy)
		})
	})

	return r
}
