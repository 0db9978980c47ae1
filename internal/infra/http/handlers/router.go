package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-crm/internal/infra/http/middleware"
)

type RouterConfig struct {
	JWTSecret     string
	CORSOrigins   []string
	ImportLimiter *middleware.IPRateLimiter
	Logger        *zap.Logger

	Leads     *LeadHandler
	Board     *BoardHandler
	Dashboard *DashboardHandler
	Imports   *ImportHandler
	Health    *HealthHandler
}

func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", cfg.Health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))

		r.Route("/leads", func(r chi.Router) {
			r.Get("/", cfg.Leads.List)
			r.Post("/", cfg.Leads.Create)
			r.Post("/samples", cfg.Leads.SeedSamples)
			r.Put("/{id}", cfg.Leads.Update)
			r.Delete("/{id}", cfg.Leads.Delete)
			r.Patch("/{id}/stage", cfg.Board.MoveStage)
		})

		r.Get("/board", cfg.Board.Get)
		r.Get("/dashboard", cfg.Dashboard.Get)

		r.Route("/imports", func(r chi.Router) {
			r.Get("/template", cfg.Imports.Template)
			r.With(limiterOrPass(cfg.ImportLimiter)).Post("/", cfg.Imports.Upload)
			r.Get("/{id}", cfg.Imports.Get)
			r.With(limiterOrPass(cfg.ImportLimiter)).Put("/{id}", cfg.Imports.Reupload)
			r.Post("/{id}/commit", cfg.Imports.Commit)
			r.Post("/{id}/back", cfg.Imports.Back)
			r.Delete("/{id}", cfg.Imports.Cancel)
		})
	})

	return r
}

func limiterOrPass(l *middleware.IPRateLimiter) func(http.Handler) http.Handler {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return l.Handler
}
