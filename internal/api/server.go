// Package api wires the HTTP surface: router, middleware, and handlers.
package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	corslib "github.com/rs/cors"

	"github.com/idsports/streamsync/internal/api/handler"
	"github.com/idsports/streamsync/internal/config"
	"github.com/idsports/streamsync/internal/livestore"
	"github.com/idsports/streamsync/internal/push"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(pool *pgxpool.Pool, live *livestore.Store, sender *push.WebPushSender, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "Link"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(pool, cfg, live, sender, logger)

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/redis", h.HealthCheckRedis)
	})

	// Cron entry points, invoked by an external scheduler every few minutes.
	r.Route("/cron", func(r chi.Router) {
		r.Get("/score", h.ScoreTick)
		r.Get("/notifications", h.NotificationsTick)
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Events
		r.Get("/events", h.ListEvents)

		// Live scores
		r.Get("/score/{matchID}", h.GetScore)
		r.Post("/score/manual", h.ManualScore)

		// Operator config
		r.Get("/config", h.GetAppConfig)
		r.Put("/config", h.PutAppConfig)

		// Push subscriptions and broadcasts
		r.Route("/push", func(r chi.Router) {
			r.Post("/subscribe", h.Subscribe)
			r.Delete("/subscribe", h.Unsubscribe)
			r.Post("/send", h.SendNow)
			r.Post("/schedule", h.Schedule)
			r.Get("/scheduled", h.ListScheduled)
			r.Get("/logs", h.ListLogs)
		})
	})

	return r
}
