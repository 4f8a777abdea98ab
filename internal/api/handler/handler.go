// Package handler provides HTTP handlers for the trigger, config, score,
// and push endpoints. Handlers talk to the stores directly without a
// service layer in between.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/idsports/streamsync/internal/api/respond"
	"github.com/idsports/streamsync/internal/config"
	"github.com/idsports/streamsync/internal/event"
	"github.com/idsports/streamsync/internal/livestore"
	"github.com/idsports/streamsync/internal/push"
	"github.com/idsports/streamsync/internal/score"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	pool        *pgxpool.Pool
	cfg         *config.Config
	logger      *slog.Logger
	events      *event.Store
	configStore *score.ConfigStore
	live        *livestore.Store
	pushStore   *push.Store
	dispatcher  *push.Dispatcher // nil when VAPID keys are not configured
}

// New creates a Handler with shared dependencies. sender may be nil, in
// which case dispatch endpoints report "paused" instead of erroring.
func New(
	pool *pgxpool.Pool,
	cfg *config.Config,
	live *livestore.Store,
	sender *push.WebPushSender,
	logger *slog.Logger,
) *Handler {
	h := &Handler{
		pool:        pool,
		cfg:         cfg,
		logger:      logger,
		events:      event.NewStore(pool),
		configStore: score.NewConfigStore(pool),
		live:        live,
		pushStore:   push.NewStore(pool),
	}
	if sender != nil {
		h.dispatcher = push.NewDispatcher(push.NewStore(pool), sender, cfg.PushWorkers, cfg.DeliveryTimeout, logger)
	}
	return h
}

// Root serves API info at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Streamsync API",
		"version": "1.0.0",
		"status":  "running",
		"push":    h.dispatcher != nil,
	})
}

// HealthCheck returns basic health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	var n int
	err := h.pool.QueryRow(r.Context(), "health_check").Scan(&n)
	if err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckRedis verifies the live score store is reachable.
func (h *Handler) HealthCheckRedis(w http.ResponseWriter, r *http.Request) {
	if err := h.live.HealthCheck(r.Context()); err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"redis":     "disconnected",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"redis":     "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
