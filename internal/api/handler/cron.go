package handler

import (
	"net/http"
	"time"

	"github.com/idsports/streamsync/internal/api/respond"
	"github.com/idsports/streamsync/internal/event"
	"github.com/idsports/streamsync/internal/provider/cricket"
	"github.com/idsports/streamsync/internal/push"
	"github.com/idsports/streamsync/internal/score"
)

// ScoreTick handles GET /cron/score. Each invocation is one full ingestion
// pass: read the operator config, fetch every active match, publish the
// snapshots. Ticks are stateless, so a failed match is retried naturally on
// the next invocation.
func (h *Handler) ScoreTick(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rec, err := h.configStore.Get(ctx)
	if err != nil {
		h.logger.Error("Score tick config read failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "CONFIG_READ_FAILED", "Could not read app config")
		return
	}

	ids := score.ActiveMatchIDs(rec.ActiveMatchID)
	if len(ids) == 0 {
		respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "No active match configured, ingestion paused",
			"results": []score.Outcome{},
		})
		return
	}

	apiKey := rec.CricketAPIKey
	if apiKey == "" {
		apiKey = h.cfg.CricketAPIKey
	}
	if apiKey == "" {
		respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "No cricket API credential configured, ingestion paused",
			"results": []score.Outcome{},
		})
		return
	}

	client := cricket.NewClient(h.cfg.CricketAPIHost, apiKey, h.cfg.CricketAPIRPM, h.logger)
	outcomes := score.Run(ctx, rec, client, h.live, h.cfg.ScoreWorkers, h.cfg.FetchTimeout, h.logger)

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"results": outcomes,
	})
}

// NotificationsTick handles GET /cron/notifications. One pass reconciles
// event lifecycles first, so a freshly started event can be announced in the
// same tick, then evaluates the dispatch triggers.
func (h *Handler) NotificationsTick(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := time.Now().UTC()

	_, rec := event.Reconcile(ctx, h.events, now, h.logger)
	h.logger.Info("Lifecycle pass complete", "summary", rec.Summary())

	if h.dispatcher == nil {
		respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
			"success":   true,
			"message":   "Push dispatch disabled, VAPID keys not configured",
			"lifecycle": rec.Summary(),
			"results":   []push.TriggerResult{},
		})
		return
	}

	results := push.RunTriggers(ctx, h.events, h.pushStore, h.dispatcher, now, h.logger)
	if results == nil {
		results = []push.TriggerResult{}
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"lifecycle": rec.Summary(),
		"results":   results,
	})
}
