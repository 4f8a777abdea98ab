package handler

import (
	"net/http"
	"time"

	"github.com/idsports/streamsync/internal/api/respond"
	"github.com/idsports/streamsync/internal/event"
)

// ListEvents handles GET /api/v1/events. Statuses are reconciled against the
// clock before the list is returned, so readers always see current lifecycle
// state regardless of when the cron last ran. Hidden events are excluded
// unless ?all=true is passed.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	events, result := event.Reconcile(ctx, h.events, time.Now().UTC(), h.logger)
	if events == nil && len(result.Errors) > 0 {
		h.logger.Error("Event list failed", "errors", result.Errors)
		respond.WriteError(w, http.StatusInternalServerError, "EVENT_LIST_FAILED", "Could not load events")
		return
	}

	includeHidden := r.URL.Query().Get("all") == "true"
	out := make([]event.Event, 0, len(events))
	for _, e := range events {
		if e.Hidden && !includeHidden {
			continue
		}
		out = append(out, e)
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    out,
		"count":   len(out),
	})
}
