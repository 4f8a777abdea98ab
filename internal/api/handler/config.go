package handler

import (
	"encoding/json"
	"net/http"

	"github.com/idsports/streamsync/internal/api/respond"
	"github.com/idsports/streamsync/internal/score"
)

// GetAppConfig handles GET /api/v1/config. The API key is masked; only its
// presence is reported.
func (h *Handler) GetAppConfig(w http.ResponseWriter, r *http.Request) {
	rec, err := h.configStore.Get(r.Context())
	if err != nil {
		h.logger.Error("Config read failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "CONFIG_READ_FAILED", "Could not read app config")
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"activeMatchId": rec.ActiveMatchID,
		"hasApiKey":     rec.CricketAPIKey != "",
	})
}

// PutAppConfig handles PUT /api/v1/config, overwriting the single operator
// config record. An empty activeMatchId is stored as the paused sentinel.
func (h *Handler) PutAppConfig(w http.ResponseWriter, r *http.Request) {
	var rec score.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
		return
	}
	if rec.ActiveMatchID == "" {
		rec.ActiveMatchID = score.PausedSentinel
	}

	if err := h.configStore.Put(r.Context(), rec); err != nil {
		h.logger.Error("Config write failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "CONFIG_WRITE_FAILED", "Could not store app config")
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"activeMatchId": rec.ActiveMatchID,
	})
}
