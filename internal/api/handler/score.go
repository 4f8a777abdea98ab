package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/idsports/streamsync/internal/api/respond"
	"github.com/idsports/streamsync/internal/livestore"
	"github.com/idsports/streamsync/internal/provider/cricket"
	"github.com/idsports/streamsync/internal/score"
)

// GetScore handles GET /api/v1/score/{matchID}, serving the current snapshot
// from the live store.
func (h *Handler) GetScore(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")
	if matchID == "" {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_MATCH_ID", "Match id is required")
		return
	}

	snap, err := h.live.Get(r.Context(), matchID)
	if errors.Is(err, livestore.ErrNotFound) {
		respond.WriteError(w, http.StatusNotFound, "SCORE_NOT_FOUND", "No score snapshot for this match")
		return
	}
	if err != nil {
		h.logger.Error("Score read failed", "match_id", matchID, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "SCORE_READ_FAILED", "Could not read score snapshot")
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    snap,
	})
}

type manualScoreRequest struct {
	MatchID string          `json:"matchId"`
	Data    json.RawMessage `json:"data"`
}

// ManualScore handles POST /api/v1/score/manual. The body carries a raw
// match-center payload that is pushed through the same normalization as an
// ingestion tick, so manually published snapshots are indistinguishable from
// fetched ones.
func (h *Handler) ManualScore(w http.ResponseWriter, r *http.Request) {
	var req manualScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
		return
	}
	if req.MatchID == "" || len(req.Data) == 0 {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_FIELDS", "matchId and data are required")
		return
	}

	var m cricket.Match
	if err := json.Unmarshal(req.Data, &m); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_MATCH_DATA", "data is not a valid match payload")
		return
	}
	m.Raw = req.Data

	summary := score.Normalize(&m)
	if summary.Note == "" {
		summary.Note = "Manual Update"
	}
	snap := score.Snapshot{
		Summary:     summary,
		Details:     m.Raw,
		LastUpdated: time.Now().UnixMilli(),
	}

	if err := h.live.Publish(r.Context(), req.MatchID, snap); err != nil {
		h.logger.Error("Manual score publish failed", "match_id", req.MatchID, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "SCORE_PUBLISH_FAILED", "Could not publish score snapshot")
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"matchId": req.MatchID,
		"data":    snap,
	})
}
