package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/idsports/streamsync/internal/api/respond"
	"github.com/idsports/streamsync/internal/push"
)

type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
	EventID *int64 `json:"eventId,omitempty"`
}

// Subscribe handles POST /api/v1/push/subscribe. Re-subscribing the same
// endpoint is an upsert; an optional eventId additionally links the
// subscription to that event's reminder list.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
		return
	}
	if req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_FIELDS", "endpoint and keys are required")
		return
	}

	sub := push.Subscription{
		ID:       push.SubscriptionID(req.Endpoint),
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	}
	if err := h.pushStore.UpsertSubscription(r.Context(), sub); err != nil {
		h.logger.Error("Subscription upsert failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "SUBSCRIBE_FAILED", "Could not store subscription")
		return
	}

	if req.EventID != nil {
		if err := h.pushStore.AddEventSubscription(r.Context(), *req.EventID, sub.ID); err != nil {
			h.logger.Error("Event subscription link failed", "event_id", *req.EventID, "error", err)
			respond.WriteError(w, http.StatusInternalServerError, "SUBSCRIBE_FAILED", "Could not link subscription to event")
			return
		}
	}

	respond.WriteJSONObject(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"id":      sub.ID,
	})
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

// Unsubscribe handles DELETE /api/v1/push/subscribe.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Endpoint == "" {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "endpoint is required")
		return
	}

	if err := h.pushStore.RemoveSubscription(r.Context(), push.SubscriptionID(req.Endpoint)); err != nil {
		h.logger.Error("Subscription removal failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "UNSUBSCRIBE_FAILED", "Could not remove subscription")
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{"success": true})
}

type sendRequest struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	URL     string `json:"url,omitempty"`
	Image   string `json:"image,omitempty"`
	EventID *int64 `json:"eventId,omitempty"`
}

// SendNow handles POST /api/v1/push/send, an operator-initiated immediate
// broadcast. With an eventId it fans out to that event's subscriber subset
// only.
func (h *Handler) SendNow(w http.ResponseWriter, r *http.Request) {
	if h.dispatcher == nil {
		respond.WriteError(w, http.StatusServiceUnavailable, "PUSH_DISABLED", "Push dispatch is not configured")
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
		return
	}
	if req.Title == "" {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_FIELDS", "title is required")
		return
	}

	payload := push.Payload{Title: req.Title, Body: req.Body, URL: req.URL, Image: req.Image}

	var (
		b   push.Broadcast
		err error
	)
	if req.EventID != nil {
		b, err = h.dispatcher.SendToEvent(r.Context(), *req.EventID, payload, push.TypeStandard)
	} else {
		b, err = h.dispatcher.SendToAll(r.Context(), payload, push.TypeStandard)
	}
	if err != nil {
		h.logger.Error("Broadcast dispatch failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "SEND_FAILED", "Broadcast could not be fully dispatched")
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"id":        b.ID,
		"sentCount": b.SentCount,
		"totalSubs": b.TotalSubs,
	})
}

type scheduleRequest struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	URL    string `json:"url,omitempty"`
	Image  string `json:"image,omitempty"`
	SendAt string `json:"sendAt"`
}

// Schedule handles POST /api/v1/push/schedule, queueing a broadcast for
// future delivery by the notifications cron.
func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
		return
	}
	if req.Title == "" || req.SendAt == "" {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_FIELDS", "title and sendAt are required")
		return
	}
	sendAt, err := time.Parse(time.RFC3339, req.SendAt)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_SEND_AT", "sendAt must be an RFC 3339 timestamp")
		return
	}

	n := push.Scheduled{
		ID:     uuid.NewString(),
		Title:  req.Title,
		Body:   req.Body,
		URL:    req.URL,
		Image:  req.Image,
		SendAt: sendAt.UTC(),
	}
	if err := h.pushStore.InsertScheduled(r.Context(), n); err != nil {
		h.logger.Error("Schedule insert failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "SCHEDULE_FAILED", "Could not queue broadcast")
		return
	}

	respond.WriteJSONObject(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    n,
	})
}

// ListScheduled handles GET /api/v1/push/scheduled.
func (h *Handler) ListScheduled(w http.ResponseWriter, r *http.Request) {
	queue, err := h.pushStore.ListScheduled(r.Context())
	if err != nil {
		h.logger.Error("Scheduled list failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "SCHEDULED_LIST_FAILED", "Could not load scheduled broadcasts")
		return
	}
	if queue == nil {
		queue = []push.Scheduled{}
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    queue,
		"count":   len(queue),
	})
}

// ListLogs handles GET /api/v1/push/logs, newest first.
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			respond.WriteError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	logs, err := h.pushStore.ListLogs(r.Context(), limit)
	if err != nil {
		h.logger.Error("Log list failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "LOG_LIST_FAILED", "Could not load broadcast logs")
		return
	}
	if logs == nil {
		logs = []push.Broadcast{}
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    logs,
		"count":   len(logs),
	})
}
