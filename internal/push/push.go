// Package push implements the notification dispatch engine: trigger
// evaluation (pre-start reminders, live alerts, operator-scheduled
// broadcasts), Web Push fan-out to the subscriber set, and per-broadcast
// delivery logging.
//
// Each trigger carries its own idempotency guard. Event flags are claimed
// with a compare-and-set before dispatching; scheduled broadcasts are
// consumed by deletion, so the entry's existence is the pending state. A
// claim that loses the race simply skips the entity.
package push

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// Outbound payload limits.
	MaxTitleLen = 50
	MaxBodyLen  = 200

	// Broadcast classifications as logged.
	TypeStandard  = "standard"  // operator-initiated immediate send
	TypeAutomated = "automated" // cron-triggered (reminder, live, scheduled)

	// Pre-start reminders fire for events starting inside a ±10 minute
	// window centered 60 minutes out.
	reminderLead   = 60 * time.Minute
	reminderWindow = 10 * time.Minute
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Subscription is one opted-in push endpoint.
type Subscription struct {
	ID       string `json:"id"`
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

// SubscriptionID derives the stable id for an endpoint. Hashing the endpoint
// makes re-subscribing the same browser an upsert instead of a duplicate.
func SubscriptionID(endpoint string) string {
	sum := sha256.Sum256([]byte(endpoint))
	return hex.EncodeToString(sum[:])
}

// Payload is the outbound push message.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Image string `json:"image,omitempty"`
}

// clamped returns a copy with title and body cut to their wire limits.
func (p Payload) clamped() Payload {
	if len(p.Title) > MaxTitleLen {
		p.Title = p.Title[:MaxTitleLen]
	}
	if len(p.Body) > MaxBodyLen {
		p.Body = p.Body[:MaxBodyLen]
	}
	return p
}

// Broadcast is one append-only delivery log record. Counts are a snapshot at
// dispatch time and are never retroactively corrected; ClickCount is
// incremented later by the click-tracking redirect.
type Broadcast struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body,omitempty"`
	SentCount  int       `json:"sentCount"`
	TotalSubs  int       `json:"totalSubs"`
	ClickCount int       `json:"clickCount"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
}

// Scheduled is an operator-authored broadcast queued for future delivery.
type Scheduled struct {
	ID     string    `json:"id"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	URL    string    `json:"url,omitempty"`
	Image  string    `json:"image,omitempty"`
	SendAt time.Time `json:"sendAt"`
}

// TriggerResult is one entry in the dispatch tick's response payload.
type TriggerResult struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Title string `json:"title,omitempty"`
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}
