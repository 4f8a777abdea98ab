// Package score implements the score ingestion pipeline: on each tick it
// resolves the operator-configured active match ids, fetches current match
// data per id, normalizes it, and publishes snapshots to the shared live
// store.
//
// Ticks are stateless: a failed id is simply retried on the next tick, so no
// backoff or terminal state is tracked.
package score

import "encoding/json"

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

// Outcome statuses reported back to the invoking scheduler.
const (
	StatusUpdated = "Updated"
	StatusFailed  = "Failed"
)

// PausedSentinel in the config's active-match field means ingestion is off.
const PausedSentinel = "0"

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Record is the operator config snapshot read once at tick start and passed
// by value through the pipeline.
type Record struct {
	ActiveMatchID string `json:"activeMatchId"`
	CricketAPIKey string `json:"cricketApiKey,omitempty"`
}

// Summary is the short normalized score shown in list views.
type Summary struct {
	Status string `json:"status"`
	TeamA  string `json:"teamA"`
	TeamB  string `json:"teamB"`
	Note   string `json:"note"`
	Type   string `json:"type,omitempty"`
}

// Snapshot is the published record for one match: summary plus the opaque
// upstream payload. Entirely overwritten each tick; a cache, not a record of
// truth.
type Snapshot struct {
	Summary     Summary         `json:"summary"`
	Details     json.RawMessage `json:"details,omitempty"`
	LastUpdated int64           `json:"lastUpdated"` // epoch-ms
}

// Outcome is the per-match result of one ingestion tick.
type Outcome struct {
	MatchID string `json:"matchId"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}
