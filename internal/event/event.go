// Package event holds the event model and the lifecycle manager that derives
// each event's status from wall-clock time.
//
// Transitions are a pure function of (event, now); persistence only happens
// when the derived status differs from the stored one, which is what makes
// repeated passes idempotent. Delayed is operator-only and never touched here.
package event

import "time"

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Status is the event lifecycle state.
type Status string

const (
	StatusScheduled Status = "Scheduled"
	StatusLive      Status = "Live"
	StatusDelayed   Status = "Delayed"
	StatusEnded     Status = "Ended"
)

// TeamInfo describes one side of a fixture.
type TeamInfo struct {
	Name string `json:"name"`
	Logo string `json:"logo,omitempty"`
}

// StreamLink is one named stream channel.
type StreamLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ManualScore is an operator-entered score override, used when the event has
// no automated score binding.
type ManualScore struct {
	TeamA  string `json:"teamA,omitempty"`
	TeamB  string `json:"teamB,omitempty"`
	Status string `json:"status,omitempty"`
}

// Event is a streamed fixture.
type Event struct {
	ID                int64        `json:"id"`
	Title             string       `json:"title"`
	CoverImage        string       `json:"coverImage,omitempty"`
	TeamA             TeamInfo     `json:"teamA"`
	TeamB             TeamInfo     `json:"teamB"`
	StartTime         time.Time    `json:"startTime"`
	EndTime           *time.Time   `json:"endTime,omitempty"`
	Status            Status       `json:"status"`
	Hidden            bool         `json:"hidden"`
	StreamLinks       []StreamLink `json:"streamLinks"`
	UseAutomatedScore bool         `json:"useAutomatedScore"`
	APIMatchID        string       `json:"apiMatchId,omitempty"`
	ManualScore       *ManualScore `json:"manualScore,omitempty"`
	NotifiedPreStart  bool         `json:"-"`
	NotifiedLive      bool         `json:"-"`
}

// Started reports whether the event's start time has passed.
func (e *Event) Started(now time.Time) bool {
	return !e.StartTime.After(now)
}

// Concluded reports whether the event has an end time that has passed.
func (e *Event) Concluded(now time.Time) bool {
	return e.EndTime != nil && !e.EndTime.After(now)
}
