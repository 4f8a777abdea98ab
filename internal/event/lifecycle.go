package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// LifecycleStore is the persistence surface Reconcile needs. Implemented by
// *Store; tests substitute an in-memory fake.
type LifecycleStore interface {
	List(ctx context.Context) ([]Event, error)
	MarkLive(ctx context.Context, id int64) error
	MarkEnded(ctx context.Context, id int64) error
}

// ReconcileResult summarizes one lifecycle pass.
type ReconcileResult struct {
	Evaluated int
	WentLive  int
	Ended     int
	Errors    []string
}

// Summary returns a human-readable summary.
func (r *ReconcileResult) Summary() string {
	return fmt.Sprintf("evaluated=%d live=%d ended=%d errors=%d",
		r.Evaluated, r.WentLive, r.Ended, len(r.Errors))
}

// Derive returns the status the event should have at the given instant and
// whether that differs from the stored status.
//
// Rules, Ended check first:
//   - end time set and passed, not already Ended → Ended (terminal)
//   - Scheduled, start time passed, end time absent or future → Live
//   - everything else (Delayed in particular) is left untouched
func Derive(e *Event, now time.Time) (Status, bool) {
	if e.Concluded(now) && e.Status != StatusEnded {
		return StatusEnded, true
	}
	if e.Status == StatusScheduled && e.Started(now) && !e.Concluded(now) {
		return StatusLive, true
	}
	return e.Status, false
}

// Reconcile applies Derive across the full event set and persists any
// transitions. Ended persists the redaction (stream links cleared) in the
// same write. Events are independent units: a persistence failure for one is
// collected and the rest still transition.
func Reconcile(ctx context.Context, store LifecycleStore, now time.Time, logger *slog.Logger) ([]Event, ReconcileResult) {
	var result ReconcileResult

	events, err := store.List(ctx)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("list events: %v", err))
		return nil, result
	}
	result.Evaluated = len(events)

	for i := range events {
		e := &events[i]
		next, changed := Derive(e, now)
		if !changed {
			continue
		}

		switch next {
		case StatusEnded:
			if err := store.MarkEnded(ctx, e.ID); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("event %d: mark ended: %v", e.ID, err))
				continue
			}
			e.Status = StatusEnded
			e.StreamLinks = []StreamLink{}
			result.Ended++
			logger.Info("Event ended", "event_id", e.ID, "title", e.Title)

		case StatusLive:
			if err := store.MarkLive(ctx, e.ID); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("event %d: mark live: %v", e.ID, err))
				continue
			}
			e.Status = StatusLive
			result.WentLive++
			logger.Info("Event went live", "event_id", e.ID, "title", e.Title)
		}
	}

	return events, result
}
