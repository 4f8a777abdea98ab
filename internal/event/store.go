package event

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the Postgres-backed event store.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates an event store over the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// List returns every event ordered by start time.
func (s *Store) List(ctx context.Context) ([]Event, error) {
	rows, err := s.pool.Query(ctx, "list_events")
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// MarkLive transitions an event to Live.
func (s *Store) MarkLive(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, "event_mark_live", id)
	return err
}

// MarkEnded transitions an event to Ended and clears its stream links.
func (s *Store) MarkEnded(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, "event_mark_ended", id)
	return err
}

// RemindersDue returns Scheduled events with the pre-start flag unset whose
// start time falls inside [from, to].
func (s *Store) RemindersDue(ctx context.Context, from, to time.Time) ([]Event, error) {
	rows, err := s.pool.Query(ctx, "reminder_candidates", from, to)
	if err != nil {
		return nil, fmt.Errorf("reminder candidates: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// LiveAlertsDue returns Live events with the live-alert flag unset.
func (s *Store) LiveAlertsDue(ctx context.Context) ([]Event, error) {
	rows, err := s.pool.Query(ctx, "live_alert_candidates")
	if err != nil {
		return nil, fmt.Errorf("live alert candidates: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ClaimPreStartFlag atomically sets the one-hour-reminder flag. Returns false
// when another tick already claimed it.
func (s *Store) ClaimPreStartFlag(ctx context.Context, id int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, "claim_pre_start_flag", id)
	if err != nil {
		return false, fmt.Errorf("claim pre-start flag for event %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ClaimLiveFlag atomically sets the live-alert flag. Returns false when
// another tick already claimed it.
func (s *Store) ClaimLiveFlag(ctx context.Context, id int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, "claim_live_flag", id)
	if err != nil {
		return false, fmt.Errorf("claim live flag for event %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanEvents(rows pgx.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(
			&e.ID, &e.Title, &e.CoverImage,
			&e.TeamA.Name, &e.TeamA.Logo, &e.TeamB.Name, &e.TeamB.Logo,
			&e.StartTime, &e.EndTime, &e.Status, &e.Hidden, &e.StreamLinks,
			&e.UseAutomatedScore, &e.APIMatchID, &e.ManualScore,
			&e.NotifiedPreStart, &e.NotifiedLive,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
