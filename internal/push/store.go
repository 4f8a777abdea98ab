package push

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the Postgres-backed subscriber/stats store.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a push store over the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// --------------------------------------------------------------------------
// Subscriptions
// --------------------------------------------------------------------------

// UpsertSubscription stores an opted-in endpoint, deduplicating on the
// endpoint-derived id.
func (s *Store) UpsertSubscription(ctx context.Context, sub Subscription) error {
	if sub.ID == "" {
		sub.ID = SubscriptionID(sub.Endpoint)
	}
	if _, err := s.pool.Exec(ctx, "upsert_subscription", sub.ID, sub.Endpoint, sub.P256dh, sub.Auth); err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// RemoveSubscription deletes an endpoint (opt-out or permanent failure prune).
func (s *Store) RemoveSubscription(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, "delete_subscription", id); err != nil {
		return fmt.Errorf("remove subscription %s: %w", id, err)
	}
	return nil
}

// ListSubscriptions returns the global subscriber set.
func (s *Store) ListSubscriptions(ctx context.Context) ([]Subscription, error) {
	rows, err := s.pool.Query(ctx, "list_subscriptions")
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

// ListEventSubscriptions returns the subscriber subset that opted into one
// specific event.
func (s *Store) ListEventSubscriptions(ctx context.Context, eventID int64) ([]Subscription, error) {
	rows, err := s.pool.Query(ctx, "list_event_subscriptions", eventID)
	if err != nil {
		return nil, fmt.Errorf("list event subscriptions: %w", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

// AddEventSubscription links a subscription to an event ("remind me").
func (s *Store) AddEventSubscription(ctx context.Context, eventID int64, subscriptionID string) error {
	if _, err := s.pool.Exec(ctx, "add_event_subscription", eventID, subscriptionID); err != nil {
		return fmt.Errorf("add event subscription: %w", err)
	}
	return nil
}

func scanSubscriptions(rows pgx.Rows) ([]Subscription, error) {
	var subs []Subscription
	for rows.Next() {
		var sub Subscription
		if err := rows.Scan(&sub.ID, &sub.Endpoint, &sub.P256dh, &sub.Auth); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// --------------------------------------------------------------------------
// Broadcast logs
// --------------------------------------------------------------------------

// InsertLog appends one broadcast record.
func (s *Store) InsertLog(ctx context.Context, b Broadcast) error {
	_, err := s.pool.Exec(ctx, "insert_notification_log",
		b.ID, b.Title, b.Body, b.SentCount, b.TotalSubs, b.Type, b.Timestamp)
	if err != nil {
		return fmt.Errorf("insert notification log: %w", err)
	}
	return nil
}

// ListLogs returns the most recent broadcast records.
func (s *Store) ListLogs(ctx context.Context, limit int) ([]Broadcast, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, "list_notification_logs", limit)
	if err != nil {
		return nil, fmt.Errorf("list notification logs: %w", err)
	}
	defer rows.Close()

	var logs []Broadcast
	for rows.Next() {
		var b Broadcast
		var body *string
		if err := rows.Scan(&b.ID, &b.Title, &body, &b.SentCount, &b.TotalSubs,
			&b.ClickCount, &b.Type, &b.Timestamp); err != nil {
			return nil, fmt.Errorf("scan notification log: %w", err)
		}
		if body != nil {
			b.Body = *body
		}
		logs = append(logs, b)
	}
	return logs, rows.Err()
}

// --------------------------------------------------------------------------
// Scheduled notifications
// --------------------------------------------------------------------------

// InsertScheduled queues an operator broadcast for future delivery.
func (s *Store) InsertScheduled(ctx context.Context, n Scheduled) error {
	_, err := s.pool.Exec(ctx, "insert_scheduled",
		n.ID, n.Title, n.Body, nullable(n.URL), nullable(n.Image), n.SendAt)
	if err != nil {
		return fmt.Errorf("insert scheduled notification: %w", err)
	}
	return nil
}

// DueScheduled returns queued broadcasts whose delivery time has passed.
func (s *Store) DueScheduled(ctx context.Context, now time.Time) ([]Scheduled, error) {
	rows, err := s.pool.Query(ctx, "due_scheduled", now)
	if err != nil {
		return nil, fmt.Errorf("due scheduled notifications: %w", err)
	}
	defer rows.Close()
	return scanScheduled(rows)
}

// ListScheduled returns the whole queue, soonest first.
func (s *Store) ListScheduled(ctx context.Context) ([]Scheduled, error) {
	rows, err := s.pool.Query(ctx, "list_scheduled")
	if err != nil {
		return nil, fmt.Errorf("list scheduled notifications: %w", err)
	}
	defer rows.Close()
	return scanScheduled(rows)
}

// Consume deletes a queue entry, claiming it for dispatch. Returns false when
// another tick already consumed it.
func (s *Store) Consume(ctx context.Context, id string) (bool, error) {
	var deleted string
	err := s.pool.QueryRow(ctx, "consume_scheduled", id).Scan(&deleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("consume scheduled %s: %w", id, err)
	}
	return true, nil
}

func scanScheduled(rows pgx.Rows) ([]Scheduled, error) {
	var queue []Scheduled
	for rows.Next() {
		var n Scheduled
		var url, image *string
		if err := rows.Scan(&n.ID, &n.Title, &n.Body, &url, &image, &n.SendAt); err != nil {
			return nil, fmt.Errorf("scan scheduled notification: %w", err)
		}
		if url != nil {
			n.URL = *url
		}
		if image != nil {
			n.Image = *image
		}
		queue = append(queue, n)
	}
	return queue, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
