// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/idsports/streamsync/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// eventColumns is the shared column list for event row scans.
const eventColumns = `id, title, COALESCE(cover_image, ''),
	COALESCE(team_a_name, ''), COALESCE(team_a_logo, ''),
	COALESCE(team_b_name, ''), COALESCE(team_b_logo, ''),
	start_time, end_time, status, hidden, stream_links,
	use_automated_score, COALESCE(api_match_id, ''), manual_score,
	notified_pre_start, notified_live`

// registerPreparedStatements registers all statements the API and tick layers
// use. Prepared statements eliminate parse overhead on every request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Events: lifecycle
		"list_events": "SELECT " + eventColumns + " FROM events ORDER BY start_time",
		"event_mark_live": `
			UPDATE events SET status = 'Live', updated_at = NOW()
			WHERE id = $1`,
		// Ended is terminal: stream links are redacted in the same write.
		"event_mark_ended": `
			UPDATE events SET status = 'Ended', stream_links = '[]'::jsonb, updated_at = NOW()
			WHERE id = $1`,

		// Events: dispatch trigger candidates
		"reminder_candidates": "SELECT " + eventColumns + ` FROM events
			WHERE status = 'Scheduled' AND notified_pre_start = false
			  AND start_time >= $1 AND start_time <= $2
			ORDER BY start_time`,
		"live_alert_candidates": "SELECT " + eventColumns + ` FROM events
			WHERE status = 'Live' AND notified_live = false
			ORDER BY start_time`,

		// Events: dedup flag claims (compare-and-set; zero rows = already claimed)
		"claim_pre_start_flag": `
			UPDATE events SET notified_pre_start = true, updated_at = NOW()
			WHERE id = $1 AND notified_pre_start = false`,
		"claim_live_flag": `
			UPDATE events SET notified_live = true, updated_at = NOW()
			WHERE id = $1 AND notified_live = false`,

		// Operator config record (single row)
		"get_app_config": "SELECT active_match_id, cricket_api_key FROM app_config WHERE id = 1",
		"put_app_config": `
			INSERT INTO app_config (id, active_match_id, cricket_api_key, updated_at)
			VALUES (1, $1, $2, NOW())
			ON CONFLICT (id) DO UPDATE
			SET active_match_id = EXCLUDED.active_match_id,
			    cricket_api_key = EXCLUDED.cricket_api_key,
			    updated_at = NOW()`,

		// Push subscriptions
		"upsert_subscription": `
			INSERT INTO push_subscriptions (id, endpoint, p256dh, auth, created_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (id) DO UPDATE
			SET endpoint = EXCLUDED.endpoint, p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth`,
		"delete_subscription": "DELETE FROM push_subscriptions WHERE id = $1",
		"list_subscriptions":  "SELECT id, endpoint, p256dh, auth FROM push_subscriptions",
		"list_event_subscriptions": `
			SELECT s.id, s.endpoint, s.p256dh, s.auth
			FROM push_subscriptions s
			JOIN event_subscriptions es ON es.subscription_id = s.id
			WHERE es.event_id = $1`,
		"add_event_subscription": `
			INSERT INTO event_subscriptions (event_id, subscription_id, created_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT DO NOTHING`,

		// Notification logs (append-only; click_count incremented elsewhere)
		"insert_notification_log": `
			INSERT INTO notification_logs (id, title, body, sent_count, total_subs, click_count, type, sent_at)
			VALUES ($1, $2, $3, $4, $5, 0, $6, $7)`,
		"list_notification_logs": `
			SELECT id, title, body, sent_count, total_subs, click_count, type, sent_at
			FROM notification_logs ORDER BY sent_at DESC LIMIT $1`,

		// Scheduled notifications (existence is the pending state)
		"insert_scheduled": `
			INSERT INTO scheduled_notifications (id, title, body, url, image, send_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		"due_scheduled": `
			SELECT id, title, body, url, image, send_at
			FROM scheduled_notifications WHERE send_at <= $1 ORDER BY send_at`,
		"list_scheduled": `
			SELECT id, title, body, url, image, send_at
			FROM scheduled_notifications ORDER BY send_at`,
		"consume_scheduled": "DELETE FROM scheduled_notifications WHERE id = $1 RETURNING id",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
