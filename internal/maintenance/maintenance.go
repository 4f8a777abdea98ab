// Package maintenance runs periodic background tasks as Go tickers. The
// external cron endpoints drive ingestion and dispatch; these tickers cover
// the housekeeping that has no external trigger.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/idsports/streamsync/internal/event"
)

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	CleanupInterval time.Duration // Old broadcast logs + orphaned event subscriptions
	SweepInterval   time.Duration // Lifecycle sweep between cron hits
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		CleanupInterval: 6 * time.Hour,
		SweepInterval:   5 * time.Minute,
	}
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, pool *pgxpool.Pool, cfg Config, logger *slog.Logger) {
	logger.Info("Maintenance tickers started",
		"cleanup", cfg.CleanupInterval,
		"sweep", cfg.SweepInterval)

	tickers := make([]*time.Ticker, 0, 2)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	// Cleanup: purge old broadcast logs and dead event subscription links
	if cfg.CleanupInterval > 0 {
		t := time.NewTicker(cfg.CleanupInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() { cleanup(ctx, pool, logger) })
	}

	// Sweep: keep lifecycle statuses current even when the notifications
	// cron endpoint is not being hit
	if cfg.SweepInterval > 0 {
		t := time.NewTicker(cfg.SweepInterval)
		tickers = append(tickers, t)
		store := event.NewStore(pool)
		go runLoop(ctx, t.C, func() { lifecycleSweep(ctx, store, logger) })
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// --------------------------------------------------------------------------
// Task implementations
// --------------------------------------------------------------------------

// cleanup purges broadcast log records older than 30 days and subscription
// links pointing at events that ended more than 7 days ago.
func cleanup(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) {
	tag, err := pool.Exec(ctx, `
		DELETE FROM notification_logs
		WHERE sent_at < NOW() - INTERVAL '30 days'`)
	if err != nil {
		logger.Warn("Cleanup: failed to purge old broadcast logs", "error", err)
	} else if tag.RowsAffected() > 0 {
		logger.Info("Cleanup: purged old broadcast logs", "count", tag.RowsAffected())
	}

	tag, err = pool.Exec(ctx, `
		DELETE FROM event_subscriptions es
		USING events e
		WHERE e.id = es.event_id
		  AND e.status = 'Ended'
		  AND e.end_time < NOW() - INTERVAL '7 days'`)
	if err != nil {
		logger.Warn("Cleanup: failed to purge orphaned event subscriptions", "error", err)
	} else if tag.RowsAffected() > 0 {
		logger.Info("Cleanup: purged orphaned event subscriptions", "count", tag.RowsAffected())
	}
}

// lifecycleSweep reconciles event statuses against the clock.
func lifecycleSweep(ctx context.Context, store *event.Store, logger *slog.Logger) {
	_, result := event.Reconcile(ctx, store, time.Now().UTC(), logger)
	if result.WentLive > 0 || result.Ended > 0 || len(result.Errors) > 0 {
		logger.Info("Lifecycle sweep", "summary", result.Summary())
	}
}
