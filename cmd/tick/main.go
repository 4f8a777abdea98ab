// Command tick runs one scheduler tick from the command line, for local
// development and for deployments that invoke ticks as one-shot jobs instead
// of hitting the cron HTTP endpoints.
//
// Usage:
//
//	streamsync-tick score
//	streamsync-tick notifications
//	streamsync-tick events
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/idsports/streamsync/internal/config"
	"github.com/idsports/streamsync/internal/db"
	"github.com/idsports/streamsync/internal/event"
	"github.com/idsports/streamsync/internal/livestore"
	"github.com/idsports/streamsync/internal/provider/cricket"
	"github.com/idsports/streamsync/internal/push"
	"github.com/idsports/streamsync/internal/score"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "streamsync-tick",
		Short: "Streamsync one-shot tick runner",
	}

	root.AddCommand(scoreCmd())
	root.AddCommand(notificationsCmd())
	root.AddCommand(eventsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// score command
// --------------------------------------------------------------------------

func scoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score",
		Short: "Run one score ingestion tick",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTick(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				rec, err := score.NewConfigStore(pool.Pool).Get(ctx)
				if err != nil {
					return fmt.Errorf("read app config: %w", err)
				}

				ids := score.ActiveMatchIDs(rec.ActiveMatchID)
				if len(ids) == 0 {
					logger.Info("No active match configured, nothing to do")
					return nil
				}

				apiKey := rec.CricketAPIKey
				if apiKey == "" {
					apiKey = cfg.CricketAPIKey
				}
				if apiKey == "" {
					return fmt.Errorf("no cricket API credential configured")
				}

				live, err := livestore.New(ctx, cfg.RedisURL)
				if err != nil {
					return fmt.Errorf("connect to live store: %w", err)
				}
				defer live.Close()

				client := cricket.NewClient(cfg.CricketAPIHost, apiKey, cfg.CricketAPIRPM, logger)
				start := time.Now()
				outcomes := score.Run(ctx, rec, client, live, cfg.ScoreWorkers, cfg.FetchTimeout, logger)
				logger.Info("Score tick finished",
					"duration", time.Since(start).Round(time.Millisecond),
					"matches", len(outcomes))
				for _, o := range outcomes {
					if o.Status == score.StatusFailed {
						logger.Error("match failed", "match_id", o.MatchID, "error", o.Error)
					}
				}
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// notifications command
// --------------------------------------------------------------------------

func notificationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notifications",
		Short: "Run one notification dispatch tick",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTick(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				now := time.Now().UTC()
				eventStore := event.NewStore(pool.Pool)

				_, rec := event.Reconcile(ctx, eventStore, now, logger)
				logger.Info("Lifecycle pass complete", "summary", rec.Summary())

				sender := push.NewWebPushSender(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubject)
				if sender == nil {
					logger.Info("Push dispatch disabled (no VAPID keys)")
					return nil
				}

				pushStore := push.NewStore(pool.Pool)
				d := push.NewDispatcher(pushStore, sender, cfg.PushWorkers, cfg.DeliveryTimeout, logger)

				start := time.Now()
				results := push.RunTriggers(ctx, eventStore, pushStore, d, now, logger)
				logger.Info("Notification tick finished",
					"duration", time.Since(start).Round(time.Millisecond),
					"dispatched", len(results))
				for _, r := range results {
					if r.Error != "" {
						logger.Error("dispatch error", "type", r.Type, "event", r.Event, "error", r.Error)
					}
				}
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// events command
// --------------------------------------------------------------------------

func eventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Run one lifecycle reconciliation pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTick(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				_, result := event.Reconcile(ctx, event.NewStore(pool.Pool), time.Now().UTC(), logger)
				logger.Info("Lifecycle pass complete", "summary", result.Summary())
				for _, e := range result.Errors {
					logger.Error("lifecycle error", "error", e)
				}
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// runTick handles config loading, DB connection, and context cancellation.
func runTick(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}
