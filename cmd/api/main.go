// Command api is the Streamsync API server: event listings, live score
// snapshots, push subscription management, and the cron entry points that
// drive score ingestion and notification dispatch.
//
// Usage:
//
//	streamsync-api
//	API_PORT=8080 streamsync-api
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/idsports/streamsync/internal/api"
	"github.com/idsports/streamsync/internal/config"
	"github.com/idsports/streamsync/internal/db"
	"github.com/idsports/streamsync/internal/livestore"
	"github.com/idsports/streamsync/internal/maintenance"
	"github.com/idsports/streamsync/internal/push"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Connect to the live score store
	live, err := livestore.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("Failed to connect to live store", "error", err)
		os.Exit(1)
	}
	defer live.Close()
	logger.Info("Live store connected")

	// Web Push sender (nil when VAPID keys are absent)
	sender := push.NewWebPushSender(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubject)
	if sender != nil {
		logger.Info("Push dispatch enabled", "subject", cfg.VAPIDSubject)
	} else {
		logger.Info("Push dispatch disabled (no VAPID keys)")
	}

	// Start maintenance tickers (log cleanup, lifecycle sweep)
	go maintenance.Start(ctx, pool.Pool, maintenance.DefaultConfig(), logger)

	// Create router
	router := api.NewRouter(pool.Pool, live, sender, cfg, logger)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Streamsync API",
			"addr", addr,
			"environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
