// Package livestore is the shared live-score store. Snapshots are published
// here each ingestion tick and read by viewer clients and the score API.
//
// Backed by Redis: snapshots are pure cache, overwritten every tick, so keys
// carry a TTL and stale matches simply age out.
package livestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/idsports/streamsync/internal/score"
)

const (
	keyPrefix   = "events:"
	snapshotTTL = 24 * time.Hour
)

// ErrNotFound is returned by Get when no snapshot exists for a match.
var ErrNotFound = errors.New("no snapshot for match")

// Store is the Redis-backed snapshot store.
type Store struct {
	rdb *redis.Client
}

// New connects to Redis and verifies connectivity.
func New(ctx context.Context, redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Store{rdb: rdb}, nil
}

// Publish overwrites the snapshot for a match.
func (s *Store) Publish(ctx context.Context, matchID string, snap score.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", matchID, err)
	}
	if err := s.rdb.Set(ctx, keyPrefix+matchID, data, snapshotTTL).Err(); err != nil {
		return fmt.Errorf("publish snapshot %s: %w", matchID, err)
	}
	return nil
}

// Get returns the current snapshot for a match, or ErrNotFound.
func (s *Store) Get(ctx context.Context, matchID string) (*score.Snapshot, error) {
	data, err := s.rdb.Get(ctx, keyPrefix+matchID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", matchID, err)
	}
	var snap score.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", matchID, err)
	}
	return &snap, nil
}

// HealthCheck verifies Redis is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.rdb.Close()
}
