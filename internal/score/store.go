package score

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConfigStore reads and writes the single operator config record.
type ConfigStore struct {
	pool *pgxpool.Pool
}

// NewConfigStore creates a config store over the given pool.
func NewConfigStore(pool *pgxpool.Pool) *ConfigStore {
	return &ConfigStore{pool: pool}
}

// Get returns the operator config snapshot. A missing row means "ingestion
// paused", not an error.
func (s *ConfigStore) Get(ctx context.Context) (Record, error) {
	var rec Record
	var apiKey *string
	err := s.pool.QueryRow(ctx, "get_app_config").Scan(&rec.ActiveMatchID, &apiKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{ActiveMatchID: PausedSentinel}, nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("get app config: %w", err)
	}
	if apiKey != nil {
		rec.CricketAPIKey = *apiKey
	}
	return rec, nil
}

// Put overwrites the operator config record.
func (s *ConfigStore) Put(ctx context.Context, rec Record) error {
	var apiKey *string
	if rec.CricketAPIKey != "" {
		apiKey = &rec.CricketAPIKey
	}
	if _, err := s.pool.Exec(ctx, "put_app_config", rec.ActiveMatchID, apiKey); err != nil {
		return fmt.Errorf("put app config: %w", err)
	}
	return nil
}
