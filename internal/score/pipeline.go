package score

import (
	"context"
	"log/slog"
	"time"

	"github.com/idsports/streamsync/internal/provider/cricket"
)

// Fetcher fetches raw match data. Implemented by *cricket.Client.
type Fetcher interface {
	GetMatch(ctx context.Context, matchID string) (*cricket.Match, error)
}

// Publisher writes snapshots to the shared live store. Implemented by
// *livestore.Store.
type Publisher interface {
	Publish(ctx context.Context, matchID string, snap Snapshot) error
}

// Run executes one ingestion tick. Match ids are independent units processed
// by a bounded worker pool; one id's failure never blocks or aborts the
// others, and each fetch carries its own timeout so a slow upstream call
// cannot stall the tick.
func Run(
	ctx context.Context,
	rec Record,
	fetcher Fetcher,
	publisher Publisher,
	workers int,
	fetchTimeout time.Duration,
	logger *slog.Logger,
) []Outcome {
	ids := ActiveMatchIDs(rec.ActiveMatchID)
	if len(ids) == 0 {
		logger.Info("No active match configured, ingestion paused")
		return nil
	}

	if workers < 1 {
		workers = 1
	}
	if workers > len(ids) {
		workers = len(ids)
	}

	type work struct {
		idx int
		id  string
	}
	ch := make(chan work, len(ids))
	for i, id := range ids {
		ch <- work{i, id}
	}
	close(ch)

	outcomes := make([]Outcome, len(ids))
	done := make(chan struct{})
	for w := 0; w < workers; w++ {
		go func() {
			for item := range ch {
				outcomes[item.idx] = ingestOne(ctx, item.id, fetcher, publisher, fetchTimeout, logger)
			}
			done <- struct{}{}
		}()
	}
	for w := 0; w < workers; w++ {
		<-done
	}

	return outcomes
}

func ingestOne(
	ctx context.Context,
	matchID string,
	fetcher Fetcher,
	publisher Publisher,
	fetchTimeout time.Duration,
	logger *slog.Logger,
) Outcome {
	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	m, err := fetcher.GetMatch(fetchCtx, matchID)
	if err != nil {
		logger.Warn("Match fetch failed", "match_id", matchID, "error", err)
		return Outcome{MatchID: matchID, Status: StatusFailed, Error: err.Error()}
	}

	snap := Snapshot{
		Summary:     Normalize(m),
		Details:     m.Raw,
		LastUpdated: time.Now().UnixMilli(),
	}

	if err := publisher.Publish(ctx, matchID, snap); err != nil {
		logger.Warn("Snapshot publish failed", "match_id", matchID, "error", err)
		return Outcome{MatchID: matchID, Status: StatusFailed, Error: err.Error()}
	}

	logger.Info("Match updated",
		"match_id", matchID,
		"team_a", snap.Summary.TeamA, "team_b", snap.Summary.TeamB,
		"status", snap.Summary.Status)
	return Outcome{MatchID: matchID, Status: StatusUpdated}
}
