package score

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/idsports/streamsync/internal/provider/cricket"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeFetcher struct {
	failIDs map[string]bool
	calls   int
	mu      sync.Mutex
}

func (f *fakeFetcher) GetMatch(ctx context.Context, matchID string) (*cricket.Match, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.failIDs[matchID] {
		return nil, fmt.Errorf("upstream 503")
	}
	return &cricket.Match{
		MatchInfo: cricket.MatchInfo{Status: "In Progress"},
		MatchScore: cricket.MatchScore{
			Team1Score: cricket.TeamScore{Inngs1: &cricket.Innings{Runs: 120, Wickets: 3}},
		},
		Raw: json.RawMessage(`{"matchId":"` + matchID + `"}`),
	}, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published map[string]Snapshot
}

func (p *fakePublisher) Publish(ctx context.Context, matchID string, snap Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.published == nil {
		p.published = make(map[string]Snapshot)
	}
	p.published[matchID] = snap
	return nil
}

func TestRunPausedConfigPerformsZeroFetches(t *testing.T) {
	fetcher := &fakeFetcher{}
	publisher := &fakePublisher{}

	outcomes := Run(context.Background(), Record{ActiveMatchID: "0"}, fetcher, publisher, 4, time.Second, discard())
	if len(outcomes) != 0 {
		t.Errorf("outcomes = %v, want none", outcomes)
	}
	if fetcher.calls != 0 {
		t.Errorf("fetch calls = %d, want 0", fetcher.calls)
	}
}

func TestRunOneFailureDoesNotBlockOthers(t *testing.T) {
	fetcher := &fakeFetcher{failIDs: map[string]bool{"222": true}}
	publisher := &fakePublisher{}

	outcomes := Run(context.Background(), Record{ActiveMatchID: "111,222,333"}, fetcher, publisher, 2, time.Second, discard())
	if len(outcomes) != 3 {
		t.Fatalf("outcomes = %d, want 3", len(outcomes))
	}

	byID := make(map[string]Outcome)
	for _, o := range outcomes {
		byID[o.MatchID] = o
	}
	if byID["111"].Status != StatusUpdated || byID["333"].Status != StatusUpdated {
		t.Errorf("sibling matches not updated: %+v", outcomes)
	}
	if byID["222"].Status != StatusFailed || byID["222"].Error == "" {
		t.Errorf("failed match not reported: %+v", byID["222"])
	}
	if len(publisher.published) != 2 {
		t.Errorf("published = %d snapshots, want 2", len(publisher.published))
	}
}

func TestRunPublishesNormalizedSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{}
	publisher := &fakePublisher{}

	Run(context.Background(), Record{ActiveMatchID: "12345"}, fetcher, publisher, 1, time.Second, discard())

	snap, ok := publisher.published["12345"]
	if !ok {
		t.Fatal("snapshot for 12345 not published")
	}
	if snap.Summary.TeamA != "120/3" {
		t.Errorf("teamA = %q, want 120/3", snap.Summary.TeamA)
	}
	if snap.LastUpdated == 0 {
		t.Error("lastUpdated not set")
	}
	if len(snap.Details) == 0 {
		t.Error("details payload not carried through")
	}
}
