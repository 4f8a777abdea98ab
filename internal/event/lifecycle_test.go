package event

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func timePtr(t time.Time) *time.Time { return &t }

// fakeStore is an in-memory LifecycleStore.
type fakeStore struct {
	events   []Event
	failIDs  map[int64]bool // IDs whose writes fail
	liveIDs  []int64
	endedIDs []int64
}

func (f *fakeStore) List(ctx context.Context) ([]Event, error) {
	out := make([]Event, len(f.events))
	copy(out, f.events)
	return out, nil
}

func (f *fakeStore) MarkLive(ctx context.Context, id int64) error {
	if f.failIDs[id] {
		return fmt.Errorf("write refused")
	}
	f.liveIDs = append(f.liveIDs, id)
	for i := range f.events {
		if f.events[i].ID == id {
			f.events[i].Status = StatusLive
		}
	}
	return nil
}

func (f *fakeStore) MarkEnded(ctx context.Context, id int64) error {
	if f.failIDs[id] {
		return fmt.Errorf("write refused")
	}
	f.endedIDs = append(f.endedIDs, id)
	for i := range f.events {
		if f.events[i].ID == id {
			f.events[i].Status = StatusEnded
			f.events[i].StreamLinks = []StreamLink{}
		}
	}
	return nil
}

func TestDerive(t *testing.T) {
	tests := []struct {
		name        string
		event       Event
		wantStatus  Status
		wantChanged bool
	}{
		{
			name: "scheduled event past start goes live",
			event: Event{
				Status:    StatusScheduled,
				StartTime: testNow.Add(-5 * time.Minute),
			},
			wantStatus:  StatusLive,
			wantChanged: true,
		},
		{
			name: "scheduled event before start stays scheduled",
			event: Event{
				Status:    StatusScheduled,
				StartTime: testNow.Add(2 * time.Hour),
			},
			wantStatus:  StatusScheduled,
			wantChanged: false,
		},
		{
			name: "scheduled event past start with future end goes live",
			event: Event{
				Status:    StatusScheduled,
				StartTime: testNow.Add(-5 * time.Minute),
				EndTime:   timePtr(testNow.Add(3 * time.Hour)),
			},
			wantStatus:  StatusLive,
			wantChanged: true,
		},
		{
			name: "past end time ends the event",
			event: Event{
				Status:    StatusLive,
				StartTime: testNow.Add(-4 * time.Hour),
				EndTime:   timePtr(testNow.Add(-time.Minute)),
			},
			wantStatus:  StatusEnded,
			wantChanged: true,
		},
		{
			name: "ended check wins over live check",
			event: Event{
				Status:    StatusScheduled,
				StartTime: testNow.Add(-4 * time.Hour),
				EndTime:   timePtr(testNow.Add(-time.Hour)),
			},
			wantStatus:  StatusEnded,
			wantChanged: true,
		},
		{
			name: "already ended is terminal",
			event: Event{
				Status:    StatusEnded,
				StartTime: testNow.Add(-4 * time.Hour),
				EndTime:   timePtr(testNow.Add(-time.Hour)),
			},
			wantStatus:  StatusEnded,
			wantChanged: false,
		},
		{
			name: "delayed is never auto-cleared even past start",
			event: Event{
				Status:    StatusDelayed,
				StartTime: testNow.Add(-time.Hour),
			},
			wantStatus:  StatusDelayed,
			wantChanged: false,
		},
		{
			name: "delayed with past end time still ends",
			event: Event{
				Status:    StatusDelayed,
				StartTime: testNow.Add(-4 * time.Hour),
				EndTime:   timePtr(testNow.Add(-time.Minute)),
			},
			wantStatus:  StatusEnded,
			wantChanged: true,
		},
		{
			name: "live event without end time stays live",
			event: Event{
				Status:    StatusLive,
				StartTime: testNow.Add(-time.Hour),
			},
			wantStatus:  StatusLive,
			wantChanged: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := Derive(&tt.event, testNow)
			if got != tt.wantStatus || changed != tt.wantChanged {
				t.Errorf("Derive() = (%s, %v), want (%s, %v)", got, changed, tt.wantStatus, tt.wantChanged)
			}
		})
	}
}

func TestReconcileRedactsEndedEvents(t *testing.T) {
	store := &fakeStore{
		events: []Event{{
			ID:          1,
			Title:       "Final",
			Status:      StatusLive,
			StartTime:   testNow.Add(-5 * time.Hour),
			EndTime:     timePtr(testNow.Add(-time.Hour)),
			StreamLinks: []StreamLink{{Name: "HD", URL: "https://cdn.example/hd.m3u8"}},
		}},
	}

	events, result := Reconcile(context.Background(), store, testNow, discard())
	if result.Ended != 1 {
		t.Fatalf("Ended = %d, want 1", result.Ended)
	}
	if events[0].Status != StatusEnded {
		t.Errorf("status = %s, want Ended", events[0].Status)
	}
	if len(events[0].StreamLinks) != 0 {
		t.Errorf("stream links not cleared: %v", events[0].StreamLinks)
	}

	// Second pass must be a no-op.
	_, again := Reconcile(context.Background(), store, testNow, discard())
	if again.Ended != 0 || again.WentLive != 0 {
		t.Errorf("second pass not idempotent: %s", again.Summary())
	}
}

func TestReconcileOneFailureDoesNotBlockOthers(t *testing.T) {
	store := &fakeStore{
		events: []Event{
			{ID: 1, Status: StatusScheduled, StartTime: testNow.Add(-time.Minute)},
			{ID: 2, Status: StatusScheduled, StartTime: testNow.Add(-time.Minute)},
			{ID: 3, Status: StatusScheduled, StartTime: testNow.Add(-time.Minute)},
		},
		failIDs: map[int64]bool{2: true},
	}

	_, result := Reconcile(context.Background(), store, testNow, discard())
	if result.WentLive != 2 {
		t.Errorf("WentLive = %d, want 2", result.WentLive)
	}
	if len(result.Errors) != 1 {
		t.Errorf("Errors = %v, want exactly one", result.Errors)
	}
}

func TestReconcileLeavesDelayedAlone(t *testing.T) {
	store := &fakeStore{
		events: []Event{{ID: 7, Status: StatusDelayed, StartTime: testNow.Add(-3 * time.Hour)}},
	}
	events, result := Reconcile(context.Background(), store, testNow, discard())
	if result.WentLive != 0 || result.Ended != 0 {
		t.Fatalf("delayed event transitioned: %s", result.Summary())
	}
	if events[0].Status != StatusDelayed {
		t.Errorf("status = %s, want Delayed", events[0].Status)
	}
}
