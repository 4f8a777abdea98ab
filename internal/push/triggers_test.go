package push

import (
	"context"
	"testing"
	"time"

	"github.com/idsports/streamsync/internal/event"
)

var tickNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// fakeEventSource mimics the event store's candidate queries and flag CAS.
type fakeEventSource struct {
	events []event.Event
}

func (f *fakeEventSource) RemindersDue(ctx context.Context, from, to time.Time) ([]event.Event, error) {
	var out []event.Event
	for _, e := range f.events {
		if e.Status == event.StatusScheduled && !e.NotifiedPreStart &&
			!e.StartTime.Before(from) && !e.StartTime.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventSource) LiveAlertsDue(ctx context.Context) ([]event.Event, error) {
	var out []event.Event
	for _, e := range f.events {
		if e.Status == event.StatusLive && !e.NotifiedLive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventSource) ClaimPreStartFlag(ctx context.Context, id int64) (bool, error) {
	for i := range f.events {
		if f.events[i].ID == id && !f.events[i].NotifiedPreStart {
			f.events[i].NotifiedPreStart = true
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEventSource) ClaimLiveFlag(ctx context.Context, id int64) (bool, error) {
	for i := range f.events {
		if f.events[i].ID == id && !f.events[i].NotifiedLive {
			f.events[i].NotifiedLive = true
			return true, nil
		}
	}
	return false, nil
}

// fakeQueue mimics the scheduled-notification queue, where existence is the
// pending state.
type fakeQueue struct {
	entries map[string]Scheduled
}

func (f *fakeQueue) DueScheduled(ctx context.Context, now time.Time) ([]Scheduled, error) {
	var out []Scheduled
	for _, n := range f.entries {
		if !n.SendAt.After(now) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeQueue) Consume(ctx context.Context, id string) (bool, error) {
	if _, ok := f.entries[id]; !ok {
		return false, nil
	}
	delete(f.entries, id)
	return true, nil
}

func newTestDispatcher(store *fakeSubStore) *Dispatcher {
	return NewDispatcher(store, &fakeSender{}, 2, time.Second, discard())
}

func TestReminderFiresOnceAcrossConsecutiveTicks(t *testing.T) {
	// Event starts in 61 minutes at tick 1 and 58 minutes at tick 2; both
	// fall inside the ±10 window around 60, but only tick 1 dispatches.
	events := &fakeEventSource{events: []event.Event{{
		ID:        1,
		Title:     "IND vs AUS",
		Status:    event.StatusScheduled,
		StartTime: tickNow.Add(61 * time.Minute),
	}}}
	store := &fakeSubStore{subs: subsN(4)}
	queue := &fakeQueue{}

	first := RunTriggers(context.Background(), events, queue, newTestDispatcher(store), tickNow, discard())
	if len(first) != 1 || first[0].Type != "1hr" || first[0].Count != 4 {
		t.Fatalf("tick 1 results = %+v, want one 1hr dispatch to 4 subs", first)
	}

	second := RunTriggers(context.Background(), events, queue, newTestDispatcher(store), tickNow.Add(3*time.Minute), discard())
	if len(second) != 0 {
		t.Errorf("tick 2 results = %+v, want none (flag dedup)", second)
	}
	if len(store.logs) != 1 {
		t.Errorf("logs = %d, want exactly 1", len(store.logs))
	}
}

func TestReminderWindowBounds(t *testing.T) {
	tests := []struct {
		name     string
		startsIn time.Duration
		want     int
	}{
		{name: "just inside lower edge", startsIn: 51 * time.Minute, want: 1},
		{name: "just inside upper edge", startsIn: 69 * time.Minute, want: 1},
		{name: "too soon", startsIn: 40 * time.Minute, want: 0},
		{name: "too far out", startsIn: 80 * time.Minute, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := &fakeEventSource{events: []event.Event{{
				ID:        1,
				Title:     "Test Match",
				Status:    event.StatusScheduled,
				StartTime: tickNow.Add(tt.startsIn),
			}}}
			store := &fakeSubStore{subs: subsN(1)}
			results := RunTriggers(context.Background(), events, &fakeQueue{}, newTestDispatcher(store), tickNow, discard())
			if len(results) != tt.want {
				t.Errorf("results = %+v, want %d dispatches", results, tt.want)
			}
		})
	}
}

func TestLiveAlertFiresOncePerEvent(t *testing.T) {
	events := &fakeEventSource{events: []event.Event{
		{ID: 1, Title: "Match A", Status: event.StatusLive},
		{ID: 2, Title: "Match B", Status: event.StatusLive, NotifiedLive: true},
	}}
	store := &fakeSubStore{subs: subsN(2)}

	results := RunTriggers(context.Background(), events, &fakeQueue{}, newTestDispatcher(store), tickNow, discard())
	if len(results) != 1 || results[0].Event != "Match A" {
		t.Fatalf("results = %+v, want only Match A", results)
	}

	again := RunTriggers(context.Background(), events, &fakeQueue{}, newTestDispatcher(store), tickNow, discard())
	if len(again) != 0 {
		t.Errorf("second tick results = %+v, want none", again)
	}
}

func TestScheduledDispatchConsumesExactlyOnce(t *testing.T) {
	queue := &fakeQueue{entries: map[string]Scheduled{
		"n1": {ID: "n1", Title: "Weekend Special", Body: "Big match tonight", SendAt: tickNow.Add(-time.Minute)},
		"n2": {ID: "n2", Title: "Later", Body: "Not yet", SendAt: tickNow.Add(time.Hour)},
	}}
	events := &fakeEventSource{}
	store := &fakeSubStore{subs: subsN(3)}

	results := RunTriggers(context.Background(), events, queue, newTestDispatcher(store), tickNow, discard())
	if len(results) != 1 || results[0].Title != "Weekend Special" || results[0].Count != 3 {
		t.Fatalf("results = %+v, want one dispatch of Weekend Special", results)
	}
	if _, ok := queue.entries["n1"]; ok {
		t.Error("queue entry not removed after dispatch")
	}

	again := RunTriggers(context.Background(), events, queue, newTestDispatcher(store), tickNow, discard())
	if len(again) != 0 {
		t.Errorf("second tick results = %+v, want none (entry consumed)", again)
	}
}
