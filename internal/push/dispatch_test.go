package push

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSubStore is an in-memory SubscriberStore.
type fakeSubStore struct {
	mu        sync.Mutex
	subs      []Subscription
	eventSubs map[int64][]Subscription
	removed   []string
	logs      []Broadcast
	logErr    error
}

func (f *fakeSubStore) ListSubscriptions(ctx context.Context) ([]Subscription, error) {
	return f.subs, nil
}

func (f *fakeSubStore) ListEventSubscriptions(ctx context.Context, eventID int64) ([]Subscription, error) {
	return f.eventSubs[eventID], nil
}

func (f *fakeSubStore) RemoveSubscription(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeSubStore) InsertLog(ctx context.Context, b Broadcast) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.logErr != nil {
		return f.logErr
	}
	f.logs = append(f.logs, b)
	return nil
}

// fakeSender fails the endpoints listed in fail, and reports gone for those
// in gone.
type fakeSender struct {
	mu    sync.Mutex
	fail  map[string]bool
	gone  map[string]bool
	sends int
}

func (f *fakeSender) Send(ctx context.Context, sub Subscription, payload []byte) error {
	f.mu.Lock()
	f.sends++
	f.mu.Unlock()
	if f.gone[sub.ID] {
		return ErrSubscriptionGone
	}
	if f.fail[sub.ID] {
		return fmt.Errorf("delivery refused")
	}
	return nil
}

func subsN(n int) []Subscription {
	out := make([]Subscription, n)
	for i := range out {
		out[i] = Subscription{
			ID:       fmt.Sprintf("sub-%d", i),
			Endpoint: fmt.Sprintf("https://push.example/%d", i),
			P256dh:   "p",
			Auth:     "a",
		}
	}
	return out
}

func TestSendToAllCountsAndLogs(t *testing.T) {
	store := &fakeSubStore{subs: subsN(5)}
	sender := &fakeSender{fail: map[string]bool{"sub-1": true, "sub-3": true}}
	d := NewDispatcher(store, sender, 3, time.Second, discard())

	b, err := d.SendToAll(context.Background(), Payload{Title: "Test", Body: "Body"}, TypeStandard)
	if err != nil {
		t.Fatalf("SendToAll: %v", err)
	}
	if b.SentCount != 3 || b.TotalSubs != 5 {
		t.Errorf("counts = %d/%d, want 3/5", b.SentCount, b.TotalSubs)
	}
	if b.SentCount < 0 || b.SentCount > b.TotalSubs {
		t.Errorf("count invariant violated: %d/%d", b.SentCount, b.TotalSubs)
	}
	if len(store.logs) != 1 {
		t.Fatalf("logs = %d, want 1", len(store.logs))
	}
	if got := store.logs[0]; got.Type != TypeStandard || got.ClickCount != 0 {
		t.Errorf("log = %+v, want type=standard click_count=0", got)
	}
}

func TestFanOutPrunesGoneSubscriptions(t *testing.T) {
	store := &fakeSubStore{subs: subsN(3)}
	sender := &fakeSender{gone: map[string]bool{"sub-2": true}}
	d := NewDispatcher(store, sender, 2, time.Second, discard())

	b, err := d.SendToAll(context.Background(), Payload{Title: "T"}, TypeAutomated)
	if err != nil {
		t.Fatalf("SendToAll: %v", err)
	}
	if b.SentCount != 2 {
		t.Errorf("sent = %d, want 2", b.SentCount)
	}
	if len(store.removed) != 1 || store.removed[0] != "sub-2" {
		t.Errorf("removed = %v, want [sub-2]", store.removed)
	}
}

func TestFanOutEmbedsLogIDInURL(t *testing.T) {
	store := &fakeSubStore{subs: subsN(1)}
	sender := &fakeSender{}
	d := NewDispatcher(store, sender, 1, time.Second, discard())

	b, err := d.SendToAll(context.Background(), Payload{Title: "T"}, TypeAutomated)
	if err != nil {
		t.Fatalf("SendToAll: %v", err)
	}
	if b.ID == "" {
		t.Fatal("broadcast id not set")
	}
}

func TestSendToAllNoSubscribersSkipsLog(t *testing.T) {
	store := &fakeSubStore{}
	d := NewDispatcher(store, &fakeSender{}, 2, time.Second, discard())

	b, err := d.SendToAll(context.Background(), Payload{Title: "T"}, TypeStandard)
	if err != nil {
		t.Fatalf("SendToAll: %v", err)
	}
	if b.SentCount != 0 || b.TotalSubs != 0 {
		t.Errorf("counts = %d/%d, want 0/0", b.SentCount, b.TotalSubs)
	}
	if len(store.logs) != 0 {
		t.Errorf("logs written for empty subscriber set: %v", store.logs)
	}
}

func TestSendToEventUsesSubset(t *testing.T) {
	store := &fakeSubStore{
		subs:      subsN(10),
		eventSubs: map[int64][]Subscription{42: subsN(2)},
	}
	sender := &fakeSender{}
	d := NewDispatcher(store, sender, 4, time.Second, discard())

	b, err := d.SendToEvent(context.Background(), 42, Payload{Title: "T"}, TypeStandard)
	if err != nil {
		t.Fatalf("SendToEvent: %v", err)
	}
	if b.TotalSubs != 2 || sender.sends != 2 {
		t.Errorf("fan-out hit %d/%d, want the 2-subscriber subset", sender.sends, b.TotalSubs)
	}
}

func TestPayloadClamped(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	p := Payload{Title: string(long), Body: string(long)}.clamped()
	if len(p.Title) != MaxTitleLen || len(p.Body) != MaxBodyLen {
		t.Errorf("clamped lengths = %d/%d, want %d/%d", len(p.Title), len(p.Body), MaxTitleLen, MaxBodyLen)
	}
}
