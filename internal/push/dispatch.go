package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SubscriberStore is the persistence surface the dispatcher needs.
// Implemented by *Store; tests substitute an in-memory fake.
type SubscriberStore interface {
	ListSubscriptions(ctx context.Context) ([]Subscription, error)
	ListEventSubscriptions(ctx context.Context, eventID int64) ([]Subscription, error)
	RemoveSubscription(ctx context.Context, id string) error
	InsertLog(ctx context.Context, b Broadcast) error
}

// Dispatcher fans payloads out to subscriber sets and records one broadcast
// log per dispatch.
type Dispatcher struct {
	store   SubscriberStore
	sender  Sender
	workers int
	timeout time.Duration
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher with a bounded fan-out pool and a
// per-delivery timeout.
func NewDispatcher(store SubscriberStore, sender Sender, workers int, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{store: store, sender: sender, workers: workers, timeout: timeout, logger: logger}
}

// SendToAll dispatches a payload to the global subscriber set.
func (d *Dispatcher) SendToAll(ctx context.Context, p Payload, typ string) (Broadcast, error) {
	subs, err := d.store.ListSubscriptions(ctx)
	if err != nil {
		return Broadcast{}, fmt.Errorf("load subscribers: %w", err)
	}
	return d.fanOut(ctx, subs, p, typ)
}

// SendToEvent dispatches a payload to the subset of subscribers who opted
// into one specific event.
func (d *Dispatcher) SendToEvent(ctx context.Context, eventID int64, p Payload, typ string) (Broadcast, error) {
	subs, err := d.store.ListEventSubscriptions(ctx, eventID)
	if err != nil {
		return Broadcast{}, fmt.Errorf("load event subscribers: %w", err)
	}
	return d.fanOut(ctx, subs, p, typ)
}

// fanOut delivers independently to every subscription and writes one log
// record with snapshot counts. Delivery attempts never abort each other; a
// gone endpoint is pruned (prune failure is non-fatal); a timed-out attempt
// simply does not count as a success and is not retried within the tick.
func (d *Dispatcher) fanOut(ctx context.Context, subs []Subscription, p Payload, typ string) (Broadcast, error) {
	logID := uuid.NewString()
	if p.URL == "" {
		p.URL = "/?notif_id=" + logID
	}
	p = p.clamped()

	b := Broadcast{
		ID:        logID,
		Title:     p.Title,
		Body:      p.Body,
		TotalSubs: len(subs),
		Type:      typ,
		Timestamp: time.Now().UTC(),
	}

	if len(subs) == 0 {
		d.logger.Info("No subscribers, broadcast skipped", "title", p.Title)
		return b, nil
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return b, fmt.Errorf("marshal payload: %w", err)
	}

	workers := d.workers
	if workers > len(subs) {
		workers = len(subs)
	}

	ch := make(chan Subscription, len(subs))
	for _, sub := range subs {
		ch <- sub
	}
	close(ch)

	var mu sync.Mutex
	var wg sync.WaitGroup
	sent := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range ch {
				sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
				err := d.sender.Send(sendCtx, sub, payload)
				cancel()

				if err == nil {
					mu.Lock()
					sent++
					mu.Unlock()
					continue
				}

				if errors.Is(err, ErrSubscriptionGone) {
					d.logger.Info("Pruning expired subscription", "subscription_id", sub.ID)
					if pruneErr := d.store.RemoveSubscription(ctx, sub.ID); pruneErr != nil {
						d.logger.Warn("Subscription prune failed", "subscription_id", sub.ID, "error", pruneErr)
					}
					continue
				}
				d.logger.Warn("Push delivery failed", "subscription_id", sub.ID, "error", err)
			}
		}()
	}
	wg.Wait()

	b.SentCount = sent

	if err := d.store.InsertLog(ctx, b); err != nil {
		d.logger.Warn("Broadcast log write failed", "log_id", logID, "error", err)
		return b, err
	}

	d.logger.Info("Broadcast dispatched",
		"log_id", logID, "title", b.Title, "type", typ,
		"sent", b.SentCount, "total", b.TotalSubs)
	return b, nil
}
