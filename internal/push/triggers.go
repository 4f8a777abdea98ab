package push

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/idsports/streamsync/internal/event"
)

// EventSource supplies trigger candidates and flag claims. Implemented by
// *event.Store.
type EventSource interface {
	RemindersDue(ctx context.Context, from, to time.Time) ([]event.Event, error)
	LiveAlertsDue(ctx context.Context) ([]event.Event, error)
	ClaimPreStartFlag(ctx context.Context, id int64) (bool, error)
	ClaimLiveFlag(ctx context.Context, id int64) (bool, error)
}

// Queue supplies due operator-scheduled broadcasts. Implemented by *Store.
type Queue interface {
	DueScheduled(ctx context.Context, now time.Time) ([]Scheduled, error)
	Consume(ctx context.Context, id string) (bool, error)
}

// RunTriggers evaluates the three dispatch trigger rules for one tick. Each
// qualifying entity is claimed first (flag CAS or queue delete), then
// dispatched, so a concurrent tick that loses the claim skips it. Failures
// are collected per entity; nothing aborts the tick.
func RunTriggers(
	ctx context.Context,
	events EventSource,
	queue Queue,
	d *Dispatcher,
	now time.Time,
	logger *slog.Logger,
) []TriggerResult {
	var results []TriggerResult

	// 1. Pre-start reminders: events starting inside the ±10 minute window
	// around now+60m that have not been reminded yet.
	center := now.Add(reminderLead)
	upcoming, err := events.RemindersDue(ctx, center.Add(-reminderWindow), center.Add(reminderWindow))
	if err != nil {
		logger.Error("Reminder candidate query failed", "error", err)
		results = append(results, TriggerResult{Type: "1hr", Error: err.Error()})
	}
	for i := range upcoming {
		if res := dispatchReminder(ctx, events, d, &upcoming[i], logger); res != nil {
			results = append(results, *res)
		}
	}

	// 2. Live alerts: events that turned Live and have not been announced.
	live, err := events.LiveAlertsDue(ctx)
	if err != nil {
		logger.Error("Live alert candidate query failed", "error", err)
		results = append(results, TriggerResult{Type: "Live", Error: err.Error()})
	}
	for i := range live {
		if res := dispatchLiveAlert(ctx, events, d, &live[i], logger); res != nil {
			results = append(results, *res)
		}
	}

	// 3. Operator-scheduled broadcasts whose delivery time has passed.
	due, err := queue.DueScheduled(ctx, now)
	if err != nil {
		logger.Error("Scheduled queue query failed", "error", err)
		results = append(results, TriggerResult{Type: "Scheduled", Error: err.Error()})
	}
	for i := range due {
		if res := dispatchScheduled(ctx, queue, d, &due[i], logger); res != nil {
			results = append(results, *res)
		}
	}

	return results
}

func dispatchReminder(ctx context.Context, events EventSource, d *Dispatcher, e *event.Event, logger *slog.Logger) *TriggerResult {
	res := &TriggerResult{Type: "1hr", Event: e.Title}

	claimed, err := events.ClaimPreStartFlag(ctx, e.ID)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if !claimed {
		// Another tick got there first; nothing to report.
		logger.Info("Reminder already claimed", "event_id", e.ID)
		return nil
	}

	b, err := d.SendToAll(ctx, Payload{
		Title: "Match Starting Soon! 🏏",
		Body:  fmt.Sprintf("%s is starting in about 1 hour. Get ready!", e.Title),
		Image: e.CoverImage,
	}, TypeAutomated)
	if err != nil {
		res.Error = err.Error()
	}
	res.Count = b.SentCount
	return res
}

func dispatchLiveAlert(ctx context.Context, events EventSource, d *Dispatcher, e *event.Event, logger *slog.Logger) *TriggerResult {
	res := &TriggerResult{Type: "Live", Event: e.Title}

	claimed, err := events.ClaimLiveFlag(ctx, e.ID)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if !claimed {
		logger.Info("Live alert already claimed", "event_id", e.ID)
		return nil
	}

	b, err := d.SendToAll(ctx, Payload{
		Title: "Match is LIVE! 🔴",
		Body:  fmt.Sprintf("%s has started! Watch it now.", e.Title),
		Image: e.CoverImage,
	}, TypeAutomated)
	if err != nil {
		res.Error = err.Error()
	}
	res.Count = b.SentCount
	return res
}

func dispatchScheduled(ctx context.Context, queue Queue, d *Dispatcher, n *Scheduled, logger *slog.Logger) *TriggerResult {
	res := &TriggerResult{Type: "Scheduled", Title: n.Title}

	consumed, err := queue.Consume(ctx, n.ID)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if !consumed {
		logger.Info("Scheduled broadcast already consumed", "id", n.ID)
		return nil
	}

	b, err := d.SendToAll(ctx, Payload{
		Title: n.Title,
		Body:  n.Body,
		URL:   n.URL,
		Image: n.Image,
	}, TypeAutomated)
	if err != nil {
		res.Error = err.Error()
	}
	res.Count = b.SentCount
	return res
}
