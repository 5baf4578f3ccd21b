package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/av-mamzikov/family-task-manager/internal/store"
	"github.com/av-mamzikov/family-task-manager/internal/websocket"
)

const batchSize = 100

// Dispatcher drains the event outbox on an interval and broadcasts each
// event over the websocket hub. Delivery is at-least-once: an event is
// only marked dispatched after a successful broadcast attempt, so a crash
// between the two replays it. Consumers deduplicate by event id.
type Dispatcher struct {
	events   *store.EventStore
	hub      *websocket.Hub
	interval time.Duration
	logger   *slog.Logger

	mu     sync.RWMutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewDispatcher(events *store.EventStore, hub *websocket.Hub, interval time.Duration, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		events:   events,
		hub:      hub,
		interval: interval,
		logger:   logger,
	}
}

// Start begins the dispatch loop.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})
	d.mu.Unlock()

	go func() {
		defer close(d.done)
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				d.drain()
			}
		}
	}()
}

// Stop gracefully stops the dispatcher.
func (d *Dispatcher) Stop() {
	d.mu.RLock()
	cancel := d.cancel
	done := d.done
	d.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// drain delivers one batch of pending events.
func (d *Dispatcher) drain() {
	pending, err := d.events.ListUndispatched(batchSize)
	if err != nil {
		d.logger.Error("list undispatched events", "error", err)
		return
	}

	for _, evt := range pending {
		d.hub.Broadcast(evt)
		if err := d.events.MarkDispatched(evt.ID, time.Now()); err != nil {
			d.logger.Error("mark event dispatched", "event_id", evt.ID, "error", err)
			return
		}
	}
}
