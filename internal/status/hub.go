package status

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultQueueSize is the per-sink event buffer.
const DefaultQueueSize = 64

// Sink consumes status events.
type Sink interface {
	HandleStatus(ctx context.Context, ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev Event)

// HandleStatus calls f.
func (f SinkFunc) HandleStatus(ctx context.Context, ev Event) { f(ctx, ev) }

// Logger is the logging interface used by the hub.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

type subscriber struct {
	name    string
	queue   chan Event
	dropped atomic.Uint64
}

// Hub deduplicates events per kind and fans them out to attached sinks.
//
// Thread Safety: All methods are safe for concurrent use.
type Hub struct {
	mu   sync.RWMutex
	last map[Kind]Event
	subs []*subscriber
	snap Snapshot

	now    func() time.Time
	wg     sync.WaitGroup
	logger Logger
}

// NewHub creates an empty hub. The initial snapshot is disconnected and
// idle.
func NewHub() *Hub {
	return &Hub{
		last:   make(map[Kind]Event),
		now:    time.Now,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger.
func (h *Hub) SetLogger(logger Logger) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if logger == nil {
		logger = noopLogger{}
	}
	h.logger = logger
}

// Attach registers sink under name and starts delivering events to it until
// ctx is cancelled. Events already queued when ctx is cancelled are still
// delivered. Events published before Attach are not replayed.
func (h *Hub) Attach(ctx context.Context, name string, sink Sink) {
	sub := &subscriber{name: name, queue: make(chan Event, DefaultQueueSize)}

	h.mu.Lock()
	h.subs = append(h.subs, sub)
	h.mu.Unlock()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ctx.Done():
				h.detach(sub)
				h.drain(ctx, sub, sink)
				return
			case ev := <-sub.queue:
				sink.HandleStatus(ctx, ev)
			}
		}
	}()
}

// drain delivers whatever is left in a detached subscriber's queue.
func (h *Hub) drain(ctx context.Context, sub *subscriber, sink Sink) {
	for {
		select {
		case ev := <-sub.queue:
			sink.HandleStatus(ctx, ev)
		default:
			return
		}
	}
}

func (h *Hub) detach(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, s := range h.subs {
		if s == sub {
			h.subs = append(h.subs[:i], h.subs[i+1:]...)
			return
		}
	}
}

// Wait blocks until every attached sink goroutine has returned.
func (h *Hub) Wait() {
	h.wg.Wait()
}

// PublishConnection publishes a connection transition.
func (h *Hub) PublishConnection(ev ConnectionEvent) bool {
	return h.publish(Event{Kind: KindConnection, Connection: &ev})
}

// PublishMovement publishes a movement transition.
func (h *Hub) PublishMovement(ev MovementEvent) bool {
	return h.publish(Event{Kind: KindMovement, Movement: &ev})
}

// PublishError publishes an error.
func (h *Hub) PublishError(ev ErrorEvent) bool {
	return h.publish(Event{Kind: KindError, Error: &ev})
}

// publish records ev and queues it to every sink. It returns false when ev
// repeats the previous event of its kind.
func (h *Hub) publish(ev Event) bool {
	h.mu.Lock()
	if prev, ok := h.last[ev.Kind]; ok && prev.sameAs(ev) {
		h.mu.Unlock()
		return false
	}
	ev.At = h.now()
	h.last[ev.Kind] = ev
	h.updateSnapshot(ev)
	subs := make([]*subscriber, len(h.subs))
	copy(subs, h.subs)
	logger := h.logger
	h.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub.queue <- ev:
		default:
			n := sub.dropped.Add(1)
			logger.Warn("status sink queue full, event dropped",
				"sink", sub.name, "kind", ev.Kind, "dropped_total", n)
		}
	}
	logger.Debug("status event", "kind", ev.Kind, "payload", ev.Payload())
	return true
}

// updateSnapshot must be called with h.mu held.
func (h *Hub) updateSnapshot(ev Event) {
	switch ev.Kind {
	case KindConnection:
		h.snap.Connection = *ev.Connection
		if !ev.Connection.Connected {
			h.snap.Movement = MovementEvent{}
			delete(h.last, KindMovement)
		}
	case KindMovement:
		h.snap.Movement = *ev.Movement
	case KindError:
		e := *ev.Error
		h.snap.LastError = &e
	}
	h.snap.UpdatedAt = ev.At
}

// Snapshot returns the latest state of every kind.
func (h *Hub) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	snap := h.snap
	if snap.LastError != nil {
		e := *snap.LastError
		snap.LastError = &e
	}
	return snap
}
