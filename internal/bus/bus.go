// Package bus provides the in-process publish/subscribe channel that
// decouples state mutation from delivery to connected observers.
package bus

import (
	"log/slog"
	"sync"

	"github.com/kr37t1k/live2d-hub/internal/metrics"
	"github.com/kr37t1k/live2d-hub/internal/model"
)

const defaultBuffer = 256

// Bus fans model events out to subscribers. Delivery is best-effort: a
// subscriber whose buffer is full misses the event, other subscribers
// are unaffected. Events published sequentially by one goroutine arrive
// in order on every subscriber channel.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]chan model.Event
	nextID uint64
	closed bool
}

func New() *Bus {
	return &Bus{subs: make(map[uint64]chan model.Event)}
}

// Subscribe registers a new subscriber and returns its event channel
// together with a cancel function. The channel is closed on cancel or
// when the bus shuts down.
func (b *Bus) Subscribe() (<-chan model.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan model.Event, defaultBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber without blocking.
func (b *Bus) Publish(ev model.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	metrics.BusEventsPublished.WithLabelValues(string(ev.Type)).Inc()

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			metrics.BusEventsDropped.Inc()
			slog.Warn("Event bus subscriber buffer full, dropping event", "event_type", ev.Type)
		}
	}
}

// Close shuts the bus down and closes all subscriber channels.
// Publish and Subscribe become no-ops afterwards.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
