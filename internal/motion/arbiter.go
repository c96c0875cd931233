// Package motion arbitrates play-motion requests by priority and tracks
// their asynchronous completion.
package motion

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kr37t1k/live2d-hub/internal/bus"
	"github.com/kr37t1k/live2d-hub/internal/metrics"
	"github.com/kr37t1k/live2d-hub/internal/model"
	"github.com/kr37t1k/live2d-hub/internal/store"
)

// DefaultDuration is the nominal motion length used when the caller has
// no real timing data for the motion.
const DefaultDuration = 2 * time.Second

type entry struct {
	id       uint64
	group    string
	index    int
	priority model.Priority
}

// Arbiter tracks the set of currently playing motions as a stack.
// A request is rejected when its priority is below the top of the
// stack; an accepted request is pushed and scheduled to complete after
// its duration. On completion the entry is removed wherever it sits,
// and the effective priority becomes that of the new top (NONE when the
// stack empties). This makes overlapping completions well defined
// instead of racing on a single priority field.
type Arbiter struct {
	clock  clockwork.Clock
	store  *store.Store
	events *bus.Bus

	mu     sync.Mutex
	nextID uint64
	active []entry
}

func NewArbiter(st *store.Store, events *bus.Bus, clock clockwork.Clock) *Arbiter {
	return &Arbiter{clock: clock, store: st, events: events}
}

// Request plays a motion with the nominal default duration.
func (a *Arbiter) Request(group string, index int, priority model.Priority) bool {
	return a.RequestWithDuration(group, index, priority, 0)
}

// RequestWithDuration plays a motion with a known duration, falling
// back to DefaultDuration when d is not positive. Returns false without
// mutation when the priority is invalid or below the currently playing
// motion's priority.
func (a *Arbiter) RequestWithDuration(group string, index int, priority model.Priority, d time.Duration) bool {
	if !priority.Valid() {
		metrics.MotionRequestsTotal.WithLabelValues("rejected").Inc()
		return false
	}

	a.mu.Lock()
	if n := len(a.active); n > 0 && priority < a.active[n-1].priority {
		a.mu.Unlock()
		metrics.MotionRequestsTotal.WithLabelValues("rejected").Inc()
		return false
	}

	a.nextID++
	e := entry{id: a.nextID, group: group, index: index, priority: priority}
	a.active = append(a.active, e)
	a.mu.Unlock()

	a.store.SetCurrentMotion(motionID(group, index), priority)

	metrics.MotionRequestsTotal.WithLabelValues("accepted").Inc()
	metrics.MotionsActive.Inc()

	a.events.Publish(model.Event{
		Type: model.EventMotionStarted,
		Data: model.MotionStarted{Group: group, Index: index, Priority: priority},
	})

	if d <= 0 {
		d = DefaultDuration
	}
	a.clock.AfterFunc(d, func() { a.finish(e.id) })
	return true
}

// CurrentPriority returns the priority of the motion on top of the
// stack, or NONE when nothing is playing.
func (a *Arbiter) CurrentPriority() model.Priority {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n := len(a.active); n > 0 {
		return a.active[n-1].priority
	}
	return model.PriorityNone
}

func (a *Arbiter) finish(id uint64) {
	a.mu.Lock()
	var done entry
	found := false
	for i, e := range a.active {
		if e.id == id {
			done = e
			a.active = append(a.active[:i], a.active[i+1:]...)
			found = true
			break
		}
	}
	var current string
	priority := model.PriorityNone
	if n := len(a.active); n > 0 {
		top := a.active[n-1]
		current = motionID(top.group, top.index)
		priority = top.priority
	}
	a.mu.Unlock()

	if !found {
		return
	}

	a.store.SetCurrentMotion(current, priority)
	metrics.MotionsActive.Dec()

	a.events.Publish(model.Event{
		Type: model.EventMotionFinished,
		Data: model.MotionFinished{Group: done.group, Index: done.index},
	})
}

func motionID(group string, index int) string {
	return fmt.Sprintf("%s_%d", group, index)
}
