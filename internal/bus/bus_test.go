package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kr37t1k/live2d-hub/internal/model"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := New()

	ch1, cancel1 := b.Subscribe()
	defer cancel1()
	ch2, cancel2 := b.Subscribe()
	defer cancel2()

	b.Publish(model.Event{Type: model.EventParameterChanged, Data: model.ParameterChange{ID: "ParamAngleX", Value: 0.5}})

	for _, ch := range []<-chan model.Event{ch1, ch2} {
		select {
		case ev := <-ch:
			assert.Equal(t, model.EventParameterChanged, ev.Type)
		default:
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestPublishPreservesOrder(t *testing.T) {
	b := New()

	ch, cancel := b.Subscribe()
	defer cancel()

	values := []float64{0.1, 0.2, 0.3, 0.4}
	for _, v := range values {
		b.Publish(model.Event{Type: model.EventParameterChanged, Data: model.ParameterChange{ID: "ParamBreath", Value: v}})
	}

	for _, want := range values {
		ev := <-ch
		change := ev.Data.(model.ParameterChange)
		assert.Equal(t, want, change.Value)
	}
}

func TestCancelClosesChannel(t *testing.T) {
	b := New()

	ch, cancel := b.Subscribe()
	cancel()

	_, open := <-ch
	assert.False(t, open)

	// Publishing after cancel must not panic
	b.Publish(model.Event{Type: model.EventStateReset})
}

func TestCancelIsIdempotent(t *testing.T) {
	b := New()

	_, cancel := b.Subscribe()
	cancel()
	cancel()
}

func TestSlowSubscriberDropsWithoutBlocking(t *testing.T) {
	b := New()

	slow, cancelSlow := b.Subscribe()
	defer cancelSlow()

	// Fill the slow subscriber's buffer completely
	for range defaultBuffer {
		b.Publish(model.Event{Type: model.EventParameterChanged})
	}

	fast, cancelFast := b.Subscribe()
	defer cancelFast()

	// One more publish: dropped for the full subscriber, delivered to
	// the fresh one, and Publish must not block either way.
	b.Publish(model.Event{Type: model.EventStateReset})

	select {
	case ev := <-fast:
		assert.Equal(t, model.EventStateReset, ev.Type)
	default:
		t.Fatal("fast subscriber did not receive event")
	}

	// Slow subscriber still holds only its buffered backlog
	assert.Len(t, slow, defaultBuffer)
}

func TestCloseShutsDownSubscribers(t *testing.T) {
	b := New()

	ch, _ := b.Subscribe()
	b.Close()

	_, open := <-ch
	assert.False(t, open)

	// All further operations are no-ops
	b.Publish(model.Event{Type: model.EventStateReset})
	b.Close()

	late, cancel := b.Subscribe()
	defer cancel()
	_, open = <-late
	require.False(t, open, "subscribing to a closed bus should yield a closed channel")
}
