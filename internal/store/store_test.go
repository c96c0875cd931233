package store

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kr37t1k/live2d-hub/internal/bus"
	"github.com/kr37t1k/live2d-hub/internal/model"
)

func newTestStore(t *testing.T) (*Store, <-chan model.Event) {
	t.Helper()
	events := bus.New()
	ch, cancel := events.Subscribe()
	t.Cleanup(cancel)
	return New(model.DefaultParameterSpecs(), model.DefaultExpressions(), events), ch
}

func drain(ch <-chan model.Event) []model.Event {
	var out []model.Event
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestSetParameterClampsToBounds(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		value float64
		want  float64
	}{
		{"within bounds", model.ParamAngleX, 0.5, 0.5},
		{"above max", model.ParamAngleX, 2.0, 1.0},
		{"below min", model.ParamAngleX, -3.0, -1.0},
		{"eye open above max", model.ParamEyeLOpen, 1.7, 1.0},
		{"eye open below min", model.ParamEyeLOpen, -0.2, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, ch := newTestStore(t)

			require.True(t, st.SetParameter(tt.id, tt.value))

			got, ok := st.Parameter(tt.id)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)

			// The published event carries the clamped value
			events := drain(ch)
			require.Len(t, events, 1)
			assert.Equal(t, model.EventParameterChanged, events[0].Type)
			change := events[0].Data.(model.ParameterChange)
			assert.Equal(t, tt.id, change.ID)
			assert.Equal(t, tt.want, change.Value)
		})
	}
}

func TestSetParameterUnknownID(t *testing.T) {
	st, ch := newTestStore(t)

	assert.False(t, st.SetParameter("ParamNope", 0.5))
	assert.Empty(t, drain(ch), "rejected update must not publish")

	_, ok := st.Parameter("ParamNope")
	assert.False(t, ok)
}

func TestSetParameterRejectsNonFinite(t *testing.T) {
	st, ch := newTestStore(t)

	assert.False(t, st.SetParameter(model.ParamAngleX, math.NaN()))
	assert.False(t, st.SetParameter(model.ParamAngleX, math.Inf(1)))
	assert.Empty(t, drain(ch))

	got, _ := st.Parameter(model.ParamAngleX)
	assert.Equal(t, 0.0, got, "rejected update must not mutate")
}

func TestSetExpression(t *testing.T) {
	st, ch := newTestStore(t)

	require.True(t, st.SetExpression("smile", true))
	active, ok := st.Expression("smile")
	require.True(t, ok)
	assert.True(t, active)

	events := drain(ch)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventExpressionChanged, events[0].Type)
	change := events[0].Data.(model.ExpressionChange)
	assert.Equal(t, "smile", change.Expression)
	assert.True(t, change.Active)

	require.True(t, st.SetExpression("smile", false))
	active, _ = st.Expression("smile")
	assert.False(t, active)
}

func TestSetExpressionUnknownName(t *testing.T) {
	st, ch := newTestStore(t)

	assert.False(t, st.SetExpression("confused", true))
	assert.Empty(t, drain(ch))
}

func TestSetLipSyncDerivesMouthOpen(t *testing.T) {
	tests := []struct {
		name      string
		level     float64
		wantLevel float64
		wantMouth float64
	}{
		{"moderate level amplified", 0.5, 0.5, 0.75},
		{"high level capped", 0.8, 0.8, 1.0},
		{"zero closes mouth", 0.0, 0.0, 0.0},
		{"overdriven input clamped first", 1.5, 1.0, 1.0},
		{"negative input clamped", -0.5, 0.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, ch := newTestStore(t)

			require.True(t, st.SetLipSync(tt.level))

			mouth, _ := st.Parameter(model.ParamMouthOpenY)
			assert.InDelta(t, tt.wantMouth, mouth, 1e-9)

			// Expect the derived parameter_changed followed by lip_sync_updated
			events := drain(ch)
			require.Len(t, events, 2)
			assert.Equal(t, model.EventParameterChanged, events[0].Type)
			assert.Equal(t, model.EventLipSyncUpdated, events[1].Type)
			update := events[1].Data.(model.LipSyncUpdate)
			assert.InDelta(t, tt.wantLevel, update.Level, 1e-9)
			assert.InDelta(t, tt.wantMouth, update.MouthOpen, 1e-9)
		})
	}
}

func TestSetLipSyncRejectsNonFinite(t *testing.T) {
	st, ch := newTestStore(t)

	assert.False(t, st.SetLipSync(math.NaN()))
	assert.Empty(t, drain(ch))
}

func TestSetEyeTracking(t *testing.T) {
	st, ch := newTestStore(t)

	require.True(t, st.SetEyeTracking(0.4, -2.0))

	x, _ := st.Parameter(model.ParamEyeBallX)
	y, _ := st.Parameter(model.ParamEyeBallY)
	assert.Equal(t, 0.4, x)
	assert.Equal(t, -1.0, y, "gaze clamped to [-1, 1]")

	events := drain(ch)
	require.Len(t, events, 3) // two parameter_changed plus eye_tracking_updated
	last := events[2]
	assert.Equal(t, model.EventEyeTrackingUpdated, last.Type)
	update := last.Data.(model.EyeTrackingUpdate)
	assert.Equal(t, 0.4, update.X)
	assert.Equal(t, -1.0, update.Y)
}

func TestSetHeadRotationNormalizes(t *testing.T) {
	tests := []struct {
		name             string
		deg              float64
		wantNorm         float64
		wantReportedDegs float64
	}{
		{"half range", 15, 0.5, 15},
		{"beyond range clamps", -45, -1.0, -30},
		{"zero", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, ch := newTestStore(t)

			require.True(t, st.SetHeadRotation(tt.deg, 0, 0))

			x, _ := st.Parameter(model.ParamAngleX)
			assert.InDelta(t, tt.wantNorm, x, 1e-9)

			events := drain(ch)
			require.NotEmpty(t, events)
			last := events[len(events)-1]
			require.Equal(t, model.EventHeadRotationUpdated, last.Type)
			update := last.Data.(model.HeadRotationUpdate)
			assert.InDelta(t, tt.wantReportedDegs, update.X, 1e-9, "event carries clamped degrees, not normalized values")
		})
	}
}

func TestSnapshotIsIsolatedCopy(t *testing.T) {
	st, _ := newTestStore(t)

	snap := st.Snapshot()
	snap.Parameters[model.ParamAngleX] = 99
	snap.Expressions["smile"] = true

	got, _ := st.Parameter(model.ParamAngleX)
	assert.Equal(t, 0.0, got, "mutating a snapshot must not affect the store")
	active, _ := st.Expression("smile")
	assert.False(t, active)
}

func TestSnapshotDefaults(t *testing.T) {
	st, _ := newTestStore(t)

	snap := st.Snapshot()
	assert.Equal(t, 0.5, snap.Parameters[model.ParamBreath])
	assert.Equal(t, 1.0, snap.Parameters[model.ParamEyeLOpen])
	assert.Equal(t, "", snap.CurrentMotion)
	assert.Equal(t, model.PriorityNone, snap.MotionPriority)
	assert.True(t, snap.BreathingEnabled)
	assert.True(t, snap.EyeBlinkEnabled)
	assert.False(t, snap.IdleSwayEnabled)
}

func TestResetRestoresDefaultsWithSingleEvent(t *testing.T) {
	st, ch := newTestStore(t)

	st.SetParameter(model.ParamAngleX, 0.9)
	st.SetExpression("angry", true)
	st.SetLipSync(0.6)
	st.SetCurrentMotion("tap_body_0", model.PriorityNormal)
	st.SetBreathingEnabled(false)
	st.SetEyeBlinkEnabled(false)
	st.SetIdleSwayEnabled(true)
	drain(ch)

	st.Reset()

	events := drain(ch)
	require.Len(t, events, 1, "reset publishes exactly one event")
	assert.Equal(t, model.EventStateReset, events[0].Type)

	snap := st.Snapshot()
	assert.Equal(t, 0.0, snap.Parameters[model.ParamAngleX])
	assert.Equal(t, 0.5, snap.Parameters[model.ParamBreath])
	assert.False(t, snap.Expressions["angry"])
	assert.Equal(t, "", snap.CurrentMotion)
	assert.Equal(t, 0.0, snap.LipSyncLevel)
	assert.Equal(t, model.PriorityNone, snap.MotionPriority)
	assert.True(t, snap.BreathingEnabled)
	assert.True(t, snap.EyeBlinkEnabled)
	assert.False(t, snap.IdleSwayEnabled)
}

func TestChannelToggles(t *testing.T) {
	st, _ := newTestStore(t)

	st.SetBreathingEnabled(false)
	assert.False(t, st.BreathingEnabled())
	st.SetEyeBlinkEnabled(false)
	assert.False(t, st.EyeBlinkEnabled())
	st.SetIdleSwayEnabled(true)
	assert.True(t, st.IdleSwayEnabled())
}
