// Package store owns the canonical model state. All mutation goes
// through its setters, which clamp input, apply the change, and publish
// a notification on the event bus in one atomic step.
package store

import (
	"sync"

	"github.com/kr37t1k/live2d-hub/internal/bus"
	"github.com/kr37t1k/live2d-hub/internal/metrics"
	"github.com/kr37t1k/live2d-hub/internal/model"
)

const (
	// Lip-sync level is amplified slightly before it drives the mouth
	// parameter, capped at the parameter's upper bound.
	lipSyncGain = 1.5

	// Head rotation input range in degrees; stored normalized to [-1, 1].
	maxHeadAngleDeg = 30.0
)

// Store holds the mutable model state. The key sets of parameters and
// expressions are fixed at construction from the declared specs.
//
// A single mutex is held across clamp, store, and publish, so for any
// one parameter id the order of published parameter_changed events
// matches the order in which setter calls were accepted.
type Store struct {
	mu sync.Mutex

	specs  map[string]model.ParameterSpec
	params map[string]float64
	exprs  map[string]bool

	currentMotion  string
	lipSyncLevel   float64
	motionPriority model.Priority

	breathingEnabled bool
	eyeBlinkEnabled  bool
	idleSwayEnabled  bool

	events *bus.Bus
}

// New constructs a store with every parameter at its declared default
// and every expression inactive. events receives one notification per
// accepted mutation.
func New(specs []model.ParameterSpec, expressions []string, events *bus.Bus) *Store {
	s := &Store{
		specs:            make(map[string]model.ParameterSpec, len(specs)),
		params:           make(map[string]float64, len(specs)),
		exprs:            make(map[string]bool, len(expressions)),
		breathingEnabled: true,
		eyeBlinkEnabled:  true,
		events:           events,
	}
	for _, spec := range specs {
		s.specs[spec.ID] = spec
		s.params[spec.ID] = spec.Default
	}
	for _, name := range expressions {
		s.exprs[name] = false
	}
	return s
}

// SetParameter clamps value into the parameter's declared bounds,
// stores it, and publishes a parameter_changed event. Returns false
// without mutation or event when id is not a declared parameter or
// value is not a finite number.
func (s *Store) SetParameter(id string, value float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setParameterLocked(id, value)
}

func (s *Store) setParameterLocked(id string, value float64) bool {
	spec, ok := s.specs[id]
	if !ok || !model.Finite(value) {
		metrics.StoreRejectedUpdates.Inc()
		return false
	}

	clamped := model.Clamp(value, spec.Min, spec.Max)
	s.params[id] = clamped

	metrics.StoreParameterUpdates.Inc()
	s.events.Publish(model.Event{
		Type: model.EventParameterChanged,
		Data: model.ParameterChange{ID: id, Value: clamped},
	})
	return true
}

// Parameter returns the current value of a declared parameter.
func (s *Store) Parameter(id string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.params[id]
	return v, ok
}

// SetExpression activates or deactivates a declared expression and
// publishes an expression_changed event. Returns false without
// mutation or event for unknown names.
func (s *Store) SetExpression(name string, active bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.exprs[name]; !ok {
		metrics.StoreRejectedUpdates.Inc()
		return false
	}
	s.exprs[name] = active

	s.events.Publish(model.Event{
		Type: model.EventExpressionChanged,
		Data: model.ExpressionChange{Expression: name, Active: active},
	})
	return true
}

// Expression returns the current active flag of a declared expression.
func (s *Store) Expression(name string) (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	active, ok := s.exprs[name]
	return active, ok
}

// SetLipSync stores the lip-sync level (clamped to [0, 1]), derives the
// mouth-openness parameter from it, and publishes both the derived
// parameter_changed and a lip_sync_updated event. Returns false for
// non-finite input.
func (s *Store) SetLipSync(level float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !model.Finite(level) {
		metrics.StoreRejectedUpdates.Inc()
		return false
	}

	level = model.Clamp(level, 0, 1)
	s.lipSyncLevel = level

	mouthOpen := model.Clamp(level*lipSyncGain, 0, 1)
	s.setParameterLocked(model.ParamMouthOpenY, mouthOpen)

	s.events.Publish(model.Event{
		Type: model.EventLipSyncUpdated,
		Data: model.LipSyncUpdate{Level: level, MouthOpen: mouthOpen},
	})
	return true
}

// SetEyeTracking applies gaze coordinates (already in [-1, 1]) to the
// eyeball parameters and publishes an eye_tracking_updated event.
func (s *Store) SetEyeTracking(x, y float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !model.Finite(x) || !model.Finite(y) {
		metrics.StoreRejectedUpdates.Inc()
		return false
	}

	x = model.Clamp(x, -1, 1)
	y = model.Clamp(y, -1, 1)
	s.setParameterLocked(model.ParamEyeBallX, x)
	s.setParameterLocked(model.ParamEyeBallY, y)

	s.events.Publish(model.Event{
		Type: model.EventEyeTrackingUpdated,
		Data: model.EyeTrackingUpdate{X: x, Y: y},
	})
	return true
}

// SetHeadRotation accepts head angles in degrees within [-30, 30] and
// stores them normalized to [-1, 1] on the angle parameters, then
// publishes a head_rotation_updated event with the clamped degrees.
func (s *Store) SetHeadRotation(x, y, z float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !model.Finite(x) || !model.Finite(y) || !model.Finite(z) {
		metrics.StoreRejectedUpdates.Inc()
		return false
	}

	x = model.Clamp(x, -maxHeadAngleDeg, maxHeadAngleDeg)
	y = model.Clamp(y, -maxHeadAngleDeg, maxHeadAngleDeg)
	z = model.Clamp(z, -maxHeadAngleDeg, maxHeadAngleDeg)

	s.setParameterLocked(model.ParamAngleX, x/maxHeadAngleDeg)
	s.setParameterLocked(model.ParamAngleY, y/maxHeadAngleDeg)
	s.setParameterLocked(model.ParamAngleZ, z/maxHeadAngleDeg)

	s.events.Publish(model.Event{
		Type: model.EventHeadRotationUpdated,
		Data: model.HeadRotationUpdate{X: x, Y: y, Z: z},
	})
	return true
}

// SetCurrentMotion records the motion identifier and priority of the
// currently playing motion. Called by the motion arbiter, which
// publishes its own motion_started/motion_finished events.
func (s *Store) SetCurrentMotion(motion string, priority model.Priority) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentMotion = motion
	s.motionPriority = priority
}

// SetBreathingEnabled toggles the breathing animation channel.
func (s *Store) SetBreathingEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.breathingEnabled = enabled
}

// SetEyeBlinkEnabled toggles the blink animation channel.
func (s *Store) SetEyeBlinkEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eyeBlinkEnabled = enabled
}

// SetIdleSwayEnabled toggles the idle sway animation channel.
func (s *Store) SetIdleSwayEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idleSwayEnabled = enabled
}

// BreathingEnabled reports whether the breathing channel is active.
func (s *Store) BreathingEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.breathingEnabled
}

// EyeBlinkEnabled reports whether the blink channel is active.
func (s *Store) EyeBlinkEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eyeBlinkEnabled
}

// IdleSwayEnabled reports whether the idle sway channel is active.
func (s *Store) IdleSwayEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idleSwayEnabled
}

// Snapshot returns an immutable point-in-time copy of the full state.
// The returned maps are fresh copies, never live aliases.
func (s *Store) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := model.Snapshot{
		Parameters:       make(map[string]float64, len(s.params)),
		Expressions:      make(map[string]bool, len(s.exprs)),
		CurrentMotion:    s.currentMotion,
		LipSyncLevel:     s.lipSyncLevel,
		MotionPriority:   s.motionPriority,
		BreathingEnabled: s.breathingEnabled,
		EyeBlinkEnabled:  s.eyeBlinkEnabled,
		IdleSwayEnabled:  s.idleSwayEnabled,
	}
	for id, v := range s.params {
		snap.Parameters[id] = v
	}
	for name, active := range s.exprs {
		snap.Expressions[name] = active
	}
	return snap
}

// Reset restores every parameter and expression to its declared default
// and publishes a single state_reset event, not per-field events.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, spec := range s.specs {
		s.params[id] = spec.Default
	}
	for name := range s.exprs {
		s.exprs[name] = false
	}
	s.currentMotion = ""
	s.lipSyncLevel = 0
	s.motionPriority = model.PriorityNone
	s.breathingEnabled = true
	s.eyeBlinkEnabled = true
	s.idleSwayEnabled = false

	s.events.Publish(model.Event{
		Type: model.EventStateReset,
		Data: struct{}{},
	})
}
