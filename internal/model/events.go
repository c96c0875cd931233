package model

// EventType identifies a state-change notification published on the bus
// and fanned out to observers.
type EventType string

const (
	EventStateUpdate         EventType = "state_update"
	EventParameterChanged    EventType = "parameter_changed"
	EventExpressionChanged   EventType = "expression_changed"
	EventMotionStarted       EventType = "motion_started"
	EventMotionFinished      EventType = "motion_finished"
	EventLipSyncUpdated      EventType = "lip_sync_updated"
	EventEyeTrackingUpdated  EventType = "eye_tracking_updated"
	EventHeadRotationUpdated EventType = "head_rotation_updated"
	EventStateReset          EventType = "state_reset"
	EventError               EventType = "error"
)

// Event is the envelope published on the bus and serialized to observers
// as {"type": ..., "data": {...}}.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// ParameterChange is the payload of parameter_changed events.
type ParameterChange struct {
	ID    string  `json:"id"`
	Value float64 `json:"value"`
}

// ExpressionChange is the payload of expression_changed events.
type ExpressionChange struct {
	Expression string `json:"expression"`
	Active     bool   `json:"active"`
}

// MotionStarted is the payload of motion_started events.
type MotionStarted struct {
	Group    string   `json:"group"`
	Index    int      `json:"index"`
	Priority Priority `json:"priority"`
}

// MotionFinished is the payload of motion_finished events.
type MotionFinished struct {
	Group string `json:"group"`
	Index int    `json:"index"`
}

// LipSyncUpdate is the payload of lip_sync_updated events. MouthOpen is
// the derived ParamMouthOpenY value (level * 1.5, capped at 1).
type LipSyncUpdate struct {
	Level     float64 `json:"level"`
	MouthOpen float64 `json:"mouth_open"`
}

// EyeTrackingUpdate is the payload of eye_tracking_updated events.
type EyeTrackingUpdate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// HeadRotationUpdate is the payload of head_rotation_updated events.
// Values are the clamped input degrees, not the normalized parameters.
type HeadRotationUpdate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}
