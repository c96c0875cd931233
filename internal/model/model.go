package model

// Parameter ids declared by the standard Cubism parameter set.
const (
	ParamAngleX     = "ParamAngleX"
	ParamAngleY     = "ParamAngleY"
	ParamAngleZ     = "ParamAngleZ"
	ParamBodyAngleX = "ParamBodyAngleX"
	ParamEyeLOpen   = "ParamEyeLOpen"
	ParamEyeROpen   = "ParamEyeROpen"
	ParamEyeBallX   = "ParamEyeBallX"
	ParamEyeBallY   = "ParamEyeBallY"
	ParamMouthOpenY = "ParamMouthOpenY"
	ParamBrowLY     = "ParamBrowLY"
	ParamBrowRY     = "ParamBrowRY"
	ParamBreath     = "ParamBreath"
)

// ParameterSpec declares a parameter: its id, bounds, and default value.
// Invariant: Min <= Default <= Max.
type ParameterSpec struct {
	ID      string
	Min     float64
	Max     float64
	Default float64
}

// DefaultParameterSpecs returns the fixed parameter set of the model.
// The store's key set is derived from this at construction and never
// changes afterwards.
func DefaultParameterSpecs() []ParameterSpec {
	return []ParameterSpec{
		{ID: ParamAngleX, Min: -1, Max: 1, Default: 0},
		{ID: ParamAngleY, Min: -1, Max: 1, Default: 0},
		{ID: ParamAngleZ, Min: -1, Max: 1, Default: 0},
		{ID: ParamBodyAngleX, Min: -1, Max: 1, Default: 0},
		{ID: ParamEyeLOpen, Min: 0, Max: 1, Default: 1},
		{ID: ParamEyeROpen, Min: 0, Max: 1, Default: 1},
		{ID: ParamEyeBallX, Min: -1, Max: 1, Default: 0},
		{ID: ParamEyeBallY, Min: -1, Max: 1, Default: 0},
		{ID: ParamMouthOpenY, Min: 0, Max: 1, Default: 0},
		{ID: ParamBrowLY, Min: -1, Max: 1, Default: 0},
		{ID: ParamBrowRY, Min: -1, Max: 1, Default: 0},
		{ID: ParamBreath, Min: 0, Max: 1, Default: 0.5},
	}
}

// DefaultExpressions returns the fixed expression set, all inactive.
func DefaultExpressions() []string {
	return []string{"smile", "angry", "sad", "surprised"}
}

// Priority is the motion priority level. A motion request with a lower
// priority than the currently playing motion is rejected.
type Priority int

const (
	PriorityNone Priority = iota
	PriorityIdle
	PriorityNormal
	PriorityForce
)

func (p Priority) String() string {
	switch p {
	case PriorityNone:
		return "none"
	case PriorityIdle:
		return "idle"
	case PriorityNormal:
		return "normal"
	case PriorityForce:
		return "force"
	default:
		return "unknown"
	}
}

// Valid reports whether p is one of the declared priority levels.
func (p Priority) Valid() bool {
	return p >= PriorityNone && p <= PriorityForce
}

// Snapshot is an immutable point-in-time copy of the full model state.
// It is what new observers receive on connect and what get_state returns.
type Snapshot struct {
	Parameters       map[string]float64 `json:"parameters"`
	Expressions      map[string]bool    `json:"expressions"`
	CurrentMotion    string             `json:"current_motion"`
	LipSyncLevel     float64            `json:"lip_sync_level"`
	MotionPriority   Priority           `json:"motion_priority"`
	BreathingEnabled bool               `json:"breathing_enabled"`
	EyeBlinkEnabled  bool               `json:"eye_blink_enabled"`
	IdleSwayEnabled  bool               `json:"idle_sway_enabled"`
}
