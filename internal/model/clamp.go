package model

import "math"

// Clamp maps v into [min, max]. Applied uniformly before any store
// mutation; callers reject non-finite inputs before clamping.
func Clamp(v, min, max float64) float64 {
	return math.Max(min, math.Min(max, v))
}

// Finite reports whether v is a usable numeric value. NaN and the
// infinities are treated as malformed input, not as clampable values.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
