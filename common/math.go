package common

import (
	"math"
)

// Lerp linearly interpolates between a and b by t.
// t is not clamped; values outside [0, 1] extrapolate.
//
// Parameters:
//   - a: start value
//   - b: end value
//   - t: interpolation factor
//
// Returns:
//   - float32: the interpolated value
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// Clamp restricts v to the inclusive range [lo, hi].
//
// Parameters:
//   - v: value to clamp
//   - lo: lower bound
//   - hi: upper bound
//
// Returns:
//   - float32: the clamped value
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 restricts v to the inclusive range [0, 1].
//
// Parameters:
//   - v: value to clamp
//
// Returns:
//   - float32: the clamped value
func Clamp01(v float32) float32 {
	return Clamp(v, 0, 1)
}

// MoveTowards moves current toward target by at most maxDelta, never overshooting.
// A negative maxDelta moves away from target.
//
// Parameters:
//   - current: starting value
//   - target: destination value
//   - maxDelta: maximum change applied to current
//
// Returns:
//   - float32: the moved value, equal to target once within maxDelta of it
func MoveTowards(current, target, maxDelta float32) float32 {
	diff := target - current
	if float32(math.Abs(float64(diff))) <= maxDelta {
		return target
	}
	if diff < 0 {
		return current - maxDelta
	}
	return current + maxDelta
}

// Wrap01 wraps v into the half-open range [0, 1), preserving the fractional
// position for negative inputs (Wrap01(-0.25) == 0.75).
//
// Parameters:
//   - v: value to wrap
//
// Returns:
//   - float32: the wrapped value in [0, 1)
func Wrap01(v float32) float32 {
	w := float32(math.Mod(float64(v), 1))
	if w < 0 {
		w++
	}
	return w
}

// WrapTime wraps t into the half-open range [0, length). A non-positive length
// returns 0.
//
// Parameters:
//   - t: time value to wrap
//   - length: wrap period
//
// Returns:
//   - float32: the wrapped time in [0, length)
func WrapTime(t, length float32) float32 {
	if length <= 0 {
		return 0
	}
	w := float32(math.Mod(float64(t), float64(length)))
	if w < 0 {
		w += length
	}
	return w
}

// IsNaN reports whether v is an IEEE 754 "not-a-number" value.
//
// Parameters:
//   - v: value to test
//
// Returns:
//   - bool: true if v is NaN
func IsNaN(v float32) bool {
	return v != v
}

// ApproxEqual reports whether a and b are within epsilon of each other.
//
// Parameters:
//   - a: first value
//   - b: second value
//   - epsilon: maximum allowed absolute difference
//
// Returns:
//   - bool: true if |a - b| <= epsilon
func ApproxEqual(a, b, epsilon float32) bool {
	return float32(math.Abs(float64(a-b))) <= epsilon
}
