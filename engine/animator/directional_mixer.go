package animator

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
)

// DirectionalMixer blends its children by movement direction rather than
// plane position: thresholds are direction vectors and the blend happens in
// a polar (angle, magnitude) space, so a parameter rotating at constant
// magnitude hands weight smoothly between adjacent directions. The band
// interpolation itself is shared with CartesianMixer.
type DirectionalMixer struct {
	mixerState

	parameter  mgl32.Vec2
	thresholds []mgl32.Vec2

	// angleScale makes angular distance commensurate with magnitude
	// distance in the polar mapping; recomputed from the thresholds.
	angleScale float32
}

var _ State = &DirectionalMixer{}
var _ Mixer = &DirectionalMixer{}
var _ Parent = &DirectionalMixer{}
var _ weightRecalculator = &DirectionalMixer{}

func newDirectionalMixer(g *graph) *DirectionalMixer {
	m := &DirectionalMixer{angleScale: 1}
	m.init(g, m, g.factory.NewMixerHandle())
	return m
}

// Parameter returns the current direction parameter.
func (m *DirectionalMixer) Parameter() mgl32.Vec2 { return m.parameter }

// SetParameter sets the direction parameter and schedules a weight
// recalculation. Panics if either component is NaN.
//
// Parameters:
//   - p: the new direction vector
func (m *DirectionalMixer) SetParameter(p mgl32.Vec2) {
	guardFinite(p.X(), "mixer parameter x")
	guardFinite(p.Y(), "mixer parameter y")
	m.parameter = p
	m.markWeightsDirty()
}

// Thresholds returns a copy of the per-child direction thresholds.
func (m *DirectionalMixer) Thresholds() []mgl32.Vec2 {
	out := make([]mgl32.Vec2, len(m.thresholds))
	copy(out, m.thresholds)
	return out
}

// SetThresholds assigns one direction vector per child port. Vectors must be
// distinct and match the child port count.
//
// Parameters:
//   - thresholds: one direction vector per child port
//
// Returns:
//   - error: an error describing the invalid configuration, or nil
func (m *DirectionalMixer) SetThresholds(thresholds ...mgl32.Vec2) error {
	if len(thresholds) != len(m.children) {
		return errors.Newf(
			"animator: mixer has %d child ports but %d thresholds were given",
			len(m.children), len(thresholds),
		)
	}
	var magnitudeSum float32
	for i, t := range thresholds {
		guardFinite(t.X(), "mixer threshold x")
		guardFinite(t.Y(), "mixer threshold y")
		for j := 0; j < i; j++ {
			if thresholds[j] == t {
				return errors.Newf(
					"animator: thresholds[%d] and thresholds[%d] are both %v; directions must be distinct",
					j, i, t,
				)
			}
		}
		magnitudeSum += t.Len()
	}
	m.thresholds = append(m.thresholds[:0], thresholds...)
	m.angleScale = 1
	if len(thresholds) > 0 {
		if avg := magnitudeSum / float32(len(thresholds)); avg > 0 {
			m.angleScale = avg / math.Pi
		}
	}
	m.markWeightsDirty()
	return nil
}

// RecalculateWeights maps the parameter and thresholds into polar space and
// runs the shared gradient band interpolation there.
func (m *DirectionalMixer) RecalculateWeights() {
	n := len(m.thresholds)
	if n == 0 {
		return
	}
	mapped := make([]mgl32.Vec2, n)
	for i, t := range m.thresholds {
		mapped[i] = m.polar(t)
	}
	recalculateGradientBand(&m.mixerState, mapped, m.polar(m.parameter))
}

// polar maps a vector to (scaled angle, magnitude). The zero vector has no
// direction and maps to the origin.
func (m *DirectionalMixer) polar(v mgl32.Vec2) mgl32.Vec2 {
	mag := v.Len()
	if mag == 0 {
		return mgl32.Vec2{}
	}
	ang := float32(math.Atan2(float64(v.Y()), float64(v.X())))
	return mgl32.Vec2{ang * m.angleScale, mag}
}
