package animator

import (
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/animix-go/common"
)

// CartesianMixer blends its children over a 2-D plane using gradient band
// interpolation: each child's influence is the smallest of its directional
// clearances toward every other child, so children far from the parameter
// drop to exactly zero instead of lingering with residual weight.
type CartesianMixer struct {
	mixerState

	parameter  mgl32.Vec2
	thresholds []mgl32.Vec2
}

var _ State = &CartesianMixer{}
var _ Mixer = &CartesianMixer{}
var _ Parent = &CartesianMixer{}
var _ weightRecalculator = &CartesianMixer{}

func newCartesianMixer(g *graph) *CartesianMixer {
	m := &CartesianMixer{}
	m.init(g, m, g.factory.NewMixerHandle())
	return m
}

// Parameter returns the current 2-D blend coordinate.
func (m *CartesianMixer) Parameter() mgl32.Vec2 { return m.parameter }

// SetParameter moves the blend coordinate and schedules a weight
// recalculation. Panics if either component is NaN.
//
// Parameters:
//   - p: the new blend coordinate
func (m *CartesianMixer) SetParameter(p mgl32.Vec2) {
	guardFinite(p.X(), "mixer parameter x")
	guardFinite(p.Y(), "mixer parameter y")
	m.parameter = p
	m.markWeightsDirty()
}

// Thresholds returns a copy of the per-child threshold points.
func (m *CartesianMixer) Thresholds() []mgl32.Vec2 {
	out := make([]mgl32.Vec2, len(m.thresholds))
	copy(out, m.thresholds)
	return out
}

// SetThresholds assigns one 2-D threshold per child port. Points must be
// distinct and match the child port count.
//
// Parameters:
//   - thresholds: one plane coordinate per child port
//
// Returns:
//   - error: an error describing the invalid configuration, or nil
func (m *CartesianMixer) SetThresholds(thresholds ...mgl32.Vec2) error {
	if len(thresholds) != len(m.children) {
		return errors.Newf(
			"animator: mixer has %d child ports but %d thresholds were given",
			len(m.children), len(thresholds),
		)
	}
	for i, t := range thresholds {
		guardFinite(t.X(), "mixer threshold x")
		guardFinite(t.Y(), "mixer threshold y")
		for j := 0; j < i; j++ {
			if thresholds[j] == t {
				return errors.Newf(
					"animator: thresholds[%d] and thresholds[%d] are both %v; points must be distinct",
					j, i, t,
				)
			}
		}
	}
	m.thresholds = append(m.thresholds[:0], thresholds...)
	m.markWeightsDirty()
	return nil
}

// RecalculateWeights runs gradient band interpolation over the threshold
// points and normalizes the result. If every band collapses to zero the
// nearest threshold's child receives the full weight.
func (m *CartesianMixer) RecalculateWeights() {
	recalculateGradientBand(&m.mixerState, m.thresholds, m.parameter)
}

// recalculateGradientBand is shared by the cartesian and directional mixers;
// they differ only in the space the points live in.
func recalculateGradientBand(m *mixerState, points []mgl32.Vec2, p mgl32.Vec2) {
	n := len(m.children)
	if n == 0 || len(points) != n {
		return
	}

	weights := make([]float32, n)
	var total float32
	for i := 0; i < n; i++ {
		if m.children[i] == nil {
			continue
		}
		pi := points[i]
		w := float32(1)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			d := points[j].Sub(pi)
			len2 := d.Dot(d)
			if len2 == 0 {
				continue
			}
			t := 1 - p.Sub(pi).Dot(d)/len2
			w = min(w, common.Clamp01(t))
			if w == 0 {
				break
			}
		}
		weights[i] = w
		total += w
	}

	if total == 0 {
		nearest := -1
		best := float32(0)
		for i := 0; i < n; i++ {
			if m.children[i] == nil {
				continue
			}
			d2 := points[i].Sub(p).Dot(points[i].Sub(p))
			if nearest < 0 || d2 < best {
				nearest = i
				best = d2
			}
		}
		for i := 0; i < n; i++ {
			if c := m.children[i]; c != nil {
				w := float32(0)
				if i == nearest {
					w = 1
				}
				m.setChildWeight(c, w)
			}
		}
		return
	}

	for i := 0; i < n; i++ {
		if c := m.children[i]; c != nil {
			m.setChildWeight(c, weights[i]/total)
		}
	}
}
