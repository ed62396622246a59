package animator

import (
	"github.com/cockroachdb/errors"
)

// LinearMixer blends its children along a single axis. Each child owns a
// threshold on that axis; the parameter picks the two bracketing children
// and splits the weight between them, zeroing everyone else.
type LinearMixer struct {
	mixerState

	parameter  float32
	thresholds []float32
}

var _ State = &LinearMixer{}
var _ Mixer = &LinearMixer{}
var _ Parent = &LinearMixer{}
var _ weightRecalculator = &LinearMixer{}

func newLinearMixer(g *graph) *LinearMixer {
	m := &LinearMixer{}
	m.init(g, m, g.factory.NewMixerHandle())
	return m
}

// Parameter returns the current blend coordinate.
func (m *LinearMixer) Parameter() float32 { return m.parameter }

// SetParameter moves the blend coordinate and schedules a weight
// recalculation. Panics if p is NaN.
//
// Parameters:
//   - p: the new blend coordinate
func (m *LinearMixer) SetParameter(p float32) {
	guardFinite(p, "mixer parameter")
	m.parameter = p
	m.markWeightsDirty()
}

// Thresholds returns a copy of the per-child thresholds.
func (m *LinearMixer) Thresholds() []float32 {
	out := make([]float32, len(m.thresholds))
	copy(out, m.thresholds)
	return out
}

// SetThresholds assigns one threshold per child port. Thresholds must be
// strictly ascending and match the child port count; violations are
// configuration errors reported with the offending pair.
//
// Parameters:
//   - thresholds: one axis value per child port, strictly ascending
//
// Returns:
//   - error: an error describing the invalid configuration, or nil
func (m *LinearMixer) SetThresholds(thresholds ...float32) error {
	if len(thresholds) != len(m.children) {
		return errors.Newf(
			"animator: mixer has %d child ports but %d thresholds were given",
			len(m.children), len(thresholds),
		)
	}
	for i, t := range thresholds {
		guardFinite(t, "mixer threshold")
		if i > 0 && thresholds[i-1] >= t {
			return errors.Newf(
				"animator: thresholds must be strictly ascending, got thresholds[%d]=%v >= thresholds[%d]=%v",
				i-1, thresholds[i-1], i, t,
			)
		}
	}
	m.thresholds = append(m.thresholds[:0], thresholds...)
	m.markWeightsDirty()
	return nil
}

// RecalculateWeights brackets the parameter between two thresholds, splits
// the weight across those two children, and zeroes the rest. A parameter at
// or past either end gives that end's child the full weight.
func (m *LinearMixer) RecalculateWeights() {
	n := len(m.children)
	if n == 0 || len(m.thresholds) != n {
		return
	}

	p := m.parameter
	assign := func(port int, w float32) {
		if c := m.children[port]; c != nil {
			m.setChildWeight(c, w)
		}
	}

	switch {
	case p <= m.thresholds[0]:
		assign(0, 1)
		for i := 1; i < n; i++ {
			assign(i, 0)
		}
	case p >= m.thresholds[n-1]:
		assign(n-1, 1)
		for i := 0; i < n-1; i++ {
			assign(i, 0)
		}
	default:
		lo := 0
		for lo+1 < n && m.thresholds[lo+1] <= p {
			lo++
		}
		t := (p - m.thresholds[lo]) / (m.thresholds[lo+1] - m.thresholds[lo])
		for i := 0; i < n; i++ {
			switch i {
			case lo:
				assign(i, 1-t)
			case lo + 1:
				assign(i, t)
			default:
				assign(i, 0)
			}
		}
	}
}
