package animator

import (
	"github.com/cockroachdb/errors"
)

// ManualMixer performs no automatic weight recalculation; the caller drives
// every child weight directly. Useful for externally computed "direct blend"
// composition where no parameter geometry applies.
type ManualMixer struct {
	mixerState
}

var _ State = &ManualMixer{}
var _ Mixer = &ManualMixer{}
var _ Parent = &ManualMixer{}
var _ weightRecalculator = &ManualMixer{}

func newManualMixer(g *graph) *ManualMixer {
	m := &ManualMixer{}
	m.init(g, m, g.factory.NewMixerHandle())
	return m
}

// RecalculateWeights is a no-op; child weights are caller-owned.
func (m *ManualMixer) RecalculateWeights() {}

// SetChildWeight sets the weight of the child at the given port.
//
// Parameters:
//   - port: the child port index
//   - weight: the new blend weight
//
// Returns:
//   - error: an error if the port is out of range or empty
func (m *ManualMixer) SetChildWeight(port int, weight float32) error {
	c := m.Child(port)
	if c == nil {
		return errors.Newf("animator: no child at port %d", port)
	}
	c.SetWeight(weight)
	return nil
}
