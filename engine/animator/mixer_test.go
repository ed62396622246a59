package animator

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/animix-go/engine/playable/fake"
)

func newLinearMoveMixer(t *testing.T) (Graph, *fake.Factory, *LinearMixer, []State) {
	t.Helper()
	g, f := newTestGraph(t)
	m, err := g.NewLinearMixer(0, "move")
	require.NoError(t, err)

	clips := []Clip{
		{Name: "idle", Length: 1, Looping: true},
		{Name: "walk", Length: 1, Looping: true},
		{Name: "run", Length: 0.5, Looping: true},
	}
	children := make([]State, len(clips))
	for i, c := range clips {
		child, err := m.Add(c)
		require.NoError(t, err)
		children[i] = child
	}
	require.NoError(t, m.SetThresholds(0, 1, 2))
	return g, f, m, children
}

func TestLinearMixerBracketsParameter(t *testing.T) {
	g, f, m, children := newLinearMoveMixer(t)

	m.SetParameter(0.5)
	step(g, f, 0.016)

	require.InDelta(t, 0.5, children[0].Weight(), 1e-5)
	require.InDelta(t, 0.5, children[1].Weight(), 1e-5)
	require.InDelta(t, 0.0, children[2].Weight(), 1e-5)

	// weights land on the mixer handle's ports
	mh := m.Handle().(*fake.Handle)
	require.InDelta(t, 0.5, mh.InputWeight(0), 1e-5)
	require.InDelta(t, 0.5, mh.InputWeight(1), 1e-5)

	m.SetParameter(1.75)
	step(g, f, 0.016)
	require.InDelta(t, 0.0, children[0].Weight(), 1e-5)
	require.InDelta(t, 0.25, children[1].Weight(), 1e-5)
	require.InDelta(t, 0.75, children[2].Weight(), 1e-5)
}

func TestLinearMixerClampsAtBoundaries(t *testing.T) {
	g, f, m, children := newLinearMoveMixer(t)

	m.SetParameter(-3)
	step(g, f, 0.016)
	require.InDelta(t, 1.0, children[0].Weight(), 1e-5)
	require.InDelta(t, 0.0, children[1].Weight(), 1e-5)
	require.InDelta(t, 0.0, children[2].Weight(), 1e-5)

	m.SetParameter(9)
	step(g, f, 0.016)
	require.InDelta(t, 0.0, children[0].Weight(), 1e-5)
	require.InDelta(t, 0.0, children[1].Weight(), 1e-5)
	require.InDelta(t, 1.0, children[2].Weight(), 1e-5)
}

func TestLinearMixerThresholdValidation(t *testing.T) {
	g, _ := newTestGraph(t)
	m, err := g.NewLinearMixer(0, nil)
	require.NoError(t, err)
	_, err = m.Add(Clip{Name: "a", Length: 1})
	require.NoError(t, err)
	_, err = m.Add(Clip{Name: "b", Length: 1})
	require.NoError(t, err)

	require.Error(t, m.SetThresholds(0))

	err = m.SetThresholds(1, 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "strictly ascending")
}

func TestMixerPortManagement(t *testing.T) {
	g, _ := newTestGraph(t)
	m, err := g.NewManualMixer(0, nil)
	require.NoError(t, err)

	a, err := m.Add(Clip{Name: "a", Length: 1})
	require.NoError(t, err)
	require.Equal(t, 0, a.Port())
	require.Same(t, a, m.Child(0))

	b, err := g.GetOrCreateState(Clip{Name: "b", Length: 1})
	require.NoError(t, err)
	// already attached to the base layer
	require.Error(t, m.SetChild(1, b))

	require.Error(t, m.SetChild(-1, a))

	c, err := m.Add(Clip{Name: "c", Length: 1})
	require.NoError(t, err)
	require.Equal(t, 1, c.Port())

	a.Destroy()
	require.Nil(t, m.Child(0))
	d, err := m.Add(Clip{Name: "d", Length: 1})
	require.NoError(t, err)
	require.Equal(t, 0, d.Port())
}

func TestManualMixerChildWeights(t *testing.T) {
	g, f := newTestGraph(t)
	m, err := g.NewManualMixer(0, "blend")
	require.NoError(t, err)
	a, err := m.Add(Clip{Name: "a", Length: 1})
	require.NoError(t, err)

	require.Error(t, m.SetChildWeight(7, 1))

	require.NoError(t, m.SetChildWeight(0, 0.3))
	step(g, f, 0.016)
	require.InDelta(t, 0.3, a.Weight(), 1e-6)
	mh := m.Handle().(*fake.Handle)
	require.InDelta(t, 0.3, mh.InputWeight(0), 1e-6)
}

func TestCartesianMixerGradientBand(t *testing.T) {
	g, f := newTestGraph(t)
	m, err := g.NewCartesianMixer(0, nil)
	require.NoError(t, err)
	a, err := m.Add(Clip{Name: "a", Length: 1})
	require.NoError(t, err)
	b, err := m.Add(Clip{Name: "b", Length: 1})
	require.NoError(t, err)
	require.NoError(t, m.SetThresholds(mgl32.Vec2{0, 0}, mgl32.Vec2{1, 0}))

	m.SetParameter(mgl32.Vec2{0.25, 0})
	step(g, f, 0.016)
	require.InDelta(t, 0.75, a.Weight(), 1e-4)
	require.InDelta(t, 0.25, b.Weight(), 1e-4)

	// on top of a threshold the other children drop to zero
	m.SetParameter(mgl32.Vec2{1, 0})
	step(g, f, 0.016)
	require.InDelta(t, 0.0, a.Weight(), 1e-4)
	require.InDelta(t, 1.0, b.Weight(), 1e-4)
}

func TestCartesianMixerRejectsDuplicatePoints(t *testing.T) {
	g, _ := newTestGraph(t)
	m, err := g.NewCartesianMixer(0, nil)
	require.NoError(t, err)
	_, err = m.Add(Clip{Name: "a", Length: 1})
	require.NoError(t, err)
	_, err = m.Add(Clip{Name: "b", Length: 1})
	require.NoError(t, err)

	require.Error(t, m.SetThresholds(mgl32.Vec2{1, 1}, mgl32.Vec2{1, 1}))
}

func TestDirectionalMixerPicksDirection(t *testing.T) {
	g, f := newTestGraph(t)
	m, err := g.NewDirectionalMixer(0, nil)
	require.NoError(t, err)

	names := []string{"right", "up", "left", "down"}
	dirs := []mgl32.Vec2{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}
	children := make([]State, len(dirs))
	for i, n := range names {
		c, err := m.Add(Clip{Name: n, Length: 1, Looping: true})
		require.NoError(t, err)
		children[i] = c
	}
	require.NoError(t, m.SetThresholds(dirs...))

	m.SetParameter(mgl32.Vec2{1, 0})
	step(g, f, 0.016)
	require.InDelta(t, 1.0, children[0].Weight(), 1e-4)
	for i := 1; i < 4; i++ {
		require.InDelta(t, 0.0, children[i].Weight(), 1e-4)
	}

	// rotating the parameter hands weight to the adjacent direction
	m.SetParameter(mgl32.Vec2{0, 1})
	step(g, f, 0.016)
	require.InDelta(t, 1.0, children[1].Weight(), 1e-4)
	require.InDelta(t, 0.0, children[0].Weight(), 1e-4)
}

func TestMixerTimeIsWeightedAverage(t *testing.T) {
	g, f, m, children := newLinearMoveMixer(t)

	m.SetParameter(0.5)
	step(g, f, 0.016)

	children[0].SetTime(0.5)
	children[1].SetTime(0.5)
	g.Tick(0) // refresh the frame stamp
	// both weighted children sit at normalized 0.5; lengths 1 and 1
	require.InDelta(t, 0.5, m.Time(), 1e-4)
	require.InDelta(t, 1.0, m.Length(), 1e-4)
}

func TestSynchroniseChildrenOverridesSpeeds(t *testing.T) {
	g, f := newTestGraph(t)
	m, err := g.NewManualMixer(0, nil)
	require.NoError(t, err)
	a, err := m.Add(Clip{Name: "a", Length: 1, Looping: true})
	require.NoError(t, err)
	b, err := m.Add(Clip{Name: "b", Length: 2, Looping: true})
	require.NoError(t, err)
	require.NoError(t, m.SetChildWeight(0, 0.5))
	require.NoError(t, m.SetChildWeight(1, 0.5))

	m.SetSynchroniseChildren()
	step(g, f, 0.1)

	// both children must land on the same normalized time after the next
	// host advance: target NT = 0.75 * dt
	ah := a.Handle().(*fake.Handle)
	bh := b.Handle().(*fake.Handle)
	require.InDelta(t, 0.75, ah.Speed(), 1e-3)
	require.InDelta(t, 1.5, bh.Speed(), 1e-3)

	m.ClearSynchroniseChildren()
}

func TestClearSynchroniseChildrenRestoresSpeeds(t *testing.T) {
	g, f := newTestGraph(t)
	m, err := g.NewManualMixer(0, nil)
	require.NoError(t, err)
	a, err := m.Add(Clip{Name: "a", Length: 1, Looping: true})
	require.NoError(t, err)
	b, err := m.Add(Clip{Name: "b", Length: 2, Looping: true})
	require.NoError(t, err)
	require.NoError(t, m.SetChildWeight(0, 0.5))
	require.NoError(t, m.SetChildWeight(1, 0.5))

	m.SetSynchroniseChildren()
	step(g, f, 0.1)

	ah := a.Handle().(*fake.Handle)
	bh := b.Handle().(*fake.Handle)
	require.InDelta(t, 1.5, bh.Speed(), 1e-3)

	// the override must not outlive the sync group
	m.ClearSynchroniseChildren()
	require.InDelta(t, 1.0, ah.Speed(), 1e-6)
	require.InDelta(t, 1.0, bh.Speed(), 1e-6)
	require.InDelta(t, 1.0, b.Speed(), 1e-6)
}

func TestSynchroniseRestoresChildLeavingBlend(t *testing.T) {
	g, f := newTestGraph(t)
	m, err := g.NewManualMixer(0, nil)
	require.NoError(t, err)
	a, err := m.Add(Clip{Name: "a", Length: 1, Looping: true})
	require.NoError(t, err)
	b, err := m.Add(Clip{Name: "b", Length: 2, Looping: true})
	require.NoError(t, err)
	require.NoError(t, m.SetChildWeight(0, 0.5))
	require.NoError(t, m.SetChildWeight(1, 0.5))

	m.SetSynchroniseChildren()
	step(g, f, 0.1)

	bh := b.Handle().(*fake.Handle)
	require.InDelta(t, 1.5, bh.Speed(), 1e-3)

	// dropping to weight 0 hands the handle speed back to the child
	require.NoError(t, m.SetChildWeight(1, 0))
	step(g, f, 0.1)
	require.InDelta(t, 1.0, bh.Speed(), 1e-6)
	_ = a
}

func TestSynchroniseSubsetFlags(t *testing.T) {
	g, f := newTestGraph(t)
	m, err := g.NewManualMixer(0, nil)
	require.NoError(t, err)
	a, err := m.Add(Clip{Name: "a", Length: 1, Looping: true})
	require.NoError(t, err)
	b, err := m.Add(Clip{Name: "b", Length: 2, Looping: true})
	require.NoError(t, err)
	require.NoError(t, m.SetChildWeight(0, 1))
	require.NoError(t, m.SetChildWeight(1, 1))

	// only child 0 participates; child 1's speed is untouched
	m.SetSynchroniseChildren(true, false)
	bh := b.Handle().(*fake.Handle)
	before := bh.Speed()
	step(g, f, 0.1)
	require.InDelta(t, before, bh.Speed(), 1e-6)
	_ = a
}
