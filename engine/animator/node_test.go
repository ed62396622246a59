package animator

import (
	"testing"

	"github.com/Carmen-Shannon/animix-go/engine/playable/fake"
	"github.com/stretchr/testify/require"
	"github.com/tanema/gween/ease"
)

func TestFadeConvergesWithoutOvershoot(t *testing.T) {
	g, f := newTestGraph(t)
	s, err := g.GetOrCreateState(Clip{Name: "walk", Length: 1})
	require.NoError(t, err)

	s.StartFade(1, 0.5)
	prev := float32(0)
	for i := 0; i < 10; i++ {
		step(g, f, 0.1)
		w := s.Weight()
		require.GreaterOrEqual(t, w, prev)
		require.GreaterOrEqual(t, w, float32(0))
		require.LessOrEqual(t, w, float32(1))
		prev = w
	}
	require.InDelta(t, 1.0, s.Weight(), 1e-5)
	require.False(t, s.IsFading())
}

func TestInstantFadeCompletesInOneTick(t *testing.T) {
	g, f := newTestGraph(t)
	s, err := g.GetOrCreateState(Clip{Name: "walk", Length: 1})
	require.NoError(t, err)

	s.StartFade(1, 0)
	require.True(t, s.IsFading())
	step(g, f, 0.016)
	require.InDelta(t, 1.0, s.Weight(), 1e-6)
	require.False(t, s.IsFading())
}

func TestFadeToZeroStopsState(t *testing.T) {
	g, f := newTestGraph(t)
	s, err := g.Play(Clip{Name: "walk", Length: 1})
	require.NoError(t, err)
	step(g, f, 0.3)

	s.StartFade(0, 0.2)
	step(g, f, 0.1)
	require.InDelta(t, 0.5, s.Weight(), 1e-4)
	require.True(t, s.IsPlaying())

	step(g, f, 0.1)
	require.InDelta(t, 0.0, s.Weight(), 1e-6)
	require.Equal(t, StatusStopped, s.Status())
	require.InDelta(t, 0.0, s.Time(), 1e-6)
}

func TestFadeToCurrentWeightCompletesImmediately(t *testing.T) {
	g, _ := newTestGraph(t)
	s, err := g.Play(Clip{Name: "walk", Length: 1})
	require.NoError(t, err)

	s.StartFade(1, 5)
	require.False(t, s.IsFading())
	require.InDelta(t, 1.0, s.Weight(), 1e-6)
}

func TestFadeSpeedScalesWithAncestorSpeed(t *testing.T) {
	g, f := newTestGraph(t, WithSpeed(2))
	s, err := g.GetOrCreateState(Clip{Name: "walk", Length: 1})
	require.NoError(t, err)

	// ancestor speed 2 halves the wall-clock fade time
	s.StartFade(1, 1)
	for i := 0; i < 5; i++ {
		step(g, f, 0.1)
	}
	require.InDelta(t, 1.0, s.Weight(), 1e-5)
}

func TestCustomEase(t *testing.T) {
	g, f := newTestGraph(t)
	s, err := g.GetOrCreateState(Clip{Name: "walk", Length: 1})
	require.NoError(t, err)

	s.StartFadeWith(1, 1, ease.InQuad)
	step(g, f, 0.5)
	// quadratic-in is below linear at the halfway point
	require.InDelta(t, 0.25, s.Weight(), 1e-4)
}

func TestNaNWeightPanics(t *testing.T) {
	g, _ := newTestGraph(t)
	s, err := g.GetOrCreateState(Clip{Name: "walk", Length: 1})
	require.NoError(t, err)

	nan := float32(0)
	nan /= nan
	require.Panics(t, func() { s.SetWeight(nan) })
	require.Panics(t, func() { s.StartFade(nan, 1) })
	require.Panics(t, func() { s.SetSpeed(nan) })
	require.Panics(t, func() { s.SetTime(nan) })
}

func TestSetWeightCancelsFade(t *testing.T) {
	g, f := newTestGraph(t)
	s, err := g.GetOrCreateState(Clip{Name: "walk", Length: 1})
	require.NoError(t, err)

	s.StartFade(1, 1)
	step(g, f, 0.25)
	require.True(t, s.IsFading())

	s.SetWeight(0.9)
	require.False(t, s.IsFading())
	step(g, f, 0.25)
	require.InDelta(t, 0.9, s.Weight(), 1e-6)
}

func TestEffectiveSpeedRoundTrip(t *testing.T) {
	g, _ := newTestGraph(t, WithSpeed(2))
	m, err := g.NewLinearMixer(0, nil)
	require.NoError(t, err)
	m.SetSpeed(0.5)

	child, err := m.Add(Clip{Name: "walk", Length: 1})
	require.NoError(t, err)

	child.SetEffectiveSpeed(3)
	require.InDelta(t, 3.0, child.EffectiveSpeed(), 1e-5)
	require.InDelta(t, 3.0, child.Speed(), 1e-5)
}

func TestZeroWeightDisconnectsFromLayer(t *testing.T) {
	g, f := newTestGraph(t)
	s, err := g.GetOrCreateState(Clip{Name: "walk", Length: 1})
	require.NoError(t, err)

	lh := g.Layer(0).Handle().(*fake.Handle)
	port := s.Port()

	// attached at weight zero: never connected to the host
	step(g, f, 0.1)
	require.False(t, lh.Connected(port))

	s.SetWeight(1)
	step(g, f, 0.1)
	require.True(t, lh.Connected(port))
	require.InDelta(t, 1.0, lh.InputWeight(port), 1e-6)

	s.SetWeight(0)
	step(g, f, 0.1)
	require.False(t, lh.Connected(port))
}
