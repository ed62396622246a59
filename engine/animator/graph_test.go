package animator

import (
	"testing"

	"github.com/Carmen-Shannon/animix-go/engine/playable/fake"
	"github.com/stretchr/testify/require"
)

func newTestGraph(t *testing.T, opts ...GraphOption) (Graph, *fake.Factory) {
	t.Helper()
	f := fake.NewFactory()
	g, err := NewGraph(f, opts...)
	require.NoError(t, err)
	return g, f
}

// step simulates one host frame: the host advances its clocks, then the
// graph ticks.
func step(g Graph, f *fake.Factory, dt float32) {
	f.Advance(dt)
	g.Tick(dt)
}

func TestNewGraphRequiresFactory(t *testing.T) {
	_, err := NewGraph(nil)
	require.Error(t, err)
}

func TestNewGraphDefaults(t *testing.T) {
	g, _ := newTestGraph(t)
	require.Equal(t, 1, g.LayerCount())
	require.InDelta(t, 1.0, g.Speed(), 1e-6)
	require.NotNil(t, g.Layer(0))
	require.Nil(t, g.Layer(1))
}

func TestNewGraphLayerCountOption(t *testing.T) {
	g, _ := newTestGraph(t, WithLayerCount(3))
	require.Equal(t, 3, g.LayerCount())
	for i := 0; i < 3; i++ {
		require.Equal(t, i, g.Layer(i).Index())
	}
}

func TestPlayCreatesStateFromClip(t *testing.T) {
	g, _ := newTestGraph(t)
	clip := Clip{Name: "walk", Length: 1, Looping: true}

	s, err := g.Play(clip)
	require.NoError(t, err)
	require.True(t, s.IsPlaying())
	require.InDelta(t, 1.0, s.Weight(), 1e-6)
	require.Same(t, s, g.State(clip))
	require.True(t, g.IsPlaying(clip))
}

func TestPlayUnknownKeyFails(t *testing.T) {
	g, _ := newTestGraph(t)
	_, err := g.Play("nothing registered here")
	require.Error(t, err)
}

func TestCrossFadeSwapsStates(t *testing.T) {
	g, f := newTestGraph(t)
	walk := Clip{Name: "walk", Length: 1}
	run := Clip{Name: "run", Length: 1}

	a, err := g.Play(walk)
	require.NoError(t, err)
	step(g, f, 0.1)

	b, err := g.CrossFade(run, 0.2, FadeFixedDuration)
	require.NoError(t, err)

	step(g, f, 0.1)
	require.InDelta(t, 0.5, a.Weight(), 1e-4)
	require.InDelta(t, 0.5, b.Weight(), 1e-4)

	step(g, f, 0.1)
	require.InDelta(t, 0.0, a.Weight(), 1e-4)
	require.InDelta(t, 1.0, b.Weight(), 1e-4)
	require.Equal(t, StatusStopped, a.Status())
	require.True(t, b.IsPlaying())
	require.False(t, g.IsPlaying(walk))
	require.True(t, g.IsPlaying(run))
}

func TestCrossFadeFromStartRewinds(t *testing.T) {
	g, f := newTestGraph(t)
	walk := Clip{Name: "walk", Length: 1}
	run := Clip{Name: "run", Length: 1}

	b, err := g.Play(run)
	require.NoError(t, err)
	step(g, f, 0.5)
	require.Greater(t, b.Time(), float32(0))

	_, err = g.CrossFade(walk, 0.2, FadeFixedDuration)
	require.NoError(t, err)

	_, err = g.CrossFade(run, 0.2, FadeFromStart)
	require.NoError(t, err)
	require.InDelta(t, 0.0, b.Time(), 1e-6)
	require.InDelta(t, 1.0, b.TargetWeight(), 1e-6)
}

func TestStopAndStopAll(t *testing.T) {
	g, f := newTestGraph(t)
	walk := Clip{Name: "walk", Length: 1}

	s, err := g.Play(walk)
	require.NoError(t, err)
	step(g, f, 0.25)

	g.Stop(walk)
	require.Equal(t, StatusStopped, s.Status())
	require.InDelta(t, 0.0, s.Weight(), 1e-6)

	_, err = g.Play(walk)
	require.NoError(t, err)
	g.StopAll()
	require.False(t, g.IsPlaying(walk))
}

func TestSetKeyMovesRegistryEntry(t *testing.T) {
	g, _ := newTestGraph(t)
	clip := Clip{Name: "walk", Length: 1}

	s, err := g.GetOrCreateState(clip)
	require.NoError(t, err)

	require.NoError(t, s.SetKey("locomotion"))
	require.Same(t, s, g.State("locomotion"))
	require.Nil(t, g.State(clip))

	other, err := g.GetOrCreateState(Clip{Name: "run", Length: 1})
	require.NoError(t, err)
	require.Error(t, other.SetKey("locomotion"))
}

func TestPauseStopsTicks(t *testing.T) {
	g, f := newTestGraph(t)
	clip := Clip{Name: "walk", Length: 1}
	s, err := g.GetOrCreateState(clip)
	require.NoError(t, err)

	s.StartFade(1, 1)
	g.Pause()
	require.True(t, g.IsPaused())
	frame := g.Frame()
	step(g, f, 0.5)
	require.Equal(t, frame, g.Frame())
	require.InDelta(t, 0.0, s.Weight(), 1e-6)

	g.Resume()
	step(g, f, 0.5)
	require.Greater(t, s.Weight(), float32(0))
}

func TestLayerAdditiveAndMaskForwarding(t *testing.T) {
	g, _ := newTestGraph(t)
	l := g.Layer(0)

	l.SetAdditive(true)
	require.True(t, l.IsAdditive())
	lh := l.Handle().(*fake.Handle)
	require.True(t, lh.Additive)

	l.SetMask("upper-body")
	require.Equal(t, "upper-body", l.Mask())
	require.Equal(t, []any{"upper-body"}, lh.Masks)
}

func TestAddRemoveLayerReseatsStack(t *testing.T) {
	g, _ := newTestGraph(t)
	second := g.AddLayer()
	require.Equal(t, 2, g.LayerCount())
	require.Equal(t, 1, second.Index())

	require.Error(t, g.RemoveLayer(5))
	require.NoError(t, g.RemoveLayer(0))
	require.Equal(t, 1, g.LayerCount())
	require.Same(t, second, g.Layer(0))
	require.Equal(t, 0, second.Index())
	require.Equal(t, 0, second.Port())

	require.Error(t, g.SetLayerCount(0))
	require.NoError(t, g.SetLayerCount(3))
	require.Equal(t, 3, g.LayerCount())
}

func TestStatesOnSeparateLayersPlayIndependently(t *testing.T) {
	g, f := newTestGraph(t, WithLayerCount(2))
	walk := Clip{Name: "walk", Length: 1}
	wave := Clip{Name: "wave", Length: 1}

	base, err := g.Layer(0).GetOrCreateState(walk)
	require.NoError(t, err)
	upper, err := g.Layer(1).GetOrCreateState(wave)
	require.NoError(t, err)

	require.NoError(t, g.Layer(0).PlayState(base))
	require.NoError(t, g.Layer(1).PlayState(upper))
	step(g, f, 0.1)

	require.True(t, base.IsPlaying())
	require.True(t, upper.IsPlaying())

	g.Layer(1).Stop()
	require.False(t, upper.IsPlaying())
	require.True(t, base.IsPlaying())
}

func TestClipCannotLiveOnTwoLayers(t *testing.T) {
	g, _ := newTestGraph(t, WithLayerCount(2))
	clip := Clip{Name: "walk", Length: 1}

	_, err := g.Layer(0).GetOrCreateState(clip)
	require.NoError(t, err)
	_, err = g.Layer(1).GetOrCreateState(clip)
	require.Error(t, err)
}

func TestDestroyFromEventCallback(t *testing.T) {
	g, f := newTestGraph(t)
	clip := Clip{Name: "die", Length: 1}

	s, err := g.Play(clip)
	require.NoError(t, err)
	require.NoError(t, s.Events().Add(0.5, func(ctx EventContext) {
		ctx.State.Destroy()
	}))

	require.NotPanics(t, func() {
		step(g, f, 0.75)
		step(g, f, 0.1)
	})
	require.Nil(t, g.State(clip))
}

func TestGraphDestroyReleasesEveryHandle(t *testing.T) {
	g, f := newTestGraph(t, WithLayerCount(2))
	_, err := g.Play(Clip{Name: "walk", Length: 1})
	require.NoError(t, err)
	_, err = g.NewLinearMixer(1, "move")
	require.NoError(t, err)

	g.Destroy()
	require.Equal(t, len(f.Handles), f.Released)
	for _, h := range f.Handles {
		require.True(t, h.Released)
	}

	// destroyed graphs ignore further ticks
	require.NotPanics(t, func() { g.Tick(0.1) })
}
