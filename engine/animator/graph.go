package animator

import (
	"github.com/Carmen-Shannon/animix-go/engine/playable"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/tanema/gween/ease"
	"go.uber.org/zap"
)

// Graph is the top-level animation object: it owns the layer stack, the
// key-to-state registry, the update scheduler, and the event-sequence pool.
// One Graph animates one host object; every state and mixer it creates is
// backed by a handle minted from the host's playable.Factory.
//
// A Graph advances only when the host calls Tick. All methods must be called
// from the ticking goroutine; the graph performs no internal locking.
//
// The interface is sealed; create instances with NewGraph.
type Graph interface {
	// ID returns the graph's identity, attached to every log line.
	ID() uuid.UUID

	// Root returns the handle the layer stack composes into. The host reads
	// its output; the core only connects layers to it.
	Root() playable.Handle

	// Frame returns the number of ticks the graph has processed.
	Frame() uint64

	// Tick advances the graph by dt seconds: early event processing, fade
	// advancement and weight application, then late event sweeps. A paused or
	// destroyed graph ignores the call. Panics if dt is NaN.
	//
	// Parameters:
	//   - dt: the simulation step in seconds
	Tick(dt float32)

	// Pause freezes the graph; Tick becomes a no-op and the root handle is
	// paused so the host stops advancing handle times.
	Pause()

	// Resume reverses Pause.
	Resume()

	// IsPaused reports whether the graph is paused.
	IsPaused() bool

	// Speed returns the graph-level speed multiplier applied above every
	// layer.
	Speed() float32

	// SetSpeed sets the graph-level speed multiplier, writing it through to
	// the root handle. Panics if s is NaN.
	//
	// Parameters:
	//   - s: the speed multiplier
	SetSpeed(s float32)

	// LayerCount returns the number of layers in the stack.
	LayerCount() int

	// Layer returns the layer at the given stack index, or nil when out of
	// range.
	//
	// Parameters:
	//   - index: the stack index, 0 is the base layer
	//
	// Returns:
	//   - *Layer: the layer, or nil
	Layer(index int) *Layer

	// AddLayer appends a new layer to the top of the stack.
	//
	// Returns:
	//   - *Layer: the new layer
	AddLayer() *Layer

	// RemoveLayer destroys the layer at the given index, including every
	// state on it, and closes the gap in the stack.
	//
	// Parameters:
	//   - index: the stack index to remove
	//
	// Returns:
	//   - error: an error if the index is out of range
	RemoveLayer(index int) error

	// SetLayerCount grows or shrinks the stack to n layers. Shrinking
	// destroys the removed layers' subtrees.
	//
	// Parameters:
	//   - n: the desired layer count, at least 1
	//
	// Returns:
	//   - error: an error if n is less than 1
	SetLayerCount(n int) error

	// State returns the state registered under key, or nil.
	//
	// Parameters:
	//   - key: the registry key
	//
	// Returns:
	//   - State: the registered state, or nil
	State(key any) State

	// GetOrCreateState returns the state for clip on the base layer, creating
	// and registering it when none exists.
	//
	// Parameters:
	//   - clip: the clip whose state to look up or create
	//
	// Returns:
	//   - State: the clip's state
	//   - error: an error if the clip's state lives on a non-base layer
	GetOrCreateState(clip Clip) (State, error)

	// Play resolves key to a state and plays it at full weight on its layer,
	// stopping that layer's other states. A Clip key creates the state on the
	// base layer when it is not registered yet.
	//
	// Parameters:
	//   - key: the registry key, or a Clip for implicit creation
	//
	// Returns:
	//   - State: the playing state
	//   - error: an error if the key resolves to nothing
	Play(key any) (State, error)

	// CrossFade resolves key to a state and fades it toward full weight over
	// duration seconds while fading its layer siblings out. A Clip key
	// creates the state on the base layer when it is not registered yet.
	//
	// Parameters:
	//   - key: the registry key, or a Clip for implicit creation
	//   - duration: the fade length in seconds; <= 0 behaves like Play
	//   - mode: FadeFixedDuration or FadeFromStart
	//
	// Returns:
	//   - State: the fading state
	//   - error: an error if the key resolves to nothing
	CrossFade(key any, duration float32, mode FadeMode) (State, error)

	// CrossFadeWith crossfades with an explicit easing function; nil uses the
	// graph default. See CrossFade.
	//
	// Parameters:
	//   - key: the registry key, or a Clip for implicit creation
	//   - duration: the fade length in seconds
	//   - mode: FadeFixedDuration or FadeFromStart
	//   - easeFn: the easing curve, or nil
	//
	// Returns:
	//   - State: the fading state
	//   - error: an error if the key resolves to nothing
	CrossFadeWith(key any, duration float32, mode FadeMode, easeFn ease.TweenFunc) (State, error)

	// Stop halts the state registered under key. Unknown keys are ignored.
	//
	// Parameters:
	//   - key: the registry key
	Stop(key any)

	// StopAll halts every layer's states.
	StopAll()

	// IsPlaying reports whether a state is registered under key and currently
	// playing.
	//
	// Parameters:
	//   - key: the registry key
	//
	// Returns:
	//   - bool: true if the state exists and is playing
	IsPlaying(key any) bool

	// NewLinearMixer creates a 1-D mixer on the given layer, registered under
	// key when key is non-nil.
	//
	// Parameters:
	//   - layerIndex: the stack index to attach the mixer to
	//   - key: the registry key, or nil
	//
	// Returns:
	//   - *LinearMixer: the new mixer
	//   - error: an error if the layer index or key is invalid
	NewLinearMixer(layerIndex int, key any) (*LinearMixer, error)

	// NewCartesianMixer creates a 2-D positional mixer on the given layer,
	// registered under key when key is non-nil.
	//
	// Parameters:
	//   - layerIndex: the stack index to attach the mixer to
	//   - key: the registry key, or nil
	//
	// Returns:
	//   - *CartesianMixer: the new mixer
	//   - error: an error if the layer index or key is invalid
	NewCartesianMixer(layerIndex int, key any) (*CartesianMixer, error)

	// NewDirectionalMixer creates a 2-D directional mixer on the given layer,
	// registered under key when key is non-nil.
	//
	// Parameters:
	//   - layerIndex: the stack index to attach the mixer to
	//   - key: the registry key, or nil
	//
	// Returns:
	//   - *DirectionalMixer: the new mixer
	//   - error: an error if the layer index or key is invalid
	NewDirectionalMixer(layerIndex int, key any) (*DirectionalMixer, error)

	// NewManualMixer creates a caller-weighted mixer on the given layer,
	// registered under key when key is non-nil.
	//
	// Parameters:
	//   - layerIndex: the stack index to attach the mixer to
	//   - key: the registry key, or nil
	//
	// Returns:
	//   - *ManualMixer: the new mixer
	//   - error: an error if the layer index or key is invalid
	NewManualMixer(layerIndex int, key any) (*ManualMixer, error)

	// Destroy tears the whole graph down: every layer subtree, every
	// registered state, and the root handle. Failing states are logged and
	// skipped so the teardown always completes. The graph must not be used
	// afterwards.
	Destroy()
}

type graph struct {
	id      uuid.UUID
	factory playable.Factory
	logger  *zap.SugaredLogger

	root   playable.Handle
	layers []*Layer
	states map[any]State

	sched scheduler
	pool  sequencePool

	frame uint64
	dt    float32

	speed    float32
	fadeEase ease.TweenFunc

	paused    bool
	destroyed bool
}

var _ Graph = &graph{}
var _ Parent = &graph{}

func (g *graph) ID() uuid.UUID { return g.id }

func (g *graph) Root() playable.Handle { return g.root }

func (g *graph) Frame() uint64 { return g.frame }

// Handle returns the root handle layers connect into.
func (g *graph) Handle() playable.Handle { return g.root }

// EffectiveSpeed returns the graph-level speed; the graph is the top of
// every speed chain.
func (g *graph) EffectiveSpeed() float32 { return g.speed }

// Layers stay connected to the root regardless of weight; the stack is
// small and its slots are stable.
func (g *graph) KeepChildrenConnected() bool { return true }

func (g *graph) onChildDestroyed(port int) {
	if port >= 0 && port < len(g.layers) {
		g.layers[port] = nil
	}
}

func (g *graph) Tick(dt float32) {
	if g.destroyed || g.paused {
		return
	}
	guardFinite(dt, "delta time")
	g.frame++
	g.dt = dt
	g.sched.tick(dt)
}

func (g *graph) Pause() {
	if g.paused {
		return
	}
	g.paused = true
	g.root.Pause()
}

func (g *graph) Resume() {
	if !g.paused {
		return
	}
	g.paused = false
	g.root.Play()
}

func (g *graph) IsPaused() bool { return g.paused }

func (g *graph) Speed() float32 { return g.speed }

func (g *graph) SetSpeed(s float32) {
	guardFinite(s, "speed")
	g.speed = s
	g.root.SetSpeed(s)
}

func (g *graph) LayerCount() int { return len(g.layers) }

func (g *graph) Layer(index int) *Layer {
	if index < 0 || index >= len(g.layers) {
		return nil
	}
	return g.layers[index]
}

func (g *graph) AddLayer() *Layer {
	l := newLayer(g, len(g.layers))
	g.layers = append(g.layers, l)
	return l
}

func (g *graph) RemoveLayer(index int) error {
	if index < 0 || index >= len(g.layers) {
		return errors.Newf("animator: layer index %d out of range [0, %d)", index, len(g.layers))
	}
	l := g.layers[index]
	if l != nil {
		l.Destroy()
	}
	g.layers = append(g.layers[:index], g.layers[index+1:]...)

	// reseat the shifted layers on their new root ports
	for i := index; i < len(g.layers); i++ {
		moved := g.layers[i]
		if moved == nil {
			continue
		}
		moved.index = i
		moved.setParent(nil, -1)
		moved.setParent(g, i)
	}
	return nil
}

func (g *graph) SetLayerCount(n int) error {
	if n < 1 {
		return errors.Newf("animator: layer count %d must be at least 1", n)
	}
	for len(g.layers) < n {
		g.AddLayer()
	}
	for len(g.layers) > n {
		if err := g.RemoveLayer(len(g.layers) - 1); err != nil {
			return err
		}
	}
	return nil
}

func (g *graph) State(key any) State {
	return g.states[key]
}

func (g *graph) GetOrCreateState(clip Clip) (State, error) {
	return g.layers[0].GetOrCreateState(clip)
}

func (g *graph) Play(key any) (State, error) {
	s, err := g.resolve(key)
	if err != nil {
		return nil, err
	}
	l := g.layerOf(s)
	if l == nil {
		return nil, errors.Newf("animator: state %v is not attached to a layer", s.Key())
	}
	if err := l.PlayState(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (g *graph) CrossFade(key any, duration float32, mode FadeMode) (State, error) {
	return g.CrossFadeWith(key, duration, mode, nil)
}

func (g *graph) CrossFadeWith(key any, duration float32, mode FadeMode, easeFn ease.TweenFunc) (State, error) {
	s, err := g.resolve(key)
	if err != nil {
		return nil, err
	}
	l := g.layerOf(s)
	if l == nil {
		return nil, errors.Newf("animator: state %v is not attached to a layer", s.Key())
	}
	if err := l.CrossFadeWith(s, duration, mode, easeFn); err != nil {
		return nil, err
	}
	return s, nil
}

func (g *graph) Stop(key any) {
	if s, ok := g.states[key]; ok {
		s.Stop()
	}
}

func (g *graph) StopAll() {
	for _, l := range g.layers {
		if l != nil {
			l.Stop()
		}
	}
}

func (g *graph) IsPlaying(key any) bool {
	s, ok := g.states[key]
	return ok && s.IsPlaying()
}

func (g *graph) NewLinearMixer(layerIndex int, key any) (*LinearMixer, error) {
	m := newLinearMixer(g)
	if err := g.placeMixer(m, layerIndex, key); err != nil {
		return nil, err
	}
	return m, nil
}

func (g *graph) NewCartesianMixer(layerIndex int, key any) (*CartesianMixer, error) {
	m := newCartesianMixer(g)
	if err := g.placeMixer(m, layerIndex, key); err != nil {
		return nil, err
	}
	return m, nil
}

func (g *graph) NewDirectionalMixer(layerIndex int, key any) (*DirectionalMixer, error) {
	m := newDirectionalMixer(g)
	if err := g.placeMixer(m, layerIndex, key); err != nil {
		return nil, err
	}
	return m, nil
}

func (g *graph) NewManualMixer(layerIndex int, key any) (*ManualMixer, error) {
	m := newManualMixer(g)
	if err := g.placeMixer(m, layerIndex, key); err != nil {
		return nil, err
	}
	return m, nil
}

func (g *graph) placeMixer(m State, layerIndex int, key any) error {
	l := g.Layer(layerIndex)
	if l == nil {
		return errors.Newf("animator: layer index %d out of range [0, %d)", layerIndex, len(g.layers))
	}
	if key != nil {
		if err := g.rekey(m, key); err != nil {
			return err
		}
	}
	return l.AddState(m)
}

func (g *graph) Destroy() {
	if g.destroyed {
		return
	}
	g.destroyed = true

	layers := g.layers
	g.layers = nil
	for _, l := range layers {
		if l == nil {
			continue
		}
		g.sched.protect("destroy layer", l.Destroy)
	}

	// orphans registered but never attached to a layer
	for _, s := range g.states {
		g.sched.protect("destroy state", s.Destroy)
	}
	g.states = map[any]State{}

	g.factory.Release(g.root)
}

// resolve maps a registry key to its state. A Clip key that is not
// registered yet creates its state on the base layer.
func (g *graph) resolve(key any) (State, error) {
	if s, ok := g.states[key]; ok {
		return s, nil
	}
	if clip, ok := key.(Clip); ok {
		return g.GetOrCreateState(clip)
	}
	return nil, errors.Newf("animator: no state registered under key %v", key)
}

// layerOf walks the parent chain up to the owning layer, or nil for a
// detached subtree.
func (g *graph) layerOf(s State) *Layer {
	p := s.Parent()
	for p != nil {
		if l, ok := p.(*Layer); ok {
			return l
		}
		ps, ok := p.(State)
		if !ok {
			return nil
		}
		p = ps.Parent()
	}
	return nil
}

// rekey moves a state's registry entry to a new key. A nil key just
// unregisters. Claiming a key another state holds is a configuration error.
func (g *graph) rekey(s State, key any) error {
	st := s.stateRef()
	if key != nil {
		if existing, ok := g.states[key]; ok && existing != s {
			return errors.Newf(
				"animator: key %v is already registered to another state", key,
			)
		}
	}
	if st.key != nil {
		delete(g.states, st.key)
	}
	st.key = key
	if key != nil {
		g.states[key] = s
	}
	return nil
}

func (g *graph) register(key any, s State) error {
	return g.rekey(s, key)
}

func (g *graph) unregister(key any) {
	delete(g.states, key)
}
