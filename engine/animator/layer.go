package animator

import (
	"github.com/Carmen-Shannon/animix-go/engine/playable"
	"github.com/cockroachdb/errors"
	"github.com/tanema/gween/ease"
)

// FadeMode selects how a crossfade treats the incoming state's weight and
// time.
type FadeMode int

const (
	// FadeFixedDuration fades the incoming state from its current weight and
	// time toward full weight. Crossfading a state that is already partially
	// faded in finishes from where it is.
	FadeFixedDuration FadeMode = iota

	// FadeFromStart rewinds the incoming state to time 0 and weight 0 before
	// fading it in, restarting the animation even if it was mid-playback.
	FadeFromStart
)

// Layer is one slot of the graph's layer stack: an independently composed
// group of states blended into the final output in stack order. Each layer
// owns a mixer handle its children connect into, an additive flag, and an
// opaque host mask. The layer is itself a state, so it can be faded in and
// out like any other node.
//
// Children that reach weight zero are disconnected from the layer handle and
// reconnected when they regain weight; the host never evaluates silent
// children.
type Layer struct {
	state

	index    int
	children []State
	current  State

	additive bool
	mask     any
}

var _ State = &Layer{}
var _ Parent = &Layer{}

func newLayer(g *graph, index int) *Layer {
	l := &Layer{index: index}
	l.init(g, l, g.factory.NewMixerHandle())
	l.status = StatusPlaying
	l.setParent(g, index)
	l.SetWeight(1)
	return l
}

// Layers do not keep silent children connected.
func (l *Layer) KeepChildrenConnected() bool { return false }

func (l *Layer) onChildDestroyed(port int) {
	if port >= 0 && port < len(l.children) {
		if l.children[port] == l.current {
			l.current = nil
		}
		l.children[port] = nil
	}
}

// Index returns the layer's position in the graph's stack.
func (l *Layer) Index() int { return l.index }

// IsAdditive reports whether the layer composes additively over the layers
// below it rather than overriding them.
func (l *Layer) IsAdditive() bool { return l.additive }

// SetAdditive switches the layer between additive and override composition.
// The flag is forwarded to the layer handle when the host supports it and
// kept locally either way.
//
// Parameters:
//   - additive: true for additive composition, false for override
func (l *Layer) SetAdditive(additive bool) {
	l.additive = additive
	if setter, ok := l.handle.(playable.AdditiveSetter); ok {
		setter.SetAdditive(additive)
	}
}

// Mask returns the layer's opaque host mask, or nil.
func (l *Layer) Mask() any { return l.mask }

// SetMask applies an opaque host-defined mask to the layer. The core never
// inspects the value; it is forwarded to the handle when the host supports
// masking and retained for inspection either way.
//
// Parameters:
//   - mask: the host-defined mask value, or nil to clear
func (l *Layer) SetMask(mask any) {
	l.mask = mask
	if setter, ok := l.handle.(playable.MaskSetter); ok {
		setter.SetMask(mask)
	}
}

// ChildCount returns the number of child port slots, occupied or not.
func (l *Layer) ChildCount() int { return len(l.children) }

// Child returns the state at the given port, or nil for an empty slot.
func (l *Layer) Child(port int) State {
	if port < 0 || port >= len(l.children) {
		return nil
	}
	return l.children[port]
}

// Current returns the state most recently played or crossfaded toward on
// this layer, or nil.
func (l *Layer) Current() State { return l.current }

// GetOrCreateState returns the registered state for clip, creating and
// registering a new one on this layer when none exists yet.
//
// Parameters:
//   - clip: the clip whose state to look up or create
//
// Returns:
//   - State: the clip's state on this layer
//   - error: an error if the clip's state lives on a different layer
func (l *Layer) GetOrCreateState(clip Clip) (State, error) {
	if existing, ok := l.graph.states[clip]; ok {
		if existing.Parent() != nil && existing.Parent() != Parent(l) {
			return nil, errors.Newf(
				"animator: clip %q is already registered on another layer", clip.Name,
			)
		}
		if existing.Parent() == nil {
			if err := l.attach(existing); err != nil {
				return nil, err
			}
		}
		return existing, nil
	}

	cs := newClipState(l.graph, clip)
	if err := l.graph.register(clip, cs); err != nil {
		return nil, err
	}
	if err := l.attach(cs); err != nil {
		return nil, err
	}
	return cs, nil
}

// AddState attaches an existing unattached state (for example a mixer built
// through the graph) to this layer at the first free port.
//
// Parameters:
//   - s: the state to attach
//
// Returns:
//   - error: an error if the state already has a parent
func (l *Layer) AddState(s State) error {
	return l.attach(s)
}

func (l *Layer) attach(s State) error {
	if s.Parent() != nil {
		return errors.Newf("animator: state %v is already attached to a parent", s.Key())
	}
	port := len(l.children)
	for i, c := range l.children {
		if c == nil {
			port = i
			break
		}
	}
	for port >= len(l.children) {
		l.children = append(l.children, nil)
	}
	l.children[port] = s
	s.setParent(l, port)
	return nil
}

// PlayState snaps s to full weight, starts its playback, and stops every
// other state on the layer. An unattached s is attached first.
//
// Parameters:
//   - s: the state to play
//
// Returns:
//   - error: an error if s belongs to a different parent
func (l *Layer) PlayState(s State) error {
	if err := l.adopt(s); err != nil {
		return err
	}
	for _, c := range l.children {
		if c != nil && c != s {
			c.Stop()
		}
	}
	s.Play()
	l.current = s
	return nil
}

// CrossFade fades s toward full weight over duration seconds while fading
// every other state on the layer to zero. The mode controls whether s keeps
// its current weight and time or restarts from zero. An unattached s is
// attached first.
//
// Parameters:
//   - s: the state to fade in
//   - duration: the fade length in seconds; <= 0 behaves like Play
//   - mode: FadeFixedDuration or FadeFromStart
//
// Returns:
//   - error: an error if s belongs to a different parent
func (l *Layer) CrossFade(s State, duration float32, mode FadeMode) error {
	return l.CrossFadeWith(s, duration, mode, nil)
}

// CrossFadeWith crossfades with an explicit easing function applied to every
// weight fade it starts; nil uses the graph default. See CrossFade.
//
// Parameters:
//   - s: the state to fade in
//   - duration: the fade length in seconds
//   - mode: FadeFixedDuration or FadeFromStart
//   - easeFn: the easing curve, or nil
//
// Returns:
//   - error: an error if s belongs to a different parent
func (l *Layer) CrossFadeWith(s State, duration float32, mode FadeMode, easeFn ease.TweenFunc) error {
	if err := l.adopt(s); err != nil {
		return err
	}

	if mode == FadeFromStart {
		s.SetWeight(0)
		s.SetTime(0)
	}
	s.SetIsPlaying(true)
	s.StartFadeWith(1, duration, easeFn)

	for _, c := range l.children {
		if c != nil && c != s {
			c.StartFadeWith(0, duration, easeFn)
		}
	}
	l.current = s
	return nil
}

func (l *Layer) adopt(s State) error {
	if s.Parent() == nil {
		return l.attach(s)
	}
	if s.Parent() != Parent(l) {
		return errors.Newf(
			"animator: state %v belongs to a different parent; detach it first", s.Key(),
		)
	}
	return nil
}

// Stop halts every state on the layer and clears the current state. The
// layer's own weight in the stack is untouched; fade the layer itself to
// silence it.
func (l *Layer) Stop() {
	for _, c := range l.children {
		if c != nil {
			c.Stop()
		}
	}
	l.current = nil
}

// IsPlaying reports whether any state on the layer is playing.
func (l *Layer) IsPlaying() bool {
	for _, c := range l.children {
		if c != nil && c.IsPlaying() {
			return true
		}
	}
	return false
}

// Time returns the current state's time, or 0 when nothing plays.
func (l *Layer) Time() float32 {
	if l.current == nil {
		return 0
	}
	return l.current.Time()
}

// SetTime sets the current state's time. A layer with no current state
// ignores the write.
func (l *Layer) SetTime(t float32) {
	if l.current != nil {
		l.current.SetTime(t)
	}
}

// Length returns the current state's length, or 0 when nothing plays.
func (l *Layer) Length() float32 {
	if l.current == nil {
		return 0
	}
	return l.current.Length()
}

// IsLooping reports whether the current state loops.
func (l *Layer) IsLooping() bool {
	return l.current != nil && l.current.IsLooping()
}

// Destroy destroys every state on the layer, then the layer itself.
func (l *Layer) Destroy() {
	for _, c := range l.children {
		if c != nil {
			c.Destroy()
		}
	}
	l.children = nil
	l.current = nil
	l.state.Destroy()
}
