package animator

import (
	"math"

	"github.com/Carmen-Shannon/animix-go/common"
	"github.com/Carmen-Shannon/animix-go/engine/playable"
	"github.com/tanema/gween/ease"
)

// PlaybackStatus identifies the playback state machine position of a State.
type PlaybackStatus int

const (
	// StatusStopped means weight 0, no playback, time 0.
	StatusStopped PlaybackStatus = iota

	// StatusPlaying means the state is advancing time; its weight may still
	// be fading in or out.
	StatusPlaying

	// StatusPaused means time is frozen while the state keeps nonzero weight.
	StatusPaused
)

// String returns the status name for logging.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// State is one playable position in the blend graph: a clip player or a
// mixer. States advance a playback time, carry a blend weight with fade
// support, and can hold a sequence of time-triggered events.
//
// The interface is sealed; concrete implementations are created through a
// Graph or one of its Layers.
type State interface {
	// Key returns the registry key the state is reachable under, or nil for
	// an unregistered state.
	//
	// Returns:
	//   - any: the registry key, or nil
	Key() any

	// SetKey re-registers the state under a new key. A nil key unregisters
	// the state, making it unreachable by lookup.
	//
	// Parameters:
	//   - key: the new registry key, or nil
	//
	// Returns:
	//   - error: an error if another state already owns the key
	SetKey(key any) error

	// Handle returns the playable handle backing this state.
	Handle() playable.Handle

	// Parent returns the port owner this state is attached to, or nil.
	Parent() Parent

	// Port returns the input port index on the parent, or -1 when unattached.
	Port() int

	// Length returns the state's duration in seconds at speed 1.
	Length() float32

	// IsLooping reports whether the state wraps at its end.
	IsLooping() bool

	// Status returns the playback state machine position.
	Status() PlaybackStatus

	// IsPlaying reports whether the state is advancing time.
	IsPlaying() bool

	// SetIsPlaying pauses or resumes time advancement without touching the
	// weight. Pausing a state with nonzero weight yields StatusPaused.
	//
	// Parameters:
	//   - playing: true to advance time, false to freeze it
	SetIsPlaying(playing bool)

	// Play snaps the state to full weight and starts playback. Any event
	// sequence from a previous playback is released.
	Play()

	// Stop halts playback, zeroes the weight, rewinds time to 0, and
	// releases the event sequence.
	Stop()

	// Time returns the current playback time in seconds. The value is pulled
	// from the handle at most once per graph tick and cached.
	Time() float32

	// SetTime sets the playback time, writing through to the handle twice so
	// host-side triggers skip the jumped range, and forces the event cursor
	// to recompute. Panics if t is NaN.
	//
	// Parameters:
	//   - t: the new playback time in seconds
	SetTime(t float32)

	// NormalizedTime returns Time divided by Length, or 0 for length 0.
	NormalizedTime() float32

	// SetNormalizedTime sets Time to t * Length.
	//
	// Parameters:
	//   - t: the new normalized time
	SetNormalizedTime(t float32)

	// Speed returns the state's local speed multiplier.
	Speed() float32

	// SetSpeed sets the local speed multiplier. Panics if s is NaN.
	//
	// Parameters:
	//   - s: the speed multiplier
	SetSpeed(s float32)

	// EffectiveSpeed returns the local speed multiplied by all ancestor
	// speeds up to the graph root.
	EffectiveSpeed() float32

	// SetEffectiveSpeed back-solves the local speed so EffectiveSpeed
	// returns v. Panics if v is NaN.
	//
	// Parameters:
	//   - v: the desired compound speed
	SetEffectiveSpeed(v float32)

	// Weight returns the current blend weight.
	Weight() float32

	// SetWeight sets the weight immediately, cancelling any fade.
	// Panics if w is NaN.
	//
	// Parameters:
	//   - w: the new blend weight
	SetWeight(w float32)

	// TargetWeight returns the weight a fade is moving toward.
	TargetWeight() float32

	// FadeSpeed returns the current fade rate in weight per second.
	FadeSpeed() float32

	// IsFading reports whether a fade is in progress.
	IsFading() bool

	// StartFade fades the weight toward target over duration seconds.
	//
	// Parameters:
	//   - target: the weight to fade toward
	//   - duration: the fade length in seconds; <= 0 completes next tick
	StartFade(target, duration float32)

	// StartFadeWith fades with an explicit easing function; nil uses the
	// graph default.
	//
	// Parameters:
	//   - target: the weight to fade toward
	//   - duration: the fade length in seconds
	//   - easeFn: the easing curve, or nil
	StartFadeWith(target, duration float32, easeFn ease.TweenFunc)

	// Events returns the state's event sequence, acquiring one on first
	// access and scheduling the state for per-tick event processing.
	//
	// Returns:
	//   - *Sequence: the state's event sequence
	Events() *Sequence

	// HasEvents reports whether the state currently holds a non-empty event
	// sequence.
	HasEvents() bool

	// Duration returns Length / |EffectiveSpeed|, or +Inf at speed 0.
	Duration() float32

	// RemainingDuration returns the real time left until the state reaches
	// its effective end: the end event's time when one is set, otherwise the
	// clip boundary in the direction of play. Looping states wrap the
	// current time before computing.
	RemainingDuration() float32

	// IsPlayingAndNotEnding reports whether the state is playing and, in the
	// direction of play, has not yet passed its effective end. Callers poll
	// it once per tick to wait for an animation to finish.
	IsPlayingAndNotEnding() bool

	// Destroy detaches the state from its parent, unregisters its key,
	// releases its event sequence and handle, and removes it from the
	// scheduler. The state must not be used afterwards.
	Destroy()

	// sealed wiring used by the scheduler, registry, and parents
	nodeRef() *node
	stateRef() *state
	advanceFade(dt float32) bool
	applyWeight()
	earlyUpdate()
	lateUpdate()
	setParent(p Parent, port int)
}

// state is the common implementation embedded by ClipState and the mixers.
type state struct {
	node

	key     any
	length  float32
	looping bool
	status  PlaybackStatus

	timeCache float32
	timeFrame uint64
	timeValid bool

	events     *Sequence
	dispatcher eventDispatcher

	destroyed bool
}

func (s *state) Key() any { return s.key }

func (s *state) SetKey(key any) error {
	return s.graph.rekey(s.owner, key)
}

func (s *state) Length() float32 { return s.length }

func (s *state) IsLooping() bool { return s.looping }

func (s *state) Status() PlaybackStatus { return s.status }

func (s *state) IsPlaying() bool { return s.status == StatusPlaying }

func (s *state) SetIsPlaying(playing bool) {
	if playing {
		s.status = StatusPlaying
		s.handle.Play()
		return
	}
	if s.weight > 0 {
		s.status = StatusPaused
	} else {
		s.status = StatusStopped
	}
	s.handle.Pause()
}

func (s *state) Play() {
	s.releaseEvents()
	s.status = StatusPlaying
	s.handle.Play()
	s.SetWeight(1)
}

func (s *state) Stop() {
	s.SetWeight(0)
	s.status = StatusStopped
	s.handle.Pause()
	s.writeTime(0)
	s.releaseEvents()
}

func (s *state) Time() float32 {
	if s.timeValid && s.graph != nil && s.timeFrame == s.graph.frame {
		return s.timeCache
	}
	s.timeCache = s.handle.Time()
	if s.graph != nil {
		s.timeFrame = s.graph.frame
		s.timeValid = true
	}
	return s.timeCache
}

func (s *state) SetTime(t float32) {
	guardFinite(t, "time")
	s.writeTime(t)
	s.dispatcher.invalidate()
	s.dispatcher.prevTime = s.normalizedAt(t)
	s.dispatcher.prevValid = true
}

// writeTime writes the handle time twice in immediate succession. The double
// write keeps host-side triggers bound to the handle from firing for the
// skipped range between the old and new time.
func (s *state) writeTime(t float32) {
	s.handle.SetTime(t)
	s.handle.SetTime(t)
	s.timeCache = t
	if s.graph != nil {
		s.timeFrame = s.graph.frame
		s.timeValid = true
	}
}

// NormalizedTime routes through the owner so mixer overrides of Time and
// Length feed the derived value.
func (s *state) NormalizedTime() float32 {
	length := s.owner.Length()
	if length == 0 {
		return 0
	}
	return s.owner.Time() / length
}

func (s *state) normalizedAt(t float32) float32 {
	if s.length == 0 {
		return 0
	}
	return t / s.length
}

func (s *state) SetNormalizedTime(t float32) {
	s.owner.SetTime(t * s.owner.Length())
}

func (s *state) Events() *Sequence {
	if s.events == nil {
		s.events = s.graph.pool.acquire()
		s.dispatcher.reset()
		s.dispatcher.prevTime = s.NormalizedTime()
		s.dispatcher.prevValid = true
	}
	s.graph.sched.requireTick(s.owner)
	return s.events
}

func (s *state) HasEvents() bool {
	return s.events != nil && !s.events.IsEmpty()
}

func (s *state) releaseEvents() {
	if s.events != nil {
		s.graph.pool.release(s.events)
		s.events = nil
		s.dispatcher.reset()
	}
	if s.graph != nil {
		s.graph.sched.cancelTick(s.owner)
	}
}

func (s *state) Duration() float32 {
	speed := float32(math.Abs(float64(s.EffectiveSpeed())))
	if speed == 0 {
		return float32(math.Inf(1))
	}
	return s.owner.Length() / speed
}

func (s *state) RemainingDuration() float32 {
	eff := s.EffectiveSpeed()
	speed := float32(math.Abs(float64(eff)))
	if speed == 0 {
		return float32(math.Inf(1))
	}

	length := s.owner.Length()
	endNT := s.endNormalizedTime(eff >= 0)
	t := s.owner.Time()
	if s.looping {
		t = common.WrapTime(t, length)
	}

	end := endNT * length
	if eff >= 0 {
		return (end - t) / speed
	}
	return (t - end) / speed
}

// endNormalizedTime resolves the effective end of the state in the given
// direction: the end event's explicit time when set, otherwise the clip
// boundary (1 forward, 0 backward). An end event at NaN means "at the
// animation end" and also resolves to the boundary.
func (s *state) endNormalizedTime(forward bool) float32 {
	def := float32(0)
	if forward {
		def = 1
	}
	if s.events == nil {
		return def
	}
	end := s.events.EndEvent()
	if end.Callback == nil || common.IsNaN(end.NormalizedTime) {
		return def
	}
	return end.NormalizedTime
}

func (s *state) IsPlayingAndNotEnding() bool {
	if s.status != StatusPlaying {
		return false
	}
	eff := s.EffectiveSpeed()
	nt := s.NormalizedTime()
	if eff >= 0 {
		return nt < s.endNormalizedTime(true)
	}
	return nt > s.endNormalizedTime(false)
}

func (s *state) earlyUpdate() {
	if s.events == nil {
		s.graph.sched.cancelTick(s.owner)
		return
	}
	if s.events.IsEmpty() {
		s.releaseEvents()
		return
	}
	if !s.dispatcher.prevValid {
		s.dispatcher.prevTime = s.NormalizedTime()
		s.dispatcher.prevValid = true
	}
}

func (s *state) lateUpdate() {
	if s.events == nil {
		return
	}
	cur := s.NormalizedTime()
	s.dispatcher.sweep(s, cur)
	s.dispatcher.checkEndEvent(s, cur)
	s.dispatcher.prevTime = cur
}

// stateRef exposes the embedded state to the graph registry.
func (s *state) stateRef() *state { return s }

func (s *state) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true

	if s.key != nil {
		s.graph.unregister(s.key)
		s.key = nil
	}
	s.releaseEvents()
	s.graph.sched.cancelUpdate(s.owner)

	if s.parent != nil {
		s.parent.onChildDestroyed(s.port)
		s.setParent(nil, -1)
	}
	if s.handle != nil {
		s.graph.factory.Release(s.handle)
	}
}
