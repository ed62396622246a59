package animator

import (
	"math"

	"github.com/Carmen-Shannon/animix-go/common"
	"github.com/cockroachdb/errors"
)

// ErrSequenceMutated reports that an event callback structurally modified the
// sequence it was being dispatched from. The sweep aborts rather than iterate
// corrupted state; the cursor recomputes from the current time on the next tick.
var ErrSequenceMutated = errors.New("animator: event sequence mutated during its own dispatch")

// EventContext is passed to every event callback so the callback can
// introspect which event fired it without any ambient global state.
type EventContext struct {
	// State is the state whose playback triggered the event.
	State State

	// Sequence is the sequence the event belongs to.
	Sequence *Sequence

	// Event is a copy of the fired event.
	Event Event

	// Index is the event's position in the sequence, or -1 for the end event.
	Index int
}

// Callback is an event callback. Mutating ctx.Sequence from inside the
// callback is detected and aborts the current sweep.
type Callback func(ctx EventContext)

// Event is one timed callback. NormalizedTime is in [0, 1) for general
// events; for the end event it may be NaN, meaning "at the animation end".
type Event struct {
	NormalizedTime float32
	Callback       Callback
}

// Sequence is an ordered set of timed callbacks bound to one state: general
// events with strictly ascending normalized times, plus one distinguished end
// event. A version counter increments on every structural mutation so a sweep
// can detect modification mid-dispatch.
type Sequence struct {
	events   []Event
	endEvent Event
	version  uint32
}

// NewSequence creates an empty sequence with the end event unset.
//
// Returns:
//   - *Sequence: the new sequence
func NewSequence() *Sequence {
	return &Sequence{endEvent: Event{NormalizedTime: float32(math.NaN())}}
}

// Count returns the number of general events in the sequence.
func (q *Sequence) Count() int { return len(q.events) }

// IsEmpty reports whether the sequence has no general events and no end
// callback.
func (q *Sequence) IsEmpty() bool {
	return len(q.events) == 0 && q.endEvent.Callback == nil
}

// At returns the general event at the given index.
//
// Parameters:
//   - index: the event index, 0 <= index < Count()
//
// Returns:
//   - Event: the event at that index
func (q *Sequence) At(index int) Event { return q.events[index] }

// Add inserts a general event at the given normalized time, keeping the
// sequence sorted. Times must be unique and inside [0, 1).
//
// Parameters:
//   - normalizedTime: when the event fires, as a fraction of the clip
//   - callback: the callback to invoke
//
// Returns:
//   - error: an error if the time is NaN, out of range, or already taken
func (q *Sequence) Add(normalizedTime float32, callback Callback) error {
	if common.IsNaN(normalizedTime) {
		return errors.New("animator: event time must not be NaN")
	}
	if normalizedTime < 0 || normalizedTime >= 1 {
		return errors.Newf("animator: event time %v outside [0, 1)", normalizedTime)
	}
	if callback == nil {
		return errors.New("animator: event callback must not be nil")
	}

	at := len(q.events)
	for i, e := range q.events {
		if e.NormalizedTime == normalizedTime {
			return errors.Newf("animator: an event already exists at time %v", normalizedTime)
		}
		if e.NormalizedTime > normalizedTime {
			at = i
			break
		}
	}

	q.events = append(q.events, Event{})
	copy(q.events[at+1:], q.events[at:])
	q.events[at] = Event{NormalizedTime: normalizedTime, Callback: callback}
	q.version++
	return nil
}

// Remove deletes the general event at the given index.
//
// Parameters:
//   - index: the event index to remove
//
// Returns:
//   - error: an error if the index is out of range
func (q *Sequence) Remove(index int) error {
	if index < 0 || index >= len(q.events) {
		return errors.Newf("animator: event index %d out of range [0, %d)", index, len(q.events))
	}
	q.events = append(q.events[:index], q.events[index+1:]...)
	q.version++
	return nil
}

// Clear removes all general events and the end event.
func (q *Sequence) Clear() {
	q.events = q.events[:0]
	q.endEvent = Event{NormalizedTime: float32(math.NaN())}
	q.version++
}

// EndEvent returns the distinguished end event. Its NormalizedTime is NaN
// when the event fires at the animation end.
func (q *Sequence) EndEvent() Event { return q.endEvent }

// OnEnd sets the end callback, firing at the animation end (time NaN).
// The end event fires on every tick the time remains past its threshold, so
// assigning the callback after the threshold has passed still triggers it.
//
// Parameters:
//   - callback: the callback to invoke, or nil to clear
func (q *Sequence) OnEnd(callback Callback) {
	q.endEvent = Event{NormalizedTime: float32(math.NaN()), Callback: callback}
	q.version++
}

// OnEndAt sets the end callback with an explicit normalized threshold,
// treating that time as the effective end of the animation.
//
// Parameters:
//   - normalizedTime: the effective end threshold
//   - callback: the callback to invoke
//
// Returns:
//   - error: an error if the time is NaN (use OnEnd for that)
func (q *Sequence) OnEndAt(normalizedTime float32, callback Callback) error {
	if common.IsNaN(normalizedTime) {
		return errors.New("animator: use OnEnd for an end event at the animation end")
	}
	q.endEvent = Event{NormalizedTime: normalizedTime, Callback: callback}
	q.version++
	return nil
}

// sequencePool recycles Sequences between playbacks. Release clears the
// sequence and bumps its version before pooling, so a stale iterator that
// still references it detects the mutation instead of reading reused state.
type sequencePool struct {
	free []*Sequence
}

func (p *sequencePool) acquire() *Sequence {
	if n := len(p.free); n > 0 {
		q := p.free[n-1]
		p.free = p.free[:n-1]
		return q
	}
	return NewSequence()
}

func (p *sequencePool) release(q *Sequence) {
	q.Clear()
	p.free = append(p.free, q)
}
