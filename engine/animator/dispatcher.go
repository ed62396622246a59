package animator

import (
	"math"

	"github.com/Carmen-Shannon/animix-go/common"
	"github.com/cockroachdb/errors"
)

// eventDispatcher is the per-state cursor into its event sequence. It fires
// each general event exactly once per pass as normalized time crosses its
// threshold, handling forward and backward playback, looping with multi-loop
// skips, and mutation of the sequence mid-dispatch.
type eventDispatcher struct {
	cursor      int
	cursorValid bool
	version     uint32

	prevTime  float32
	prevValid bool

	lastForward bool
	dirValid    bool
}

func (d *eventDispatcher) reset() {
	*d = eventDispatcher{}
}

// invalidate forces a full cursor recompute on the next sweep. Called after
// external time sets and on direction reversal; an incremental cursor step
// cannot survive a clock skip.
func (d *eventDispatcher) invalidate() {
	d.cursorValid = false
	d.dirValid = false
}

// sweep fires every general event whose threshold was crossed between the
// previous update and cur.
func (d *eventDispatcher) sweep(s *state, cur float32) {
	seq := s.events
	if seq == nil || seq.Count() == 0 {
		return
	}
	if !d.prevValid {
		d.prevTime = cur
		d.prevValid = true
		return
	}
	prev := d.prevTime
	if prev == cur {
		return
	}

	forward := cur > prev
	if eff := s.EffectiveSpeed(); eff > 0 {
		forward = true
	} else if eff < 0 {
		forward = false
	}
	if d.dirValid && forward != d.lastForward {
		d.invalidate()
	}
	d.lastForward = forward
	d.dirValid = true

	if !d.cursorValid || d.version != seq.version {
		d.computeCursor(s, seq, prev, forward)
	}

	if s.looping && s.length > 0 {
		d.sweepLooping(s, seq, prev, cur, forward)
	} else {
		d.sweepLinear(s, cur, forward)
	}
}

// computeCursor positions the cursor at the first event beyond prev in the
// direction of play.
func (d *eventDispatcher) computeCursor(s *state, seq *Sequence, prev float32, forward bool) {
	at := prev
	if s.looping {
		at = common.Wrap01(prev)
	}

	n := seq.Count()
	if forward {
		d.cursor = n
		for i := 0; i < n; i++ {
			if seq.At(i).NormalizedTime > at {
				d.cursor = i
				break
			}
		}
	} else {
		d.cursor = -1
		for i := n - 1; i >= 0; i-- {
			if seq.At(i).NormalizedTime < at {
				d.cursor = i
				break
			}
		}
	}

	d.version = seq.version
	d.cursorValid = true
}

func (d *eventDispatcher) sweepLinear(s *state, cur float32, forward bool) {
	seq := s.events
	if forward {
		for d.cursor < seq.Count() {
			e := seq.At(d.cursor)
			if e.NormalizedTime > cur {
				return
			}
			if !d.fire(s, seq, d.cursor, e) {
				return
			}
			d.cursor++
		}
		return
	}

	if d.cursor >= seq.Count() {
		d.cursor = seq.Count() - 1
	}
	for d.cursor >= 0 {
		e := seq.At(d.cursor)
		if e.NormalizedTime < cur {
			return
		}
		if !d.fire(s, seq, d.cursor, e) {
			return
		}
		d.cursor--
	}
}

// sweepLooping walks loop instances of the events: each event occurs once per
// loop at origin+NormalizedTime, and the walk advances the cursor around the
// ring, shifting the loop origin at every wrap, until the next instance falls
// outside the tick's span. Counting instances keeps exactly one fire per
// boundary crossed, including spans that straddle a loop seam and spans of
// exactly one whole loop.
func (d *eventDispatcher) sweepLooping(s *state, seq *Sequence, prev, cur float32, forward bool) {
	n := seq.Count()
	origin := float32(math.Floor(float64(prev)))

	if forward {
		if d.cursor >= n {
			d.cursor = 0
		}
		for {
			e := seq.At(d.cursor)
			et := origin + e.NormalizedTime
			if et <= prev {
				// the cursor's next instance is in the following loop
				origin++
				et++
			}
			if et > cur {
				return
			}
			if !d.fire(s, seq, d.cursor, e) {
				return
			}
			d.cursor++
			if d.cursor >= n {
				d.cursor = 0
				origin++
			}
		}
	}

	if d.cursor < 0 {
		d.cursor = n - 1
	}
	for {
		e := seq.At(d.cursor)
		et := origin + e.NormalizedTime
		if et >= prev {
			origin--
			et--
		}
		if et < cur {
			return
		}
		if !d.fire(s, seq, d.cursor, e) {
			return
		}
		d.cursor--
		if d.cursor < 0 {
			d.cursor = n - 1
			origin--
		}
	}
}

// fire invokes one callback with panic protection and verifies the sequence
// was not mutated by it. Returns false if the sweep must abort.
func (d *eventDispatcher) fire(s *state, seq *Sequence, index int, e Event) bool {
	before := seq.version
	invokeProtected(s, e, index, seq)
	if seq.version != before {
		d.invalidate()
		s.graph.logger.Errorw("animation event sweep aborted",
			"error", ErrSequenceMutated,
			"key", s.key,
			"eventIndex", index,
		)
		return false
	}
	return true
}

// checkEndEvent fires the end event by plain threshold comparison, on every
// tick the time remains past it, so a callback assigned after the threshold
// has already passed still triggers.
func (d *eventDispatcher) checkEndEvent(s *state, cur float32) {
	seq := s.events
	if seq == nil {
		return
	}
	end := seq.EndEvent()
	if end.Callback == nil {
		return
	}

	forward := s.EffectiveSpeed() >= 0
	threshold := end.NormalizedTime
	if common.IsNaN(threshold) {
		if forward {
			threshold = 1
		} else {
			threshold = 0
		}
	}

	if forward {
		if cur >= threshold {
			invokeProtected(s, end, -1, seq)
		}
		return
	}
	if cur <= threshold {
		invokeProtected(s, end, -1, seq)
	}
}

// invokeProtected runs one callback, converting a panic into a logged error
// so a single bad callback cannot break the rest of the tick.
func invokeProtected(s *state, e Event, index int, seq *Sequence) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = errors.Newf("%v", r)
			}
			s.graph.logger.Errorw("animation event callback panicked",
				"error", err,
				"key", s.key,
				"eventIndex", index,
			)
		}
	}()
	e.Callback(EventContext{
		State:    s.owner,
		Sequence: seq,
		Event:    e,
		Index:    index,
	})
}

