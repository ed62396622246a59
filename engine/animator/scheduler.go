package animator

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// scheduler owns the two per-tick registries: dirty nodes needing fade
// advancement and weight reapplication, and updatables needing early/late
// event processing. Both use index-tracked swap-removal, so iteration order
// is not stable across removals; that is a documented non-guarantee.
//
// Registration and removal during iteration are supported: iteration runs
// backward, removal swaps from the tail (already visited), and appends land
// beyond the cursor where they wait for the next tick.
type scheduler struct {
	dirty      []State
	updatables []State

	logger *zap.SugaredLogger
}

func (sc *scheduler) requireUpdate(s State) {
	n := s.nodeRef()
	if n.dirtyIndex >= 0 {
		return
	}
	n.dirtyIndex = len(sc.dirty)
	sc.dirty = append(sc.dirty, s)
}

func (sc *scheduler) cancelUpdate(s State) {
	n := s.nodeRef()
	if n.dirtyIndex < 0 {
		return
	}
	i := n.dirtyIndex
	last := len(sc.dirty) - 1
	if i != last {
		sc.dirty[i] = sc.dirty[last]
		sc.dirty[i].nodeRef().dirtyIndex = i
	}
	sc.dirty = sc.dirty[:last]
	n.dirtyIndex = -1
}

func (sc *scheduler) requireTick(s State) {
	n := s.nodeRef()
	if n.updateIndex >= 0 {
		return
	}
	n.updateIndex = len(sc.updatables)
	sc.updatables = append(sc.updatables, s)
}

func (sc *scheduler) cancelTick(s State) {
	n := s.nodeRef()
	if n.updateIndex < 0 {
		return
	}
	i := n.updateIndex
	last := len(sc.updatables) - 1
	if i != last {
		sc.updatables[i] = sc.updatables[last]
		sc.updatables[i].nodeRef().updateIndex = i
	}
	sc.updatables = sc.updatables[:last]
	n.updateIndex = -1
}

// tick runs one simulation step in strict order: early-update every
// updatable, advance and apply every dirty node, then late-update every
// updatable. Each item runs under panic protection so one misbehaving node
// cannot stop the rest of the graph from advancing.
func (sc *scheduler) tick(dt float32) {
	for i := len(sc.updatables) - 1; i >= 0; i-- {
		if i >= len(sc.updatables) {
			i = len(sc.updatables)
			continue
		}
		sc.protect("early update", sc.updatables[i].earlyUpdate)
	}

	for i := len(sc.dirty) - 1; i >= 0; i-- {
		if i >= len(sc.dirty) {
			i = len(sc.dirty)
			continue
		}
		s := sc.dirty[i]
		needsMore := false
		sc.protect("fade", func() {
			needsMore = s.advanceFade(dt)
			s.applyWeight()
		})
		if !needsMore && s.nodeRef().dirtyIndex >= 0 {
			sc.cancelUpdate(s)
		}
	}

	for i := len(sc.updatables) - 1; i >= 0; i-- {
		if i >= len(sc.updatables) {
			i = len(sc.updatables)
			continue
		}
		sc.protect("late update", sc.updatables[i].lateUpdate)
	}
}

func (sc *scheduler) protect(phase string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = errors.Newf("%v", r)
			}
			sc.logger.Errorw("animation tick item failed",
				"phase", phase,
				"error", err,
			)
		}
	}()
	fn()
}
