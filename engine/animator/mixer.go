package animator

import (
	"github.com/cockroachdb/errors"
)

// weightRecalculator is implemented by mixers that derive their children's
// weights from a blend parameter.
type weightRecalculator interface {
	// RecalculateWeights recomputes every child's weight from the mixer's
	// current parameter and thresholds.
	RecalculateWeights()
}

// Mixer is a state composed of weighted child states. Children occupy port
// slots; empty slots are valid and simply contribute nothing to the blend.
type Mixer interface {
	State

	// ChildCount returns the number of child port slots, occupied or not.
	ChildCount() int

	// Child returns the state at the given port, or nil for an empty slot.
	//
	// Parameters:
	//   - port: the child port index
	//
	// Returns:
	//   - State: the child at that port, or nil
	Child(port int) State

	// Add creates a clip state and attaches it at the first free port.
	//
	// Parameters:
	//   - clip: the clip to create a child state from
	//
	// Returns:
	//   - State: the new child state
	//   - error: an error if the child could not be attached
	Add(clip Clip) (State, error)

	// AddState attaches an existing unattached state (for example another
	// mixer) at the first free port.
	//
	// Parameters:
	//   - s: the state to attach
	//
	// Returns:
	//   - error: an error if the state already has a parent
	AddState(s State) error

	// SetChild attaches a state at an explicit port. Attaching to an
	// occupied port is a configuration error: the new child stays detached
	// and the error identifies both states.
	//
	// Parameters:
	//   - port: the child port index
	//   - s: the state to attach
	//
	// Returns:
	//   - error: an error if the port is occupied or the state is attached
	SetChild(port int, s State) error

	// SetSynchroniseChildren keeps the flagged children at a shared
	// normalized time by overriding their handle speeds each tick. No flags
	// synchronizes every child. The override preserves each child's own
	// event firing, unlike setting their times directly.
	//
	// Parameters:
	//   - flags: per-port participation flags, or none for all children
	SetSynchroniseChildren(flags ...bool)

	// ClearSynchroniseChildren stops overriding child speeds and hands each
	// child's handle speed back to the child's own Speed.
	ClearSynchroniseChildren()
}

// mixerState is the shared mixer core embedded by LinearMixer,
// CartesianMixer, DirectionalMixer, and ManualMixer. It owns the child port
// array, the mixer's derived time/length, and child synchronization.
type mixerState struct {
	state

	children     []State
	syncFlags    []bool
	syncEnabled  bool
	weightsDirty bool
}

// Mixers keep children permanently connected; the bracketing logic flips
// weights between siblings every recalculation and reconnect churn would
// cost more than it saves.
func (m *mixerState) KeepChildrenConnected() bool { return true }

func (m *mixerState) onChildDestroyed(port int) {
	if port >= 0 && port < len(m.children) {
		m.children[port] = nil
	}
	m.markWeightsDirty()
}

func (m *mixerState) ChildCount() int { return len(m.children) }

func (m *mixerState) Child(port int) State {
	if port < 0 || port >= len(m.children) {
		return nil
	}
	return m.children[port]
}

func (m *mixerState) Add(clip Clip) (State, error) {
	cs := newClipState(m.graph, clip)
	if err := m.SetChild(m.freePort(), cs); err != nil {
		return nil, err
	}
	return cs, nil
}

func (m *mixerState) AddState(s State) error {
	return m.SetChild(m.freePort(), s)
}

func (m *mixerState) SetChild(port int, s State) error {
	if port < 0 {
		return errors.Newf("animator: child port %d must not be negative", port)
	}
	if s.Parent() != nil {
		return errors.Newf("animator: state %v is already attached to a parent", s.Key())
	}
	for port >= len(m.children) {
		m.children = append(m.children, nil)
	}
	if old := m.children[port]; old != nil {
		return errors.Newf(
			"animator: mixer port %d is already occupied by state %v; refusing to attach %v",
			port, old.Key(), s.Key(),
		)
	}
	m.children[port] = s
	s.setParent(m.owner.(Parent), port)
	m.markWeightsDirty()
	return nil
}

func (m *mixerState) freePort() int {
	for i, c := range m.children {
		if c == nil {
			return i
		}
	}
	return len(m.children)
}

func (m *mixerState) markWeightsDirty() {
	m.weightsDirty = true
	m.markWeightDirty()
}

// applyWeight applies the mixer's own weight, then recomputes and applies
// its children's weights synchronously. Children are applied in the same
// tick phase so sibling weights never land on different frames.
func (m *mixerState) applyWeight() {
	m.state.applyWeight()
	if !m.weightsDirty {
		return
	}
	m.weightsDirty = false
	if r, ok := m.owner.(weightRecalculator); ok {
		r.RecalculateWeights()
	}
	for _, c := range m.children {
		if c != nil {
			c.applyWeight()
		}
	}
}

// setChildWeight writes a recalculated weight directly into a child,
// cancelling any fade; mixer-driven children are owned by the bracketing
// logic, not by fades.
func (m *mixerState) setChildWeight(c State, w float32) {
	n := c.nodeRef()
	n.fading = false
	n.weight = w
	n.targetWeight = w
	n.weightDirty = true
}

// Time returns the mixer's apparent time: the weighted average of the
// children's normalized times scaled by their lengths, normalized by total
// child weight. This lets a mixer act as a single state for its own parent.
func (m *mixerState) Time() float32 {
	var totalWeight, weighted float32
	for _, c := range m.children {
		if c == nil {
			continue
		}
		w := c.Weight()
		if w == 0 {
			continue
		}
		weighted += c.NormalizedTime() * c.Length() * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}
	return weighted / totalWeight
}

// Length returns the weighted average of the children's lengths.
func (m *mixerState) Length() float32 {
	var totalWeight, weighted float32
	for _, c := range m.children {
		if c == nil {
			continue
		}
		w := c.Weight()
		if w == 0 {
			continue
		}
		weighted += c.Length() * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}
	return weighted / totalWeight
}

// SetTime moves every child to the equivalent normalized position.
func (m *mixerState) SetTime(t float32) {
	guardFinite(t, "time")
	length := m.Length()
	if length == 0 {
		return
	}
	nt := t / length
	for _, c := range m.children {
		if c != nil {
			c.SetNormalizedTime(nt)
		}
	}
	m.dispatcher.invalidate()
	m.dispatcher.prevTime = nt
	m.dispatcher.prevValid = true
}

func (m *mixerState) SetSynchroniseChildren(flags ...bool) {
	if m.syncEnabled {
		m.restoreChildSpeeds(m.syncFlags)
	}
	m.syncFlags = flags
	m.syncEnabled = true
	m.graph.sched.requireTick(m.owner)
}

func (m *mixerState) ClearSynchroniseChildren() {
	if m.syncEnabled {
		m.restoreChildSpeeds(m.syncFlags)
	}
	m.syncEnabled = false
	m.syncFlags = nil
	if m.events == nil {
		m.graph.sched.cancelTick(m.owner)
	}
}

// restoreChildSpeeds hands control of each flagged child's handle speed back
// to the child's own speed. The synchronization override is per-tick state;
// it must not outlive membership in the sync group.
func (m *mixerState) restoreChildSpeeds(flags []bool) {
	for i, c := range m.children {
		if c == nil {
			continue
		}
		if len(flags) > 0 && (i >= len(flags) || !flags[i]) {
			continue
		}
		c.Handle().SetSpeed(c.Speed())
	}
}

func (m *mixerState) earlyUpdate() {
	if !m.syncEnabled {
		m.state.earlyUpdate()
		return
	}
	// Synchronizing mixers stay scheduled even with no live events.
	if m.events != nil {
		if m.events.IsEmpty() {
			m.graph.pool.release(m.events)
			m.events = nil
			m.dispatcher.reset()
		} else if !m.dispatcher.prevValid {
			m.dispatcher.prevTime = m.NormalizedTime()
			m.dispatcher.prevValid = true
		}
	}
}

func (m *mixerState) lateUpdate() {
	m.state.lateUpdate()
	if m.syncEnabled {
		m.applySynchroniseChildren(m.graph.dt)
	}
}

func (m *mixerState) synchronized(port int) bool {
	if len(m.syncFlags) == 0 {
		return true
	}
	return port < len(m.syncFlags) && m.syncFlags[port]
}

// applySynchroniseChildren overrides each flagged child's handle speed so
// that after the next host advance they all land on the normalized time the
// weighted average of the group would have reached. Overriding speed rather
// than setting times preserves each child's event firing. A zero delta-time
// tick is a no-op.
func (m *mixerState) applySynchroniseChildren(dt float32) {
	if dt == 0 {
		return
	}

	var totalWeight, weightedNT, rate float32
	for i, c := range m.children {
		if c == nil || !m.synchronized(i) {
			continue
		}
		w := c.Weight()
		if w == 0 {
			continue
		}
		weightedNT += c.NormalizedTime() * w
		if l := c.Length(); l > 0 {
			rate += (c.EffectiveSpeed() / l) * w
		}
		totalWeight += w
	}
	var target float32
	if totalWeight > 0 {
		avgNT := weightedNT / totalWeight
		rate /= totalWeight
		target = avgNT + rate*dt
	}

	for i, c := range m.children {
		if c == nil || !m.synchronized(i) {
			continue
		}
		l := c.Length()
		if totalWeight == 0 || c.Weight() == 0 || l == 0 {
			// a child out of the blend runs at its own speed again
			c.Handle().SetSpeed(c.Speed())
			continue
		}
		required := (target*l - c.Time()) / dt
		c.Handle().SetSpeed(required)
	}
}
