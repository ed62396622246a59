package animator

import (
	"math"

	"github.com/Carmen-Shannon/animix-go/common"
	"github.com/Carmen-Shannon/animix-go/engine/playable"
	"github.com/cockroachdb/errors"
	"github.com/tanema/gween/ease"
)

// Parent is implemented by anything that owns child ports in the blend graph:
// mixers, layers, and the graph root. Children use it to resolve their
// ancestor speed chain and to reach the handle their weight is written into.
type Parent interface {
	// Handle returns the playable handle children connect into.
	//
	// Returns:
	//   - playable.Handle: the port-owning handle
	Handle() playable.Handle

	// EffectiveSpeed returns the parent's speed including all of its own
	// ancestors up to the graph root.
	//
	// Returns:
	//   - float32: the compound speed multiplier
	EffectiveSpeed() float32

	// KeepChildrenConnected reports whether children stay connected to the
	// parent handle at weight zero. When false, a child applying weight 0
	// disconnects itself to save host evaluation cost and reconnects on the
	// first nonzero weight.
	//
	// Returns:
	//   - bool: true if zero-weight children remain connected
	KeepChildrenConnected() bool

	// onChildDestroyed clears the parent's slot for a destroyed child.
	onChildDestroyed(port int)
}

// node is the blend-node core embedded by every state type. It owns the
// weight, fade, and speed plumbing and the link to the parent port.
//
// owner points back at the outermost concrete state so that fade completion
// can halt playback through the full State behavior rather than the embedded
// subset.
type node struct {
	graph  *graph
	owner  State
	handle playable.Handle
	parent Parent
	port   int

	speed float32

	weight       float32
	targetWeight float32
	fadeStart    float32
	fadeDuration float32
	fadeElapsed  float32
	fading       bool
	fadeEase     ease.TweenFunc

	weightDirty bool
	connected   bool

	// scheduler bookkeeping, -1 when not registered
	dirtyIndex  int
	updateIndex int
}

func (n *node) init(g *graph, owner State, handle playable.Handle) {
	n.graph = g
	n.owner = owner
	n.handle = handle
	n.port = -1
	n.speed = 1
	n.dirtyIndex = -1
	n.updateIndex = -1
}

// guardFinite panics on NaN inputs. NaN weights, speeds, and times are
// programmer errors the graph must never absorb silently (they would poison
// every blend downstream), so the violation is fatal at the call site.
func guardFinite(v float32, what string) {
	if common.IsNaN(v) {
		panic(errors.Newf("animator: %s must not be NaN", what))
	}
}

// Handle returns the playable handle backing this node.
func (n *node) Handle() playable.Handle { return n.handle }

// Parent returns the node's parent, or nil when unattached.
func (n *node) Parent() Parent { return n.parent }

// Port returns the node's port index on its parent, or -1 when unattached.
func (n *node) Port() int { return n.port }

// Weight returns the node's current blend weight.
func (n *node) Weight() float32 { return n.weight }

// TargetWeight returns the weight the node is fading toward. Equal to
// Weight when no fade is in progress.
func (n *node) TargetWeight() float32 { return n.targetWeight }

// FadeSpeed returns the rate at which the current fade moves the weight, in
// weight units per second, or 0 when no timed fade is in progress.
func (n *node) FadeSpeed() float32 {
	if !n.fading || n.fadeDuration <= 0 {
		return 0
	}
	return float32(math.Abs(float64(n.targetWeight-n.fadeStart))) / n.fadeDuration
}

// IsFading reports whether a fade is still in progress.
func (n *node) IsFading() bool { return n.fading }

// SetWeight sets the current weight immediately, cancelling any fade in
// progress, and schedules the node for reapplication on the next tick.
// Panics if w is NaN.
//
// Parameters:
//   - w: the new blend weight
func (n *node) SetWeight(w float32) {
	guardFinite(w, "weight")
	n.fading = false
	n.weight = w
	n.targetWeight = w
	n.markWeightDirty()
}

// StartFade begins a timed fade of the weight toward target using the
// graph's default easing. A duration <= 0 completes on the next tick. If the
// target already equals the current weight the fade completes immediately;
// a zero target additionally stops the owning state. Panics if target is NaN.
//
// Parameters:
//   - target: the weight to fade toward
//   - duration: the fade length in seconds at ancestor speed 1
func (n *node) StartFade(target, duration float32) {
	n.StartFadeWith(target, duration, nil)
}

// StartFadeWith begins a timed fade with an explicit easing function. A nil
// easeFn uses the graph's default. See StartFade for the remaining semantics.
//
// Parameters:
//   - target: the weight to fade toward
//   - duration: the fade length in seconds at ancestor speed 1
//   - easeFn: the easing curve applied to the fade, or nil for the default
func (n *node) StartFadeWith(target, duration float32, easeFn ease.TweenFunc) {
	guardFinite(target, "fade target")
	guardFinite(duration, "fade duration")

	n.targetWeight = target

	if target == n.weight {
		n.fading = false
		if target == 0 && n.owner != nil {
			n.owner.Stop()
		}
		n.markWeightDirty()
		return
	}

	n.fadeStart = n.weight
	n.fadeDuration = duration
	n.fadeElapsed = 0
	n.fading = true
	n.fadeEase = easeFn
	n.markWeightDirty()
}

// advanceFade moves the weight toward the fade target, scaled by the parent
// speed chain, clamping at the target. Reaching a zero target stops the
// owning state. Returns whether the node still needs fade ticks.
func (n *node) advanceFade(dt float32) bool {
	if !n.fading {
		return false
	}

	scale := float32(1)
	if n.parent != nil {
		scale = float32(math.Abs(float64(n.parent.EffectiveSpeed())))
	} else if n.graph != nil {
		scale = float32(math.Abs(float64(n.graph.Speed())))
	}
	n.fadeElapsed += dt * scale
	n.weightDirty = true

	if n.fadeDuration <= 0 || n.fadeElapsed >= n.fadeDuration {
		n.weight = n.targetWeight
		n.fading = false
		if n.targetWeight == 0 && n.owner != nil {
			n.owner.Stop()
		}
		return false
	}

	fn := n.fadeEase
	if fn == nil {
		fn = n.graph.fadeEase
	}
	n.weight = fn(n.fadeElapsed, n.fadeStart, n.targetWeight-n.fadeStart, n.fadeDuration)
	return true
}

// applyWeight pushes the current weight into the parent handle's input port.
// When the parent does not keep children permanently connected, a weight of
// exactly 0 disconnects the node from the host graph and a nonzero weight
// reconnects it. A node with no parent applies nothing; that is a no-op, not
// an error.
func (n *node) applyWeight() {
	if !n.weightDirty {
		return
	}
	n.weightDirty = false

	if n.parent == nil || n.port < 0 {
		return
	}

	if !n.parent.KeepChildrenConnected() {
		if n.weight == 0 {
			if n.connected {
				n.parent.Handle().Disconnect(n.handle)
				n.connected = false
			}
			return
		}
		if !n.connected {
			n.parent.Handle().Connect(n.handle, n.port)
			n.connected = true
		}
	}

	n.parent.Handle().SetInputWeight(n.port, n.weight)
}

// markWeightDirty flags the weight for reapplication and schedules an update
// tick with the graph's scheduler.
func (n *node) markWeightDirty() {
	n.weightDirty = true
	if n.graph != nil && n.owner != nil {
		n.graph.sched.requireUpdate(n.owner)
	}
}

// Speed returns the node's local speed multiplier.
func (n *node) Speed() float32 { return n.speed }

// SetSpeed sets the node's local speed multiplier and writes it through to
// the handle. Panics if s is NaN.
//
// Parameters:
//   - s: the speed multiplier (1 = normal, negative = reversed)
func (n *node) SetSpeed(s float32) {
	guardFinite(s, "speed")
	n.speed = s
	if n.handle != nil {
		n.handle.SetSpeed(s)
	}
}

// EffectiveSpeed returns localSpeed multiplied by every ancestor's local
// speed up to the graph root.
func (n *node) EffectiveSpeed() float32 {
	return n.speed * n.parentSpeed()
}

// SetEffectiveSpeed back-solves the local speed so that EffectiveSpeed
// returns v with the current ancestor chain. Panics if v is NaN.
//
// Parameters:
//   - v: the desired compound speed
func (n *node) SetEffectiveSpeed(v float32) {
	guardFinite(v, "effective speed")
	n.SetSpeed(v / n.parentSpeed())
}

func (n *node) parentSpeed() float32 {
	if n.parent != nil {
		return n.parent.EffectiveSpeed()
	}
	if n.graph != nil {
		return n.graph.Speed()
	}
	return 1
}

// setParent attaches the node to a parent port. Passing a nil parent
// detaches it; port is forced to -1 so the index/parent invariant holds.
func (n *node) setParent(p Parent, port int) {
	if n.parent != nil && n.connected {
		n.parent.Handle().Disconnect(n.handle)
		n.connected = false
	}
	if p == nil {
		n.parent = nil
		n.port = -1
		return
	}
	n.parent = p
	n.port = port
	if p.KeepChildrenConnected() {
		p.Handle().Connect(n.handle, port)
		n.connected = true
	}
	n.markWeightDirty()
}

// nodeRef exposes the embedded node to the scheduler and registry.
func (n *node) nodeRef() *node { return n }
