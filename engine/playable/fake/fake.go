// Package fake provides in-memory playable handles for headless tests and
// examples. Handles record every connection and weight write so tests can
// assert on what the core pushed into the host, and they advance their own
// playback time when the owning Factory is stepped.
package fake

import (
	"github.com/Carmen-Shannon/animix-go/engine/playable"
)

// Handle is an in-memory implementation of playable.Handle. It records input
// weights and connections, tracks its own playback clock, and counts SetTime
// calls so the double-write contract can be verified.
type Handle struct {
	Name    string
	Length  float32
	Looping bool
	Mixer   bool

	// InputWeights holds the last weight written to each port.
	InputWeights map[int]float32

	// Inputs holds the child connected at each port; absent ports are
	// disconnected.
	Inputs map[int]*Handle

	// SetTimeCalls counts every SetTime invocation, including the double
	// writes the core performs.
	SetTimeCalls int

	// Released is set once the factory releases the handle.
	Released bool

	// Masks and additive flags applied to this handle, most recent last.
	Masks    []any
	Additive bool

	time    float32
	speed   float32
	playing bool
}

var _ playable.Handle = &Handle{}
var _ playable.MaskSetter = &Handle{}
var _ playable.AdditiveSetter = &Handle{}

// Connect attaches child at the given port, recording the connection.
func (h *Handle) Connect(child playable.Handle, port int) {
	c, ok := child.(*Handle)
	if !ok {
		return
	}
	h.Inputs[port] = c
}

// Disconnect detaches child from whichever port it occupies.
func (h *Handle) Disconnect(child playable.Handle) {
	for port, c := range h.Inputs {
		if c == child {
			delete(h.Inputs, port)
		}
	}
}

// SetInputWeight records the weight written to a port.
func (h *Handle) SetInputWeight(port int, weight float32) {
	h.InputWeights[port] = weight
}

// Time returns the handle's current playback time.
func (h *Handle) Time() float32 { return h.time }

// SetTime sets the playback time and counts the call.
func (h *Handle) SetTime(t float32) {
	h.time = t
	h.SetTimeCalls++
}

// SetSpeed sets the local playback speed used by Advance.
func (h *Handle) SetSpeed(s float32) { h.speed = s }

// Speed returns the last speed written to the handle.
func (h *Handle) Speed() float32 { return h.speed }

// Play resumes time advancement.
func (h *Handle) Play() { h.playing = true }

// Pause halts time advancement.
func (h *Handle) Pause() { h.playing = false }

// IsPlaying reports whether the handle is advancing time.
func (h *Handle) IsPlaying() bool { return h.playing }

// IsValid reports whether the handle is still live (not released).
func (h *Handle) IsValid() bool { return !h.Released }

// SetMask records an opaque layer mask.
func (h *Handle) SetMask(mask any) { h.Masks = append(h.Masks, mask) }

// SetAdditive records the layer composition mode.
func (h *Handle) SetAdditive(additive bool) { h.Additive = additive }

// Advance moves the handle's clock forward by dt * speed if it is playing.
//
// Parameters:
//   - dt: elapsed host time in seconds
func (h *Handle) Advance(dt float32) {
	if h.playing {
		h.time += dt * h.speed
	}
}

// InputWeight returns the last weight written to the given port, or 0.
func (h *Handle) InputWeight(port int) float32 { return h.InputWeights[port] }

// Connected reports whether any child is connected at the given port.
func (h *Handle) Connected(port int) bool {
	_, ok := h.Inputs[port]
	return ok
}

// Factory mints fake handles and keeps every handle it created so a test can
// advance them all in lockstep, the way a host engine would between ticks.
type Factory struct {
	Handles  []*Handle
	Released int
}

var _ playable.Factory = &Factory{}

// NewFactory creates an empty fake handle factory.
//
// Returns:
//   - *Factory: the new factory
func NewFactory() *Factory {
	return &Factory{}
}

// NewClipHandle creates a fake clip handle.
func (f *Factory) NewClipHandle(name string, length float32, looping bool) playable.Handle {
	h := &Handle{
		Name:         name,
		Length:       length,
		Looping:      looping,
		InputWeights: map[int]float32{},
		Inputs:       map[int]*Handle{},
		speed:        1,
	}
	f.Handles = append(f.Handles, h)
	return h
}

// NewMixerHandle creates a fake mixer handle.
func (f *Factory) NewMixerHandle() playable.Handle {
	h := &Handle{
		Mixer:        true,
		InputWeights: map[int]float32{},
		Inputs:       map[int]*Handle{},
		speed:        1,
	}
	f.Handles = append(f.Handles, h)
	return h
}

// Release marks the handle released; further use reports IsValid() == false.
func (f *Factory) Release(h playable.Handle) {
	if fh, ok := h.(*Handle); ok && !fh.Released {
		fh.Released = true
		f.Released++
	}
}

// Advance steps every live handle's clock by dt, simulating one host frame.
//
// Parameters:
//   - dt: elapsed host time in seconds
func (f *Factory) Advance(dt float32) {
	for _, h := range f.Handles {
		if !h.Released {
			h.Advance(dt)
		}
	}
}

// Handle returns the clip handle created with the given name, or nil.
//
// Parameters:
//   - name: the clip name passed to NewClipHandle
//
// Returns:
//   - *Handle: the matching handle, or nil if none exists
func (f *Factory) Handle(name string) *Handle {
	for _, h := range f.Handles {
		if h.Name == name {
			return h
		}
	}
	return nil
}
