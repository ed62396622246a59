package animator

// Clip describes one animation clip the host can play: a name the host
// resolves to its own asset, a duration, and a looping flag. Clip is a
// comparable value and doubles as the default registry key for the state
// created from it.
type Clip struct {
	Name    string
	Length  float32
	Looping bool
}

// ClipState plays a single clip. It is the leaf state type; everything it
// does comes from the shared state machinery.
type ClipState struct {
	state

	clip Clip
}

var _ State = &ClipState{}

// newClipState creates a clip state backed by a fresh clip handle. The state
// is not yet attached to a parent or registered under a key.
func newClipState(g *graph, clip Clip) *ClipState {
	cs := &ClipState{clip: clip}
	cs.init(g, cs, g.factory.NewClipHandle(clip.Name, clip.Length, clip.Looping))
	cs.length = clip.Length
	cs.looping = clip.Looping
	return cs
}

// Clip returns the clip this state plays.
//
// Returns:
//   - Clip: the backing clip descriptor
func (cs *ClipState) Clip() Clip { return cs.clip }
