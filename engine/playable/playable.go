package playable

// Handle is the capability the animation core consumes from its host engine.
// A Handle stands for one position in the host's evaluation graph: a clip
// player, a mixer, or a layer root. The core connects handles together,
// pushes weights and speeds into them, and reads playback time back out.
// It never interprets what the handle evaluates or renders.
//
// All methods are expected to be cheap and non-blocking; the core calls them
// synchronously from inside its tick.
type Handle interface {
	// Connect attaches child as an input of this handle at the given port.
	// Connecting a child that is already connected at the same port is a no-op.
	//
	// Parameters:
	//   - child: the handle to attach
	//   - port: the input port index on this handle
	Connect(child Handle, port int)

	// Disconnect detaches child from this handle. Disconnecting a child that
	// is not connected is a no-op.
	//
	// Parameters:
	//   - child: the handle to detach
	Disconnect(child Handle)

	// SetInputWeight sets the blend weight of the input at the given port.
	//
	// Parameters:
	//   - port: the input port index
	//   - weight: the blend weight to apply
	SetInputWeight(port int, weight float32)

	// Time returns the handle's current playback time in seconds. For handles
	// the host is advancing, this grows by deltaTime * speed each host frame.
	//
	// Returns:
	//   - float32: the current playback time in seconds
	Time() float32

	// SetTime sets the handle's playback time in seconds. The core calls this
	// twice in immediate succession for every logical write so that any
	// host-side triggers bound to the handle do not fire for the skipped
	// range between the old and new time.
	//
	// Parameters:
	//   - t: the new playback time in seconds
	SetTime(t float32)

	// SetSpeed sets the handle's local playback speed multiplier.
	//
	// Parameters:
	//   - s: the speed multiplier (1 = normal, negative = reversed)
	SetSpeed(s float32)

	// Play resumes time advancement on this handle.
	Play()

	// Pause halts time advancement on this handle.
	Pause()

	// IsValid reports whether the handle still refers to a live host object.
	//
	// Returns:
	//   - bool: true if the handle is usable
	IsValid() bool
}

// Factory mints and releases handles on behalf of the core. The host supplies
// one Factory per graph; every node the core creates asks the factory for its
// backing handle.
type Factory interface {
	// NewClipHandle creates a handle that plays a single clip.
	//
	// Parameters:
	//   - name: the clip identifier, for host-side lookup and diagnostics
	//   - length: the clip duration in seconds at speed 1
	//   - looping: whether the clip wraps at its end
	//
	// Returns:
	//   - Handle: the new clip handle
	NewClipHandle(name string, length float32, looping bool) Handle

	// NewMixerHandle creates a handle that blends the handles connected to
	// its input ports.
	//
	// Returns:
	//   - Handle: the new mixer handle
	NewMixerHandle() Handle

	// Release returns a handle to the host. The core calls this exactly once
	// per handle, after disconnecting it; the handle must not be used after.
	//
	// Parameters:
	//   - h: the handle to release
	Release(h Handle)
}

// MaskSetter is an optional capability of layer-root handles. Hosts that
// support per-bone layer masks implement it; the core forwards the mask value
// opaquely and never inspects it.
type MaskSetter interface {
	// SetMask applies an opaque host-defined mask to the handle.
	//
	// Parameters:
	//   - mask: the host-defined mask value
	SetMask(mask any)
}

// AdditiveSetter is an optional capability of layer-root handles. Hosts that
// support additive layer composition implement it.
type AdditiveSetter interface {
	// SetAdditive switches the handle between additive and override
	// composition.
	//
	// Parameters:
	//   - additive: true for additive composition, false for override
	SetAdditive(additive bool)
}
