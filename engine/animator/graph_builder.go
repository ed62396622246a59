package animator

import (
	"github.com/Carmen-Shannon/animix-go/common"
	"github.com/Carmen-Shannon/animix-go/engine/playable"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/tanema/gween/ease"
	"go.uber.org/zap"
)

type graphOptions struct {
	id         uuid.UUID
	logger     *zap.SugaredLogger
	layerCount int
	speed      float32
	fadeEase   ease.TweenFunc
}

// GraphOption configures a Graph during construction.
type GraphOption func(*graphOptions)

// WithGraphID sets the graph's identity instead of generating one.
//
// Parameters:
//   - id: the identity to attach to the graph's log lines
//
// Returns:
//   - GraphOption: the option to apply
func WithGraphID(id uuid.UUID) GraphOption {
	return func(o *graphOptions) {
		o.id = id
	}
}

// WithLogger sets the logger the graph reports dispatch and tick errors
// through. The default swallows everything.
//
// Parameters:
//   - logger: the sugared logger to report through
//
// Returns:
//   - GraphOption: the option to apply
func WithLogger(logger *zap.SugaredLogger) GraphOption {
	return func(o *graphOptions) {
		o.logger = logger
	}
}

// WithLayerCount sets the number of layers the graph starts with. The
// default is a single base layer.
//
// Parameters:
//   - n: the initial layer count, at least 1
//
// Returns:
//   - GraphOption: the option to apply
func WithLayerCount(n int) GraphOption {
	return func(o *graphOptions) {
		o.layerCount = n
	}
}

// WithSpeed sets the graph-level speed multiplier at construction.
//
// Parameters:
//   - s: the speed multiplier (1 = normal)
//
// Returns:
//   - GraphOption: the option to apply
func WithSpeed(s float32) GraphOption {
	return func(o *graphOptions) {
		o.speed = s
	}
}

// WithFadeEase sets the default easing curve applied to weight fades that do
// not supply their own. The default is linear.
//
// Parameters:
//   - fn: the gween easing function
//
// Returns:
//   - GraphOption: the option to apply
func WithFadeEase(fn ease.TweenFunc) GraphOption {
	return func(o *graphOptions) {
		o.fadeEase = fn
	}
}

// NewGraph creates an animation graph backed by the given handle factory.
//
// Parameters:
//   - factory: the host's handle factory, required
//   - opts: optional configuration
//
// Returns:
//   - Graph: the new graph
//   - error: an error if the factory is nil or an option is invalid
func NewGraph(factory playable.Factory, opts ...GraphOption) (Graph, error) {
	if factory == nil {
		return nil, errors.New("animator: a playable factory is required")
	}

	o := &graphOptions{}
	for _, opt := range opts {
		opt(o)
	}
	o.id = common.Coalesce(o.id, uuid.New())
	o.layerCount = common.Coalesce(o.layerCount, 1)
	o.speed = common.Coalesce(o.speed, 1)
	if o.layerCount < 1 {
		return nil, errors.Newf("animator: layer count %d must be at least 1", o.layerCount)
	}
	if o.logger == nil {
		o.logger = zap.NewNop().Sugar()
	}
	if o.fadeEase == nil {
		o.fadeEase = ease.Linear
	}

	g := &graph{
		id:       o.id,
		factory:  factory,
		logger:   o.logger.With("graph", o.id.String()),
		root:     factory.NewMixerHandle(),
		states:   map[any]State{},
		speed:    o.speed,
		fadeEase: o.fadeEase,
	}
	g.sched.logger = g.logger
	g.root.SetSpeed(o.speed)
	g.root.Play()

	for i := 0; i < o.layerCount; i++ {
		g.AddLayer()
	}
	return g, nil
}
