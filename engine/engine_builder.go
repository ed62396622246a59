package engine

import (
	"time"

	"github.com/Carmen-Shannon/animix-go/engine/animator"
	"go.uber.org/zap"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the engine tick rate in ticks per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - tps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(tps float64) EngineBuilderOption {
	return func(e *engine) {
		if tps <= 0 {
			tps = 60.0
		}
		e.engineTickRate = time.Second / time.Duration(tps)
	}
}

// WithLogger sets the logger the engine and its profiler report through.
// The default swallows everything.
//
// Parameters:
//   - logger: the sugared logger to report through
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(logger *zap.SugaredLogger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithGraph registers a graph at the given key during engine construction.
// Graphs are advanced in ascending key order each tick.
//
// Parameters:
//   - key: the ordering key (lower advances first)
//   - g: the graph to register
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithGraph(key int, g animator.Graph) EngineBuilderOption {
	return func(e *engine) {
		e.graphs[key] = g
	}
}
