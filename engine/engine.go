package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/animix-go/engine/animator"
	"github.com/Carmen-Shannon/animix-go/engine/profiler"
	"go.uber.org/zap"
)

// engine implements the Engine interface.
// Owns the tick goroutine that advances registered animation graphs.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	logger *zap.SugaredLogger

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)

	graphs map[int]animator.Graph
}

// Engine is an optional real-time driver for animation graphs. It runs a
// fixed-rate tick loop in its own goroutine and advances every registered
// graph each tick, in ascending key order. Hosts with their own frame loop
// do not need it; calling Graph.Tick directly is equivalent.
//
// Registration methods are not synchronized with the tick loop: register
// graphs before Run, or from inside the tick callback.
type Engine interface {
	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	// Registered graphs advance at this rate. Takes effect immediately on a
	// running engine.
	//
	// Parameters:
	//   - tps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(tps float64)

	// SetTickCallback registers a function called at the start of each tick,
	// before the graphs advance. Use it to feed gameplay input (parameters,
	// crossfades) into the graphs.
	//
	// Parameters:
	//   - callback: function to call each tick, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// AddGraph registers a graph at the given key.
	// Graphs are advanced in ascending key order each tick.
	//
	// Parameters:
	//   - key: the ordering key (lower advances first)
	//   - g: the graph to register
	AddGraph(key int, g animator.Graph)

	// RemoveGraph removes the graph at the given key. The graph itself is
	// not destroyed.
	//
	// Parameters:
	//   - key: the key of the graph to remove
	RemoveGraph(key int)

	// Graph retrieves the graph registered at the given key.
	// Returns nil if no graph exists at that key.
	//
	// Parameters:
	//   - key: the key of the graph to retrieve
	//
	// Returns:
	//   - animator.Graph: the graph at the key, or nil if not found
	Graph(key int) animator.Graph

	// Graphs returns a copy of all registered graphs keyed by order.
	//
	// Returns:
	//   - map[int]animator.Graph: a copy of the graphs map
	Graphs() map[int]animator.Graph

	// Run starts the tick loop and blocks until Quit is called.
	Run()

	// Quit signals the tick goroutine to stop and shuts down the engine.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
//
// Parameters:
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel:  make(chan time.Duration, 1),
		quitChannel:      make(chan struct{}),
		graphs:           make(map[int]animator.Graph),
		running:          false,
		wg:               sync.WaitGroup{},
		logger:           zap.NewNop().Sugar(),
		profilingEnabled: false,
		engineTickRate:   time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}

	e.profiler = profiler.NewProfiler(e.logger)

	return e
}

func (e *engine) Run() {
	e.running = true
	e.handle()
	e.wg.Wait()
}

// Quit signals the tick goroutine to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running = false
		close(e.quitChannel)
	})
}

// handle launches the tick and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleQuit()
}

// handleEngine runs the fixed-rate tick loop in its own goroutine.
// Fires the tick callback, advances every registered graph in ascending key
// order, and listens for dynamic rate changes via tickRateChannel. Recovers
// from panics to avoid crashing the process and signals quit on recovery.
// Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Errorw("tick goroutine recovered from panic", "panic", r)
			e.signalQuit()
		}
	}()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}

			keys := make([]int, 0, len(e.graphs))
			for k := range e.graphs {
				keys = append(keys, k)
			}
			sort.Ints(keys)

			for _, k := range keys {
				e.graphs[k].Tick(dt)
			}

			if e.profilingEnabled && e.profiler != nil {
				e.profiler.Tick(len(keys))
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(tps float64) {
	if tps <= 0 {
		tps = 60
	}
	newRate := time.Second / time.Duration(tps)

	if e.running {
		// Send to channel for immediate update in running engine loop
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			// Channel has a pending update, drain and send new value
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		// Engine not running, just update the field
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called at the start of each tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) AddGraph(key int, g animator.Graph) {
	e.graphs[key] = g
}

func (e *engine) RemoveGraph(key int) {
	delete(e.graphs, key)
}

func (e *engine) Graph(key int) animator.Graph {
	return e.graphs[key]
}

func (e *engine) Graphs() map[int]animator.Graph {
	cp := make(map[int]animator.Graph, len(e.graphs))
	for k, v := range e.graphs {
		cp[k] = v
	}
	return cp
}
