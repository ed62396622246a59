package profiler

import (
	"runtime"
	"time"

	"go.uber.org/zap"
)

// Profiler tracks tick rate and memory statistics for performance monitoring.
// Outputs stats through its logger at a configurable interval.
type Profiler struct {
	logger *zap.SugaredLogger

	tickCount      int
	graphCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Parameters:
//   - logger: the sugared logger stats are reported through
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(logger *zap.SugaredLogger) *Profiler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Profiler{
		logger:         logger,
		tickCount:      0,
		lastTime:       time.Now(),
		updateInterval: time.Second,
		memStats:       runtime.MemStats{},
	}
}

// Tick should be called once per engine tick to track tick timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: ticks per second, graphs advanced, heap usage,
// allocation rate, GC count/pause times, total memory.
//
// Parameters:
//   - graphsAdvanced: the number of graphs advanced this tick
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(graphsAdvanced int) bool {
	p.tickCount++
	p.graphCount += graphsAdvanced
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed >= p.updateInterval {
		tps := float64(p.tickCount) / elapsed.Seconds()
		gps := float64(p.graphCount) / elapsed.Seconds()

		runtime.ReadMemStats(&p.memStats)
		// Alloc: Bytes of allocated heap objects (live memory)
		// TotalAlloc: Cumulative bytes allocated for heap objects (increases forever, tracks churn)
		// Sys: Total bytes of memory obtained from the OS (actual process footprint)
		allocMB := float64(p.memStats.Alloc) / 1024 / 1024
		sysMB := float64(p.memStats.Sys) / 1024 / 1024

		// Calculate allocation rate (MB/sec)
		allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
		allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

		// Calculate GC pause stats (last pause and max recent pause)
		gcCount := p.memStats.NumGC
		var lastPauseUs, maxPauseUs uint64
		if gcCount > 0 {
			// PauseNs is a circular buffer of last 256 GC pauses
			lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

			// Find max pause since last tick
			startIdx := p.lastGCCount
			if gcCount-startIdx > 256 {
				startIdx = gcCount - 256
			}
			for i := startIdx; i < gcCount; i++ {
				pause := p.memStats.PauseNs[i%256] / 1000
				if pause > maxPauseUs {
					maxPauseUs = pause
				}
			}
		}

		p.logger.Infow("profiler stats",
			"tps", tps,
			"graphsPerSecond", gps,
			"heapMB", allocMB,
			"allocRateMBs", allocRateMB,
			"gcCount", gcCount,
			"gcLastPauseUs", lastPauseUs,
			"gcMaxPauseUs", maxPauseUs,
			"sysMB", sysMB,
		)

		p.tickCount = 0
		p.graphCount = 0
		p.lastTime = currentTime
		p.lastGCCount = gcCount
		p.lastTotalAlloc = p.memStats.TotalAlloc
		return true
	}

	return false
}
