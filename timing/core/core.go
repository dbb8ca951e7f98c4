// Package core wraps the out-of-order scheduler in an Akita ticking
// component so it can be driven by an Akita engine.
package core

import (
	"fmt"
	"io"
	"log"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/o3sim/insts"
	"github.com/sarchlab/o3sim/timing/cache"
	"github.com/sarchlab/o3sim/timing/depgraph"
	"github.com/sarchlab/o3sim/timing/latency"
	"github.com/sarchlab/o3sim/timing/ooo"
)

// watchdogCycles is how long the core may go without committing before the
// simulation is declared stuck.
const watchdogCycles = 100000

// Stats holds performance statistics for the core.
type Stats struct {
	ooo.Statistics

	Branch ooo.PredictorStats
	Deps   depgraph.Stats

	// DCache is zero without a data cache.
	DCache        cache.Statistics
	DCacheHitRate float64

	// Truncated is true if the run stopped at MaxCycles.
	Truncated bool
}

// Core is a trace-driven out-of-order core.
type Core struct {
	*sim.TickingComponent

	engine    sim.Engine
	scheduler *ooo.Scheduler
	maxCycles uint64

	lastCommitCycle uint64
	lastCommitted   uint64
	truncated       bool

	dumpEvery uint64
	dumpTo    io.Writer
}

// NewCore creates a core named name that runs trace on engine. The
// configuration must be valid.
func NewCore(
	name string,
	engine sim.Engine,
	config *Config,
	trace []insts.Instruction,
) *Core {
	opts := []ooo.SchedulerOption{
		ooo.WithLatencyTable(latency.NewTableWithConfig(config.Latency)),
	}
	if config.DCache != nil {
		opts = append(opts, ooo.WithDCache(*config.DCache))
	}

	c := &Core{
		engine:    engine,
		scheduler: ooo.NewScheduler(config.Window, trace, opts...),
		maxCycles: config.MaxCycles,
	}
	c.TickingComponent = sim.NewTickingComponent(
		name, engine, sim.Freq(config.FrequencyGHz)*sim.GHz, c)

	return c
}

// NewCoreFromConfig validates config and creates a core with its own serial
// engine.
func NewCoreFromConfig(
	name string,
	config *Config,
	trace []insts.Instruction,
) (*Core, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid core config: %w", err)
	}

	return NewCore(name, sim.NewSerialEngine(), config, trace), nil
}

// Tick advances the scheduler by one cycle. It returns false once the trace
// has committed or the cycle limit is reached, which stops the ticking.
func (c *Core) Tick() bool {
	if c.scheduler.Done() {
		return false
	}

	stats := c.scheduler.Stats()
	if c.maxCycles > 0 && stats.Cycles >= c.maxCycles {
		c.truncated = true
		return false
	}

	c.scheduler.Tick()

	stats = c.scheduler.Stats()
	if c.dumpEvery > 0 && stats.Cycles%c.dumpEvery == 0 {
		_, _ = fmt.Fprintf(c.dumpTo, "cycle %d:\n", stats.Cycles)
		c.scheduler.DumpDependencies(c.dumpTo)
	}

	if stats.Instructions != c.lastCommitted {
		c.lastCommitted = stats.Instructions
		c.lastCommitCycle = stats.Cycles
	} else if stats.Cycles-c.lastCommitCycle > watchdogCycles {
		log.Panicf("%s: no instruction committed in %d cycles, %d in flight",
			c.Name(), watchdogCycles, c.scheduler.InFlight())
	}

	return true
}

// DumpEvery writes the dependency tracker state to w every n cycles. An n of
// 0 turns dumping off.
func (c *Core) DumpEvery(n uint64, w io.Writer) {
	c.dumpEvery = n
	c.dumpTo = w
}

// Run schedules the first tick and runs the engine until the core stops.
func (c *Core) Run() error {
	c.TickLater()
	return c.engine.Run()
}

// Done returns true when the whole trace has committed.
func (c *Core) Done() bool {
	return c.scheduler.Done()
}

// Scheduler returns the underlying scheduler.
func (c *Core) Scheduler() *ooo.Scheduler {
	return c.scheduler
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	stats := Stats{
		Statistics: c.scheduler.Stats(),
		Branch:     c.scheduler.PredictorStats(),
		Deps:       c.scheduler.DependencyStats(),
		Truncated:  c.truncated,
	}

	if dcache := c.scheduler.DCache(); dcache != nil {
		stats.DCache = dcache.Stats()
		stats.DCacheHitRate = stats.DCache.HitRate()
	}

	return stats
}

// DumpDependencies writes the dependency tracker state to w.
func (c *Core) DumpDependencies(w io.Writer) {
	c.scheduler.DumpDependencies(w)
}

// Reset rewinds the core to the start of its trace.
func (c *Core) Reset() {
	c.scheduler.Reset()
	c.lastCommitCycle = 0
	c.lastCommitted = 0
	c.truncated = false
}
