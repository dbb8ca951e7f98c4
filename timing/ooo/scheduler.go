// Package ooo models the out-of-order window of a trace-driven core: fetch
// with branch prediction, rename, dispatch into reservation stations, wakeup
// and select through the register dependency tracker, execute, in-order
// commit, and squash on branch misprediction.
package ooo

import (
	"io"

	"github.com/sarchlab/o3sim/insts"
	"github.com/sarchlab/o3sim/timing/cache"
	"github.com/sarchlab/o3sim/timing/depgraph"
	"github.com/sarchlab/o3sim/timing/latency"
	"github.com/sarchlab/o3sim/timing/rename"
)

// SchedulerOption is a functional option for configuring the Scheduler.
type SchedulerOption func(*Scheduler)

// WithLatencyTable sets a custom latency table for execution timing.
func WithLatencyTable(table *latency.Table) SchedulerOption {
	return func(s *Scheduler) {
		s.latencyTable = table
	}
}

// WithDCache times loads and stores with an L1 data cache.
func WithDCache(config cache.Config) SchedulerOption {
	return func(s *Scheduler) {
		s.dcache = cache.New(config)
	}
}

// Scheduler runs a trace through the out-of-order window one cycle per Tick.
type Scheduler struct {
	config Config

	trace    []insts.Instruction
	fetchIdx int
	nextSeq  uint64

	// fetchStall is the number of cycles fetch stays idle after a
	// misprediction redirect.
	fetchStall uint64

	fetchQueue []*insts.DynInst
	rob        []*insts.DynInst
	ready      []*insts.DynInst
	executing  []*insts.DynInst

	// stationsUsed counts dispatched instructions that have not issued.
	stationsUsed int

	deps         *depgraph.Graph[*insts.DynInst]
	renamer      *rename.Table
	predictor    *Predictor
	latencyTable *latency.Table
	dcache       *cache.Cache

	stats Statistics
}

// NewScheduler creates a scheduler for trace. The configuration must be
// valid.
func NewScheduler(
	config Config,
	trace []insts.Instruction,
	opts ...SchedulerOption,
) *Scheduler {
	s := &Scheduler{
		config: config,
		trace:  trace,
		deps: depgraph.New[*insts.DynInst](
			config.NumPhysRegs,
			config.NumReservationStations,
			depgraph.WithRetractPolicy(config.RetractPolicy),
		),
		renamer:      rename.NewTable(insts.NumArchRegs, config.NumPhysRegs),
		predictor:    NewPredictor(config.Predictor),
		latencyTable: latency.NewTable(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Config returns the window configuration.
func (s *Scheduler) Config() Config {
	return s.config
}

// Stats returns the scheduler statistics.
func (s *Scheduler) Stats() Statistics {
	return s.stats
}

// DependencyStats returns the dependency tracker debug counters.
func (s *Scheduler) DependencyStats() depgraph.Stats {
	return s.deps.Stats()
}

// PredictorStats returns the branch predictor statistics.
func (s *Scheduler) PredictorStats() PredictorStats {
	return s.predictor.Stats()
}

// DCache returns the data cache, or nil when memory ops use fixed latencies.
func (s *Scheduler) DCache() *cache.Cache {
	return s.dcache
}

// InFlight returns the number of fetched instructions not yet committed.
func (s *Scheduler) InFlight() int {
	return len(s.fetchQueue) + len(s.rob)
}

// Done returns true when the whole trace has committed.
func (s *Scheduler) Done() bool {
	return s.fetchIdx >= len(s.trace) &&
		len(s.fetchQueue) == 0 &&
		len(s.rob) == 0
}

// DumpDependencies writes the dependency tracker state to w.
func (s *Scheduler) DumpDependencies(w io.Writer) {
	s.deps.Dump(w)
}

// Tick advances the window by one cycle. Stages are evaluated in reverse
// order so each stage sees the state the later stages left behind in the
// previous cycle.
func (s *Scheduler) Tick() {
	if s.Done() {
		return
	}

	s.stats.Cycles++

	s.commit()
	s.complete()
	s.issue()
	s.dispatch()
	s.fetch()

	if n := s.deps.Occupied(); n > s.stats.PeakTracked {
		s.stats.PeakTracked = n
	}
}

// Run ticks until the trace commits or maxCycles elapse. A maxCycles of 0
// means no limit. It returns true if the trace finished.
func (s *Scheduler) Run(maxCycles uint64) bool {
	for !s.Done() {
		if maxCycles > 0 && s.stats.Cycles >= maxCycles {
			return false
		}
		s.Tick()
	}
	return true
}

// Reset rewinds to the start of the trace and clears all state.
func (s *Scheduler) Reset() {
	s.fetchIdx = 0
	s.nextSeq = 0
	s.fetchStall = 0

	s.fetchQueue = nil
	s.rob = nil
	s.ready = nil
	s.executing = nil
	s.stationsUsed = 0

	s.deps.Reset()
	s.renamer.Reset()
	s.predictor.Reset()
	if s.dcache != nil {
		s.dcache.Reset()
	}

	s.stats = Statistics{}
}

