package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/o3sim/timing/core"
)

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	SimulatedCycles     uint64  `json:"simulated_cycles"`
	InstructionsRetired uint64  `json:"instructions_retired"`
	CPI                 float64 `json:"cpi"`

	Dispatched uint64 `json:"dispatched"`
	Issued     uint64 `json:"issued"`
	Squashed   uint64 `json:"squashed"`
	Flushes    uint64 `json:"flushes"`
	Wakeups    uint64 `json:"wakeups"`

	// Dispatch stalls by cause
	ROBFullStalls      uint64 `json:"rob_full_stalls"`
	StationFullStalls  uint64 `json:"station_full_stalls"`
	RegisterFullStalls uint64 `json:"register_full_stalls"`

	// Dependency tracker counters
	PeakTracked    int    `json:"peak_tracked"`
	NodesTraversed uint64 `json:"nodes_traversed"`
	NodesRemoved   uint64 `json:"nodes_removed"`

	DCacheHitRate    float64 `json:"dcache_hit_rate,omitempty"`
	DCacheEvictions  uint64  `json:"dcache_evictions,omitempty"`
	DCacheWritebacks uint64  `json:"dcache_writebacks,omitempty"`

	// Branch predictor stats
	BranchPredictions     uint64  `json:"branch_predictions,omitempty"`
	BranchMispredictions  uint64  `json:"branch_mispredictions,omitempty"`
	BranchAccuracyPercent float64 `json:"branch_accuracy_percent,omitempty"`

	// Error is set when the benchmark could not run to completion.
	Error string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Core configures the simulated core for every benchmark.
	Core *core.Config

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose prints each benchmark as it finishes.
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Core:   core.DefaultConfig(),
		Output: os.Stdout,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Core == nil {
		config.Core = core.DefaultConfig()
	}
	return &Harness{
		config: config,
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result := h.runBenchmark(bench)
		if h.config.Verbose {
			_, _ = fmt.Fprintf(h.config.Output, "ran %s: %d cycles, CPI %.3f\n",
				result.Name, result.SimulatedCycles, result.CPI)
		}
		results = append(results, result)
	}

	return results
}

func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
	}

	// Benchmark names are not valid component names, so every run uses the
	// same one on its own engine.
	c, err := core.NewCoreFromConfig("Core", h.config.Core, bench.Trace)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	err = c.Run()
	result.WallTime = time.Since(start)

	stats := c.Stats()
	switch {
	case err != nil:
		result.Error = err.Error()
	case stats.Truncated:
		result.Error = fmt.Sprintf("stopped at %d cycles", stats.Cycles)
	}

	result.SimulatedCycles = stats.Cycles
	result.InstructionsRetired = stats.Instructions
	result.CPI = stats.CPI()
	result.Dispatched = stats.Dispatched
	result.Issued = stats.Issued
	result.Squashed = stats.Squashed
	result.Flushes = stats.Flushes
	result.Wakeups = stats.Wakeups
	result.ROBFullStalls = stats.ROBFullStalls
	result.StationFullStalls = stats.StationFullStalls
	result.RegisterFullStalls = stats.RegisterFullStalls
	result.PeakTracked = stats.PeakTracked
	result.NodesTraversed = stats.Deps.NodesTraversed
	result.NodesRemoved = stats.Deps.NodesRemoved
	result.DCacheHitRate = stats.DCacheHitRate
	result.DCacheEvictions = stats.DCache.Evictions
	result.DCacheWritebacks = stats.DCache.Writebacks
	result.BranchPredictions = stats.Branch.Predictions
	result.BranchMispredictions = stats.Branch.Mispredictions
	result.BranchAccuracyPercent = stats.Branch.Accuracy()

	return result
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	w := h.config.Output
	window := h.config.Core.Window

	_, _ = fmt.Fprintln(w, "=== O3Sim Benchmark Results ===")
	_, _ = fmt.Fprintf(w, "Window: %d-wide, %d stations, %d phys regs, retract=%s\n",
		window.IssueWidth, window.NumReservationStations, window.NumPhysRegs,
		window.RetractPolicy)
	_, _ = fmt.Fprintln(w, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(w, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(w, "  Description: %s\n", r.Description)
		if r.Error != "" {
			_, _ = fmt.Fprintf(w, "  Error: %s\n", r.Error)
		}
		_, _ = fmt.Fprintln(w, "  --- Timing ---")
		_, _ = fmt.Fprintf(w, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(w, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(w, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(w, "  Squashed:             %d\n", r.Squashed)
		_, _ = fmt.Fprintf(w, "  Flushes:              %d\n", r.Flushes)
		_, _ = fmt.Fprintln(w, "  --- Dispatch Stalls ---")
		_, _ = fmt.Fprintf(w, "  ROB Full:      %d\n", r.ROBFullStalls)
		_, _ = fmt.Fprintf(w, "  Stations Full: %d\n", r.StationFullStalls)
		_, _ = fmt.Fprintf(w, "  No Free Reg:   %d\n", r.RegisterFullStalls)
		_, _ = fmt.Fprintln(w, "  --- Dependency Tracker ---")
		_, _ = fmt.Fprintf(w, "  Wakeups:         %d\n", r.Wakeups)
		_, _ = fmt.Fprintf(w, "  Peak Tracked:    %d\n", r.PeakTracked)
		_, _ = fmt.Fprintf(w, "  Nodes Traversed: %d\n", r.NodesTraversed)
		_, _ = fmt.Fprintf(w, "  Nodes Removed:   %d\n", r.NodesRemoved)

		if r.DCacheHitRate > 0 {
			_, _ = fmt.Fprintf(w, "  D-Cache Hit Rate: %.1f%%\n", r.DCacheHitRate)
			_, _ = fmt.Fprintf(w, "  D-Cache Evictions: %d (%d writebacks)\n",
				r.DCacheEvictions, r.DCacheWritebacks)
		}

		if r.BranchPredictions > 0 {
			_, _ = fmt.Fprintln(w, "  --- Branch Predictor ---")
			_, _ = fmt.Fprintf(w, "  Predictions:     %d\n", r.BranchPredictions)
			_, _ = fmt.Fprintf(w, "  Mispredictions:  %d\n", r.BranchMispredictions)
			_, _ = fmt.Fprintf(w, "  Accuracy:        %.1f%%\n", r.BranchAccuracyPercent)
		}

		_, _ = fmt.Fprintf(w, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(w, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cycles,instructions,cpi,squashed,flushes,wakeups,rob_stalls,station_stalls,reg_stalls,peak_tracked,nodes_traversed,nodes_removed")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%.3f,%d,%d,%d,%d,%d,%d,%d,%d,%d\n",
			r.Name,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.Squashed,
			r.Flushes,
			r.Wakeups,
			r.ROBFullStalls,
			r.StationFullStalls,
			r.RegisterFullStalls,
			r.PeakTracked,
			r.NodesTraversed,
			r.NodesRemoved,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	Metadata ReportMetadata    `json:"metadata"`
	Results  []BenchmarkResult `json:"results"`
	Summary  ReportSummary     `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Config is the core configuration every benchmark ran with
	Config *core.Config `json:"config"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	TotalBenchmarks   int           `json:"total_benchmarks"`
	Failed            int           `json:"failed"`
	TotalCycles       uint64        `json:"total_cycles"`
	TotalInstructions uint64        `json:"total_instructions"`
	AverageCPI        float64       `json:"average_cpi"`
	TotalWallTime     time.Duration `json:"total_wall_time_ns"`
}

// Summarize aggregates results.
func Summarize(results []BenchmarkResult) ReportSummary {
	summary := ReportSummary{TotalBenchmarks: len(results)}
	for _, r := range results {
		if r.Error != "" {
			summary.Failed++
		}
		summary.TotalCycles += r.SimulatedCycles
		summary.TotalInstructions += r.InstructionsRetired
		summary.TotalWallTime += r.WallTime
	}

	if summary.TotalInstructions > 0 {
		summary.AverageCPI = float64(summary.TotalCycles) / float64(summary.TotalInstructions)
	}

	return summary
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Config:    h.config.Core,
		},
		Results: results,
		Summary: Summarize(results),
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
