// Package main provides the entry point for O3Sim, a trace-driven
// out-of-order core model built on Akita.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/o3sim/insts"
	"github.com/sarchlab/o3sim/timing/core"
	"github.com/sarchlab/o3sim/timing/depgraph"
)

// Exit codes.
const (
	exitOK      = 0
	exitUsage   = 1
	exitAborted = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("o3sim", flag.ContinueOnError)
	flags.SetOutput(stderr)

	configPath := flags.String("config", "", "Path to core configuration JSON file")
	writeConfig := flags.String("write-config", "", "Write the effective configuration to this path and exit")
	policy := flags.String("policy", "", "Override the retract policy (clear or keep)")
	maxCycles := flags.Uint64("max-cycles", 0, "Stop after this many cycles (0: config value)")
	dumpEvery := flags.Uint64("dump", 0, "Dump the dependency tracker every N cycles")
	verbose := flags.Bool("v", false, "Verbose output")

	flags.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: o3sim [options] <trace>\n")
		_, _ = fmt.Fprintf(stderr, "\nOptions:\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return exitUsage
	}

	config, err := loadConfig(*configPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return exitUsage
	}
	if *policy != "" {
		config.Window.RetractPolicy = depgraph.RetractPolicy(*policy)
	}
	if *maxCycles > 0 {
		config.MaxCycles = *maxCycles
	}

	if *writeConfig != "" {
		if err := config.SaveConfig(*writeConfig); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error writing config: %v\n", err)
			return exitUsage
		}
		return exitOK
	}

	if flags.NArg() != 1 {
		flags.Usage()
		return exitUsage
	}
	tracePath := flags.Arg(0)

	trace, err := loadTrace(tracePath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error loading trace: %v\n", err)
		return exitUsage
	}

	c, err := core.NewCoreFromConfig("Core", config, trace)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	if *dumpEvery > 0 {
		c.DumpEvery(*dumpEvery, stdout)
	}

	if *verbose {
		_, _ = fmt.Fprintf(stdout, "Loaded: %s (%d micro-ops)\n", tracePath, len(trace))
		_, _ = fmt.Fprintf(stdout, "Window: %d-wide, ROB %d, %d stations, %d phys regs, retract=%s\n",
			config.Window.IssueWidth, config.Window.ROBSize,
			config.Window.NumReservationStations, config.Window.NumPhysRegs,
			config.Window.RetractPolicy)
	}

	if !simulate(c, stderr) {
		return exitAborted
	}

	printReport(stdout, tracePath, c.Stats())

	return exitOK
}

// simulator is the part of a core the command drives.
type simulator interface {
	Run() error
	DumpDependencies(w io.Writer)
}

// simulate runs s to completion. A tracker violation panics out of the
// engine; it is reported on stderr with the tracker state at the failure.
func simulate(s simulator, stderr io.Writer) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			_, _ = fmt.Fprintf(stderr, "simulation aborted: %v\n", r)
			s.DumpDependencies(stderr)
			ok = false
		}
	}()

	if err := s.Run(); err != nil {
		_, _ = fmt.Fprintf(stderr, "simulation aborted: %v\n", err)
		return false
	}

	return true
}

func loadConfig(path string) (*core.Config, error) {
	if path == "" {
		return core.DefaultConfig(), nil
	}
	return core.LoadConfig(path)
}

func loadTrace(path string) ([]insts.Instruction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return insts.ParseTrace(f)
}

func percent(part, whole uint64) float64 {
	if whole == 0 {
		return 0
	}
	return 100 * float64(part) / float64(whole)
}

func printReport(w io.Writer, tracePath string, stats core.Stats) {
	_, _ = fmt.Fprintf(w, "\n")
	_, _ = fmt.Fprintf(w, "Trace: %s\n", tracePath)
	if stats.Truncated {
		_, _ = fmt.Fprintf(w, "Stopped at the cycle limit\n")
	}
	_, _ = fmt.Fprintf(w, "Total Instructions: %d\n", stats.Instructions)
	_, _ = fmt.Fprintf(w, "Total Cycles: %d\n", stats.Cycles)
	_, _ = fmt.Fprintf(w, "CPI: %.2f\n", stats.CPI())
	_, _ = fmt.Fprintf(w, "IPC: %.2f\n", stats.IPC())
	_, _ = fmt.Fprintf(w, "\n")
	_, _ = fmt.Fprintf(w, "Dispatch stalls:\n")
	_, _ = fmt.Fprintf(w, "  ROB full:       %6d cycles (%5.1f%%)\n",
		stats.ROBFullStalls, percent(stats.ROBFullStalls, stats.Cycles))
	_, _ = fmt.Fprintf(w, "  Stations full:  %6d cycles (%5.1f%%)\n",
		stats.StationFullStalls, percent(stats.StationFullStalls, stats.Cycles))
	_, _ = fmt.Fprintf(w, "  No free reg:    %6d cycles (%5.1f%%)\n",
		stats.RegisterFullStalls, percent(stats.RegisterFullStalls, stats.Cycles))
	_, _ = fmt.Fprintf(w, "  Fetch redirect: %6d cycles (%5.1f%%)\n",
		stats.FetchStallCycles, percent(stats.FetchStallCycles, stats.Cycles))
	_, _ = fmt.Fprintf(w, "\n")
	_, _ = fmt.Fprintf(w, "Speculation:\n")
	_, _ = fmt.Fprintf(w, "  Branches:    %d\n", stats.Branches)
	_, _ = fmt.Fprintf(w, "  Flushes:     %d\n", stats.Flushes)
	_, _ = fmt.Fprintf(w, "  Squashed:    %d\n", stats.Squashed)
	_, _ = fmt.Fprintf(w, "  BTB hits:    %d\n", stats.Branch.BTBHits)
	_, _ = fmt.Fprintf(w, "\n")
	_, _ = fmt.Fprintf(w, "Dependency tracker:\n")
	_, _ = fmt.Fprintf(w, "  Wakeups:         %d\n", stats.Wakeups)
	_, _ = fmt.Fprintf(w, "  Peak tracked:    %d\n", stats.PeakTracked)
	_, _ = fmt.Fprintf(w, "  Nodes traversed: %d\n", stats.Deps.NodesTraversed)
	_, _ = fmt.Fprintf(w, "  Nodes removed:   %d\n", stats.Deps.NodesRemoved)
	if stats.DCache.Reads+stats.DCache.Writes > 0 {
		_, _ = fmt.Fprintf(w, "\n")
		_, _ = fmt.Fprintf(w, "D-cache:\n")
		_, _ = fmt.Fprintf(w, "  Hit rate:   %.1f%%\n", stats.DCacheHitRate)
		_, _ = fmt.Fprintf(w, "  Evictions:  %d\n", stats.DCache.Evictions)
		_, _ = fmt.Fprintf(w, "  Writebacks: %d\n", stats.DCache.Writebacks)
	}
}
