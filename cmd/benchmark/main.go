// Command benchmark runs the synthetic workloads through the out-of-order
// core and reports timing and dependency tracker statistics.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv        Output results in CSV format (default: human-readable)
//	-json       Output results in JSON format
//	-config     Path to core configuration JSON file
//	-policy     Retract policy for the dependency tracker (clear or keep)
//	-length     Micro-ops per workload
//	-no-dcache  Use fixed load and store latencies
//
// Example:
//
//	# Compare retract policies
//	go run ./cmd/benchmark -csv -policy clear > clear.csv
//	go run ./cmd/benchmark -csv -policy keep > keep.csv
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/o3sim/benchmarks"
	"github.com/sarchlab/o3sim/timing/core"
	"github.com/sarchlab/o3sim/timing/depgraph"
)

func main() {
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output results in JSON format")
	configPath := flag.String("config", "", "Path to core configuration JSON file")
	policy := flag.String("policy", "", "Retract policy (clear or keep)")
	length := flag.Int("length", benchmarks.DefaultLength, "Micro-ops per workload")
	noDCache := flag.Bool("no-dcache", false, "Disable data cache simulation")
	flag.Parse()

	config := benchmarks.DefaultConfig()
	if *configPath != "" {
		coreConfig, err := core.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		config.Core = coreConfig
	}
	if *policy != "" {
		config.Core.Window.RetractPolicy = depgraph.RetractPolicy(*policy)
	}
	if *noDCache {
		config.Core.DCache = nil
	}
	if err := config.Core.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	harness := benchmarks.NewHarness(config)
	harness.AddBenchmarks([]benchmarks.Benchmark{
		benchmarks.IndependentALU(*length),
		benchmarks.DependencyChain(*length),
		benchmarks.DuplicateOperands(*length),
		benchmarks.LoadUse(*length),
		benchmarks.BranchHeavy(*length),
		benchmarks.Mixed(*length, 1),
	})

	results := harness.RunAll()

	switch {
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
			os.Exit(1)
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)

		summary := benchmarks.Summarize(results)
		fmt.Println("=== Summary ===")
		fmt.Printf("Benchmarks: %d (%d failed)\n", summary.TotalBenchmarks, summary.Failed)
		fmt.Printf("Average CPI: %.3f\n", summary.AverageCPI)
	}

	if benchmarks.Summarize(results).Failed > 0 {
		os.Exit(1)
	}
}
