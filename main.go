// Package main provides the entry point for O3Sim.
// O3Sim is a trace-driven out-of-order core model built on Akita.
//
// For the full CLI, use: go run ./cmd/o3sim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("O3Sim - Out-of-Order Core Simulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: o3sim [options] <trace>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config        Path to core configuration JSON file")
	fmt.Println("  -write-config  Write the effective configuration and exit")
	fmt.Println("  -policy        Retract policy (clear or keep)")
	fmt.Println("  -max-cycles    Stop after this many cycles")
	fmt.Println("  -dump          Dump the dependency tracker every N cycles")
	fmt.Println("  -v             Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/o3sim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/o3sim' instead.")
	}
}
