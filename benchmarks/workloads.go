// Package benchmarks provides synthetic trace workloads and a harness that
// runs them through the out-of-order core.
package benchmarks

import (
	"math/rand/v2"

	"github.com/sarchlab/o3sim/insts"
)

// Benchmark is a named trace.
type Benchmark struct {
	Name        string
	Description string
	Trace       []insts.Instruction
}

// DefaultLength is the number of micro-ops in each standard workload.
const DefaultLength = 2000

// GetMicrobenchmarks returns the standard workloads. Each one stresses a
// different part of the window.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		IndependentALU(DefaultLength),
		DependencyChain(DefaultLength),
		DuplicateOperands(DefaultLength),
		LoadUse(DefaultLength),
		BranchHeavy(DefaultLength),
		Mixed(DefaultLength, 1),
	}
}

// traceBuilder appends micro-ops at consecutive PCs.
type traceBuilder struct {
	pc    uint64
	trace []insts.Instruction
}

func (b *traceBuilder) add(inst insts.Instruction) {
	if inst.PC == 0 {
		inst.PC = b.pc
	}
	b.pc = inst.PC + 4
	b.trace = append(b.trace, inst)
}

func (b *traceBuilder) op(op insts.Op, dst uint8, srcs ...uint8) {
	b.add(insts.Instruction{Op: op, Dst: dst, Srcs: srcs})
}

func (b *traceBuilder) full(n int) bool {
	return len(b.trace) >= n
}

func (b *traceBuilder) build(n int) []insts.Instruction {
	return b.trace[:min(n, len(b.trace))]
}

// IndependentALU measures ALU throughput with no dependencies.
func IndependentALU(n int) Benchmark {
	b := &traceBuilder{pc: 0x1000}
	for i := 0; !b.full(n); i++ {
		dst := uint8(1 + i%16)
		b.op(insts.OpALU, dst, dst+8)
	}

	return Benchmark{
		Name:        "independent_alu",
		Description: "ALU ops writing distinct registers - measures issue width",
		Trace:       b.build(n),
	}
}

// DependencyChain serializes every op on the previous result.
func DependencyChain(n int) Benchmark {
	b := &traceBuilder{pc: 0x1000}
	for i := 0; !b.full(n); i++ {
		if i%4 == 3 {
			b.op(insts.OpMul, 1, 1)
		} else {
			b.op(insts.OpALU, 1, 1)
		}
	}

	return Benchmark{
		Name:        "dependency_chain",
		Description: "Each op reads the previous result - measures wakeup latency",
		Trace:       b.build(n),
	}
}

// DuplicateOperands reads the same in-flight register through several
// operands of one op.
func DuplicateOperands(n int) Benchmark {
	b := &traceBuilder{pc: 0x1000}
	for !b.full(n) {
		b.op(insts.OpMul, 1, 1, 2)
		b.op(insts.OpALU, 3, 1, 1, 1)
		b.op(insts.OpALU, 4, 3, 3)
		b.op(insts.OpALU, 5, 4, 1)
	}

	return Benchmark{
		Name:        "duplicate_operands",
		Description: "Consumers naming one producer in several operands - measures multi-count wakeup",
		Trace:       b.build(n),
	}
}

// LoadUse streams through memory with each load feeding an accumulator.
func LoadUse(n int) Benchmark {
	b := &traceBuilder{pc: 0x1000}
	for i := 0; !b.full(n); i++ {
		dst := uint8(1 + i%8)
		b.add(insts.Instruction{
			Op:   insts.OpLoad,
			Dst:  dst,
			Srcs: []uint8{20},
			Addr: 0x10000 + uint64(i)*8,
		})
		b.op(insts.OpALU, 10, 10, dst)
	}

	return Benchmark{
		Name:        "load_use",
		Description: "Sequential loads each consumed by an add - measures cache-friendly load latency",
		Trace:       b.build(n),
	}
}

// BranchHeavy runs a short inner loop whose exit branch mispredicts.
func BranchHeavy(n int) Benchmark {
	const (
		loopPC     = 0x1000
		tripCount  = 4
		exitTarget = 0x2000
	)

	b := &traceBuilder{pc: loopPC}
	for !b.full(n) {
		for trip := 1; trip <= tripCount; trip++ {
			b.add(insts.Instruction{PC: loopPC, Op: insts.OpALU, Dst: 1, Srcs: []uint8{1}})
			b.op(insts.OpALU, 2, 1, 3)
			b.add(insts.Instruction{
				Op:     insts.OpBranch,
				Dst:    insts.NoReg,
				Srcs:   []uint8{2},
				Taken:  trip < tripCount,
				Target: loopPC,
			})
		}
		b.add(insts.Instruction{PC: exitTarget, Op: insts.OpALU, Dst: 3, Srcs: []uint8{3}})
	}

	return Benchmark{
		Name:        "branch_heavy",
		Description: "4-trip loop with a data-dependent exit - measures squash and recovery",
		Trace:       b.build(n),
	}
}

// Mixed draws a reproducible random mix of every op class.
func Mixed(n int, seed uint64) Benchmark {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	reg := func() uint8 { return uint8(1 + rng.IntN(15)) }

	b := &traceBuilder{pc: 0x1000}
	for !b.full(n) {
		switch r := rng.IntN(100); {
		case r < 45:
			b.op(insts.OpALU, reg(), reg(), reg())
		case r < 55:
			b.op(insts.OpMul, reg(), reg(), reg())
		case r < 58:
			b.op(insts.OpDiv, reg(), reg(), reg())
		case r < 75:
			b.add(insts.Instruction{
				Op:   insts.OpLoad,
				Dst:  reg(),
				Srcs: []uint8{reg()},
				Addr: 0x10000 + uint64(rng.IntN(4096))*8,
			})
		case r < 85:
			b.add(insts.Instruction{
				Op:   insts.OpStore,
				Dst:  insts.NoReg,
				Srcs: []uint8{reg(), reg()},
				Addr: 0x10000 + uint64(rng.IntN(4096))*8,
			})
		default:
			b.add(insts.Instruction{
				PC:     0x1000 + uint64(rng.IntN(16))*0x40,
				Op:     insts.OpBranch,
				Dst:    insts.NoReg,
				Srcs:   []uint8{reg()},
				Taken:  rng.IntN(10) < 8,
				Target: 0x1000,
			})
		}
	}

	return Benchmark{
		Name:        "mixed",
		Description: "Random mix of ALU, multiply, divide, memory and branch ops",
		Trace:       b.build(n),
	}
}
