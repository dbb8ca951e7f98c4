// Package latency provides nominal execution latencies for micro-ops.
//
// The values are configurable through TimingConfig and make no claim about
// any real microarchitecture.
package latency

import (
	"github.com/sarchlab/o3sim/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// GetLatency returns the execution latency in cycles for the given micro-op.
// Loads return LoadLatency; callers that model a data cache replace it with
// the cache access latency.
func (t *Table) GetLatency(inst *insts.Instruction) uint64 {
	if inst == nil {
		return 1
	}

	switch inst.Op {
	case insts.OpALU:
		return t.config.ALULatency
	case insts.OpMul:
		return t.config.MultiplyLatency
	case insts.OpDiv:
		return t.config.DivideLatency
	case insts.OpBranch:
		return t.config.BranchLatency
	case insts.OpLoad:
		return t.config.LoadLatency
	case insts.OpStore:
		return t.config.StoreLatency
	case insts.OpNop:
		return t.config.NopLatency
	default:
		return 1
	}
}

// MispredictPenalty returns the fetch bubble after a mispredicted branch.
func (t *Table) MispredictPenalty() uint64 {
	return t.config.BranchMispredictPenalty
}

// IsMemoryOp returns true if the instruction accesses memory.
func (t *Table) IsMemoryOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.IsMemory()
}

// IsLoadOp returns true if the instruction is a load operation.
func (t *Table) IsLoadOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.Op == insts.OpLoad
}

// IsStoreOp returns true if the instruction is a store operation.
func (t *Table) IsStoreOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.Op == insts.OpStore
}

// IsBranchOp returns true if the instruction is a branch operation.
func (t *Table) IsBranchOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.IsBranch()
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
