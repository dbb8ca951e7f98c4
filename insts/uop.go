package insts

import (
	"fmt"
	"strings"
)

// Op represents a micro-op class.
type Op uint8

// Micro-op classes.
const (
	OpNop Op = iota
	OpALU
	OpMul
	OpDiv
	OpLoad
	OpStore
	OpBranch
)

var opNames = [...]string{
	OpNop:    "nop",
	OpALU:    "alu",
	OpMul:    "mul",
	OpDiv:    "div",
	OpLoad:   "load",
	OpStore:  "store",
	OpBranch: "branch",
}

// String returns the trace mnemonic of the op.
func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// ParseOp maps a trace mnemonic to an op.
func ParseOp(s string) (Op, bool) {
	for i, name := range opNames {
		if name == s {
			return Op(i), true
		}
	}
	return OpNop, false
}

const (
	// NumArchRegs is the number of architectural registers (x0-x31).
	NumArchRegs = 32

	// NoReg marks an absent destination register.
	NoReg uint8 = 0xFF

	// MaxSrcs is the maximum number of source operands of a micro-op.
	MaxSrcs = 3
)

// Instruction is a static micro-op read from a trace.
type Instruction struct {
	PC uint64
	Op Op

	// Dst is the architectural destination register, or NoReg.
	Dst uint8

	// Srcs are the architectural source registers. The same register may
	// appear more than once.
	Srcs []uint8

	// Addr is the effective address of a load or store.
	Addr uint64

	// Taken and Target give the resolved outcome of a branch.
	Taken  bool
	Target uint64
}

// HasDst returns true if the micro-op writes a register.
func (i *Instruction) HasDst() bool {
	return i.Dst != NoReg
}

// IsBranch returns true for branch micro-ops.
func (i *Instruction) IsBranch() bool {
	return i.Op == OpBranch
}

// IsMemory returns true for loads and stores.
func (i *Instruction) IsMemory() bool {
	return i.Op == OpLoad || i.Op == OpStore
}

// String formats the micro-op in trace syntax.
func (i *Instruction) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "0x%x %s ", i.PC, i.Op)
	if i.HasDst() {
		fmt.Fprintf(&sb, "x%d", i.Dst)
	} else {
		sb.WriteString("-")
	}

	for _, src := range i.Srcs {
		fmt.Fprintf(&sb, " x%d", src)
	}

	if i.IsMemory() {
		fmt.Fprintf(&sb, " @0x%x", i.Addr)
	}

	if i.IsBranch() {
		if i.Taken {
			sb.WriteString(" taken")
		} else {
			sb.WriteString(" nottaken")
		}
		if i.Target != 0 {
			fmt.Fprintf(&sb, " ->0x%x", i.Target)
		}
	}

	return sb.String()
}

// DynInst is one in-flight instance of a micro-op.
type DynInst struct {
	// SeqNum orders instructions by fetch; older instructions have smaller
	// numbers.
	SeqNum uint64

	// TraceIndex is the position of Inst in the trace. Fetch rewinds to
	// TraceIndex+1 after a mispredicted branch.
	TraceIndex int

	Inst *Instruction

	// Renamed registers. PrevPhysDst is the mapping PhysDst replaced, freed
	// when this instruction commits and restored if it is squashed.
	PhysDst     int
	PrevPhysDst int
	PhysSrcs    []int

	// Waiting lists the physical registers this instruction still waits on,
	// once per unresolved operand.
	Waiting []int

	// Pipeline state.
	Dispatched bool
	Issued     bool
	Completed  bool
	Squashed   bool

	// Mispredicted is set at fetch when the predictor disagreed with the
	// trace outcome.
	Mispredicted bool

	// Remaining execute cycles after issue.
	Remaining uint64
}

// NewDynInst wraps a trace entry fetched with the given sequence number.
func NewDynInst(seq uint64, index int, inst *Instruction) *DynInst {
	return &DynInst{
		SeqNum:      seq,
		TraceIndex:  index,
		Inst:        inst,
		PhysDst:     -1,
		PrevPhysDst: -1,
	}
}

// Ready returns true when no source operand is outstanding.
func (d *DynInst) Ready() bool {
	return len(d.Waiting) == 0
}

// Resolve drops one outstanding operand on reg. It returns false if the
// instruction was not waiting on reg.
func (d *DynInst) Resolve(reg int) bool {
	for i, r := range d.Waiting {
		if r == reg {
			d.Waiting = append(d.Waiting[:i], d.Waiting[i+1:]...)
			return true
		}
	}
	return false
}

// WaitingRegs returns each outstanding register once.
func (d *DynInst) WaitingRegs() []int {
	regs := make([]int, 0, len(d.Waiting))
	for _, r := range d.Waiting {
		seen := false
		for _, s := range regs {
			if s == r {
				seen = true
				break
			}
		}
		if !seen {
			regs = append(regs, r)
		}
	}
	return regs
}

// String identifies the instruction by sequence number and op.
func (d *DynInst) String() string {
	return fmt.Sprintf("[sn:%d] %s", d.SeqNum, d.Inst.Op)
}
