// Package rename maps architectural registers onto physical registers and
// tracks which physical registers hold a produced value.
package rename

import (
	"errors"
	"fmt"

	"github.com/sarchlab/o3sim/insts"
)

// ErrNoFreeReg is returned by Rename when every physical register is in use.
// Dispatch treats it as a stall, not a failure.
var ErrNoFreeReg = errors.New("rename: no free physical register")

// Table is a register alias table with a free list and a ready scoreboard.
type Table struct {
	numArchRegs int
	numPhysRegs int

	mapping  []int
	freeList []int
	ready    []bool
}

// NewTable creates a rename table. Architectural register i starts mapped to
// physical register i, holding a ready value.
func NewTable(numArchRegs, numPhysRegs int) *Table {
	if numPhysRegs <= numArchRegs {
		panic(fmt.Sprintf("rename: %d physical registers cannot back %d architectural registers",
			numPhysRegs, numArchRegs))
	}

	t := &Table{
		numArchRegs: numArchRegs,
		numPhysRegs: numPhysRegs,
		mapping:     make([]int, numArchRegs),
		ready:       make([]bool, numPhysRegs),
	}
	t.Reset()

	return t
}

// Reset restores the identity mapping and frees every other register.
func (t *Table) Reset() {
	for i := range t.mapping {
		t.mapping[i] = i
	}

	t.freeList = t.freeList[:0]
	for p := t.numArchRegs; p < t.numPhysRegs; p++ {
		t.freeList = append(t.freeList, p)
	}

	for p := range t.ready {
		t.ready[p] = p < t.numArchRegs
	}
}

// NumPhysRegs returns the number of physical registers.
func (t *Table) NumPhysRegs() int {
	return t.numPhysRegs
}

// FreeCount returns the number of unallocated physical registers.
func (t *Table) FreeCount() int {
	return len(t.freeList)
}

// Lookup returns the physical register currently mapped to arch.
func (t *Table) Lookup(arch uint8) int {
	return t.mapping[arch]
}

// IsReady returns true if phys holds a produced value.
func (t *Table) IsReady(phys int) bool {
	return t.ready[phys]
}

// MarkReady records that phys has been produced.
func (t *Table) MarkReady(phys int) {
	t.ready[phys] = true
}

// Rename maps the sources of d and allocates its destination. Sources are
// read before the destination is remapped, so an instruction reading and
// writing the same register sees the older value.
func (t *Table) Rename(d *insts.DynInst) error {
	inst := d.Inst
	if inst.HasDst() && len(t.freeList) == 0 {
		return ErrNoFreeReg
	}

	d.PhysSrcs = d.PhysSrcs[:0]
	for _, src := range inst.Srcs {
		d.PhysSrcs = append(d.PhysSrcs, t.mapping[src])
	}

	if !inst.HasDst() {
		return nil
	}

	phys := t.freeList[0]
	t.freeList = t.freeList[1:]

	d.PrevPhysDst = t.mapping[inst.Dst]
	d.PhysDst = phys
	t.mapping[inst.Dst] = phys
	t.ready[phys] = false

	return nil
}

// Commit frees the mapping that d's destination replaced.
func (t *Table) Commit(d *insts.DynInst) {
	if d.PrevPhysDst >= 0 {
		t.free(d.PrevPhysDst)
	}
}

// Rollback undoes the rename of a squashed instruction. Squashed
// instructions must be rolled back youngest first.
func (t *Table) Rollback(d *insts.DynInst) {
	if d.PhysDst < 0 {
		return
	}

	t.mapping[d.Inst.Dst] = d.PrevPhysDst
	t.free(d.PhysDst)
}

func (t *Table) free(phys int) {
	t.ready[phys] = false
	t.freeList = append(t.freeList, phys)
}
