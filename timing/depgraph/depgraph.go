// Package depgraph tracks which in-flight instructions wait on which physical
// registers.
//
// A Graph models the reservation stations of an out-of-order scheduler. Each
// station slot holds at most one instruction, and a counter matrix indexed by
// (physical register, slot) records how many of that instruction's source
// operands still wait on the register. Dispatch calls Insert once per
// unresolved source operand, wakeup drains a completed register with Pop, and
// squash recovery releases instructions with Retract.
//
// All scans run in ascending slot order, so results are deterministic across
// runs. Contract violations (too many instructions for the configured
// stations, resolving a dependency of an untracked instruction) panic with an
// error wrapping ErrCapacity or ErrNotTracked.
package depgraph

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacity is raised when Insert needs a slot for a new instruction
	// and every reservation station is occupied.
	ErrCapacity = errors.New("depgraph: reservation stations exhausted")

	// ErrNotTracked is raised when Remove cannot find exactly one slot for
	// the instruction.
	ErrNotTracked = errors.New("depgraph: instruction not uniquely tracked")
)

// RetractPolicy decides what Retract does with the counters of the slot it
// frees.
type RetractPolicy string

const (
	// RetractClearSlot zeroes every counter of the retracted slot, so a later
	// occupant of the slot never inherits stale dependencies.
	RetractClearSlot RetractPolicy = "clear"

	// RetractKeepCounters only vacates the slot. Callers must Remove every
	// outstanding dependency of the instruction before retracting it.
	RetractKeepCounters RetractPolicy = "keep"
)

// Valid reports whether p names a known policy.
func (p RetractPolicy) Valid() bool {
	return p == RetractClearSlot || p == RetractKeepCounters
}

// Stats holds debug counters. They have no effect on behavior.
type Stats struct {
	// NodesTraversed counts slots examined by Insert, Pop, Remove and
	// Retract. Read-only queries are not counted.
	NodesTraversed uint64
	// NodesRemoved counts dependencies resolved by Pop or cleared by Remove.
	NodesRemoved uint64
}

// Option configures a Graph.
type Option func(*options)

type options struct {
	retractPolicy RetractPolicy
}

// WithRetractPolicy selects how Retract treats the freed slot's counters.
func WithRetractPolicy(p RetractPolicy) Option {
	return func(o *options) {
		o.retractPolicy = p
	}
}

// Graph is the register dependency tracker. T is the instruction handle; its
// zero value means "no instruction" and handles compare with ==.
type Graph[T comparable] struct {
	slots  slotTable[T]
	counts matrix

	numPhysRegs            int
	numReservationStations int

	retractPolicy RetractPolicy
	stats         Stats
}

// New creates a Graph sized for numPhysRegs registers and
// numReservationStations slots.
func New[T comparable](
	numPhysRegs, numReservationStations int,
	opts ...Option,
) *Graph[T] {
	o := options{retractPolicy: RetractClearSlot}
	for _, opt := range opts {
		opt(&o)
	}

	if !o.retractPolicy.Valid() {
		panic(fmt.Sprintf("depgraph: unknown retract policy %q", o.retractPolicy))
	}

	g := &Graph[T]{retractPolicy: o.retractPolicy}
	g.Resize(numPhysRegs, numReservationStations)

	return g
}

// Resize reconfigures the capacity and clears all state. It must only be
// called before the graph is used for a run.
func (g *Graph[T]) Resize(numPhysRegs, numReservationStations int) {
	if numPhysRegs < 0 || numReservationStations < 0 {
		panic(fmt.Sprintf("depgraph: negative size %d x %d",
			numPhysRegs, numReservationStations))
	}

	g.numPhysRegs = numPhysRegs
	g.numReservationStations = numReservationStations
	g.slots = newSlotTable[T](numReservationStations)
	g.counts = newMatrix(numPhysRegs, numReservationStations)
	g.stats = Stats{}
}

// Reset clears every dependency and frees every slot, keeping the size.
func (g *Graph[T]) Reset() {
	g.slots.clear()
	g.counts.zero()
	g.stats = Stats{}
}

// NumPhysRegs returns the number of registers the graph tracks.
func (g *Graph[T]) NumPhysRegs() int {
	return g.numPhysRegs
}

// NumReservationStations returns the slot capacity.
func (g *Graph[T]) NumReservationStations() int {
	return g.numReservationStations
}

// RetractPolicy returns the configured retract policy.
func (g *Graph[T]) RetractPolicy() RetractPolicy {
	return g.retractPolicy
}

// Stats returns the debug counters.
func (g *Graph[T]) Stats() Stats {
	return g.stats
}

// Insert records that inst has one more unresolved source operand waiting on
// reg. An instruction that is already tracked keeps its slot; a new one takes
// the lowest free slot.
func (g *Graph[T]) Insert(reg int, inst T) {
	var empty T
	if inst == empty {
		panic(fmt.Errorf("%w: empty handle for register %d", ErrNotTracked, reg))
	}

	slot, count := g.slots.find(inst, &g.stats.NodesTraversed)
	if count > 1 {
		panic(fmt.Errorf("%w: %v occupies %d slots", ErrNotTracked, inst, count))
	}

	if slot == -1 {
		var ok bool
		slot, ok = g.slots.findFree(&g.stats.NodesTraversed)
		if !ok {
			panic(fmt.Errorf(
				"%w: inserting dependency on register %d, all %d stations occupied",
				ErrCapacity, reg, g.numReservationStations))
		}
	}

	g.slots.occupy(slot, inst)
	g.counts.increment(reg, slot)
}

// SetInst would record the producer of reg. Producer tracking belongs to the
// rename scoreboard, so this does nothing.
func (g *Graph[T]) SetInst(reg int, inst T) {}

// ClearInst would forget the producer of reg. It does nothing; see SetInst.
func (g *Graph[T]) ClearInst(reg int) {}

// Pop resolves one dependency on reg and returns the waiting instruction.
// Among several waiters the one in the lowest slot wins; this is not program
// order. It returns the zero handle and false when nothing waits on reg.
func (g *Graph[T]) Pop(reg int) (T, bool) {
	for slot := 0; slot < g.numReservationStations; slot++ {
		g.stats.NodesTraversed++
		if g.counts.decrementIfNonZero(reg, slot) {
			g.stats.NodesRemoved++
			return g.slots.at(slot), true
		}
	}

	var empty T

	return empty, false
}

// Remove declares the dependency of inst on reg fully resolved, dropping any
// remaining multiplicity. inst must occupy exactly one slot.
func (g *Graph[T]) Remove(reg int, inst T) {
	var empty T
	if inst == empty {
		panic(fmt.Errorf("%w: empty handle for register %d", ErrNotTracked, reg))
	}

	slot, count := g.slots.find(inst, &g.stats.NodesTraversed)
	if count != 1 {
		panic(fmt.Errorf("%w: %v matched %d slots removing register %d",
			ErrNotTracked, inst, count, reg))
	}

	if g.counts.count(reg, slot) != 0 {
		g.stats.NodesRemoved++
	}

	g.counts.clear(reg, slot)
}

// Retract releases the slot of inst. Retracting an instruction that is not
// tracked is a no-op, since squash may race with normal resolution.
func (g *Graph[T]) Retract(inst T) {
	var empty T
	if inst == empty {
		return
	}

	slot, count := g.slots.find(inst, &g.stats.NodesTraversed)
	if count == 0 {
		return
	}

	if count > 1 {
		panic(fmt.Errorf("%w: %v occupies %d slots", ErrNotTracked, inst, count))
	}

	g.slots.vacate(slot)

	if g.retractPolicy == RetractClearSlot {
		g.counts.clearSlot(slot)
	}
}

// Tracked reports whether inst currently occupies a slot. It leaves the
// debug counters alone.
func (g *Graph[T]) Tracked(inst T) bool {
	var empty T
	if inst == empty {
		return false
	}

	var scanned uint64
	_, count := g.slots.find(inst, &scanned)

	return count > 0
}

// Occupied returns the number of slots holding an instruction.
func (g *Graph[T]) Occupied() int {
	var empty T

	n := 0
	for i := 0; i < g.slots.len(); i++ {
		if g.slots.at(i) != empty {
			n++
		}
	}

	return n
}

// Pending returns how many dependencies of inst on reg are unresolved.
func (g *Graph[T]) Pending(reg int, inst T) int {
	var empty T
	if inst == empty {
		return 0
	}

	var scanned uint64
	slot, count := g.slots.find(inst, &scanned)
	if count == 0 {
		return 0
	}

	return g.counts.count(reg, slot)
}

// EmptyReg reports whether nothing waits on reg.
func (g *Graph[T]) EmptyReg(reg int) bool {
	return !g.counts.anyNonZero(reg)
}

// Empty reports whether no dependency is outstanding on any register.
func (g *Graph[T]) Empty() bool {
	for reg := 0; reg < g.numPhysRegs; reg++ {
		if !g.EmptyReg(reg) {
			return false
		}
	}

	return true
}
