package depgraph

import (
	"fmt"
	"io"
)

// Dump writes the occupied slots and the registers each one waits on. The
// format is meant for people and may change.
func (g *Graph[T]) Dump(w io.Writer) {
	var empty T

	_, _ = fmt.Fprintf(w, "depgraph: %d regs, %d stations, %d occupied, retract=%s\n",
		g.numPhysRegs, g.numReservationStations, g.Occupied(), g.retractPolicy)

	for slot := 0; slot < g.numReservationStations; slot++ {
		inst := g.slots.at(slot)
		waits := g.waitsOf(slot)

		if inst == empty && len(waits) == 0 {
			continue
		}

		if inst == empty {
			_, _ = fmt.Fprintf(w, "  slot[%d]: <free>", slot)
		} else {
			_, _ = fmt.Fprintf(w, "  slot[%d]: %v", slot, inst)
		}

		for _, wait := range waits {
			_, _ = fmt.Fprintf(w, " p%d", wait.reg)
			if wait.count > 1 {
				_, _ = fmt.Fprintf(w, "x%d", wait.count)
			}
		}

		_, _ = fmt.Fprintln(w)
	}

	_, _ = fmt.Fprintf(w, "  traversed=%d removed=%d\n",
		g.stats.NodesTraversed, g.stats.NodesRemoved)
}

type regWait struct {
	reg   int
	count int
}

func (g *Graph[T]) waitsOf(slot int) []regWait {
	var waits []regWait

	for reg := 0; reg < g.numPhysRegs; reg++ {
		if c := g.counts.count(reg, slot); c != 0 {
			waits = append(waits, regWait{reg: reg, count: c})
		}
	}

	return waits
}
