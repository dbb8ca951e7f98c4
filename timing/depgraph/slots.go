package depgraph

// slotTable holds the instruction occupying each reservation-station slot.
// The zero value of T marks a free slot.
type slotTable[T comparable] struct {
	insts []T
}

func newSlotTable[T comparable](numSlots int) slotTable[T] {
	return slotTable[T]{insts: make([]T, numSlots)}
}

func (t *slotTable[T]) len() int {
	return len(t.insts)
}

// find returns the first slot holding inst and the total number of slots
// that hold it. Callers treat a count above one as corrupted state.
func (t *slotTable[T]) find(inst T, traversed *uint64) (slot int, count int) {
	slot = -1
	for i, cur := range t.insts {
		*traversed++
		if cur == inst {
			if slot == -1 {
				slot = i
			}
			count++
		}
	}

	return slot, count
}

// findFree returns the lowest-indexed empty slot.
func (t *slotTable[T]) findFree(traversed *uint64) (int, bool) {
	var empty T
	for i, cur := range t.insts {
		*traversed++
		if cur == empty {
			return i, true
		}
	}

	return -1, false
}

func (t *slotTable[T]) at(slot int) T {
	return t.insts[slot]
}

func (t *slotTable[T]) occupy(slot int, inst T) {
	t.insts[slot] = inst
}

func (t *slotTable[T]) vacate(slot int) {
	var empty T
	t.insts[slot] = empty
}

func (t *slotTable[T]) clear() {
	clear(t.insts)
}
