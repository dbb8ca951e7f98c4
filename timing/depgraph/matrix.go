package depgraph

// matrix counts, for every (physical register, slot) pair, how many of the
// slot's unresolved source operands wait on that register. Storage is a
// single register-major array.
type matrix struct {
	numRegs  int
	numSlots int
	counts   []int
}

func newMatrix(numRegs, numSlots int) matrix {
	return matrix{
		numRegs:  numRegs,
		numSlots: numSlots,
		counts:   make([]int, numRegs*numSlots),
	}
}

func (m *matrix) index(reg, slot int) int {
	return reg*m.numSlots + slot
}

func (m *matrix) row(reg int) []int {
	start := reg * m.numSlots
	return m.counts[start : start+m.numSlots]
}

func (m *matrix) count(reg, slot int) int {
	return m.counts[m.index(reg, slot)]
}

func (m *matrix) increment(reg, slot int) {
	m.counts[m.index(reg, slot)]++
}

// clear drops the whole count for the pair, however many operands remain.
func (m *matrix) clear(reg, slot int) {
	m.counts[m.index(reg, slot)] = 0
}

func (m *matrix) decrementIfNonZero(reg, slot int) bool {
	i := m.index(reg, slot)
	if m.counts[i] == 0 {
		return false
	}

	m.counts[i]--

	return true
}

func (m *matrix) anyNonZero(reg int) bool {
	for _, c := range m.row(reg) {
		if c != 0 {
			return true
		}
	}

	return false
}

// clearSlot zeroes the column of one slot across all registers.
func (m *matrix) clearSlot(slot int) {
	for reg := 0; reg < m.numRegs; reg++ {
		m.counts[m.index(reg, slot)] = 0
	}
}

func (m *matrix) zero() {
	clear(m.counts)
}
