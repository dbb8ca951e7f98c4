package ooo

// Statistics holds scheduler performance counters.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of committed instructions.
	Instructions uint64

	Fetched    uint64
	Dispatched uint64
	Issued     uint64

	// Squashed counts wrong-path instructions discarded after a
	// misprediction, whether or not they had dispatched.
	Squashed uint64
	// Flushes is the number of mispredicted branches resolved.
	Flushes uint64
	// Branches is the number of committed branches.
	Branches uint64

	// Wakeups counts operands resolved by a producer's writeback.
	Wakeups uint64

	// Dispatch stall cycles by cause.
	ROBFullStalls      uint64
	StationFullStalls  uint64
	RegisterFullStalls uint64

	// FetchStallCycles counts redirect bubbles after a misprediction.
	FetchStallCycles uint64

	// PeakTracked is the largest number of reservation stations held in the
	// dependency tracker at the end of a cycle.
	PeakTracked int
}

// CPI returns the cycles per instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// IPC returns the instructions per cycle.
func (s Statistics) IPC() float64 {
	if s.Cycles == 0 {
		return 0
	}
	return float64(s.Instructions) / float64(s.Cycles)
}
