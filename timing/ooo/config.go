package ooo

import (
	"fmt"

	"github.com/sarchlab/o3sim/insts"
	"github.com/sarchlab/o3sim/timing/depgraph"
)

// Config sizes the out-of-order window.
type Config struct {
	// FetchWidth is the number of trace entries fetched per cycle.
	FetchWidth int `json:"fetch_width"`
	// DispatchWidth is the number of instructions renamed and dispatched per
	// cycle.
	DispatchWidth int `json:"dispatch_width"`
	// IssueWidth is the number of ready instructions issued per cycle.
	IssueWidth int `json:"issue_width"`
	// CommitWidth is the number of instructions retired per cycle.
	CommitWidth int `json:"commit_width"`

	// FetchQueueSize bounds fetched but not yet dispatched instructions.
	FetchQueueSize int `json:"fetch_queue_size"`
	// ROBSize bounds dispatched but not yet committed instructions.
	ROBSize int `json:"rob_size"`

	// NumPhysRegs is the number of physical registers. It must exceed the
	// number of architectural registers.
	NumPhysRegs int `json:"num_phys_regs"`
	// NumReservationStations bounds dispatched but not yet issued
	// instructions.
	NumReservationStations int `json:"num_reservation_stations"`

	// RetractPolicy selects how squashed instructions leave the dependency
	// tracker: "clear" or "keep".
	RetractPolicy depgraph.RetractPolicy `json:"retract_policy"`

	Predictor PredictorConfig `json:"predictor"`
}

// DefaultConfig returns a 4-wide window with 32 reservation stations.
func DefaultConfig() Config {
	return Config{
		FetchWidth:             4,
		DispatchWidth:          4,
		IssueWidth:             4,
		CommitWidth:            4,
		FetchQueueSize:         16,
		ROBSize:                64,
		NumPhysRegs:            96,
		NumReservationStations: 32,
		RetractPolicy:          depgraph.RetractClearSlot,
		Predictor:              DefaultPredictorConfig(),
	}
}

// Validate checks widths, capacities and the retract policy.
func (c Config) Validate() error {
	if c.FetchWidth <= 0 || c.DispatchWidth <= 0 ||
		c.IssueWidth <= 0 || c.CommitWidth <= 0 {
		return fmt.Errorf("fetch, dispatch, issue and commit widths must be > 0")
	}
	if c.FetchQueueSize < c.FetchWidth {
		return fmt.Errorf("fetch_queue_size must be >= fetch_width")
	}
	if c.ROBSize <= 0 {
		return fmt.Errorf("rob_size must be > 0")
	}
	if c.NumPhysRegs <= insts.NumArchRegs {
		return fmt.Errorf("num_phys_regs must be > %d", insts.NumArchRegs)
	}
	if c.NumReservationStations <= 0 {
		return fmt.Errorf("num_reservation_stations must be > 0")
	}
	if !c.RetractPolicy.Valid() {
		return fmt.Errorf("retract_policy must be %q or %q, got %q",
			depgraph.RetractClearSlot, depgraph.RetractKeepCounters, c.RetractPolicy)
	}
	return c.Predictor.Validate()
}
