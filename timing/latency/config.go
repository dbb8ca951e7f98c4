package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds nominal latency values for each micro-op class.
type TimingConfig struct {
	// ALULatency is the execution latency for simple integer operations.
	// Default: 1 cycle.
	ALULatency uint64 `json:"alu_latency"`

	// MultiplyLatency is the latency for integer multiply operations.
	// Default: 3 cycles.
	MultiplyLatency uint64 `json:"multiply_latency"`

	// DivideLatency is the latency for integer divide operations.
	// Default: 12 cycles.
	DivideLatency uint64 `json:"divide_latency"`

	// BranchLatency is the execution latency for branch resolution.
	// Default: 1 cycle.
	BranchLatency uint64 `json:"branch_latency"`

	// BranchMispredictPenalty is the number of cycles fetch stays idle after
	// a mispredicted branch resolves. Default: 12 cycles.
	BranchMispredictPenalty uint64 `json:"branch_mispredict_penalty"`

	// LoadLatency is the load latency used when no data cache is modeled.
	// Default: 4 cycles.
	LoadLatency uint64 `json:"load_latency"`

	// StoreLatency is the latency for stores (handed to the store buffer).
	// Default: 1 cycle.
	StoreLatency uint64 `json:"store_latency"`

	// NopLatency is the latency for micro-ops that do no work.
	// Default: 1 cycle.
	NopLatency uint64 `json:"nop_latency"`
}

// DefaultTimingConfig returns a TimingConfig with default values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		ALULatency:              1,
		MultiplyLatency:         3,
		DivideLatency:           12,
		BranchLatency:           1,
		BranchMispredictPenalty: 12,
		LoadLatency:             4,
		StoreLatency:            1,
		NopLatency:              1,
	}
}

// LoadConfig loads a TimingConfig from a JSON file.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that all execution latencies are > 0.
func (c *TimingConfig) Validate() error {
	if c.ALULatency == 0 {
		return fmt.Errorf("alu_latency must be > 0")
	}
	if c.MultiplyLatency == 0 {
		return fmt.Errorf("multiply_latency must be > 0")
	}
	if c.DivideLatency == 0 {
		return fmt.Errorf("divide_latency must be > 0")
	}
	if c.BranchLatency == 0 {
		return fmt.Errorf("branch_latency must be > 0")
	}
	if c.LoadLatency == 0 {
		return fmt.Errorf("load_latency must be > 0")
	}
	if c.StoreLatency == 0 {
		return fmt.Errorf("store_latency must be > 0")
	}
	if c.NopLatency == 0 {
		return fmt.Errorf("nop_latency must be > 0")
	}
	return nil
}

// Clone returns a copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}
