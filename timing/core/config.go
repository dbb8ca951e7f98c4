package core

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/o3sim/timing/cache"
	"github.com/sarchlab/o3sim/timing/latency"
	"github.com/sarchlab/o3sim/timing/ooo"
)

// Config gathers everything needed to build a core.
type Config struct {
	// Window sizes the out-of-order window.
	Window ooo.Config `json:"window"`

	// Latency holds execution latencies per op class.
	Latency *latency.TimingConfig `json:"latency"`

	// DCache times loads and stores when set. When nil, memory ops use
	// load_latency and store_latency.
	DCache *cache.Config `json:"dcache,omitempty"`

	// FrequencyGHz is the core clock.
	FrequencyGHz float64 `json:"frequency_ghz"`

	// MaxCycles stops the simulation early. 0 means no limit.
	MaxCycles uint64 `json:"max_cycles"`
}

// DefaultConfig returns the default core: a 4-wide window at 3.5 GHz with an
// L1 data cache.
func DefaultConfig() *Config {
	dcache := cache.DefaultL1DConfig()

	return &Config{
		Window:       ooo.DefaultConfig(),
		Latency:      latency.DefaultTimingConfig(),
		DCache:       &dcache,
		FrequencyGHz: 3.5,
	}
}

// LoadConfig loads a Config from a JSON file. Fields absent from the file
// keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read core config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse core config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize core config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write core config file: %w", err)
	}

	return nil
}

// Validate checks every part of the configuration.
func (c *Config) Validate() error {
	if err := c.Window.Validate(); err != nil {
		return fmt.Errorf("window: %w", err)
	}

	if c.Latency == nil {
		return fmt.Errorf("latency: missing")
	}
	if err := c.Latency.Validate(); err != nil {
		return fmt.Errorf("latency: %w", err)
	}

	if c.DCache != nil {
		if err := c.DCache.Validate(); err != nil {
			return fmt.Errorf("dcache: %w", err)
		}
	}

	if c.FrequencyGHz <= 0 {
		return fmt.Errorf("frequency_ghz must be > 0")
	}

	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c

	if c.Latency != nil {
		clone.Latency = c.Latency.Clone()
	}
	if c.DCache != nil {
		dcache := *c.DCache
		clone.DCache = &dcache
	}

	return &clone
}
