// Package cache provides a tag-only L1 data cache model using Akita cache
// components. It decides hit or miss latency for loads and stores; data
// values are not modeled.
package cache

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes
	Size int `json:"size"`
	// Associativity (number of ways)
	Associativity int `json:"associativity"`
	// BlockSize in bytes (cache line size)
	BlockSize int `json:"block_size"`
	// HitLatency in cycles
	HitLatency uint64 `json:"hit_latency"`
	// MissLatency in cycles (includes the next-level access)
	MissLatency uint64 `json:"miss_latency"`
}

// DefaultL1DConfig returns the default L1 data cache configuration:
// 64KB, 8-way, 64B lines.
func DefaultL1DConfig() Config {
	return Config{
		Size:          64 * 1024,
		Associativity: 8,
		BlockSize:     64,
		HitLatency:    3,
		MissLatency:   14,
	}
}

// Validate checks that the geometry describes at least one full set.
func (c Config) Validate() error {
	if c.BlockSize <= 0 || c.BlockSize&(c.BlockSize-1) != 0 {
		return fmt.Errorf("block_size must be a power of two, got %d", c.BlockSize)
	}
	if c.Associativity <= 0 {
		return fmt.Errorf("associativity must be > 0")
	}
	if c.Size <= 0 || c.Size%(c.Associativity*c.BlockSize) != 0 {
		return fmt.Errorf("size %d is not a multiple of associativity*block_size", c.Size)
	}
	if c.HitLatency == 0 {
		return fmt.Errorf("hit_latency must be > 0")
	}
	if c.MissLatency < c.HitLatency {
		return fmt.Errorf("miss_latency must be >= hit_latency")
	}
	return nil
}

// AccessResult contains the result of a cache access.
type AccessResult struct {
	// Hit indicates whether the access was a cache hit.
	Hit bool
	// Latency is the number of cycles this access takes.
	Latency uint64
	// Evicted is true if a valid block was replaced.
	Evicted bool
}

// StoreForwardLatency is the extra latency (in cycles) when a load reads an
// address written by the most recent store and must be forwarded from the
// store buffer.
const StoreForwardLatency uint64 = 1

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads      uint64
	Writes     uint64
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64
}

// HitRate returns the fraction of accesses that hit, in percent.
func (s Statistics) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Cache is a write-allocate, write-back L1 cache with LRU replacement.
type Cache struct {
	config Config

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	stats Statistics

	recentStoreAddr  uint64
	recentStoreValid bool
}

// New creates a new cache with the given configuration.
func New(config Config) *Cache {
	numSets := config.Size / (config.Associativity * config.BlockSize)

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
	}
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

func (c *Cache) blockAddr(addr uint64) uint64 {
	return (addr / uint64(c.config.BlockSize)) * uint64(c.config.BlockSize)
}

// Access performs a load (isWrite false) or store (isWrite true) and returns
// its latency.
func (c *Cache) Access(addr uint64, isWrite bool) AccessResult {
	if isWrite {
		c.stats.Writes++
	} else {
		c.stats.Reads++
	}

	blockAddr := c.blockAddr(addr)
	block := c.directory.Lookup(0, blockAddr)

	var result AccessResult
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		result = AccessResult{Hit: true, Latency: c.config.HitLatency}
	} else {
		c.stats.Misses++
		result = c.handleMiss(blockAddr)
		block = c.directory.Lookup(0, blockAddr)
	}

	if isWrite {
		if block != nil {
			block.IsDirty = true
		}
		c.recentStoreAddr = addr
		c.recentStoreValid = true
	} else if c.recentStoreValid && c.recentStoreAddr == addr {
		result.Latency += StoreForwardLatency
		c.recentStoreValid = false
	}

	return result
}

// handleMiss allocates a block for blockAddr, evicting the LRU way.
func (c *Cache) handleMiss(blockAddr uint64) AccessResult {
	result := AccessResult{
		Hit:     false,
		Latency: c.config.MissLatency,
	}

	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return result
	}

	if victim.IsValid {
		c.stats.Evictions++
		result.Evicted = true

		if victim.IsDirty {
			c.stats.Writebacks++
		}
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)

	return result
}

// Reset invalidates all cache lines without writeback.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
	c.recentStoreValid = false
	c.recentStoreAddr = 0
}
