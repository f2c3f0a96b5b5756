// Package cache provides memoization for planning results.
// Policy iteration is deterministic for a given map and config, so repeated
// episodes on the same cave can reuse the solved policy instead of
// re-running the planner.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/cavecrawl/go-cavecrawl/mdp"
	"github.com/cavecrawl/go-cavecrawl/policy"
)

// PolicyCache caches planning results keyed by map text and config.
type PolicyCache struct {
	mu        sync.RWMutex
	cache     map[string]*policy.Result
	maxSize   int
	hits      int64
	misses    int64
	evictions int64
}

// NewPolicyCache creates a cache with the specified maximum size.
// When the cache is full, oldest entries are evicted (FIFO).
// Set maxSize to 0 for unlimited cache.
func NewPolicyCache(maxSize int) *PolicyCache {
	return &PolicyCache{
		cache:   make(map[string]*policy.Result),
		maxSize: maxSize,
	}
}

// Key creates a deterministic hash of a planning input.
func Key(mapText string, cfg mdp.Config) string {
	h := sha256.New()
	h.Write([]byte(mapText))

	buf := make([]byte, 8)
	for _, f := range []float64{
		cfg.Gamma, cfg.Epsilon, cfg.StepCost, cfg.WallPenalty,
		cfg.GoldBonus, cfg.ExitBonusPerGold, cfg.AllGoldBonus, cfg.HazardPenalty,
	} {
		binary.BigEndian.PutUint64(buf, math.Float64bits(f))
		h.Write(buf)
	}
	for _, n := range []int{cfg.MaxSweeps, cfg.MaxIterations, cfg.BridgeSkill} {
		binary.BigEndian.PutUint64(buf, uint64(int64(n)))
		h.Write(buf)
	}

	return fmt.Sprintf("%x", h.Sum(nil))
}

// Get retrieves a cached result for the given key.
// Returns nil if not found.
func (c *PolicyCache) Get(key string) *policy.Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	if res, ok := c.cache[key]; ok {
		c.hits++
		return res
	}
	c.misses++
	return nil
}

// Put stores a result in the cache.
func (c *PolicyCache) Put(key string, res *policy.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Evict if necessary (simple FIFO - remove first key found)
	if c.maxSize > 0 && len(c.cache) >= c.maxSize {
		for k := range c.cache {
			delete(c.cache, k)
			c.evictions++
			break
		}
	}

	c.cache[key] = res
}

// GetOrCompute retrieves from cache or computes and caches the result.
func (c *PolicyCache) GetOrCompute(key string, compute func() (*policy.Result, error)) (*policy.Result, error) {
	// Try cache first
	if res := c.Get(key); res != nil {
		return res, nil
	}

	// Compute and cache
	res, err := compute()
	if err != nil {
		return nil, err
	}
	c.Put(key, res)
	return res, nil
}

// Clear removes all entries from the cache.
func (c *PolicyCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*policy.Result)
}

// Size returns the current number of cached entries.
func (c *PolicyCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Stats returns cache statistics.
type Stats struct {
	Size      int
	MaxSize   int
	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64
}

// Stats returns cache statistics.
func (c *PolicyCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return Stats{
		Size:      len(c.cache),
		MaxSize:   c.maxSize,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		HitRate:   hitRate,
	}
}
