// Package cache holds the in-memory state shared between listeners and the
// engine: observed pools, market metadata and the snipe allow-list.
package cache

import (
	"sync"

	"solana-sniper/internal/domain"
)

// PoolCache stores observed pool candidates keyed by base mint. The first
// pool observed for a mint wins; later pools for the same mint are ignored.
type PoolCache struct {
	mu    sync.RWMutex
	pools map[string]*domain.PoolCandidate
}

// NewPoolCache creates an empty pool cache.
func NewPoolCache() *PoolCache {
	return &PoolCache{pools: make(map[string]*domain.PoolCandidate)}
}

// Save stores a candidate under its base mint. Returns false if a pool for
// that mint is already cached.
func (c *PoolCache) Save(candidate *domain.PoolCandidate) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pools[candidate.BaseMint]; ok {
		return false
	}
	c.pools[candidate.BaseMint] = candidate
	return true
}

// Get returns the cached pool for a base mint, or nil.
func (c *PoolCache) Get(baseMint string) *domain.PoolCandidate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pools[baseMint]
}

// Len returns the number of cached pools.
func (c *PoolCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pools)
}
