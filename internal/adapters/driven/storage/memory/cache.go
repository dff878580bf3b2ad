// Package memory provides in-memory implementations of driven store ports.
// Contents do not survive the process.
package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
)

// Ensure ResultCache implements the interface.
var _ driven.ResultCache = (*ResultCache)(nil)

// ResultCache is an in-memory implementation of driven.ResultCache.
type ResultCache struct {
	mu      sync.RWMutex
	results map[string]string
}

// NewResultCache creates a new in-memory result cache.
func NewResultCache() *ResultCache {
	return &ResultCache{
		results: make(map[string]string),
	}
}

// Get returns the cached result for hash.
func (c *ResultCache) Get(_ context.Context, hash string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result, ok := c.results[hash]
	return result, ok, nil
}

// Put stores result under hash.
func (c *ResultCache) Put(_ context.Context, hash, result string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[hash] = result
	return nil
}

// Stats counts cached results.
func (c *ResultCache) Stats(_ context.Context) (domain.CacheStats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stats := domain.CacheStats{Backend: "memory", Location: ":memory:", Entries: len(c.results)}
	for _, r := range c.results {
		stats.Bytes += int64(len(r))
	}
	return stats, nil
}

// Clear removes every entry.
func (c *ResultCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = make(map[string]string)
	return nil
}

// Len returns the number of cached results.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.results)
}
