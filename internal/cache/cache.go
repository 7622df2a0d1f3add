// Package cache provides the TTL cache used for market quotes and a typed
// map cache for last-known results.
package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

// Cache is a bounded TTL cache. Every entry costs 1, so maxCost is the
// maximum number of entries.
type Cache struct {
	c   *ristretto.Cache
	ttl time.Duration
}

// New creates a cache holding up to maxCost entries for ttl each.
func New(maxCost int64, ttl time.Duration) (*Cache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c, ttl: ttl}, nil
}

// Get returns the cached value for key.
func (c *Cache) Get(key string) (any, bool) { return c.c.Get(key) }

// Set stores val for the configured TTL. Writes are flushed before returning
// so a following Get observes them.
func (c *Cache) Set(key string, val any) {
	c.c.SetWithTTL(key, val, 1, c.ttl)
	c.c.Wait()
}

// Del removes key.
func (c *Cache) Del(key string) { c.c.Del(key) }

// Close stops the cache's background goroutines.
func (c *Cache) Close() { c.c.Close() }
