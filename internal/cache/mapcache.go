package cache

import "sync"

// MapCache is an unbounded, concurrency-safe typed map.
type MapCache[K comparable, V any] struct{ m sync.Map }

// NewMapCache creates an empty MapCache.
func NewMapCache[K comparable, V any]() *MapCache[K, V] {
	return &MapCache[K, V]{}
}

// Set stores v under k.
func (c *MapCache[K, V]) Set(k K, v V) {
	c.m.Store(k, v)
}

// Get returns the value stored under k.
func (c *MapCache[K, V]) Get(k K) (V, bool) {
	v, ok := c.m.Load(k)
	if !ok {
		var z V
		return z, false
	}
	return v.(V), true
}

// Delete removes k.
func (c *MapCache[K, V]) Delete(k K) { c.m.Delete(k) }
