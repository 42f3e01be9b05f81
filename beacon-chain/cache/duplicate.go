// Package cache holds the small shared caches used by the sync service: the
// in-flight import guard and the gossip sidecar delivery cache.
package cache

import (
	"sync"
)

// DuplicateCache tracks block roots with an import currently in flight so
// that concurrent deliveries of the same block never race through the import
// pipeline twice.
type DuplicateCache struct {
	mu    sync.Mutex
	roots map[[32]byte]struct{}
}

// NewDuplicateCache creates an empty cache.
func NewDuplicateCache() *DuplicateCache {
	return &DuplicateCache{
		roots: make(map[[32]byte]struct{}),
	}
}

// CheckAndInsert atomically marks the root as busy. It returns ok=false when
// an import for the root is already in progress; the caller must then not
// start a competing import. On success the returned release function removes
// the entry; it must be invoked on every exit path (defer) and is safe to
// call more than once.
func (c *DuplicateCache) CheckAndInsert(root [32]byte) (release func(), ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.roots[root]; busy {
		return nil, false
	}
	c.roots[root] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.roots, root)
			c.mu.Unlock()
		})
	}, true
}

// Contains reports whether an import for the root is in flight.
func (c *DuplicateCache) Contains(root [32]byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, busy := c.roots[root]
	return busy
}

// Len returns the number of busy roots.
func (c *DuplicateCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.roots)
}
