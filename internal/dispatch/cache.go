package dispatch

import "sync"

// resolutionCache memoizes argument-type key -> record for one table.
//
// Entries are added only after successful resolution, never on failure.
// The owning table clears the cache on every append: staleness is worse
// than an occasional avoidable miss. No eviction beyond clear; size is
// unbounded.
//
// Thread-safety: a reader-writer lock favoring readers (the resolve path
// is the hot path). An immutable-snapshot-swap design would also satisfy
// the contract; the lock is the simplest correct policy.
type resolutionCache struct {
	mu       sync.RWMutex
	entries  map[string]*Record
	disabled bool
}

func newResolutionCache() *resolutionCache {
	return &resolutionCache{entries: make(map[string]*Record)}
}

// get returns the cached record for a canonical key, if present.
// A disabled cache always misses.
func (c *resolutionCache) get(key string) (*Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.disabled {
		return nil, false
	}
	rec, ok := c.entries[key]
	return rec, ok
}

// set stores a successful resolution. Callers must hold the owning
// table's read lock so a concurrent append cannot publish a record and
// clear the cache between the scan and this store.
func (c *resolutionCache) set(key string, rec *Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disabled {
		return
	}
	c.entries[key] = rec
}

// disable turns the cache off and drops existing entries. There is no
// way back; disabling is a per-run debug decision.
func (c *resolutionCache) disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disabled = true
	c.entries = make(map[string]*Record)
}

// clear drops every entry. The map is replaced, not deleted key-by-key,
// so concurrent readers fall back to a linear scan at worst.
func (c *resolutionCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Record)
}

// size returns the entry count. Used by tests and diagnostics.
func (c *resolutionCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
