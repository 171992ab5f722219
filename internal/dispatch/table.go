package dispatch

import (
	"sync"
	"sync/atomic"

	"github.com/quillon/overload/internal/types"
)

// Table holds the ordered records registered under one logical name and
// owns their resolution cache.
//
// Record order is registration order is priority order: the resolver
// returns the first structural match and never ranks by specificity.
// Duplicate signatures are permitted; a later duplicate is simply
// shadowed by the earlier one.
//
// Thread-safety model:
//   - Register: definition-time, guarded by a write lock
//   - Resolve: concurrent read path, guarded by a read lock
//   - counters: atomic, observable while resolving concurrently
type Table struct {
	name string
	hier *types.Hierarchy

	mu      sync.RWMutex
	records []*Record

	cache *resolutionCache

	// scans counts records examined across all linear scans. A repeated
	// call that hits the cache leaves it unchanged, which is how tests
	// observe cache idempotence.
	scans atomic.Int64

	// hits counts cache hits.
	hits atomic.Int64
}

// NewTable creates an empty table for a name. The hierarchy supplies
// descriptor validation at registration time and subtype checks at
// resolution time.
func NewTable(name string, hier *types.Hierarchy) *Table {
	return &Table{
		name:  name,
		hier:  hier,
		cache: newResolutionCache(),
	}
}

// Name returns the logical name all records share.
func (t *Table) Name() string {
	return t.name
}

// Register validates a signature, appends a new record at the end, clears
// the cache, and returns the record.
//
// On a MALFORMED_SIGNATURE error the table is left unchanged. Duplicate
// signatures are never rejected; they shadow by order alone.
func (t *Table) Register(params []Param, body Callable) (*Record, error) {
	if err := validateSignature(t.hier, t.name, params, body); err != nil {
		return nil, err
	}

	// Copy params so a caller holding the slice cannot mutate the record.
	var paramsCopy []Param
	if params != nil {
		paramsCopy = make([]Param, len(params))
		copy(paramsCopy, params)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.appendRecord(&Record{Params: paramsCopy, Body: body}), nil
}

// appendRecord assigns the table-local index, appends, and clears the
// cache. Caller holds the write lock. The cache clear is mandatory even
// though appends cannot change an existing first match: the table must
// never answer from state a reader could misread as covering the new
// record.
func (t *Table) appendRecord(rec *Record) *Record {
	rec.Index = len(t.records)
	t.records = append(t.records, rec)
	t.cache.clear()
	return rec
}

// Len returns the record count.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// Records returns a copy of the record sequence in priority order.
func (t *Table) Records() []*Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Record, len(t.records))
	copy(out, t.records)
	return out
}

// ScanCount returns the total records examined by linear scans.
func (t *Table) ScanCount() int64 {
	return t.scans.Load()
}

// CacheHitCount returns the number of resolutions served from the cache.
func (t *Table) CacheHitCount() int64 {
	return t.hits.Load()
}

// CacheSize returns the current number of cached resolutions.
func (t *Table) CacheSize() int {
	return t.cache.size()
}

// DisableCache turns the resolution cache off for this table. Every
// subsequent call takes the full linear scan, which rules the cache out
// when chasing a suspected misdispatch.
func (t *Table) DisableCache() {
	t.cache.disable()
}
