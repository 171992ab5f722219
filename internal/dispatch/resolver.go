package dispatch

import (
	"fmt"

	"github.com/quillon/overload/internal/types"
)

// Resolution describes one resolved call.
type Resolution struct {
	// Record is the selected implementation.
	Record *Record

	// Key is the match key the call resolved under, receiver stripped.
	Key Key

	// CacheHit reports whether the key was answered from the cache.
	CacheHit bool

	// Scanned is the number of records examined by this call. Zero on a
	// cache hit.
	Scanned int
}

// Resolve picks the implementation for a call.
//
// Algorithm:
//  1. When kind is InstanceBound, strip the leading receiver - it is
//     never matched against a declared parameter type.
//  2. Compute the match key and consult the cache. A hit returns the
//     cached record immediately, with no re-validation.
//  3. On a miss, scan records in registration order and return the FIRST
//     structural match. No specificity scoring, no ambiguity detection.
//  4. Store key -> record on success. An exhausted scan fails with
//     NO_MATCH carrying the attempted key.
func (t *Table) Resolve(kind BindingKind, args []types.Value, kwargs map[string]types.Value) (Resolution, error) {
	if kind == InstanceBound {
		if len(args) == 0 {
			return Resolution{}, fmt.Errorf("%s: instance-bound call requires a receiver", t.name)
		}
		args = args[1:]
	}

	key := BuildKey(args, kwargs)

	if rec, ok := t.cache.get(key.String()); ok {
		t.hits.Add(1)
		return Resolution{Record: rec, Key: key, CacheHit: true}, nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	kw := key.keywordMap()
	scanned := 0
	for _, rec := range t.records {
		scanned++
		if t.matchesKey(rec, key.Positional, kw) {
			t.scans.Add(int64(scanned))
			// Under the read lock a concurrent append cannot interleave
			// between this store and the scan that justified it.
			t.cache.set(key.String(), rec)
			return Resolution{Record: rec, Key: key, Scanned: scanned}, nil
		}
	}

	t.scans.Add(int64(scanned))
	return Resolution{Key: key, Scanned: scanned}, NewNoMatchError(t.name, key)
}

// MatchKey scans the table against an already-built key, as when a
// recorded call is re-matched against the live registration order. The
// scan reads the same records Resolve would but touches neither the
// cache nor the counters.
func (t *Table) MatchKey(key Key) (*Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	kw := key.keywordMap()
	for _, rec := range t.records {
		if t.matchesKey(rec, key.Positional, kw) {
			return rec, true
		}
	}
	return nil, false
}

// matchesKey attempts a structural match of one record against a call
// key. Matching needs only the argument descriptors, so the values never
// reach this far.
//
// Keyword arguments are rearranged into declared positional order by
// parameter name. A record fails when a keyword is unknown, a keyword
// targets a positionally-filled parameter, or a required parameter is
// left unfilled. Parameters filled by their declared default are not
// type-checked; the default belongs to the implementation.
func (t *Table) matchesKey(rec *Record, pos []types.Descriptor, kwargs map[string]types.Descriptor) bool {
	params := rec.Params

	// More positional arguments than declared parameters can never match;
	// variable-length parameter lists are not modeled.
	if len(pos) > len(params) {
		return false
	}

	matchedKw := 0
	for i, p := range params {
		var supplied types.Descriptor

		if i < len(pos) {
			if _, clash := kwargs[p.Name]; clash {
				// Keyword targets a positionally-filled parameter.
				return false
			}
			supplied = pos[i]
		} else if d, ok := kwargs[p.Name]; ok {
			supplied = d
			matchedKw++
		} else if p.Default != nil {
			continue
		} else {
			// Required parameter left unfilled.
			return false
		}

		if !t.hier.Conforms(supplied, p.Type) {
			return false
		}
	}

	// Every keyword must have landed on a declared parameter.
	return matchedKw == len(kwargs)
}
