// Package dispatch implements multiple dispatch: one externally-visible
// name bound to several implementations, selected at call time by the
// runtime types of the supplied arguments.
//
// The pieces, leaves first: a Record pairs a parameter signature with a
// callable body; a Table holds the ordered records registered under one
// name and owns a resolution cache; the resolver picks the first record
// whose signature structurally matches the call; a Handle wraps a table
// with receiver semantics (BindingKind); Merge consolidates the tables a
// defining scope contributed under one name; a Registry ties registration,
// scope finalization, and traced invocation together.
//
// Resolution is FIRST-MATCH-WINS in registration order. There is no
// specificity scoring and no ambiguity detection: when a call matches
// several records, the earliest registered one is selected, even when a
// later record is an exact-type match and the earlier one matched through
// "any" or a subtype edge. Declaration order is the disambiguation
// mechanism, so narrower signatures must be registered before broader
// ones to be reachable. This tie-break is deliberate and preserved
// exactly; do not "fix" it toward most-specific-match.
//
// The cache maps a call's argument-type key to the record it resolved to.
// Any append clears the whole cache: staleness is worse than an avoidable
// miss. Entries are added only after successful resolution, under the
// table's read lock, so a reader never observes an entry pointing outside
// the current record sequence. The cache is unbounded; an LRU bound would
// be an extension, not the default.
package dispatch
