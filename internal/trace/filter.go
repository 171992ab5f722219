package trace

import (
	"fmt"
	"strings"
)

// Filter narrows a read over the event log. The zero value selects
// everything.
//
// Name and SinceSeq apply to both tables. CallToken, Outcome and
// CacheHit only exist on resolutions and are ignored when reading
// registrations.
//
// CRITICAL: all filter values are parameterized, never interpolated, and
// every compiled query orders by seq ASC so results are deterministic.
type Filter struct {
	// Name restricts to one qualified dispatch name when non-empty.
	Name string

	// CallToken restricts resolutions to one invocation when non-empty.
	CallToken string

	// Outcome restricts resolutions to "matched" or "no_match" when
	// non-empty.
	Outcome string

	// CacheHit restricts resolutions by cache outcome when non-nil.
	CacheHit *bool

	// SinceSeq restricts to rows with seq > SinceSeq when positive.
	SinceSeq int64

	// Limit caps the row count when positive. Applied after ordering,
	// so it always returns the earliest rows of the selection.
	Limit int
}

// registrationQuery compiles the filter into the tail of a registrations
// query: WHERE, ORDER BY and LIMIT clauses plus the bind parameters.
func (f Filter) registrationQuery() (string, []any) {
	var conds []string
	var params []any

	if f.Name != "" {
		conds = append(conds, "name = ?")
		params = append(params, f.Name)
	}
	if f.SinceSeq > 0 {
		conds = append(conds, "seq > ?")
		params = append(params, f.SinceSeq)
	}

	return assemble(conds, params, f.Limit)
}

// resolutionQuery compiles the filter into the tail of a resolutions
// query.
func (f Filter) resolutionQuery() (string, []any) {
	var conds []string
	var params []any

	if f.Name != "" {
		conds = append(conds, "name = ?")
		params = append(params, f.Name)
	}
	if f.CallToken != "" {
		conds = append(conds, "call_token = ?")
		params = append(params, f.CallToken)
	}
	if f.Outcome != "" {
		conds = append(conds, "outcome = ?")
		params = append(params, f.Outcome)
	}
	if f.CacheHit != nil {
		conds = append(conds, "cache_hit = ?")
		params = append(params, *f.CacheHit)
	}
	if f.SinceSeq > 0 {
		conds = append(conds, "seq > ?")
		params = append(params, f.SinceSeq)
	}

	return assemble(conds, params, f.Limit)
}

// assemble joins the collected conditions and appends the mandatory
// ORDER BY. seq is the primary key, so no tiebreaker column is needed.
func assemble(conds []string, params []any, limit int) (string, []any) {
	var sb strings.Builder

	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}

	// MANDATORY: every query orders by seq for deterministic results.
	sb.WriteString(" ORDER BY seq ASC")

	if limit > 0 {
		sb.WriteString(" LIMIT ?")
		params = append(params, limit)
	}

	return sb.String(), params
}

// Validate rejects filter values that can never match a row.
func (f Filter) Validate() error {
	switch f.Outcome {
	case "", "matched", "no_match":
	default:
		return fmt.Errorf("invalid outcome %q: want \"matched\" or \"no_match\"", f.Outcome)
	}
	if f.Limit < 0 {
		return fmt.Errorf("invalid limit %d: must not be negative", f.Limit)
	}
	if f.SinceSeq < 0 {
		return fmt.Errorf("invalid since seq %d: must not be negative", f.SinceSeq)
	}
	return nil
}
