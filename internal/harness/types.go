package harness

import (
	"github.com/quillon/overload/internal/dispatch"
)

// Event type constants for TraceEvent.Type.
const (
	EventRegistration = "registration"
	EventResolution   = "resolution"
)

// TraceEvent is one recorded dispatch event in a shape stable enough
// for golden comparison. Content hashes are omitted: they derive from
// the signature and key fields already present.
type TraceEvent struct {
	Type string `json:"type"` // "registration" or "resolution"
	Seq  int64  `json:"seq"`
	Name string `json:"name"`

	// Registration fields.
	Unit      string `json:"unit,omitempty"`
	Index     int    `json:"index,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Signature string `json:"signature,omitempty"`

	// Resolution fields.
	CallToken   string `json:"call_token,omitempty"`
	Key         string `json:"key,omitempty"`
	Outcome     string `json:"outcome,omitempty"`
	RecordIndex int    `json:"record_index,omitempty"`
	CacheHit    bool   `json:"cache_hit,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every expect clause and every
	// assertion held.
	Pass bool `json:"pass"`

	// Trace contains all registrations and resolutions in order.
	Trace []TraceEvent `json:"trace"`

	// Outputs holds the rendered return value of each call, or the
	// dispatch error text for calls that found no match.
	Outputs []string `json:"outputs"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for scenario execution.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		Outputs: []string{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddRegistration adds a registration event to the trace.
func (r *Result) AddRegistration(ev dispatch.RegistrationEvent) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:      EventRegistration,
		Seq:       ev.Seq,
		Name:      ev.Name,
		Unit:      ev.Unit,
		Index:     ev.Index,
		Kind:      ev.Kind.String(),
		Signature: ev.Signature,
	})
}

// AddResolution adds a resolution event to the trace.
func (r *Result) AddResolution(ev dispatch.ResolutionEvent) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:        EventResolution,
		Seq:         ev.Seq,
		Name:        ev.Name,
		CallToken:   ev.CallToken,
		Key:         ev.Key,
		Outcome:     string(ev.Outcome),
		RecordIndex: ev.RecordIndex,
		CacheHit:    ev.CacheHit,
	})
}

// AddOutput appends one call's rendered outcome.
func (r *Result) AddOutput(rendered string) {
	r.Outputs = append(r.Outputs, rendered)
}
