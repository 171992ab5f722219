package dispatch

import "context"

// RegistrationEvent records one implementation registration.
type RegistrationEvent struct {
	// Seq is the logical clock stamp.
	Seq int64

	// Unit labels the declaration source (unit file name, or "api" for
	// programmatic registration).
	Unit string

	// Name is the qualified dispatch name ("Printer.print" or "echo").
	Name string

	// Index is the record's declaration index under the name - the
	// index it holds in the final table after any merge.
	Index int

	// Kind is the declared binding kind.
	Kind BindingKind

	// Signature is the canonical JSON signature.
	Signature string

	// SignatureHash is the domain-separated content hash of Signature.
	SignatureHash string
}

// ResolutionOutcome classifies how a resolution ended.
type ResolutionOutcome string

const (
	// OutcomeMatched means a record was selected.
	OutcomeMatched ResolutionOutcome = "matched"

	// OutcomeNoMatch means the scan exhausted every record.
	OutcomeNoMatch ResolutionOutcome = "no_match"
)

// ResolutionEvent records one resolution attempt.
type ResolutionEvent struct {
	// Seq is the logical clock stamp.
	Seq int64

	// CallToken correlates the event with the invocation that caused it.
	CallToken string

	// Name is the qualified dispatch name.
	Name string

	// Key is the attempted match key in canonical form.
	Key string

	// KeyHash is the domain-separated content hash of Key.
	KeyHash string

	// Outcome is matched or no_match.
	Outcome ResolutionOutcome

	// RecordIndex is the selected record's index, -1 on no match.
	RecordIndex int

	// CacheHit reports whether the cache answered the key.
	CacheHit bool
}

// TraceSink receives dispatch events for persistence. Implemented by the
// sqlite trace store; the nop sink is the default.
//
// Sink failures never fail dispatch: the registry logs and continues, so
// a broken trace store cannot take resolution down with it.
type TraceSink interface {
	RecordRegistration(ctx context.Context, ev RegistrationEvent) error
	RecordResolution(ctx context.Context, ev ResolutionEvent) error
}

// MetricsSink receives dispatch measurements. Implemented by the
// prometheus sink; the nop sink is the default.
type MetricsSink interface {
	// ObserveResolution records one resolution attempt and the number of
	// records the linear scan examined (zero on a cache hit).
	ObserveResolution(name string, outcome ResolutionOutcome, cacheHit bool, scanned int)

	// ObserveRegistration records one implementation registration.
	ObserveRegistration(name string, kind BindingKind)
}

// NopTraceSink discards all events.
type NopTraceSink struct{}

func (NopTraceSink) RecordRegistration(ctx context.Context, ev RegistrationEvent) error { return nil }
func (NopTraceSink) RecordResolution(ctx context.Context, ev ResolutionEvent) error    { return nil }

// NopMetricsSink discards all measurements.
type NopMetricsSink struct{}

func (NopMetricsSink) ObserveResolution(name string, outcome ResolutionOutcome, cacheHit bool, scanned int) {
}
func (NopMetricsSink) ObserveRegistration(name string, kind BindingKind) {}
