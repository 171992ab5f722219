package metrics

import "github.com/quillon/overload/internal/dispatch"

// MultiSink fans out dispatch measurements to multiple sinks.
type MultiSink struct {
	Sinks []dispatch.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...dispatch.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// ObserveResolution forwards the measurement to all sinks.
func (m *MultiSink) ObserveResolution(name string, outcome dispatch.ResolutionOutcome, cacheHit bool, scanned int) {
	for _, s := range m.Sinks {
		s.ObserveResolution(name, outcome, cacheHit, scanned)
	}
}

// ObserveRegistration forwards the measurement to all sinks.
func (m *MultiSink) ObserveRegistration(name string, kind dispatch.BindingKind) {
	for _, s := range m.Sinks {
		s.ObserveRegistration(name, kind)
	}
}
