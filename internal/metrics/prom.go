// Package metrics provides prometheus-backed implementations of the
// dispatch measurement sink.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/quillon/overload/internal/dispatch"
)

// PromSink records dispatch measurements in Prometheus metrics.
type PromSink struct {
	registrations *prometheus.CounterVec
	resolutions   *prometheus.CounterVec
	scanDepth     *prometheus.HistogramVec
}

// NewPromSink registers dispatch metrics on the default Prometheus
// registerer. The exposition server is started separately, see
// StartServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	registrations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "overload_registrations_total",
		Help: "Total number of implementation registrations",
	}, []string{"name", "kind"})
	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "overload_resolutions_total",
		Help: "Total number of resolution attempts",
	}, []string{"name", "outcome", "cache_hit"})
	scanDepth := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "overload_resolution_scan_depth",
		Help:    "Records examined per cold resolution scan",
		Buckets: prometheus.LinearBuckets(1, 1, 10),
	}, []string{"name"})

	if err := reg.Register(registrations); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			registrations = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(resolutions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			resolutions = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(scanDepth); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			scanDepth = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		registrations: registrations,
		resolutions:   resolutions,
		scanDepth:     scanDepth,
	}, nil
}

// ObserveRegistration increments the registration counter.
func (s *PromSink) ObserveRegistration(name string, kind dispatch.BindingKind) {
	s.registrations.WithLabelValues(name, kind.String()).Inc()
}

// ObserveResolution increments the resolution counter and, for cold
// resolutions, records the scan depth. Cache hits never scan, so the
// histogram only sees real linear-scan work.
func (s *PromSink) ObserveResolution(name string, outcome dispatch.ResolutionOutcome, cacheHit bool, scanned int) {
	s.resolutions.WithLabelValues(name, string(outcome), strconv.FormatBool(cacheHit)).Inc()
	if !cacheHit {
		s.scanDepth.WithLabelValues(name).Observe(float64(scanned))
	}
}
