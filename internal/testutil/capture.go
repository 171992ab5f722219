package testutil

import (
	"context"
	"sync"

	"github.com/quillon/overload/internal/dispatch"
)

// CaptureTraceSink records dispatch events in memory.
//
// Tests install it via dispatch.WithTraceSink and assert on the captured
// event slices instead of reading a trace store back.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type CaptureTraceSink struct {
	mu            sync.Mutex
	registrations []dispatch.RegistrationEvent
	resolutions   []dispatch.ResolutionEvent
}

// NewCaptureTraceSink creates an empty capture sink.
func NewCaptureTraceSink() *CaptureTraceSink {
	return &CaptureTraceSink{}
}

// RecordRegistration implements dispatch.TraceSink.
func (s *CaptureTraceSink) RecordRegistration(ctx context.Context, ev dispatch.RegistrationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registrations = append(s.registrations, ev)
	return nil
}

// RecordResolution implements dispatch.TraceSink.
func (s *CaptureTraceSink) RecordResolution(ctx context.Context, ev dispatch.ResolutionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolutions = append(s.resolutions, ev)
	return nil
}

// Registrations returns a copy of the captured registration events in
// record order.
func (s *CaptureTraceSink) Registrations() []dispatch.RegistrationEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]dispatch.RegistrationEvent, len(s.registrations))
	copy(out, s.registrations)
	return out
}

// Resolutions returns a copy of the captured resolution events in record
// order.
func (s *CaptureTraceSink) Resolutions() []dispatch.ResolutionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]dispatch.ResolutionEvent, len(s.resolutions))
	copy(out, s.resolutions)
	return out
}

// Reset drops all captured events.
func (s *CaptureTraceSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registrations = nil
	s.resolutions = nil
}
