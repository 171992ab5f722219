package trace

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/quillon/overload/internal/dispatch"
)

// seedEventLog writes an interleaved run: two registrations for echo,
// one for greet, then three resolutions.
func seedEventLog(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	regs := []dispatch.RegistrationEvent{
		createTestRegistration(1, "echo", 0),
		createTestRegistration(2, "echo", 1),
		createTestRegistration(3, "greet", 0),
	}
	for _, ev := range regs {
		if err := s.RecordRegistration(ctx, ev); err != nil {
			t.Fatalf("RecordRegistration(seq %d) failed: %v", ev.Seq, err)
		}
	}

	ress := []dispatch.ResolutionEvent{
		createTestResolution(4, "call-1", "echo", dispatch.OutcomeMatched, 0, false),
		createTestResolution(5, "call-2", "echo", dispatch.OutcomeMatched, 0, true),
		createTestResolution(6, "call-3", "greet", dispatch.OutcomeNoMatch, -1, false),
	}
	for _, ev := range ress {
		if err := s.RecordResolution(ctx, ev); err != nil {
			t.Fatalf("RecordResolution(seq %d) failed: %v", ev.Seq, err)
		}
	}
}

func TestReadRegistrations_All(t *testing.T) {
	s := createTestStore(t)
	seedEventLog(t, s)

	regs, err := s.ReadRegistrations(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("ReadRegistrations() failed: %v", err)
	}

	if len(regs) != 3 {
		t.Fatalf("got %d rows, want 3", len(regs))
	}

	// Ordered by seq
	for i, reg := range regs {
		if reg.Seq != int64(i+1) {
			t.Errorf("row %d: seq = %d, want %d", i, reg.Seq, i+1)
		}
	}
	if regs[2].Name != "greet" {
		t.Errorf("row 2: name = %q, want %q", regs[2].Name, "greet")
	}
}

func TestReadRegistrations_FilterByName(t *testing.T) {
	s := createTestStore(t)
	seedEventLog(t, s)

	regs, err := s.ReadRegistrations(context.Background(), Filter{Name: "echo"})
	if err != nil {
		t.Fatalf("ReadRegistrations() failed: %v", err)
	}

	if len(regs) != 2 {
		t.Fatalf("got %d rows, want 2", len(regs))
	}
	for _, reg := range regs {
		if reg.Name != "echo" {
			t.Errorf("name = %q, want %q", reg.Name, "echo")
		}
	}
}

func TestReadRegistrations_SinceSeqAndLimit(t *testing.T) {
	s := createTestStore(t)
	seedEventLog(t, s)
	ctx := context.Background()

	regs, err := s.ReadRegistrations(ctx, Filter{SinceSeq: 1})
	if err != nil {
		t.Fatalf("ReadRegistrations() failed: %v", err)
	}
	if len(regs) != 2 || regs[0].Seq != 2 {
		t.Fatalf("SinceSeq: got %d rows starting at seq %d, want 2 starting at 2", len(regs), regs[0].Seq)
	}

	regs, err = s.ReadRegistrations(ctx, Filter{Limit: 1})
	if err != nil {
		t.Fatalf("ReadRegistrations() failed: %v", err)
	}
	if len(regs) != 1 || regs[0].Seq != 1 {
		t.Fatalf("Limit: got %d rows starting at seq %d, want 1 starting at 1", len(regs), regs[0].Seq)
	}
}

func TestReadRegistrations_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)

	regs, err := s.ReadRegistrations(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("ReadRegistrations() failed: %v", err)
	}

	if regs == nil {
		t.Error("expected empty slice, got nil")
	}
	if len(regs) != 0 {
		t.Errorf("got %d rows, want 0", len(regs))
	}
}

func TestReadResolutions_All(t *testing.T) {
	s := createTestStore(t)
	seedEventLog(t, s)

	ress, err := s.ReadResolutions(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("ReadResolutions() failed: %v", err)
	}

	if len(ress) != 3 {
		t.Fatalf("got %d rows, want 3", len(ress))
	}
	if ress[0].Seq != 4 || ress[2].Seq != 6 {
		t.Errorf("rows out of order: seqs %d..%d, want 4..6", ress[0].Seq, ress[2].Seq)
	}
	if ress[2].Outcome != "no_match" || ress[2].RecordIndex != -1 {
		t.Errorf("row 2: outcome %q idx %d, want no_match -1", ress[2].Outcome, ress[2].RecordIndex)
	}
}

func TestReadResolutions_FilterByCallToken(t *testing.T) {
	s := createTestStore(t)
	seedEventLog(t, s)

	ress, err := s.ReadResolutions(context.Background(), Filter{CallToken: "call-2"})
	if err != nil {
		t.Fatalf("ReadResolutions() failed: %v", err)
	}

	if len(ress) != 1 {
		t.Fatalf("got %d rows, want 1", len(ress))
	}
	if ress[0].Seq != 5 || !ress[0].CacheHit {
		t.Errorf("got seq %d cache_hit %v, want 5 true", ress[0].Seq, ress[0].CacheHit)
	}
}

func TestReadResolutions_FilterByOutcome(t *testing.T) {
	s := createTestStore(t)
	seedEventLog(t, s)

	ress, err := s.ReadResolutions(context.Background(), Filter{Outcome: "no_match"})
	if err != nil {
		t.Fatalf("ReadResolutions() failed: %v", err)
	}

	if len(ress) != 1 {
		t.Fatalf("got %d rows, want 1", len(ress))
	}
	if ress[0].Name != "greet" {
		t.Errorf("name = %q, want %q", ress[0].Name, "greet")
	}
}

func TestReadResolutions_FilterByCacheHit(t *testing.T) {
	s := createTestStore(t)
	seedEventLog(t, s)

	hit := true
	ress, err := s.ReadResolutions(context.Background(), Filter{CacheHit: &hit})
	if err != nil {
		t.Fatalf("ReadResolutions() failed: %v", err)
	}

	if len(ress) != 1 {
		t.Fatalf("got %d rows, want 1", len(ress))
	}
	if ress[0].CallToken != "call-2" {
		t.Errorf("call_token = %q, want %q", ress[0].CallToken, "call-2")
	}

	miss := false
	ress, err = s.ReadResolutions(context.Background(), Filter{CacheHit: &miss})
	if err != nil {
		t.Fatalf("ReadResolutions() failed: %v", err)
	}
	if len(ress) != 2 {
		t.Errorf("got %d rows, want 2", len(ress))
	}
}

func TestReadResolutions_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)

	ress, err := s.ReadResolutions(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("ReadResolutions() failed: %v", err)
	}

	if ress == nil {
		t.Error("expected empty slice, got nil")
	}
}

func TestReadResolutions_InvalidFilter(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadResolutions(context.Background(), Filter{Outcome: "exploded"})
	if err == nil {
		t.Error("expected error for invalid outcome filter, got nil")
	}

	_, err = s.ReadResolutions(context.Background(), Filter{Limit: -1})
	if err == nil {
		t.Error("expected error for negative limit, got nil")
	}
}

func TestGetRegistration_BySeq(t *testing.T) {
	s := createTestStore(t)
	seedEventLog(t, s)

	reg, err := s.GetRegistration(context.Background(), 2)
	if err != nil {
		t.Fatalf("GetRegistration() failed: %v", err)
	}
	if reg.Name != "echo" || reg.Index != 1 {
		t.Errorf("got name %q index %d, want echo 1", reg.Name, reg.Index)
	}

	_, err = s.GetRegistration(context.Background(), 99)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows for missing seq, got %v", err)
	}
}

func TestGetResolution_BySeq(t *testing.T) {
	s := createTestStore(t)
	seedEventLog(t, s)

	res, err := s.GetResolution(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetResolution() failed: %v", err)
	}
	if res.CallToken != "call-2" || !res.CacheHit {
		t.Errorf("got call_token %q cache_hit %v, want call-2 true", res.CallToken, res.CacheHit)
	}

	_, err = s.GetResolution(context.Background(), 99)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows for missing seq, got %v", err)
	}
}

func TestReadEvents_MergedOrder(t *testing.T) {
	s := createTestStore(t)
	seedEventLog(t, s)

	events, err := s.ReadEvents(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("ReadEvents() failed: %v", err)
	}

	if len(events) != 6 {
		t.Fatalf("got %d events, want 6", len(events))
	}

	// Total order by seq across both tables
	for i, ev := range events {
		if ev.Seq != int64(i+1) {
			t.Errorf("event %d: seq = %d, want %d", i, ev.Seq, i+1)
		}
	}

	// Registrations carry registration rows, resolutions resolution rows
	if events[0].Type != EventRegistration || events[0].Registration == nil {
		t.Error("event 0 should be a registration with a row attached")
	}
	if events[5].Type != EventResolution || events[5].Resolution == nil {
		t.Error("event 5 should be a resolution with a row attached")
	}
}

func TestReadEvents_NameFilterAndLimit(t *testing.T) {
	s := createTestStore(t)
	seedEventLog(t, s)

	events, err := s.ReadEvents(context.Background(), Filter{Name: "echo"})
	if err != nil {
		t.Fatalf("ReadEvents() failed: %v", err)
	}
	// 2 registrations + 2 resolutions
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}

	events, err = s.ReadEvents(context.Background(), Filter{Name: "echo", Limit: 3})
	if err != nil {
		t.Fatalf("ReadEvents() failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	// Limit keeps the earliest rows of the merged stream
	if events[0].Seq != 1 || events[2].Seq != 4 {
		t.Errorf("got seqs %d..%d, want 1..4", events[0].Seq, events[2].Seq)
	}
}

func TestGetLastSeq_SpansBothTables(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.GetLastSeq(ctx)
	if err != nil {
		t.Fatalf("GetLastSeq() failed: %v", err)
	}
	if seq != 0 {
		t.Errorf("empty store: last seq = %d, want 0", seq)
	}

	seedEventLog(t, s)

	seq, err = s.GetLastSeq(ctx)
	if err != nil {
		t.Fatalf("GetLastSeq() failed: %v", err)
	}
	if seq != 6 {
		t.Errorf("last seq = %d, want 6", seq)
	}

	// A later registration moves the watermark even with no resolutions after it
	if err := s.RecordRegistration(ctx, createTestRegistration(9, "late", 0)); err != nil {
		t.Fatalf("RecordRegistration() failed: %v", err)
	}
	seq, err = s.GetLastSeq(ctx)
	if err != nil {
		t.Fatalf("GetLastSeq() failed: %v", err)
	}
	if seq != 9 {
		t.Errorf("last seq = %d, want 9", seq)
	}
}

func TestListNames_DistinctSorted(t *testing.T) {
	s := createTestStore(t)
	seedEventLog(t, s)

	names, err := s.ListNames(context.Background())
	if err != nil {
		t.Fatalf("ListNames() failed: %v", err)
	}

	want := []string{"echo", "greet"}
	if len(names) != len(want) {
		t.Fatalf("got %d names %v, want %v", len(names), names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestListNames_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)

	names, err := s.ListNames(context.Background())
	if err != nil {
		t.Fatalf("ListNames() failed: %v", err)
	}
	if names == nil {
		t.Error("expected empty slice, got nil")
	}
}

func TestFilterValidate(t *testing.T) {
	valid := []Filter{
		{},
		{Outcome: "matched"},
		{Outcome: "no_match", Limit: 10, SinceSeq: 5},
	}
	for _, f := range valid {
		if err := f.Validate(); err != nil {
			t.Errorf("Validate(%+v) = %v, want nil", f, err)
		}
	}

	invalid := []Filter{
		{Outcome: "maybe"},
		{Limit: -1},
		{SinceSeq: -2},
	}
	for _, f := range invalid {
		if err := f.Validate(); err == nil {
			t.Errorf("Validate(%+v) = nil, want error", f)
		}
	}
}
