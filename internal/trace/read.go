package trace

import (
	"context"
	"database/sql"
	"fmt"
)

// RegistrationRow is one persisted registration event.
type RegistrationRow struct {
	Seq           int64
	Unit          string
	Name          string
	Index         int
	Kind          string
	Signature     string
	SignatureHash string
}

// ResolutionRow is one persisted resolution event. Key holds the
// canonical match key exactly as the resolver built it.
type ResolutionRow struct {
	Seq         int64
	CallToken   string
	Name        string
	Key         string
	KeyHash     string
	Outcome     string
	RecordIndex int
	CacheHit    bool
}

// ReadRegistrations returns registration rows matching the filter.
// Results are ordered by seq ASC.
//
// Returns an empty slice (not nil) if no rows match.
func (s *Store) ReadRegistrations(ctx context.Context, f Filter) ([]RegistrationRow, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("read registrations: %w", err)
	}

	tail, params := f.registrationQuery()
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, unit, name, idx, kind, signature, sig_hash
		FROM registrations`+tail, params...)
	if err != nil {
		return nil, fmt.Errorf("query registrations: %w", err)
	}
	defer rows.Close()

	var regs []RegistrationRow
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}

	// Return empty slice instead of nil
	if regs == nil {
		regs = []RegistrationRow{}
	}

	return regs, nil
}

// ReadResolutions returns resolution rows matching the filter.
// Results are ordered by seq ASC.
//
// Returns an empty slice (not nil) if no rows match.
func (s *Store) ReadResolutions(ctx context.Context, f Filter) ([]ResolutionRow, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("read resolutions: %w", err)
	}

	tail, params := f.resolutionQuery()
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, call_token, name, key, key_hash, outcome, record_idx, cache_hit
		FROM resolutions`+tail, params...)
	if err != nil {
		return nil, fmt.Errorf("query resolutions: %w", err)
	}
	defer rows.Close()

	var ress []ResolutionRow
	for rows.Next() {
		res, err := scanResolution(rows)
		if err != nil {
			return nil, err
		}
		ress = append(ress, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resolutions: %w", err)
	}

	// Return empty slice instead of nil
	if ress == nil {
		ress = []ResolutionRow{}
	}

	return ress, nil
}

// GetResolution retrieves a single resolution by seq.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetResolution(ctx context.Context, seq int64) (ResolutionRow, error) {
	var res ResolutionRow
	err := s.db.QueryRowContext(ctx, `
		SELECT seq, call_token, name, key, key_hash, outcome, record_idx, cache_hit
		FROM resolutions
		WHERE seq = ?
	`, seq).Scan(
		&res.Seq, &res.CallToken, &res.Name, &res.Key, &res.KeyHash,
		&res.Outcome, &res.RecordIndex, &res.CacheHit,
	)
	if err != nil {
		return ResolutionRow{}, err
	}
	return res, nil
}

// GetRegistration retrieves a single registration by seq.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetRegistration(ctx context.Context, seq int64) (RegistrationRow, error) {
	var reg RegistrationRow
	err := s.db.QueryRowContext(ctx, `
		SELECT seq, unit, name, idx, kind, signature, sig_hash
		FROM registrations
		WHERE seq = ?
	`, seq).Scan(
		&reg.Seq, &reg.Unit, &reg.Name, &reg.Index, &reg.Kind,
		&reg.Signature, &reg.SignatureHash,
	)
	if err != nil {
		return RegistrationRow{}, err
	}
	return reg, nil
}

// scanRegistration scans a row into a RegistrationRow.
func scanRegistration(rows *sql.Rows) (RegistrationRow, error) {
	var reg RegistrationRow
	if err := rows.Scan(
		&reg.Seq, &reg.Unit, &reg.Name, &reg.Index, &reg.Kind,
		&reg.Signature, &reg.SignatureHash,
	); err != nil {
		return RegistrationRow{}, fmt.Errorf("scan registration: %w", err)
	}
	return reg, nil
}

// scanResolution scans a row into a ResolutionRow.
func scanResolution(rows *sql.Rows) (ResolutionRow, error) {
	var res ResolutionRow
	if err := rows.Scan(
		&res.Seq, &res.CallToken, &res.Name, &res.Key, &res.KeyHash,
		&res.Outcome, &res.RecordIndex, &res.CacheHit,
	); err != nil {
		return ResolutionRow{}, fmt.Errorf("scan resolution: %w", err)
	}
	return res, nil
}

// Event is a single entry in the merged log (registration or resolution).
type Event struct {
	Type         EventType
	Seq          int64
	Registration *RegistrationRow
	Resolution   *ResolutionRow
}

// EventType distinguishes between registrations and resolutions.
type EventType int

const (
	EventRegistration EventType = iota
	EventResolution
)

// String returns the event type as a string.
func (t EventType) String() string {
	switch t {
	case EventRegistration:
		return "registration"
	case EventResolution:
		return "resolution"
	default:
		return "unknown"
	}
}

// ReadEvents returns the merged event log in logical time order.
// Registrations and resolutions never share a seq (one clock stamps
// both), but a registration sorts first if a foreign store ever holds a
// collision.
//
// The filter's resolution-only fields narrow only the resolution side of
// the merge. Limit applies to the merged stream.
func (s *Store) ReadEvents(ctx context.Context, f Filter) ([]Event, error) {
	// The per-table limit cannot be tighter than the merged limit.
	tableFilter := f
	tableFilter.Limit = 0

	regs, err := s.ReadRegistrations(ctx, tableFilter)
	if err != nil {
		return nil, err
	}

	ress, err := s.ReadResolutions(ctx, tableFilter)
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(regs)+len(ress))
	for i := range regs {
		events = append(events, Event{
			Type:         EventRegistration,
			Seq:          regs[i].Seq,
			Registration: &regs[i],
		})
	}
	for i := range ress {
		events = append(events, Event{
			Type:       EventResolution,
			Seq:        ress[i].Seq,
			Resolution: &ress[i],
		})
	}

	sortEvents(events)

	if f.Limit > 0 && len(events) > f.Limit {
		events = events[:f.Limit]
	}

	return events, nil
}

// sortEvents sorts events by seq, with registrations before resolutions
// for equal seq.
func sortEvents(events []Event) {
	// Simple insertion sort (the two inputs are already seq-ordered)
	for i := 1; i < len(events); i++ {
		j := i
		for j > 0 && eventLess(events[j], events[j-1]) {
			events[j], events[j-1] = events[j-1], events[j]
			j--
		}
	}
}

// eventLess compares two events for ordering.
func eventLess(a, b Event) bool {
	if a.Seq != b.Seq {
		return a.Seq < b.Seq
	}
	return a.Type < b.Type // Registration (0) before Resolution (1)
}

// GetLastSeq returns the highest seq number used in the store.
// Used to resume the logical clock from the correct position.
func (s *Store) GetLastSeq(ctx context.Context) (int64, error) {
	var maxSeq int64

	// Check registrations
	var regSeq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM registrations
	`).Scan(&regSeq)
	if err != nil {
		return 0, fmt.Errorf("get last seq from registrations: %w", err)
	}
	maxSeq = regSeq

	// Check resolutions
	var resSeq int64
	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM resolutions
	`).Scan(&resSeq)
	if err != nil {
		return 0, fmt.Errorf("get last seq from resolutions: %w", err)
	}
	if resSeq > maxSeq {
		maxSeq = resSeq
	}

	return maxSeq, nil
}

// ListNames returns all distinct dispatch names in the store, from both
// tables. Used by the CLI to enumerate what a trace touched.
// Results ordered alphabetically.
func (s *Store) ListNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT name FROM (
			SELECT name FROM registrations
			UNION
			SELECT name FROM resolutions
		)
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate names: %w", err)
	}

	if names == nil {
		names = []string{}
	}

	return names, nil
}
