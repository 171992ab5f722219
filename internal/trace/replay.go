package trace

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/quillon/overload/internal/dispatch"
	"github.com/quillon/overload/internal/types"
)

// Report summarizes a verification pass over the event log.
type Report struct {
	// Registrations is the number of registration rows checked.
	Registrations int

	// Resolutions is the number of resolution rows checked.
	Resolutions int

	// Mismatches lists every divergence between the log and the live
	// registry. Empty means the registry reproduces the recorded run.
	Mismatches []Mismatch
}

// OK reports whether the recorded run was reproduced exactly.
func (r Report) OK() bool {
	return len(r.Mismatches) == 0
}

// Mismatch is one divergence between a recorded row and the live
// registry. Key holds the canonical match key for resolution rows and
// the canonical signature for registration rows.
type Mismatch struct {
	Seq      int64
	Name     string
	Key      string
	Recorded string
	Live     string
}

// String renders the mismatch for log lines and CLI output.
func (m Mismatch) String() string {
	return fmt.Sprintf("seq %d %s %s: recorded %s, live %s", m.Seq, m.Name, m.Key, m.Recorded, m.Live)
}

// Verify checks a recorded run against a live registry: registrations by
// signature, resolutions by re-matching the recorded keys. The registry
// is typically built by loading the same unit files that produced the
// log.
//
// Dispatch is deterministic in registration order and match keys alone,
// so a verified log proves the current units reproduce every recorded
// pick. Cache hits are runtime warm state and are never compared.
func (s *Store) Verify(ctx context.Context, reg *dispatch.Registry, f Filter) (Report, error) {
	report, err := s.VerifyRegistrations(ctx, reg, f)
	if err != nil {
		return Report{}, err
	}

	resReport, err := s.VerifyResolutions(ctx, reg, f)
	if err != nil {
		return Report{}, err
	}

	report.Resolutions = resReport.Resolutions
	report.Mismatches = append(report.Mismatches, resReport.Mismatches...)
	return report, nil
}

// VerifyRegistrations checks every recorded registration row against the
// live registry: the name must exist, the declaration index must be in
// range, and the signature at that index must be byte-identical.
//
// The declared binding kind is recorded per registration but merged per
// handle (last non-default wins), so kinds are not compared.
func (s *Store) VerifyRegistrations(ctx context.Context, reg *dispatch.Registry, f Filter) (Report, error) {
	rows, err := s.ReadRegistrations(ctx, f)
	if err != nil {
		return Report{}, fmt.Errorf("verify registrations: %w", err)
	}

	report := Report{Registrations: len(rows)}
	for _, row := range rows {
		h, ok := reg.Lookup(row.Name)
		if !ok {
			report.Mismatches = append(report.Mismatches, Mismatch{
				Seq:      row.Seq,
				Name:     row.Name,
				Key:      row.Signature,
				Recorded: fmt.Sprintf("record %d registered", row.Index),
				Live:     "name not registered",
			})
			continue
		}

		records := h.Table().Records()
		if row.Index >= len(records) {
			report.Mismatches = append(report.Mismatches, Mismatch{
				Seq:      row.Seq,
				Name:     row.Name,
				Key:      row.Signature,
				Recorded: fmt.Sprintf("record %d registered", row.Index),
				Live:     fmt.Sprintf("only %d records", len(records)),
			})
			continue
		}

		if sig := records[row.Index].Signature(); sig != row.Signature {
			report.Mismatches = append(report.Mismatches, Mismatch{
				Seq:      row.Seq,
				Name:     row.Name,
				Key:      row.Signature,
				Recorded: fmt.Sprintf("signature of record %d", row.Index),
				Live:     fmt.Sprintf("signature %s", sig),
			})
		}
	}

	return report, nil
}

// VerifyResolutions re-matches every recorded resolution key against the
// live registry and compares the outcome and the selected record index.
//
// The recorded key is parsed back into descriptors and re-matched
// through the table's registration-order scan, bypassing the cache, so
// the comparison exercises the same first-match rule the original run
// used.
func (s *Store) VerifyResolutions(ctx context.Context, reg *dispatch.Registry, f Filter) (Report, error) {
	rows, err := s.ReadResolutions(ctx, f)
	if err != nil {
		return Report{}, fmt.Errorf("verify resolutions: %w", err)
	}

	report := Report{Resolutions: len(rows)}
	for _, row := range rows {
		key, err := ParseKey(row.Key)
		if err != nil {
			// A row whose key cannot be faithfully rebuilt is corrupt
			// store content, not a dispatch divergence.
			return Report{}, fmt.Errorf("verify resolutions: seq %d: %w", row.Seq, err)
		}

		h, ok := reg.Lookup(row.Name)
		if !ok {
			report.Mismatches = append(report.Mismatches, Mismatch{
				Seq:      row.Seq,
				Name:     row.Name,
				Key:      row.Key,
				Recorded: describeOutcome(row.Outcome, row.RecordIndex),
				Live:     "name not registered",
			})
			continue
		}

		rec, matched := h.Table().MatchKey(key)
		live := "no match"
		if matched {
			live = fmt.Sprintf("matched record %d", rec.Index)
		}
		recorded := describeOutcome(row.Outcome, row.RecordIndex)

		if recorded != live {
			report.Mismatches = append(report.Mismatches, Mismatch{
				Seq:      row.Seq,
				Name:     row.Name,
				Key:      row.Key,
				Recorded: recorded,
				Live:     live,
			})
		}
	}

	return report, nil
}

// describeOutcome renders a recorded outcome in the same form MatchKey
// results are rendered, so agreement is a string comparison.
func describeOutcome(outcome string, recordIndex int) string {
	if outcome == "matched" {
		return fmt.Sprintf("matched record %d", recordIndex)
	}
	return "no match"
}

// ParseKey parses the canonical key JSON of a resolution row back into a
// dispatch key.
//
// The rebuilt key must render byte-identically to the stored text; a row
// that does not round-trip cannot be faithfully re-matched and is
// rejected.
func ParseKey(canonical string) (dispatch.Key, error) {
	var parts struct {
		Pos []string          `json:"pos"`
		Kw  map[string]string `json:"kw"`
	}

	dec := json.NewDecoder(strings.NewReader(canonical))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&parts); err != nil {
		return dispatch.Key{}, fmt.Errorf("parse key %q: %w", canonical, err)
	}

	pos := make([]types.Descriptor, len(parts.Pos))
	for i, d := range parts.Pos {
		pos[i] = types.Descriptor(d)
	}

	var kw map[string]types.Descriptor
	if len(parts.Kw) > 0 {
		kw = make(map[string]types.Descriptor, len(parts.Kw))
		for name, d := range parts.Kw {
			kw[name] = types.Descriptor(d)
		}
	}

	key := dispatch.KeyFromParts(pos, kw)
	if key.String() != canonical {
		return dispatch.Key{}, fmt.Errorf("key %q does not round-trip (rebuilt as %q)", canonical, key.String())
	}
	return key, nil
}
