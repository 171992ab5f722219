package trace

import (
	"context"
	"fmt"

	"github.com/quillon/overload/internal/dispatch"
)

// RecordRegistration inserts a registration event into the store.
// Uses ON CONFLICT(seq) DO NOTHING for idempotency - a re-run of the
// same program writes the same logical clock stamps, and duplicates are
// silently ignored. Other constraint violations (e.g., NOT NULL) will
// still return errors.
//
// RecordRegistration implements half of dispatch.TraceSink.
func (s *Store) RecordRegistration(ctx context.Context, ev dispatch.RegistrationEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO registrations
		(seq, unit, name, idx, kind, signature, sig_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(seq) DO NOTHING
	`,
		ev.Seq,
		ev.Unit,
		ev.Name,
		ev.Index,
		ev.Kind.String(),
		ev.Signature,
		ev.SignatureHash,
	)
	if err != nil {
		return fmt.Errorf("record registration: %w", err)
	}

	return nil
}

// RecordResolution inserts a resolution event into the store.
// Uses ON CONFLICT(seq) DO NOTHING for idempotency, as RecordRegistration
// does. The key column holds the full canonical match key so replay can
// rebuild it descriptor-for-descriptor.
//
// RecordResolution implements the other half of dispatch.TraceSink.
func (s *Store) RecordResolution(ctx context.Context, ev dispatch.ResolutionEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resolutions
		(seq, call_token, name, key, key_hash, outcome, record_idx, cache_hit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(seq) DO NOTHING
	`,
		ev.Seq,
		ev.CallToken,
		ev.Name,
		ev.Key,
		ev.KeyHash,
		string(ev.Outcome),
		ev.RecordIndex,
		ev.CacheHit,
	)
	if err != nil {
		return fmt.Errorf("record resolution: %w", err)
	}

	return nil
}
