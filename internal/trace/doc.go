// Package trace provides SQLite-backed durable storage for dispatch event
// logs.
//
// The store implements an append-only log with two tables:
//   - Registrations: implementation registration records
//   - Resolutions: resolution attempt records (matched or no_match)
//
// # Invariants
//
// Logical time only
//   - All ordering uses seq INTEGER (the registry's logical clock),
//     NEVER timestamps
//   - seq is the primary key: one store holds one registry run, and a
//     re-run of the same program appends the same rows idempotently
//
// Deterministic query results
//   - Every read query orders by seq ASC; LIMIT is only applied on top
//     of that ordering
//   - All query values are parameterized, never interpolated
//
// Replay verification
//   - A resolution row stores the full canonical match key, so the key
//     can be rebuilt descriptor-for-descriptor and re-matched against a
//     freshly loaded registry (see Verify)
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//
// Key and signature hashes are computed by internal/types using RFC 8785
// canonical JSON and SHA-256 with domain separation; the store persists
// them as given.
package trace
