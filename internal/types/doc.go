// Package types provides the closed runtime type universe for the dispatch
// engine.
//
// This package contains type descriptors, runtime values, and canonical
// serialization only. All other internal packages import types; types imports
// nothing internal. This ensures the type universe remains the foundational
// layer with no circular dependencies.
//
// Key design constraints:
//   - Dispatch inspects descriptors from a CLOSED, registered universe - never
//     open-ended reflection. Unknown descriptors are rejected at registration.
//   - Subtype relationships come from an explicit, finite table (Hierarchy).
//     Nothing is inferred; an edge exists only if something registered it.
//   - Values form a sealed set: only the types in value.go implement Value.
//   - Canonical JSON (RFC 8785) is used for match keys, signatures, and trace
//     payloads. That layer carries strings, ints, and bools only - floats
//     never reach it, so float argument values cannot break determinism.
package types
