package types

// EngineVersion is the dispatch engine release version, reported by the
// CLI. The canonical serialization schema is versioned separately through
// the /v1 suffix on the hash domain prefixes.
const EngineVersion = "0.1.0"
