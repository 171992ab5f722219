package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain separation prefixes for content hashing. Each hash domain gets a
// distinct prefix so a signature hash can never collide with a key hash
// for the same bytes.
const (
	DomainSignature = "overload/signature/v1"
	DomainKey       = "overload/key/v1"
)

// hashWithDomain computes sha256(domain || 0x00 || data) and returns the
// lowercase hex digest.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// HashSignature hashes the canonical form of an implementation signature.
func HashSignature(canonical []byte) string {
	return hashWithDomain(DomainSignature, canonical)
}

// HashKey hashes the canonical form of a match key.
func HashKey(canonical []byte) string {
	return hashWithDomain(DomainKey, canonical)
}

// MustMarshalCanonical is MarshalCanonical for values the caller has already
// validated. Panics on error.
func MustMarshalCanonical(v any) []byte {
	data, err := MarshalCanonical(v)
	if err != nil {
		panic(fmt.Sprintf("canonical marshal: %v", err))
	}
	return data
}
