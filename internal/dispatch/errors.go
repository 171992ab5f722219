package dispatch

import (
	"errors"
	"fmt"
)

// DispatchError represents a failure in the dispatch engine.
//
// Dispatch errors include:
//   - No match: resolution exhausted every record for the name
//   - Malformed signature: a registration declared an invalid signature
//
// DispatchError includes structured fields for diagnostics. Registration
// errors abort only that registration; earlier records stay valid.
// Resolution errors abort only that call; table and cache stay valid.
type DispatchError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Name is the dispatch name the operation targeted.
	Name string

	// Key is the attempted match key in canonical form (no-match errors).
	Key string

	// Details contains additional context.
	Details map[string]string
}

// ErrorCode categorizes dispatch errors.
type ErrorCode string

const (
	// ErrCodeNoMatch indicates resolution exhausted all records.
	ErrCodeNoMatch ErrorCode = "NO_MATCH"

	// ErrCodeMalformedSignature indicates a registration supplied an
	// invalid signature; the table was left unchanged.
	ErrCodeMalformedSignature ErrorCode = "MALFORMED_SIGNATURE"
)

// Error implements the error interface.
func (e *DispatchError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s (name=%s)", e.Code, e.Message, e.Name)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNoMatch returns true if the error is a resolution failure.
// Uses errors.As to handle wrapped errors.
func IsNoMatch(err error) bool {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Code == ErrCodeNoMatch
	}
	return false
}

// IsMalformedSignature returns true if the error is a registration-time
// signature error. Uses errors.As to handle wrapped errors.
func IsMalformedSignature(err error) bool {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Code == ErrCodeMalformedSignature
	}
	return false
}

// NewNoMatchError creates a DispatchError for an exhausted resolution.
// The attempted key is carried both in the message (human form) and in
// the Key field (canonical form) for trace rows.
func NewNoMatchError(name string, key Key) *DispatchError {
	return &DispatchError{
		Code:    ErrCodeNoMatch,
		Message: fmt.Sprintf("no implementation matches %s", key.Describe()),
		Name:    name,
		Key:     key.String(),
	}
}

// NewSignatureError creates a DispatchError for a malformed registration.
func NewSignatureError(name, reason string) *DispatchError {
	return &DispatchError{
		Code:    ErrCodeMalformedSignature,
		Message: reason,
		Name:    name,
	}
}
