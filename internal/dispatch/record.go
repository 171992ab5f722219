package dispatch

import (
	"fmt"

	"github.com/quillon/overload/internal/types"
)

// Param is one declared parameter of an implementation. The receiver of a
// bound implementation is never declared here: signatures cover explicit
// parameters only.
type Param struct {
	// Name is the declared parameter name, used to place keyword
	// arguments into positional order during matching.
	Name string

	// Type is the declared type descriptor. TypeAny matches everything.
	Type types.Descriptor

	// Default fills the parameter when the caller omits it. Nil means
	// required. Defaulted parameters must be trailing.
	Default types.Value
}

// Callable is an implementation body. It receives the original argument
// list, including any receiver the binding adapter supplied or the caller
// passed - matching may have stripped the receiver, the body never sees a
// stripped list.
type Callable func(args []types.Value, kwargs map[string]types.Value) (types.Value, error)

// Record pairs a parameter signature with a callable body.
//
// Records are immutable once created. Identity is the position within the
// owning table (Index); the merge pass re-indexes copies when it builds a
// consolidated table.
type Record struct {
	// Index is the position within the owning table.
	Index int

	// Params is the declared signature, in positional order.
	Params []Param

	// Body is the opaque callable invoked after resolution.
	Body Callable
}

// Arity returns the declared parameter count.
func (r *Record) Arity() int {
	return len(r.Params)
}

// Signature returns the canonical JSON form of the declared signature,
// used for trace rows and content hashing. Default values are rendered
// through Inspect so the canonical layer stays float-free.
func (r *Record) Signature() string {
	params := make([]any, len(r.Params))
	for i, p := range r.Params {
		obj := map[string]any{
			"name": p.Name,
			"type": string(p.Type),
		}
		if p.Default != nil {
			obj["default"] = p.Default.Inspect()
		}
		params[i] = obj
	}
	return string(types.MustMarshalCanonical(params))
}

// SignatureHash returns the domain-separated content hash of Signature.
func (r *Record) SignatureHash() string {
	return types.HashSignature([]byte(r.Signature()))
}

// validateSignature checks a registration's declared parameters.
// Returns a MALFORMED_SIGNATURE error on the first violation; the caller
// must not append the record when an error is returned.
func validateSignature(hier *types.Hierarchy, name string, params []Param, body Callable) error {
	if body == nil {
		return NewSignatureError(name, "implementation body is nil")
	}

	seen := make(map[string]bool, len(params))
	defaulted := false
	for i, p := range params {
		if p.Name == "" {
			return NewSignatureError(name, fmt.Sprintf("parameter %d has no name", i))
		}
		if seen[p.Name] {
			return NewSignatureError(name, fmt.Sprintf("duplicate parameter name %q", p.Name))
		}
		seen[p.Name] = true

		if !hier.Known(p.Type) {
			return NewSignatureError(name, fmt.Sprintf("unknown type descriptor %q for parameter %q", p.Type, p.Name))
		}

		if p.Default != nil {
			defaulted = true
		} else if defaulted {
			return NewSignatureError(name, fmt.Sprintf("required parameter %q follows a defaulted parameter", p.Name))
		}
	}
	return nil
}
