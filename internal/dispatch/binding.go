package dispatch

import (
	"fmt"

	"github.com/quillon/overload/internal/types"
)

// BindingKind defines how a receiver argument is supplied, or withheld,
// when a dispatch table is invoked through an owning type.
type BindingKind int

const (
	// Unbound is a free function: no receiver anywhere. The zero value
	// and the default when a scope declares no receiver-affecting kind.
	Unbound BindingKind = iota

	// InstanceBound calls carry the receiver as the first positional
	// argument. It is consumed before matching and passed to the body.
	InstanceBound

	// TypeBound calls receive the owning type itself: the adapter
	// supplies a TypeValue receiver to the body, and matching sees only
	// the explicit arguments.
	TypeBound

	// StaticWrapped is the explicit no-receiver variant layered under a
	// wrapper: no receiver is ever passed, but the callable is still
	// exposed through the owning type rather than only through
	// instances. The merge pass preserves the wrapper.
	StaticWrapped
)

// String returns the stable name used in trace rows and unit files.
func (k BindingKind) String() string {
	switch k {
	case Unbound:
		return "unbound"
	case InstanceBound:
		return "instance"
	case TypeBound:
		return "type"
	case StaticWrapped:
		return "static"
	default:
		return fmt.Sprintf("BindingKind(%d)", int(k))
	}
}

// ParseBindingKind parses the stable names produced by String.
// An empty string parses as Unbound, the default.
func ParseBindingKind(s string) (BindingKind, error) {
	switch s {
	case "", "unbound":
		return Unbound, nil
	case "instance":
		return InstanceBound, nil
	case "type":
		return TypeBound, nil
	case "static":
		return StaticWrapped, nil
	default:
		return Unbound, fmt.Errorf("unknown binding kind %q", s)
	}
}

// isDefault reports whether the kind is receiver-neutral. The merge pass
// lets the last non-default kind win.
func (k BindingKind) isDefault() bool {
	return k == Unbound
}

// Handle wraps a dispatch table with receiver semantics. It is a pure
// view over the table: no state of its own, safe to construct on demand.
type Handle struct {
	table *Table
	kind  BindingKind
	owner types.Descriptor
}

// NewHandle creates a handle. Owner is empty for free functions.
func NewHandle(table *Table, kind BindingKind, owner types.Descriptor) *Handle {
	return &Handle{table: table, kind: kind, owner: owner}
}

// Name returns the table's logical name.
func (h *Handle) Name() string {
	return h.table.Name()
}

// QualifiedName returns "Owner.name" for scoped handles, the bare name
// for free functions. Trace rows use this form.
func (h *Handle) QualifiedName() string {
	if h.owner == "" {
		return h.table.Name()
	}
	return string(h.owner) + "." + h.table.Name()
}

// Kind returns the binding kind.
func (h *Handle) Kind() BindingKind {
	return h.kind
}

// Owner returns the owning type descriptor, empty for free functions.
func (h *Handle) Owner() types.Descriptor {
	return h.owner
}

// Table returns the underlying dispatch table.
func (h *Handle) Table() *Table {
	return h.table
}

// Resolve picks the implementation for a call through this handle,
// applying the handle's receiver-stripping rule.
func (h *Handle) Resolve(args []types.Value, kwargs map[string]types.Value) (Resolution, error) {
	return h.table.Resolve(h.kind, args, kwargs)
}

// Invoke resolves and calls the selected body.
//
// The body receives the original argument list: an instance-bound call's
// receiver is stripped for matching but passed through, and a type-bound
// body receives TypeValue(owner) prepended by the adapter. Static and
// unbound bodies see the arguments exactly as supplied.
func (h *Handle) Invoke(args []types.Value, kwargs map[string]types.Value) (types.Value, error) {
	res, err := h.Resolve(args, kwargs)
	if err != nil {
		return nil, err
	}
	return h.call(res.Record, args, kwargs)
}

// call invokes a resolved record's body with receiver handling per kind.
func (h *Handle) call(rec *Record, args []types.Value, kwargs map[string]types.Value) (types.Value, error) {
	if h.kind == TypeBound {
		withReceiver := make([]types.Value, 0, len(args)+1)
		withReceiver = append(withReceiver, types.TypeValue{Name: h.owner})
		withReceiver = append(withReceiver, args...)
		return rec.Body(withReceiver, kwargs)
	}
	return rec.Body(args, kwargs)
}
