package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Value is a sealed interface over the runtime values dispatch operates on.
// Only NilValue, BoolValue, IntValue, FloatValue, StringValue, ListValue,
// RecordValue, and TypeValue implement it.
//
// Every value reports the Descriptor the resolver matches against declared
// parameter types. Values are immutable once constructed.
type Value interface {
	value() // Sealed - only these types implement it

	// Type returns the runtime type descriptor used for dispatch.
	Type() Descriptor

	// Inspect returns a human-readable rendering for traces and diagnostics.
	Inspect() string
}

// NilValue represents an explicitly absent argument.
// It matches only parameters declared nil (or any).
type NilValue struct{}

func (NilValue) value()           {}
func (NilValue) Type() Descriptor { return TypeNil }
func (NilValue) Inspect() string  { return "nil" }

// BoolValue represents a boolean.
type BoolValue bool

func (BoolValue) value()           {}
func (BoolValue) Type() Descriptor { return TypeBool }
func (v BoolValue) Inspect() string {
	return strconv.FormatBool(bool(v))
}

// IntValue represents an integer. Always int64.
type IntValue int64

func (IntValue) value()           {}
func (IntValue) Type() Descriptor { return TypeInt }
func (v IntValue) Inspect() string {
	return strconv.FormatInt(int64(v), 10)
}

// FloatValue represents a floating-point number.
//
// Floats exist as runtime values only. They never enter the canonical JSON
// layer: match keys and signatures carry descriptors (strings), and traces
// render values through Inspect.
type FloatValue float64

func (FloatValue) value()           {}
func (FloatValue) Type() Descriptor { return TypeFloat }
func (v FloatValue) Inspect() string {
	s := strconv.FormatFloat(float64(v), 'g', -1, 64)
	// Keep floats visually distinct from ints in traces.
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// StringValue represents a string.
type StringValue string

func (StringValue) value()           {}
func (StringValue) Type() Descriptor { return TypeString }
func (v StringValue) Inspect() string {
	return strconv.Quote(string(v))
}

// ListValue represents an ordered sequence. Element types are not part of
// the dispatch descriptor: every list dispatches as "list".
type ListValue []Value

func (ListValue) value()           {}
func (ListValue) Type() Descriptor { return TypeList }
func (v ListValue) Inspect() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, el := range v {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(el.Inspect())
	}
	b.WriteByte(']')
	return b.String()
}

// RecordValue represents an instance of a user-defined record type.
// Its dispatch descriptor is the record's registered type name.
type RecordValue struct {
	TypeName Descriptor
	Fields   map[string]Value
}

func (RecordValue) value() {}

func (v RecordValue) Type() Descriptor {
	if v.TypeName == "" {
		return TypeRecord
	}
	return v.TypeName
}

func (v RecordValue) Inspect() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(v.Type()))
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v.Fields[k].Inspect())
	}
	b.WriteByte('}')
	return b.String()
}

// TypeValue represents a type object: the receiver a type-bound
// implementation sees in place of an instance.
type TypeValue struct {
	Name Descriptor
}

func (TypeValue) value()           {}
func (TypeValue) Type() Descriptor { return TypeType }
func (v TypeValue) Inspect() string {
	return "type[" + string(v.Name) + "]"
}

// FromGo converts a plain Go value (as produced by YAML or JSON decoding)
// into a runtime Value. Unlike the canonical layer, this accepts nil and
// floats: argument values are unconstrained, only the canonical layer is.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return NilValue{}, nil
	case Value:
		return val, nil
	case bool:
		return BoolValue(val), nil
	case int:
		return IntValue(val), nil
	case int64:
		return IntValue(val), nil
	case float64:
		return FloatValue(val), nil
	case json.Number:
		// encoding/json flattens every number to float64 unless the decoder
		// uses UseNumber. Callers decoding arguments must use UseNumber so
		// that 1 dispatches as int and 1.5 as float.
		if i, err := val.Int64(); err == nil {
			return IntValue(i), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("number out of range: %s", val)
		}
		return FloatValue(f), nil
	case string:
		return StringValue(val), nil
	case []any:
		list := make(ListValue, len(val))
		for i, el := range val {
			ev, err := FromGo(el)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			list[i] = ev
		}
		return list, nil
	case map[string]any:
		fields := make(map[string]Value, len(val))
		for k, el := range val {
			ev, err := FromGo(el)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			fields[k] = ev
		}
		return RecordValue{Fields: fields}, nil
	default:
		return nil, fmt.Errorf("unsupported argument type %T", v)
	}
}

// MustFromGo is like FromGo but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustFromGo(v any) Value {
	val, err := FromGo(v)
	if err != nil {
		panic(err)
	}
	return val
}
