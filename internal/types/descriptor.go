package types

// Descriptor names a type in a registered universe.
//
// Dispatch never inspects Go types reflectively: every declared parameter
// type and every runtime value reports one of these names, and matching is
// string identity plus the explicit subtype table (Hierarchy). A descriptor
// is meaningful only within the Hierarchy that registered it.
type Descriptor string

// Built-in descriptors. Any fresh Hierarchy knows these; user-defined record
// types add their own names at definition time.
const (
	// TypeAny is the unconstrained descriptor: it matches every argument.
	TypeAny Descriptor = "any"

	// TypeNil is the explicit absence descriptor. A nil argument matches a
	// parameter only when the parameter declares nil (or any) - absence is
	// never silently coerced into another type.
	TypeNil Descriptor = "nil"

	TypeBool   Descriptor = "bool"
	TypeInt    Descriptor = "int"
	TypeFloat  Descriptor = "float"
	TypeString Descriptor = "string"
	TypeList   Descriptor = "list"
	TypeRecord Descriptor = "record"

	// TypeNumber is the abstract numeric ancestor: int and float conform to
	// it via the built-in hierarchy edges.
	TypeNumber Descriptor = "number"

	// TypeType is the descriptor of type objects themselves (the receiver
	// supplied to type-bound implementations).
	TypeType Descriptor = "type"
)

// builtinDescriptors lists every descriptor a fresh Hierarchy is seeded with.
var builtinDescriptors = []Descriptor{
	TypeAny, TypeNil, TypeBool, TypeInt, TypeFloat,
	TypeString, TypeList, TypeRecord, TypeNumber, TypeType,
}

// IsBuiltin reports whether d is one of the descriptors every Hierarchy is
// seeded with. User type declarations may not reuse these names.
func IsBuiltin(d Descriptor) bool {
	for _, b := range builtinDescriptors {
		if d == b {
			return true
		}
	}
	return false
}
