package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHierarchyKnowsBuiltins(t *testing.T) {
	h := NewHierarchy()

	for _, d := range []Descriptor{
		TypeAny, TypeNil, TypeBool, TypeInt, TypeFloat,
		TypeString, TypeList, TypeRecord, TypeNumber, TypeType,
	} {
		assert.True(t, h.Known(d), "built-in %q should be known", d)
	}
	assert.False(t, h.Known("Point"))
}

func TestConformsBuiltinRules(t *testing.T) {
	h := NewHierarchy()

	tests := []struct {
		name string
		arg  Descriptor
		decl Descriptor
		want bool
	}{
		{"identity int", TypeInt, TypeInt, true},
		{"identity string", TypeString, TypeString, true},
		{"any accepts int", TypeInt, TypeAny, true},
		{"any accepts nil", TypeNil, TypeAny, true},
		{"any accepts unknown", Descriptor("Mystery"), TypeAny, true},
		{"int conforms number", TypeInt, TypeNumber, true},
		{"float conforms number", TypeFloat, TypeNumber, true},
		{"number not int", TypeNumber, TypeInt, false},
		{"string not number", TypeString, TypeNumber, false},
		{"int not float", TypeInt, TypeFloat, false},
		{"float not int", TypeFloat, TypeInt, false},
		{"nil not string", TypeNil, TypeString, false},
		{"nil only nil", TypeNil, TypeNil, true},
		{"bool not int", TypeBool, TypeInt, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.Conforms(tt.arg, tt.decl))
		})
	}
}

func TestRegisterUserType(t *testing.T) {
	h := NewHierarchy()

	require.NoError(t, h.Register("Point"))
	assert.True(t, h.Known("Point"))

	// Registering twice is a no-op.
	require.NoError(t, h.Register("Point"))

	// Distinct record types do not conform to each other.
	require.NoError(t, h.Register("Circle"))
	assert.False(t, h.Conforms("Point", "Circle"))
	assert.False(t, h.Conforms("Point", TypeRecord))
}

func TestRegisterRejectsEmptyAndShadowing(t *testing.T) {
	h := NewHierarchy()

	err := h.Register("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")

	err = h.Register(TypeInt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shadows a built-in")
}

func TestLinkTransitive(t *testing.T) {
	h := NewHierarchy()
	require.NoError(t, h.Register("Cat"))
	require.NoError(t, h.Register("Mammal"))
	require.NoError(t, h.Register("Animal"))

	require.NoError(t, h.Link("Cat", "Mammal"))
	require.NoError(t, h.Link("Mammal", "Animal"))

	assert.True(t, h.Conforms("Cat", "Mammal"))
	assert.True(t, h.Conforms("Cat", "Animal"), "conformance is transitive")
	assert.False(t, h.Conforms("Animal", "Cat"), "conformance is directional")
	assert.False(t, h.Conforms("Mammal", "Cat"))
}

func TestLinkValidation(t *testing.T) {
	h := NewHierarchy()
	require.NoError(t, h.Register("Point"))

	err := h.Link("Ghost", "Point")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown")

	err = h.Link("Point", "Ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown")

	err = h.Link("Point", TypeAny)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "any is implicit")

	// Self link and duplicate link are no-ops.
	require.NoError(t, h.Link("Point", "Point"))
	require.NoError(t, h.Link("Point", TypeRecord))
	require.NoError(t, h.Link("Point", TypeRecord))
	assert.Equal(t, []Descriptor{TypeRecord}, h.Parents("Point"))
}

func TestConformsTerminatesOnCycle(t *testing.T) {
	h := NewHierarchy()
	require.NoError(t, h.Register("A"))
	require.NoError(t, h.Register("B"))
	require.NoError(t, h.Link("A", "B"))
	require.NoError(t, h.Link("B", "A"))

	// A cycle in the table must not hang the walk.
	assert.True(t, h.Conforms("A", "B"))
	assert.True(t, h.Conforms("B", "A"))
	assert.False(t, h.Conforms("A", TypeString))
}

func TestParentsReturnsCopy(t *testing.T) {
	h := NewHierarchy()
	require.NoError(t, h.Register("Cat"))
	require.NoError(t, h.Register("Mammal"))
	require.NoError(t, h.Link("Cat", "Mammal"))

	got := h.Parents("Cat")
	require.Equal(t, []Descriptor{"Mammal"}, got)

	got[0] = "Tampered"
	assert.Equal(t, []Descriptor{"Mammal"}, h.Parents("Cat"))

	assert.Nil(t, h.Parents("Mammal"))
}

func TestBuiltinNumericEdges(t *testing.T) {
	h := NewHierarchy()

	assert.Equal(t, []Descriptor{TypeNumber}, h.Parents(TypeInt))
	assert.Equal(t, []Descriptor{TypeNumber}, h.Parents(TypeFloat))
	assert.Nil(t, h.Parents(TypeNumber))
}
