package types

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueTypes(t *testing.T) {
	tests := []struct {
		name string
		val  Value
		want Descriptor
	}{
		{"nil", NilValue{}, TypeNil},
		{"bool", BoolValue(true), TypeBool},
		{"int", IntValue(42), TypeInt},
		{"float", FloatValue(3.14), TypeFloat},
		{"string", StringValue("hello"), TypeString},
		{"list", ListValue{IntValue(1)}, TypeList},
		{"anonymous record", RecordValue{Fields: map[string]Value{}}, TypeRecord},
		{"named record", RecordValue{TypeName: "Point"}, Descriptor("Point")},
		{"type object", TypeValue{Name: "Greeter"}, TypeType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.val.Type())
		})
	}
}

func TestValueInspect(t *testing.T) {
	tests := []struct {
		name string
		val  Value
		want string
	}{
		{"nil", NilValue{}, "nil"},
		{"bool true", BoolValue(true), "true"},
		{"bool false", BoolValue(false), "false"},
		{"int", IntValue(42), "42"},
		{"negative int", IntValue(-7), "-7"},
		{"float", FloatValue(3.14), "3.14"},
		{"whole float keeps point", FloatValue(2), "2.0"},
		{"string quoted", StringValue("hi"), `"hi"`},
		{"string escapes", StringValue("a\nb"), `"a\nb"`},
		{"empty list", ListValue{}, "[]"},
		{"list", ListValue{IntValue(1), StringValue("two")}, `[1, "two"]`},
		{"type object", TypeValue{Name: "Calculator"}, "type[Calculator]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.val.Inspect())
		})
	}
}

func TestRecordInspectSortedFields(t *testing.T) {
	rec := RecordValue{
		TypeName: "Point",
		Fields: map[string]Value{
			"y": IntValue(2),
			"x": IntValue(1),
		},
	}
	assert.Equal(t, "Point{x: 1, y: 2}", rec.Inspect())

	anon := RecordValue{Fields: map[string]Value{"k": BoolValue(true)}}
	assert.Equal(t, "record{k: true}", anon.Inspect())
}

func TestFromGo(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  Value
	}{
		{"nil", nil, NilValue{}},
		{"bool", true, BoolValue(true)},
		{"int", 42, IntValue(42)},
		{"int64", int64(-5), IntValue(-5)},
		{"float64", 2.5, FloatValue(2.5)},
		{"string", "hi", StringValue("hi")},
		{"passthrough", IntValue(9), IntValue(9)},
		{"json int", json.Number("42"), IntValue(42)},
		{"json float", json.Number("1.5"), FloatValue(1.5)},
		{"json exponent", json.Number("1e3"), FloatValue(1000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromGo(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromGoNested(t *testing.T) {
	got, err := FromGo([]any{1, "two", []any{true}})
	require.NoError(t, err)
	assert.Equal(t, ListValue{
		IntValue(1),
		StringValue("two"),
		ListValue{BoolValue(true)},
	}, got)

	got, err = FromGo(map[string]any{"x": 1, "y": nil})
	require.NoError(t, err)
	rec, ok := got.(RecordValue)
	require.True(t, ok)
	assert.Equal(t, TypeRecord, rec.Type())
	assert.Equal(t, IntValue(1), rec.Fields["x"])
	assert.Equal(t, NilValue{}, rec.Fields["y"])
}

func TestFromGoErrors(t *testing.T) {
	_, err := FromGo(struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported argument type")

	_, err = FromGo([]any{struct{}{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list[0]")

	_, err = FromGo(map[string]any{"bad": struct{}{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `field "bad"`)
}

func TestFromGoJSONNumberDispatchesIntVsFloat(t *testing.T) {
	// Arguments arrive through a decoder with UseNumber so that 1 and 1.5
	// land on different runtime types.
	dec := json.NewDecoder(strings.NewReader(`[1, 1.5]`))
	dec.UseNumber()

	var raw []any
	require.NoError(t, dec.Decode(&raw))

	first, err := FromGo(raw[0])
	require.NoError(t, err)
	second, err := FromGo(raw[1])
	require.NoError(t, err)

	assert.Equal(t, TypeInt, first.Type())
	assert.Equal(t, TypeFloat, second.Type())
}

func TestMustFromGoPanics(t *testing.T) {
	assert.Panics(t, func() { MustFromGo(struct{}{}) })
	assert.NotPanics(t, func() { MustFromGo(42) })
}
