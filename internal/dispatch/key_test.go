package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quillon/overload/internal/types"
)

func TestBuildKeyPositional(t *testing.T) {
	k := BuildKey([]types.Value{types.IntValue(1), types.StringValue("x")}, nil)

	assert.Equal(t, []types.Descriptor{types.TypeInt, types.TypeString}, k.Positional)
	assert.Empty(t, k.Keyword)
	assert.Equal(t, `{"kw":{},"pos":["int","string"]}`, k.String())
	assert.Equal(t, "(int, string)", k.Describe())
}

func TestBuildKeyKeywordsSortedByName(t *testing.T) {
	k := BuildKey(nil, map[string]types.Value{
		"width":  types.IntValue(1),
		"label":  types.StringValue("x"),
		"active": types.BoolValue(true),
	})

	assert.Equal(t, []KeywordType{
		{Name: "active", Type: types.TypeBool},
		{Name: "label", Type: types.TypeString},
		{Name: "width", Type: types.TypeInt},
	}, k.Keyword)
	assert.Equal(t, `{"kw":{"active":"bool","label":"string","width":"int"},"pos":[]}`, k.String())
	assert.Equal(t, "(active: bool, label: string, width: int)", k.Describe())
}

func TestBuildKeyMixed(t *testing.T) {
	k := BuildKey(
		[]types.Value{types.IntValue(1)},
		map[string]types.Value{"label": types.StringValue("x")},
	)

	assert.Equal(t, `{"kw":{"label":"string"},"pos":["int"]}`, k.String())
	assert.Equal(t, "(int, label: string)", k.Describe())
}

func TestBuildKeyEmpty(t *testing.T) {
	k := BuildKey(nil, nil)

	assert.Equal(t, `{"kw":{},"pos":[]}`, k.String())
	assert.Equal(t, "()", k.Describe())
}

func TestBuildKeyDeterministic(t *testing.T) {
	args := []types.Value{types.FloatValue(1.5)}
	kwargs := map[string]types.Value{"a": types.IntValue(1), "b": types.NilValue{}}

	k1 := BuildKey(args, kwargs)
	k2 := BuildKey(args, kwargs)
	assert.Equal(t, k1.String(), k2.String())
	assert.Equal(t, k1.Hash(), k2.Hash())
	assert.Len(t, k1.Hash(), 64)
}

func TestBuildKeyUserTypeDescriptor(t *testing.T) {
	k := BuildKey([]types.Value{
		types.RecordValue{TypeName: "Point"},
		types.NilValue{},
	}, nil)

	assert.Equal(t, `{"kw":{},"pos":["Point","nil"]}`, k.String())
	assert.Equal(t, "(Point, nil)", k.Describe())
}

func TestKeyFromPartsMatchesBuildKey(t *testing.T) {
	built := BuildKey(
		[]types.Value{types.IntValue(1), types.StringValue("x")},
		map[string]types.Value{"width": types.IntValue(3), "label": types.StringValue("y")},
	)

	rebuilt := KeyFromParts(
		[]types.Descriptor{types.TypeInt, types.TypeString},
		map[string]types.Descriptor{"width": types.TypeInt, "label": types.TypeString},
	)

	assert.Equal(t, built.String(), rebuilt.String())
	assert.Equal(t, built.Hash(), rebuilt.Hash())
	assert.Equal(t, built.Positional, rebuilt.Positional)
	assert.Equal(t, built.Keyword, rebuilt.Keyword)
}

func TestKeyFromPartsSortsKeywords(t *testing.T) {
	k := KeyFromParts(nil, map[string]types.Descriptor{
		"b": types.TypeBool,
		"a": types.TypeInt,
		"c": types.TypeString,
	})

	assert.Equal(t, []KeywordType{
		{Name: "a", Type: types.TypeInt},
		{Name: "b", Type: types.TypeBool},
		{Name: "c", Type: types.TypeString},
	}, k.Keyword)
	assert.Equal(t, `{"kw":{"a":"int","b":"bool","c":"string"},"pos":[]}`, k.String())
}

func TestKeyFromPartsEmpty(t *testing.T) {
	k := KeyFromParts(nil, nil)

	assert.Equal(t, `{"kw":{},"pos":[]}`, k.String())
	assert.Empty(t, k.Positional)
	assert.Empty(t, k.Keyword)
}

func TestKeyFromPartsCopiesPositional(t *testing.T) {
	pos := []types.Descriptor{types.TypeInt}
	k := KeyFromParts(pos, nil)
	pos[0] = types.TypeString

	assert.Equal(t, []types.Descriptor{types.TypeInt}, k.Positional)
}
