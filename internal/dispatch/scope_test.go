package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillon/overload/internal/types"
)

func TestScopeGroupExtendsSameKindContribution(t *testing.T) {
	hier := types.NewHierarchy()
	g := newScopeGroup("Printer")

	_, idx, err := g.add("print", []Param{intP("v")}, InstanceBound, constBody(types.NilValue{}), hier)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	_, idx, err = g.add("print", []Param{strP("v")}, InstanceBound, constBody(types.NilValue{}), hier)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	names, contribs, err := g.consume()
	require.NoError(t, err)
	assert.Equal(t, []string{"print"}, names)
	require.Len(t, contribs["print"], 1, "same kind extends one contribution")
	assert.Equal(t, 2, contribs["print"][0].Table.Len())
}

func TestScopeGroupKindChangeSplitsContribution(t *testing.T) {
	hier := types.NewHierarchy()
	g := newScopeGroup("Calculator")

	_, _, err := g.add("multiply", []Param{intP("a")}, Unbound, constBody(types.NilValue{}), hier)
	require.NoError(t, err)
	_, idx, err := g.add("multiply", []Param{strP("a")}, StaticWrapped, constBody(types.NilValue{}), hier)
	require.NoError(t, err)
	assert.Equal(t, 1, idx, "declaration index spans contributions")

	_, contribs, err := g.consume()
	require.NoError(t, err)
	require.Len(t, contribs["multiply"], 2)
	assert.Equal(t, Unbound, contribs["multiply"][0].Kind)
	assert.Equal(t, StaticWrapped, contribs["multiply"][1].Kind)
}

func TestScopeGroupNamesInFirstRegistrationOrder(t *testing.T) {
	hier := types.NewHierarchy()
	g := newScopeGroup("Shape")

	for _, name := range []string{"area", "perimeter", "area", "describe"} {
		_, _, err := g.add(name, []Param{anyP("x")}, Unbound, constBody(types.NilValue{}), hier)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"area", "perimeter", "describe"}, g.Names())
}

func TestScopeGroupConsumedExactlyOnce(t *testing.T) {
	hier := types.NewHierarchy()
	g := newScopeGroup("Printer")

	_, _, err := g.add("print", []Param{intP("v")}, InstanceBound, constBody(types.NilValue{}), hier)
	require.NoError(t, err)

	_, _, err = g.consume()
	require.NoError(t, err)

	// Reuse after finalization fails both ways.
	_, _, err = g.consume()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already finalized")

	_, _, err = g.add("print", []Param{strP("v")}, InstanceBound, constBody(types.NilValue{}), hier)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already finalized")
}

func TestScopeGroupMalformedRegistrationLeavesNoTrace(t *testing.T) {
	hier := types.NewHierarchy()
	g := newScopeGroup("Printer")

	_, _, err := g.add("print", []Param{{Name: "v", Type: "Ghost"}}, InstanceBound, constBody(types.NilValue{}), hier)
	require.Error(t, err)
	assert.True(t, IsMalformedSignature(err))

	assert.Empty(t, g.Names())

	names, contribs, err := g.consume()
	require.NoError(t, err)
	assert.Empty(t, names)
	assert.Empty(t, contribs)
}
