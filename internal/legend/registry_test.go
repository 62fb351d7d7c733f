package legend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	base := mustLoad(t, baseRows())
	reg := NewRegistry(base)

	require.NoError(t, reg.RegisterBase("met_norway_classic"))
	require.NoError(t, reg.Register(Patch{Provider: "met_eireann", Operations: sampleOps()}))

	assert.Equal(t, []string{"met_eireann", "met_norway_classic"}, reg.Providers())
	assert.Same(t, base, reg.Base())
	assert.Same(t, base, reg.Store("met_norway_classic"))
	assert.Same(t, base, reg.Store("nobody"))

	me, ok := reg.Lookup("met_eireann")
	require.True(t, ok)
	assert.Equal(t, "met_eireann", me.Provider())
	assert.NotSame(t, base, me)

	_, ok = reg.Lookup("nobody")
	assert.False(t, ok)

	id, ok := reg.ID(" met_eireann ")
	require.True(t, ok)
	assert.Equal(t, "met_eireann", id)
	_, ok = reg.ID("nobody")
	assert.False(t, ok)
}

func TestRegistryDuplicateProvider(t *testing.T) {
	reg := NewRegistry(mustLoad(t, baseRows()))
	require.NoError(t, reg.RegisterBase("met_norway"))

	assert.Error(t, reg.RegisterBase("met_norway"))
	assert.Error(t, reg.Register(Patch{Provider: "met_norway"}))
	assert.ErrorIs(t, reg.RegisterBase(" "), ErrMalformedDataset)
}

func TestRegistryFailedPatchRegistersNothing(t *testing.T) {
	reg := NewRegistry(mustLoad(t, baseRows()))

	err := reg.Register(Patch{
		Provider:   "met_eireann",
		Operations: []Operation{Alias{SymbolID: "Sun", Target: Target{LegendCode: "sunshine"}}},
	})
	require.ErrorIs(t, err, ErrUnknownTarget)
	assert.Contains(t, err.Error(), `register provider "met_eireann"`)

	_, ok := reg.Lookup("met_eireann")
	assert.False(t, ok)
	assert.Empty(t, reg.Providers())
}
