package markets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_LoadsEmbeddedSpecs(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)

	specs := registry.All()
	assert.NotEmpty(t, specs)

	// Every embedded spec honors the registry invariants
	for _, spec := range specs {
		assert.Greater(t, spec.TickSize, 0.0, spec.Symbol)
		min, max := spec.DefaultCommission.Minimum, spec.DefaultCommission.Maximum
		if min != nil && max != nil {
			assert.LessOrEqual(t, *min, *max, spec.Symbol)
		}
	}
}

func TestNewRegistryFromSpecs_RejectsInvalidTickSize(t *testing.T) {
	_, err := NewRegistryFromSpecs([]ContractSpecification{{
		ID:       "bad",
		Symbol:   "BAD",
		TickSize: 0,
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tick size")
}

func TestNewRegistryFromSpecs_RejectsInvertedCommissionBounds(t *testing.T) {
	min, max := 10.0, 5.0
	_, err := NewRegistryFromSpecs([]ContractSpecification{{
		ID:       "bad",
		Symbol:   "BAD",
		TickSize: 0.25,
		DefaultCommission: CommissionSchedule{
			Amount:  2.0,
			Minimum: &min,
			Maximum: &max,
		},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minimum")
}

func TestRegistry_IDTakesPrecedenceOverSymbol(t *testing.T) {
	// One spec's symbol collides with another spec's id
	registry, err := NewRegistryFromSpecs([]ContractSpecification{
		{ID: "es", Symbol: "FIRST", TickSize: 0.25, IsActive: true},
		{ID: "other", Symbol: "ES", TickSize: 0.5, IsActive: true},
	})
	require.NoError(t, err)

	spec := registry.Get("ES")
	require.NotNil(t, spec)
	assert.Equal(t, "FIRST", spec.Symbol, "id match resolves before symbol match")
}

func TestRegistry_Active(t *testing.T) {
	registry, err := NewRegistryFromSpecs([]ContractSpecification{
		{ID: "a", Symbol: "A", TickSize: 0.25, IsActive: true},
		{ID: "b", Symbol: "B", TickSize: 0.25, IsActive: false},
	})
	require.NoError(t, err)

	active := registry.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "A", active[0].Symbol)
}

func TestMultiplier(t *testing.T) {
	futures := &ContractSpecification{Category: CategoryFutures, PointValue: 50, ContractSize: 1}
	assert.Equal(t, 50.0, futures.Multiplier())

	forex := &ContractSpecification{Category: CategoryForex, PointValue: 1, ContractSize: 100000}
	assert.Equal(t, 100000.0, forex.Multiplier())
}
