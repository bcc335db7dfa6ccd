package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectionFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected Direction
		wantErr  bool
	}{
		{"LONG", DirectionLong, false},
		{"long", DirectionLong, false},
		{" Buy ", DirectionLong, false},
		{"SHORT", DirectionShort, false},
		{"sell", DirectionShort, false},
		{"sideways", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := DirectionFromString(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.expected, got)
	}
}

func TestTradeIsOpen(t *testing.T) {
	trade := Trade{Symbol: "ES", Direction: DirectionLong, EntryPrice: 4500, Quantity: 1}
	assert.True(t, trade.IsOpen())

	trade.ExitPrice = Float64Ptr(4510)
	assert.False(t, trade.IsOpen())
}

func TestTradeValidate(t *testing.T) {
	valid := Trade{
		Symbol:     "ES",
		Direction:  DirectionLong,
		EntryPrice: 4500,
		Quantity:   2,
		EntryDate:  time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
	}
	assert.NoError(t, valid.Validate())

	badDirection := valid
	badDirection.Direction = "UP"
	assert.Error(t, badDirection.Validate())

	badEntry := valid
	badEntry.EntryPrice = 0
	assert.Error(t, badEntry.Validate())

	badQuantity := valid
	badQuantity.Quantity = -1
	assert.Error(t, badQuantity.Validate())

	badExit := valid
	badExit.ExitPrice = Float64Ptr(-10)
	assert.Error(t, badExit.Validate())
}

func TestNewTrade(t *testing.T) {
	entryDate := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	trade, err := NewTrade(" es ", DirectionLong, 4500, 2, entryDate)
	require.NoError(t, err)
	assert.Equal(t, "ES", trade.Symbol)
	assert.True(t, trade.IsOpen())

	_, err = NewTrade("ES", DirectionLong, -1, 2, entryDate)
	assert.Error(t, err)
}
