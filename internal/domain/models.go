// Package domain provides core domain models and types.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Direction represents the side of a trade
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// DirectionFromString parses a direction string (case-insensitive)
func DirectionFromString(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LONG", "BUY":
		return DirectionLong, nil
	case "SHORT", "SELL":
		return DirectionShort, nil
	default:
		return "", fmt.Errorf("invalid trade direction: %q", s)
	}
}

// TradeResult classifies the outcome of a completed trade
type TradeResult string

const (
	ResultWin       TradeResult = "WIN"
	ResultLoss      TradeResult = "LOSS"
	ResultBreakeven TradeResult = "BREAKEVEN"
)

// Trade represents a single journal entry as supplied by the persistence
// collaborator. The core never owns trade storage - it receives snapshots
// of these records and returns derived values.
//
// A trade with a nil ExitPrice is open: no P&L-derived field is ever
// computed for it.
type Trade struct {
	EntryDate          time.Time  `json:"entry_date"`
	ExitDate           *time.Time `json:"exit_date,omitempty"`
	Symbol             string     `json:"symbol"`
	Strategy           string     `json:"strategy,omitempty"`
	Direction          Direction  `json:"direction"`
	EntryPrice         float64    `json:"entry_price"`
	ExitPrice          *float64   `json:"exit_price,omitempty"`
	Quantity           int        `json:"quantity"`
	StopLoss           *float64   `json:"stop_loss,omitempty"`
	TakeProfit         *float64   `json:"take_profit,omitempty"`
	MaxFavorablePrice  *float64   `json:"max_favorable_price,omitempty"` // MFE reference price
	MaxAdversePrice    *float64   `json:"max_adverse_price,omitempty"`   // MAE reference price
	MaxPotentialProfit float64    `json:"max_potential_profit,omitempty"`
	MaxDrawdown        float64    `json:"max_drawdown,omitempty"`
	BreakEvenWorked    *bool      `json:"break_even_worked,omitempty"`
	Commission         float64    `json:"commission"`
}

// IsOpen reports whether the trade has not been exited yet
func (t Trade) IsOpen() bool {
	return t.ExitPrice == nil
}

// Validate checks the fields every calculation depends on.
// Malformed records fail here, at the boundary, rather than deep inside a
// calculator.
func (t Trade) Validate() error {
	if t.Direction != DirectionLong && t.Direction != DirectionShort {
		return fmt.Errorf("invalid trade direction: %q", t.Direction)
	}
	if t.EntryPrice <= 0 {
		return fmt.Errorf("entry price must be positive, got %v", t.EntryPrice)
	}
	if t.Quantity <= 0 {
		return fmt.Errorf("quantity must be a positive integer, got %d", t.Quantity)
	}
	if t.ExitPrice != nil && *t.ExitPrice <= 0 {
		return fmt.Errorf("exit price must be positive when set, got %v", *t.ExitPrice)
	}
	return nil
}

// NewTrade builds a validated trade record
func NewTrade(symbol string, direction Direction, entryPrice float64, quantity int, entryDate time.Time) (Trade, error) {
	t := Trade{
		Symbol:     strings.ToUpper(strings.TrimSpace(symbol)),
		Direction:  direction,
		EntryPrice: entryPrice,
		Quantity:   quantity,
		EntryDate:  entryDate,
	}
	if err := t.Validate(); err != nil {
		return Trade{}, fmt.Errorf("failed to build trade: %w", err)
	}
	return t, nil
}

// TradeMetrics holds the derived fields for a single trade.
// All pointer fields are nil for open trades.
type TradeMetrics struct {
	PnL           *float64     `json:"pnl"`
	PnLPercentage *float64     `json:"pnl_percentage"`
	NetPnL        *float64     `json:"net_pnl"`
	Efficiency    *float64     `json:"efficiency"`
	RMultiple     *float64     `json:"r_multiple"`
	Result        *TradeResult `json:"result"`
}

// Float64Ptr is a small helper for building optional numeric fields
func Float64Ptr(v float64) *float64 { return &v }

// BoolPtr is a small helper for building optional boolean fields
func BoolPtr(v bool) *bool { return &v }
