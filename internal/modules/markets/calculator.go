package markets

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tradelens/analytics/internal/domain"
)

// ErrMarketNotFound is returned when an identifier resolves to no registered
// contract specification. It is the only error condition the calculator
// propagates - numeric edge cases are absorbed as neutral values.
var ErrMarketNotFound = errors.New("market not found")

// Thresholds for the non-blocking warnings emitted by ValidateTrade
const (
	largeNotionalThreshold = 1_000_000.0
	highMarginThreshold    = 100_000.0
)

// Calculator performs market-aware trade calculations against a registry of
// contract specifications. It holds no mutable state and is safe for
// concurrent use.
type Calculator struct {
	registry *Registry
	log      zerolog.Logger
}

// NewCalculator creates a market calculator over the given registry
func NewCalculator(registry *Registry, log zerolog.Logger) *Calculator {
	return &Calculator{
		registry: registry,
		log:      log.With().Str("service", "market_calculator").Logger(),
	}
}

// GetMarket resolves a contract specification by id or symbol.
// Returns nil on a miss, never an error.
func (c *Calculator) GetMarket(identifier string) *ContractSpecification {
	return c.registry.Get(identifier)
}

// RoundToValidTick rounds a price to the nearest multiple of the spec's tick
// size, expressed with the spec's precision.
//
// Both the price and the tick size are scaled to integers by 10^precision
// before dividing, so prices carrying more decimal digits than the precision
// round cleanly instead of accumulating float error.
func (c *Calculator) RoundToValidTick(price float64, spec *ContractSpecification) float64 {
	factor := math.Pow(10, float64(spec.Precision))
	scaledTick := math.Round(spec.TickSize * factor)
	if scaledTick <= 0 {
		// Tick smaller than the representable precision; nothing to align to.
		return price
	}
	ticks := math.Round(price * factor / scaledTick)
	return ticks * scaledTick / factor
}

// IsPriceValidForTick reports whether a price sits exactly on a tick
// boundary, using the same integer-tick representation as RoundToValidTick
// to avoid float-equality pitfalls.
func (c *Calculator) IsPriceValidForTick(price float64, spec *ContractSpecification) bool {
	factor := math.Pow(10, float64(spec.Precision))
	scaledTick := math.Round(spec.TickSize * factor)
	if scaledTick <= 0 {
		return true
	}
	scaledPrice := price * factor
	// Reject prices with more decimal digits than the spec's precision.
	if math.Abs(scaledPrice-math.Round(scaledPrice)) > 1e-6 {
		return false
	}
	scaled := math.Round(scaledPrice)
	ticks := math.Round(scaled / scaledTick)
	return scaled == ticks*scaledTick
}

// CalculateCommission computes the total commission for a number of
// contracts: base amount plus each configured fee component, all
// per-contract, clamped to the schedule's minimum/maximum when set.
// When isRoundTurn is false the result is halved to approximate a one-way
// cost. The result is rounded to 2 decimals.
func (c *Calculator) CalculateCommission(contracts int, spec *ContractSpecification, isRoundTurn bool) float64 {
	if contracts <= 0 {
		return 0
	}

	sched := spec.DefaultCommission
	n := float64(contracts)
	total := sched.Amount * n
	for _, fee := range []*float64{sched.Exchange, sched.Clearing, sched.NFA, sched.Regulation} {
		if fee != nil {
			total += *fee * n
		}
	}

	if sched.Minimum != nil && total < *sched.Minimum {
		total = *sched.Minimum
	}
	if sched.Maximum != nil && total > *sched.Maximum {
		total = *sched.Maximum
	}

	if !isRoundTurn {
		total /= 2
	}

	return roundMoney(total)
}

// CalculatePnL computes gross/net P&L and contract value for a completed
// position on a registered market. This is a market-resolution function: it
// fails with ErrMarketNotFound when the identifier does not resolve.
func (c *Calculator) CalculatePnL(entry, exit float64, quantity int, marketSymbol string, direction domain.Direction, includeFees bool) (*PnLResult, error) {
	spec := c.registry.Get(marketSymbol)
	if spec == nil {
		return nil, fmt.Errorf("%w: %s", ErrMarketNotFound, marketSymbol)
	}

	multiplier := spec.Multiplier()
	qty := float64(quantity)

	points := exit - entry
	if direction == domain.DirectionShort {
		points = entry - exit
	}
	gross := points * multiplier * qty

	var commission float64
	if includeFees {
		commission = c.CalculateCommission(quantity, spec, true)
	}

	return &PnLResult{
		GrossPnL:      roundMoney(gross),
		Commission:    commission,
		NetPnL:        roundMoney(gross - commission),
		ContractValue: roundMoney(entry * multiplier * qty),
	}, nil
}

// CalculateRMultiple expresses the realized move as a multiple of the risked
// move (entry to stop). Returns 0 when the risk move is 0 - never divides by
// zero. Rounded to 2 decimals.
func (c *Calculator) CalculateRMultiple(entry, exit, stop float64, direction domain.Direction) float64 {
	var favorable, risk float64
	if direction == domain.DirectionShort {
		favorable = entry - exit
		risk = stop - entry
	} else {
		favorable = exit - entry
		risk = entry - stop
	}
	if risk == 0 {
		return 0
	}
	return roundMoney(favorable / risk)
}

// CalculateEfficiency returns the percentage of the maximum favorable move
// that was actually captured by the exit. Returns 0 when the maximum move is
// 0. Callers clamp to [0, 100]. Rounded to 2 decimals.
func (c *Calculator) CalculateEfficiency(entry, exit, maxFavorable float64, direction domain.Direction) float64 {
	var actual, maxMove float64
	if direction == domain.DirectionShort {
		actual = entry - exit
		maxMove = entry - maxFavorable
	} else {
		actual = exit - entry
		maxMove = maxFavorable - entry
	}
	if maxMove == 0 {
		return 0
	}
	return roundMoney(actual / maxMove * 100)
}

// CalculatePositionSize suggests a contract quantity for a given risk budget.
//
// RISK_BASED divides the risk amount by the monetary distance between entry
// and stop, floors the result, and caps it at the spec's maximum position
// size. Returns 0 for non-positive inputs or a zero price difference.
//
// FIXED, PERCENTAGE and VOLATILITY are policy stubs: each deterministically
// returns a single contract until a real sizing model is configured. They are
// placeholders, not approximations of the named method.
func (c *Calculator) CalculatePositionSize(riskAmount, entry, stop float64, spec *ContractSpecification, method PositionSizingMethod) int {
	switch method {
	case SizingFixed, SizingPercentage, SizingVolatility:
		return 1
	}

	if riskAmount <= 0 || entry <= 0 || stop <= 0 {
		return 0
	}
	priceDiff := math.Abs(entry - stop)
	if priceDiff == 0 {
		return 0
	}

	riskPerContract := priceDiff * spec.Multiplier()
	if riskPerContract <= 0 {
		return 0
	}

	size := int(math.Floor(riskAmount / riskPerContract))
	if maxSize := spec.RiskDefaults.MaxPositionSize; maxSize > 0 && size > maxSize {
		size = maxSize
	}
	return size
}

// ValidateTrade checks a proposed trade against the market's contract rules.
// All violations are accumulated rather than failing fast; an unresolvable
// market is reported as a structured error entry, not a returned error.
// Warnings flag large notional or high margin without blocking the trade.
func (c *Calculator) ValidateTrade(entry float64, quantity int, marketSymbol string, stopLoss, takeProfit *float64) ValidationResult {
	result := ValidationResult{
		Errors:   []string{},
		Warnings: []string{},
	}

	spec := c.registry.Get(marketSymbol)
	if spec == nil {
		result.Errors = append(result.Errors, fmt.Sprintf("market not found: %s", marketSymbol))
		return result
	}

	if entry <= 0 {
		result.Errors = append(result.Errors, "entry price must be positive")
	} else if !c.IsPriceValidForTick(entry, spec) {
		result.Errors = append(result.Errors, fmt.Sprintf(
			"entry price %v is not aligned to tick size %v", entry, spec.TickSize))
	}

	if quantity <= 0 {
		result.Errors = append(result.Errors, "quantity must be a positive integer")
	} else if maxSize := spec.RiskDefaults.MaxPositionSize; maxSize > 0 && quantity > maxSize {
		result.Errors = append(result.Errors, fmt.Sprintf(
			"quantity %d exceeds maximum position size %d", quantity, maxSize))
	}

	if stopLoss != nil {
		if *stopLoss <= 0 {
			result.Errors = append(result.Errors, "stop loss must be positive")
		} else if !c.IsPriceValidForTick(*stopLoss, spec) {
			result.Errors = append(result.Errors, fmt.Sprintf(
				"stop loss %v is not aligned to tick size %v", *stopLoss, spec.TickSize))
		}
	}

	if takeProfit != nil {
		if *takeProfit <= 0 {
			result.Errors = append(result.Errors, "take profit must be positive")
		} else if !c.IsPriceValidForTick(*takeProfit, spec) {
			result.Errors = append(result.Errors, fmt.Sprintf(
				"take profit %v is not aligned to tick size %v", *takeProfit, spec.TickSize))
		}
	}

	if entry > 0 && quantity > 0 {
		notional := entry * spec.Multiplier() * float64(quantity)
		if notional > largeNotionalThreshold {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"large notional value: $%.2f", notional))
		}
		margin := spec.InitialMargin * float64(quantity)
		if margin > highMarginThreshold {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"high margin requirement: $%.2f", margin))
		}
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

// CalculateMarginRequirement returns the initial margin needed for a position
func (c *Calculator) CalculateMarginRequirement(quantity int, spec *ContractSpecification, dayTrading bool) float64 {
	if quantity <= 0 {
		return 0
	}
	margin := spec.InitialMargin
	if dayTrading && spec.DayTradingMargin > 0 {
		margin = spec.DayTradingMargin
	}
	return roundMoney(margin * float64(quantity))
}

// roundMoney rounds a monetary or percentage value to 2 decimals.
// Goes through decimal so published numbers do not carry float drift.
// Infinities and NaN pass through untouched (profit factor can be +Inf).
func roundMoney(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// RoundMoney exposes the shared 2-decimal money rounding rule to the other
// calculation packages.
func RoundMoney(v float64) float64 {
	return roundMoney(v)
}
