// Package metrics derives per-trade performance fields (P&L, R-multiple,
// efficiency, result classification) from raw trade records.
package metrics

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/tradelens/analytics/internal/domain"
	"github.com/tradelens/analytics/internal/modules/markets"
)

// Calculator computes derived metrics for single trades. The primary path is
// market-aware via the market calculator; when the trade's market cannot be
// resolved it degrades to a flat per-unit model and logs a warning, since a
// degraded path on a configured market points at a registry bug.
type Calculator struct {
	markets *markets.Calculator
	log     zerolog.Logger
}

// NewCalculator creates a trade metrics calculator
func NewCalculator(marketCalc *markets.Calculator, log zerolog.Logger) *Calculator {
	return &Calculator{
		markets: marketCalc,
		log:     log.With().Str("service", "trade_metrics").Logger(),
	}
}

// CalculateTradeMetrics computes the derived fields for one trade.
//
// An open trade (nil exit price) is a terminal state: every field comes back
// nil and nothing is computed. For completed trades the market-aware path is
// tried first, falling back to the flat model on any market failure.
func (c *Calculator) CalculateTradeMetrics(trade domain.Trade) domain.TradeMetrics {
	if trade.IsOpen() {
		return domain.TradeMetrics{}
	}

	result, err := c.marketAware(trade)
	if err != nil {
		// Degraded path. This should never fire for a correctly configured
		// market - observing it in production means a registry/config bug.
		c.log.Warn().
			Err(err).
			Str("symbol", trade.Symbol).
			Msg("Market-aware metrics failed, using flat fallback model")
		return c.flatFallback(trade)
	}
	return result
}

// marketAware computes metrics through the market calculator
func (c *Calculator) marketAware(trade domain.Trade) (domain.TradeMetrics, error) {
	exit := *trade.ExitPrice

	pnlResult, err := c.markets.CalculatePnL(
		trade.EntryPrice, exit, trade.Quantity, trade.Symbol, trade.Direction, true)
	if err != nil {
		return domain.TradeMetrics{}, err
	}

	m := domain.TradeMetrics{
		PnL:    domain.Float64Ptr(pnlResult.GrossPnL),
		NetPnL: domain.Float64Ptr(pnlResult.NetPnL),
	}

	if pnlResult.ContractValue != 0 {
		m.PnLPercentage = domain.Float64Ptr(
			markets.RoundMoney(pnlResult.GrossPnL / pnlResult.ContractValue * 100))
	} else {
		m.PnLPercentage = domain.Float64Ptr(0)
	}

	if trade.StopLoss != nil && *trade.StopLoss != trade.EntryPrice {
		r := c.markets.CalculateRMultiple(trade.EntryPrice, exit, *trade.StopLoss, trade.Direction)
		m.RMultiple = domain.Float64Ptr(r)
	}

	if trade.MaxFavorablePrice != nil && trade.MaxAdversePrice != nil {
		eff := c.markets.CalculateEfficiency(
			trade.EntryPrice, exit, *trade.MaxFavorablePrice, trade.Direction)
		m.Efficiency = domain.Float64Ptr(clampPercent(eff))
	}

	m.Result = classify(pnlResult.NetPnL)
	return m, nil
}

// flatFallback computes metrics with a market-agnostic per-unit P&L model:
// (exit - entry) * quantity signed by direction, minus the trade's own flat
// commission.
func (c *Calculator) flatFallback(trade domain.Trade) domain.TradeMetrics {
	exit := *trade.ExitPrice
	qty := float64(trade.Quantity)

	points := exit - trade.EntryPrice
	if trade.Direction == domain.DirectionShort {
		points = trade.EntryPrice - exit
	}
	pnl := markets.RoundMoney(points * qty)
	netPnl := markets.RoundMoney(pnl - trade.Commission)

	m := domain.TradeMetrics{
		PnL:    domain.Float64Ptr(pnl),
		NetPnL: domain.Float64Ptr(netPnl),
	}

	notional := trade.EntryPrice * qty
	if notional != 0 {
		m.PnLPercentage = domain.Float64Ptr(markets.RoundMoney(pnl / notional * 100))
	} else {
		m.PnLPercentage = domain.Float64Ptr(0)
	}

	if trade.StopLoss != nil && *trade.StopLoss != trade.EntryPrice {
		var favorable, risk float64
		if trade.Direction == domain.DirectionShort {
			favorable = trade.EntryPrice - exit
			risk = *trade.StopLoss - trade.EntryPrice
		} else {
			favorable = exit - trade.EntryPrice
			risk = trade.EntryPrice - *trade.StopLoss
		}
		if risk != 0 {
			m.RMultiple = domain.Float64Ptr(markets.RoundMoney(favorable / risk))
		}
	}

	// Fallback efficiency: share of the maximum possible profit captured,
	// only meaningful when both excursion references were recorded.
	if trade.MaxFavorablePrice != nil && trade.MaxAdversePrice != nil && trade.MaxPotentialProfit > 0 {
		eff := math.Max(0, pnl) / trade.MaxPotentialProfit * 100
		m.Efficiency = domain.Float64Ptr(clampPercent(markets.RoundMoney(eff)))
	}

	m.Result = classify(netPnl)
	return m
}

// classify maps net P&L to a result bucket. The BREAKEVEN branch is an exact
// floating-point comparison against zero - intentionally preserved behavior,
// fragile for non-integer P&L values.
func classify(netPnl float64) *domain.TradeResult {
	var result domain.TradeResult
	switch {
	case netPnl > 0:
		result = domain.ResultWin
	case netPnl < 0:
		result = domain.ResultLoss
	default:
		result = domain.ResultBreakeven
	}
	return &result
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
