package breakeven

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradelens/analytics/internal/cache"
	"github.com/tradelens/analytics/internal/domain"
	"github.com/tradelens/analytics/internal/modules/markets"
	"github.com/tradelens/analytics/internal/modules/metrics"
)

func newTestService(t *testing.T, c cache.Cache) *Service {
	t.Helper()
	registry, err := markets.NewRegistry()
	require.NoError(t, err)
	marketCalc := markets.NewCalculator(registry, zerolog.Nop())
	metricsCalc := metrics.NewCalculator(marketCalc, zerolog.Nop())
	return NewService(metricsCalc, marketCalc, c, 30*time.Minute, 5*time.Minute, zerolog.Nop())
}

// beTrade builds a completed flat-model trade (unregistered symbol, no
// commission): net P&L = exit - entry
func beTrade(entry, exit float64, day int) domain.Trade {
	entryDate := time.Date(2025, 2, day, 9, 30, 0, 0, time.UTC)
	exitDate := entryDate.Add(time.Hour)
	return domain.Trade{
		Symbol:     "SIM",
		Direction:  domain.DirectionLong,
		EntryPrice: entry,
		ExitPrice:  &exit,
		Quantity:   1,
		EntryDate:  entryDate,
		ExitDate:   &exitDate,
	}
}

func TestCalculateBEMetrics_WorkedWinner(t *testing.T) {
	svc := newTestService(t, cache.Noop{})

	trade := beTrade(100, 108, 1)
	trade.StopLoss = domain.Float64Ptr(95)
	trade.TakeProfit = domain.Float64Ptr(112)
	trade.MaxFavorablePrice = domain.Float64Ptr(110)
	trade.MaxAdversePrice = domain.Float64Ptr(98)
	trade.MaxPotentialProfit = 10
	trade.MaxDrawdown = 2
	trade.BreakEvenWorked = domain.BoolPtr(true)

	m := svc.CalculateBEMetrics(trade)

	// net 8 of 10 available
	assert.InDelta(t, 80.0, m.ProfitCaptureRate, 1e-9)
	// worked: 60 + 0.4*80
	assert.InDelta(t, 92.0, m.BEEfficiency, 1e-9)
	// drawdown 2 against 10 available
	assert.InDelta(t, 20.0, m.DrawdownTolerance, 1e-9)
	// 40% of the 12-point target distance
	assert.InDelta(t, 4.8, m.OptimalBEDistance, 1e-9)
	// 12 reward over half the 5-point risk
	assert.InDelta(t, 4.8, m.RiskRewardWithBE, 1e-9)
	assert.InDelta(t, 2.0, m.MissedProfitAmount, 1e-9)
	assert.InDelta(t, 0.8, m.PotentialImprovement, 1e-9)
	// 5-point stop distance, flat multiplier, qty 1
	assert.InDelta(t, 5.0, m.ProtectedAmount, 1e-9)
}

func TestCalculateBEMetrics_FailedLoser(t *testing.T) {
	svc := newTestService(t, cache.Noop{})

	trade := beTrade(100, 99, 2)
	trade.StopLoss = domain.Float64Ptr(95)
	trade.MaxFavorablePrice = domain.Float64Ptr(104)
	trade.MaxAdversePrice = domain.Float64Ptr(96)
	trade.MaxPotentialProfit = 4
	trade.MaxDrawdown = 4
	trade.BreakEvenWorked = domain.BoolPtr(false)

	m := svc.CalculateBEMetrics(trade)

	// negative net clamps capture to 0
	assert.Equal(t, 0.0, m.ProfitCaptureRate)
	// failed branch: 100 - 1.2*100 floors at 0
	assert.Equal(t, 0.0, m.BEEfficiency)
	assert.InDelta(t, 100.0, m.DrawdownTolerance, 1e-9)
	// no target set: 40% of |actual net|
	assert.InDelta(t, 0.4, m.OptimalBEDistance, 1e-9)
	// MFE distance 4 over half the 5-point risk
	assert.InDelta(t, 1.6, m.RiskRewardWithBE, 1e-9)
	// 4 available minus -1 realized
	assert.InDelta(t, 5.0, m.MissedProfitAmount, 1e-9)
	assert.InDelta(t, 2.0, m.PotentialImprovement, 1e-9)
	assert.Equal(t, 0.0, m.ProtectedAmount)
}

func TestCalculateBEMetrics_OpenTradeIsZeroed(t *testing.T) {
	svc := newTestService(t, cache.Noop{})

	trade := domain.Trade{
		Symbol:     "SIM",
		Direction:  domain.DirectionLong,
		EntryPrice: 100,
		Quantity:   1,
		EntryDate:  time.Date(2025, 2, 3, 9, 30, 0, 0, time.UTC),
	}

	assert.Equal(t, Metrics{}, svc.CalculateBEMetrics(trade))
}

func TestCalculateBEMetrics_UnknownBEOutcome(t *testing.T) {
	svc := newTestService(t, cache.Noop{})

	trade := beTrade(100, 105, 4)
	trade.MaxPotentialProfit = 10

	m := svc.CalculateBEMetrics(trade)
	assert.InDelta(t, 50.0, m.ProfitCaptureRate, 1e-9)
	assert.Equal(t, 0.0, m.BEEfficiency)
	assert.Equal(t, 0.0, m.ProtectedAmount)
	// no stop: risk/reward undefined
	assert.Equal(t, 0.0, m.RiskRewardWithBE)
}

func TestCalculateBEMetrics_ProtectedUsesContractMultiplier(t *testing.T) {
	svc := newTestService(t, cache.Noop{})

	exit := 4510.0
	exitDate := time.Date(2025, 2, 5, 11, 0, 0, 0, time.UTC)
	trade := domain.Trade{
		Symbol:             "ES",
		Direction:          domain.DirectionLong,
		EntryPrice:         4500,
		ExitPrice:          &exit,
		Quantity:           2,
		EntryDate:          exitDate.Add(-time.Hour),
		ExitDate:           &exitDate,
		StopLoss:           domain.Float64Ptr(4490),
		MaxPotentialProfit: 1500,
		BreakEvenWorked:    domain.BoolPtr(true),
	}

	m := svc.CalculateBEMetrics(trade)
	// 10 points x $50 point value x 2 contracts
	assert.InDelta(t, 1000.0, m.ProtectedAmount, 1e-9)
}

func TestCalculateBEMetrics_Idempotent(t *testing.T) {
	svc := newTestService(t, cache.Noop{})

	trade := beTrade(100, 108, 6)
	trade.StopLoss = domain.Float64Ptr(95)
	trade.MaxPotentialProfit = 10
	trade.BreakEvenWorked = domain.BoolPtr(true)

	first := svc.CalculateBEMetrics(trade)
	second := svc.CalculateBEMetrics(trade)
	assert.Equal(t, first, second)
}
