package breakeven

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradelens/analytics/internal/cache"
	"github.com/tradelens/analytics/internal/domain"
)

// portfolioTrades: 6 trades with a recorded BE outcome, 4 worked.
// Hand-computed rollup: protected 14, missed 27, net impact -13,
// avg capture (83.33+50+0+0+25+80)/6 = 39.72
func portfolioTrades() []domain.Trade {
	type row struct {
		exit, stop, maxProfit float64
		worked                bool
	}
	rows := []row{
		{110, 95, 12, true},
		{105, 96, 10, true},
		{100, 98, 6, true},
		{97, 95, 4, false},
		{102, 95, 8, false},
		{104, 97, 5, true},
	}
	trades := make([]domain.Trade, 0, len(rows))
	for i, r := range rows {
		tr := beTrade(100, r.exit, i+1)
		tr.StopLoss = domain.Float64Ptr(r.stop)
		tr.MaxPotentialProfit = r.maxProfit
		tr.BreakEvenWorked = domain.BoolPtr(r.worked)
		trades = append(trades, tr)
	}
	return trades
}

// rankingTrades: 6 winners (+10 each, excursions clear of entry) and
// 4 losers (-6 each, adverse excursion through entry after a favorable
// move). Baseline net 36.
func rankingTrades() []domain.Trade {
	trades := make([]domain.Trade, 0, 10)
	for i := 0; i < 6; i++ {
		tr := beTrade(100, 110, i+1)
		tr.StopLoss = domain.Float64Ptr(95)
		tr.MaxFavorablePrice = domain.Float64Ptr(112)
		tr.MaxAdversePrice = domain.Float64Ptr(100.5)
		trades = append(trades, tr)
	}
	for i := 0; i < 4; i++ {
		tr := beTrade(100, 94, i+7)
		tr.StopLoss = domain.Float64Ptr(95)
		tr.MaxFavorablePrice = domain.Float64Ptr(104)
		tr.MaxAdversePrice = domain.Float64Ptr(93.5)
		trades = append(trades, tr)
	}
	return trades
}

func TestCalculatePortfolioBEMetrics(t *testing.T) {
	svc := newTestService(t, cache.Noop{})

	res := svc.CalculatePortfolioBEMetrics(portfolioTrades())
	require.Nil(t, res.InsufficientData)
	require.NotNil(t, res.Metrics)

	pm := res.Metrics
	assert.Equal(t, 6, pm.TradesWithBE)
	assert.Equal(t, 4, pm.BEWorkedCount)
	assert.InDelta(t, 66.67, pm.BESuccessRate, 1e-9)
	assert.InDelta(t, 14.0, pm.TotalProtected, 1e-9)
	assert.InDelta(t, 27.0, pm.TotalMissed, 1e-9)
	assert.InDelta(t, -13.0, pm.NetBEImpact, 1e-9)
	assert.InDelta(t, 39.72, pm.AvgCaptureRate, 1e-9)
	// success rate above 30 but negative net impact
	assert.Equal(t, RecommendConservative, pm.Recommendation)
}

func TestCalculatePortfolioBEMetrics_InsufficientData(t *testing.T) {
	svc := newTestService(t, cache.Noop{})

	res := svc.CalculatePortfolioBEMetrics(portfolioTrades()[:4])
	require.NotNil(t, res.InsufficientData)
	assert.Nil(t, res.Metrics)
	assert.Equal(t, 4, res.InsufficientData.CurrentTrades)
	assert.Equal(t, MinTradesForPortfolio, res.InsufficientData.RequiredTrades)
}

func TestCalculatePortfolioBEMetrics_IgnoresUntrackedTrades(t *testing.T) {
	svc := newTestService(t, cache.Noop{})

	trades := portfolioTrades()
	// no recorded BE outcome: excluded from the rollup
	trades = append(trades, beTrade(100, 130, 11))

	res := svc.CalculatePortfolioBEMetrics(trades)
	require.NotNil(t, res.Metrics)
	assert.Equal(t, 6, res.Metrics.TradesWithBE)
}

func TestCalculatePortfolioBEMetrics_CacheReturnsSameResult(t *testing.T) {
	svc := newTestService(t, cache.NewMemory())

	trades := portfolioTrades()
	first := svc.CalculatePortfolioBEMetrics(trades)
	second := svc.CalculatePortfolioBEMetrics(trades)
	assert.Same(t, first, second)
}

func TestCalculatePortfolioBEMetrics_CacheKeyedOnTradeContents(t *testing.T) {
	svc := newTestService(t, cache.NewMemory())

	first := svc.CalculatePortfolioBEMetrics(portfolioTrades())
	require.NotNil(t, first.Metrics)
	assert.InDelta(t, 27.0, first.Metrics.TotalMissed, 1e-9)

	// Same count and dates, but the first trade now exits at 120 and
	// captures the full max-potential move
	edited := portfolioTrades()
	edited[0].ExitPrice = domain.Float64Ptr(120)

	second := svc.CalculatePortfolioBEMetrics(edited)
	require.NotNil(t, second.Metrics)
	assert.InDelta(t, 25.0, second.Metrics.TotalMissed, 1e-9)
}

func TestRankBEStrategies(t *testing.T) {
	svc := newTestService(t, cache.Noop{})

	res := svc.RankBEStrategies(rankingTrades())
	require.Nil(t, res.InsufficientData)
	require.Len(t, res.Strategies, 6)

	gotIDs := make([]string, 0, len(res.Strategies))
	for _, sr := range res.Strategies {
		gotIDs = append(gotIDs, sr.StrategyID)
	}
	// scores: standard 85, conservative 80, aggressive 75, trailing 70,
	// volatility 60, no-be 50
	assert.Equal(t, []string{
		"standard-be", "conservative-be", "aggressive-be",
		"trailing-be", "volatility-be", "no-be",
	}, gotIDs)

	require.NotNil(t, res.Best)
	assert.Equal(t, "standard-be", res.Best.StrategyID)

	standard := res.Strategies[0]
	// losers exit flat at entry instead of -6 each
	assert.InDelta(t, 60.0, standard.SimulatedNetPnL, 1e-9)
	assert.InDelta(t, 24.0, standard.Delta, 1e-9)
	assert.Equal(t, 10, standard.TradesSimulated)
	assert.Equal(t, 10, standard.TriggeredCount)
	assert.Equal(t, 4, standard.StoppedAtBECount)
	assert.InDelta(t, 85.0, standard.RecommendationScore, 1e-9)

	for _, sr := range res.Strategies {
		switch sr.StrategyID {
		case "no-be":
			assert.InDelta(t, 36.0, sr.SimulatedNetPnL, 1e-9)
			assert.InDelta(t, 0.0, sr.Delta, 1e-9)
			assert.Equal(t, 0, sr.TriggeredCount)
		case "trailing-be":
			// losers lock in +2 at the trail instead of -6
			assert.InDelta(t, 68.0, sr.SimulatedNetPnL, 1e-9)
			assert.InDelta(t, 32.0, sr.Delta, 1e-9)
			assert.Equal(t, 0, sr.StoppedAtBECount)
		case "volatility-be":
			// losers never clear the 2x-risk gate
			assert.InDelta(t, 36.0, sr.SimulatedNetPnL, 1e-9)
			assert.Equal(t, 6, sr.TriggeredCount)
		}
	}
}

func TestRankBEStrategies_InsufficientData(t *testing.T) {
	svc := newTestService(t, cache.Noop{})

	res := svc.RankBEStrategies(rankingTrades()[:5])
	require.NotNil(t, res.InsufficientData)
	assert.Nil(t, res.Best)
	assert.Equal(t, 5, res.InsufficientData.CurrentTrades)
	assert.Equal(t, MinTradesForRanking, res.InsufficientData.RequiredTrades)
}

func TestRankBEStrategies_SkipsTradesWithoutExcursions(t *testing.T) {
	svc := newTestService(t, cache.Noop{})

	trades := rankingTrades()[:9]
	// excursion data missing: not simulatable
	trades = append(trades, beTrade(100, 103, 11), beTrade(100, 101, 12))

	res := svc.RankBEStrategies(trades)
	require.NotNil(t, res.InsufficientData)
	assert.Equal(t, 9, res.InsufficientData.CurrentTrades)
}

func TestRankBEStrategies_CacheKeyedOnTradeContents(t *testing.T) {
	svc := newTestService(t, cache.NewMemory())

	first := svc.RankBEStrategies(rankingTrades())
	require.NotNil(t, first.Best)
	assert.InDelta(t, 24.0, first.Best.Delta, 1e-9)

	// Same count and dates, but the losers now exit at 93.5: baseline 34,
	// standard-be still stops them flat at entry
	edited := rankingTrades()
	for i := 6; i < 10; i++ {
		edited[i].ExitPrice = domain.Float64Ptr(93.5)
	}

	second := svc.RankBEStrategies(edited)
	require.NotNil(t, second.Best)
	assert.InDelta(t, 26.0, second.Best.Delta, 1e-9)
}

func TestGetOptimizationInsights(t *testing.T) {
	svc := newTestService(t, cache.Noop{})

	trades := rankingTrades()
	for i := range trades {
		worked := trades[i].EntryPrice < *trades[i].ExitPrice
		trades[i].BreakEvenWorked = domain.BoolPtr(worked)
		if worked {
			trades[i].MaxPotentialProfit = 12
		} else {
			trades[i].MaxPotentialProfit = 4
		}
	}

	res := svc.GetOptimizationInsights(trades)
	require.Nil(t, res.InsufficientData)
	require.NotNil(t, res.Portfolio)
	assert.Equal(t, 10, res.Portfolio.TradesWithBE)
	assert.InDelta(t, 60.0, res.Portfolio.BESuccessRate, 1e-9)

	require.Len(t, res.TopStrategies, 3)
	assert.Equal(t, "standard-be", res.TopStrategies[0].StrategyID)

	require.NotEmpty(t, res.Insights)
	assert.Contains(t, res.Insights[len(res.Insights)-1], "scored highest")
}

func TestGetOptimizationInsights_InsufficientData(t *testing.T) {
	svc := newTestService(t, cache.Noop{})

	res := svc.GetOptimizationInsights(rankingTrades()[:3])
	require.NotNil(t, res.InsufficientData)
	assert.Nil(t, res.Portfolio)
	assert.Empty(t, res.TopStrategies)
}

func TestGetOptimizationInsights_CacheReturnsSameResult(t *testing.T) {
	svc := newTestService(t, cache.NewMemory())

	trades := portfolioTrades()
	first := svc.GetOptimizationInsights(trades)
	second := svc.GetOptimizationInsights(trades)
	assert.Same(t, first, second)
}
