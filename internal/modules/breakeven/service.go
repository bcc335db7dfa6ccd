package breakeven

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradelens/analytics/internal/cache"
	"github.com/tradelens/analytics/internal/domain"
	"github.com/tradelens/analytics/internal/modules/markets"
	"github.com/tradelens/analytics/internal/modules/metrics"
)

const (
	// MinTradesForPortfolio is the minimum number of trades with a recorded
	// BE outcome before the portfolio rollup is meaningful
	MinTradesForPortfolio = 5

	// MinTradesForRanking is the minimum number of simulatable trades
	// before strategy ranking is meaningful
	MinTradesForRanking = 10

	// maxSimulatedTrades bounds the ranking simulation to the most recent
	// history so stale regimes do not dominate the scores
	maxSimulatedTrades = 50

	trailFraction       = 0.5  // trailing stop locks in half the peak move
	volatilityGateRatio = 2.0  // gated strategies need MFE >= 2x stop distance
	scoreAdjustment     = 15.0 // simulation nudge applied to the prior score
	scoreDeltaThreshold = 20.0 // net-P&L delta that earns the nudge
)

// Service is the break-even analysis engine. Portfolio rollups and strategy
// rankings are deterministic for identical inputs; the injected cache only
// short-circuits recomputation within its TTL.
type Service struct {
	metrics        *metrics.Calculator
	markets        *markets.Calculator
	cache          cache.Cache
	portfolioTTL   time.Duration
	suggestionsTTL time.Duration
	log            zerolog.Logger
}

// NewService creates a break-even analysis service
func NewService(
	metricsCalc *metrics.Calculator,
	marketCalc *markets.Calculator,
	resultCache cache.Cache,
	portfolioTTL time.Duration,
	suggestionsTTL time.Duration,
	log zerolog.Logger,
) *Service {
	return &Service{
		metrics:        metricsCalc,
		markets:        marketCalc,
		cache:          resultCache,
		portfolioTTL:   portfolioTTL,
		suggestionsTTL: suggestionsTTL,
		log:            log.With().Str("service", "breakeven").Logger(),
	}
}

// CalculatePortfolioBEMetrics aggregates BE effectiveness over every closed
// trade that recorded whether its break-even trigger worked
func (s *Service) CalculatePortfolioBEMetrics(trades []domain.Trade) *PortfolioResult {
	tracked := make([]domain.Trade, 0, len(trades))
	for _, t := range trades {
		if !t.IsOpen() && t.BreakEvenWorked != nil {
			tracked = append(tracked, t)
		}
	}
	if len(tracked) < MinTradesForPortfolio {
		return &PortfolioResult{
			InsufficientData: &InsufficientData{
				CurrentTrades:  len(tracked),
				RequiredTrades: MinTradesForPortfolio,
			},
		}
	}

	key := s.cacheKey("portfolio", trades)
	if cached, ok := s.cache.Get(key); ok {
		if res, ok := cached.(*PortfolioResult); ok {
			return res
		}
	}

	pm := &PortfolioMetrics{TradesWithBE: len(tracked)}
	var captureSum float64
	for _, t := range tracked {
		m := s.CalculateBEMetrics(t)
		captureSum += m.ProfitCaptureRate
		pm.TotalMissed += m.MissedProfitAmount
		if *t.BreakEvenWorked {
			pm.BEWorkedCount++
			pm.TotalProtected += m.ProtectedAmount
		}
	}
	pm.BESuccessRate = markets.RoundMoney(float64(pm.BEWorkedCount) / float64(pm.TradesWithBE) * 100)
	pm.AvgCaptureRate = markets.RoundMoney(captureSum / float64(pm.TradesWithBE))
	pm.TotalProtected = markets.RoundMoney(pm.TotalProtected)
	pm.TotalMissed = markets.RoundMoney(pm.TotalMissed)
	pm.NetBEImpact = markets.RoundMoney(pm.TotalProtected - pm.TotalMissed)
	pm.Recommendation = recommend(pm.BESuccessRate, pm.NetBEImpact)

	res := &PortfolioResult{Metrics: pm}
	s.cache.Set(key, res, s.portfolioTTL)

	s.log.Debug().
		Int("trades_with_be", pm.TradesWithBE).
		Float64("success_rate", pm.BESuccessRate).
		Str("recommendation", string(pm.Recommendation)).
		Msg("Calculated portfolio BE metrics")

	return res
}

// recommend buckets the portfolio outcome into a BE usage recommendation
func recommend(successRate, netImpact float64) Recommendation {
	switch {
	case successRate >= 70 && netImpact > 0:
		return RecommendAggressive
	case successRate >= 50 && netImpact >= 0:
		return RecommendModerate
	case successRate >= 30:
		return RecommendConservative
	default:
		return RecommendNone
	}
}

// StrategyCatalog returns the candidate BE-trigger strategies the ranking
// simulates. Trigger percents are relative to the initial stop distance.
func StrategyCatalog() []StrategyDefinition {
	return []StrategyDefinition{
		{ID: "no-be", Name: "No break-even stop", TriggerPercent: 0, PriorScore: 50},
		{ID: "aggressive-be", Name: "Aggressive break-even (20% of risk)", TriggerPercent: 20, PriorScore: 60},
		{ID: "standard-be", Name: "Standard break-even (40% of risk)", TriggerPercent: 40, PriorScore: 70},
		{ID: "conservative-be", Name: "Conservative break-even (60% of risk)", TriggerPercent: 60, PriorScore: 65},
		{ID: "trailing-be", Name: "Trailing stop at half the peak move", TriggerPercent: 40, PriorScore: 55, Trailing: true},
		{ID: "volatility-be", Name: "Volatility-gated break-even", TriggerPercent: 40, PriorScore: 60, VolatilityGate: true},
	}
}

// RankBEStrategies replays the candidate strategies over the most recent
// simulatable trades and ranks them by recommendation score. Ranking is
// stable: ties keep catalog order.
func (s *Service) RankBEStrategies(trades []domain.Trade) *RankingResult {
	sims := simulatable(trades)
	if len(sims) < MinTradesForRanking {
		return &RankingResult{
			InsufficientData: &InsufficientData{
				CurrentTrades:  len(sims),
				RequiredTrades: MinTradesForRanking,
			},
		}
	}
	if len(sims) > maxSimulatedTrades {
		sims = sims[len(sims)-maxSimulatedTrades:]
	}

	key := s.cacheKey("ranking", trades)
	if cached, ok := s.cache.Get(key); ok {
		if res, ok := cached.(*RankingResult); ok {
			return res
		}
	}

	var baseline float64
	for _, t := range sims {
		baseline += s.actualNet(t)
	}

	catalog := StrategyCatalog()
	results := make([]StrategyResult, 0, len(catalog))
	for _, def := range catalog {
		results = append(results, s.simulateStrategy(def, sims, baseline))
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RecommendationScore > results[j].RecommendationScore
	})

	res := &RankingResult{Strategies: results, Best: &results[0]}
	s.cache.Set(key, res, s.suggestionsTTL)
	return res
}

// simulatable filters to closed trades carrying the excursion and stop data
// the simulation needs, in chronological order
func simulatable(trades []domain.Trade) []domain.Trade {
	out := make([]domain.Trade, 0, len(trades))
	for _, t := range trades {
		if t.IsOpen() || t.StopLoss == nil || t.MaxFavorablePrice == nil || t.MaxAdversePrice == nil {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return tradeTime(out[i]).Before(tradeTime(out[j]))
	})
	return out
}

func tradeTime(t domain.Trade) time.Time {
	if t.ExitDate != nil {
		return *t.ExitDate
	}
	return t.EntryDate
}

// simulateStrategy replays one strategy over the trade set. The excursion
// data gives no intra-trade ordering, so the simulation assumes the
// favorable move precedes the adverse one once the trigger has fired.
func (s *Service) simulateStrategy(def StrategyDefinition, sims []domain.Trade, baseline float64) StrategyResult {
	res := StrategyResult{
		StrategyID:      def.ID,
		Name:            def.Name,
		TradesSimulated: len(sims),
	}
	var total float64
	for _, t := range sims {
		net, triggered, stopped := s.simulateTrade(def, t)
		total += net
		if triggered {
			res.TriggeredCount++
		}
		if stopped {
			res.StoppedAtBECount++
		}
	}
	res.SimulatedNetPnL = markets.RoundMoney(total)
	res.Delta = markets.RoundMoney(total - baseline)

	res.RecommendationScore = def.PriorScore
	if res.Delta > scoreDeltaThreshold {
		res.RecommendationScore += scoreAdjustment
	} else if res.Delta < -scoreDeltaThreshold {
		res.RecommendationScore -= scoreAdjustment
	}
	return res
}

// simulateTrade returns the trade's net P&L under the strategy plus whether
// the trigger fired and whether the position was stopped at break-even
func (s *Service) simulateTrade(def StrategyDefinition, t domain.Trade) (net float64, triggered, stopped bool) {
	actual := s.actualNet(t)
	stopDist := math.Abs(t.EntryPrice - *t.StopLoss)
	favMove := math.Abs(*t.MaxFavorablePrice - t.EntryPrice)
	if def.TriggerPercent <= 0 || stopDist == 0 {
		return actual, false, false
	}
	if def.VolatilityGate && favMove < volatilityGateRatio*stopDist {
		return actual, false, false
	}
	if favMove < def.TriggerPercent/100*stopDist {
		return actual, false, false
	}
	triggered = true

	if def.Trailing {
		trail := trailLevel(t, favMove)
		if exitedBelow(t, trail) {
			return s.replayNet(t, t.EntryPrice, trail), triggered, false
		}
		return actual, triggered, false
	}

	if breachedEntry(t) {
		// BE stop cuts the trade flat at entry; commission still applies
		return s.replayNet(t, t.EntryPrice, t.EntryPrice), triggered, true
	}
	return actual, triggered, false
}

// trailLevel is the exit locked in by a trailing stop at half the peak move
func trailLevel(t domain.Trade, favMove float64) float64 {
	if t.Direction == domain.DirectionShort {
		return t.EntryPrice - trailFraction*favMove
	}
	return t.EntryPrice + trailFraction*favMove
}

// exitedBelow reports whether the actual exit gave back more than the
// trailing stop would have allowed
func exitedBelow(t domain.Trade, trail float64) bool {
	if t.ExitPrice == nil {
		return false
	}
	if t.Direction == domain.DirectionShort {
		return *t.ExitPrice > trail
	}
	return *t.ExitPrice < trail
}

// breachedEntry reports whether the adverse excursion crossed back through
// the entry price
func breachedEntry(t domain.Trade) bool {
	if t.Direction == domain.DirectionShort {
		return *t.MaxAdversePrice >= t.EntryPrice
	}
	return *t.MaxAdversePrice <= t.EntryPrice
}

// actualNet is the trade's realized net P&L
func (s *Service) actualNet(t domain.Trade) float64 {
	tm := s.metrics.CalculateTradeMetrics(t)
	if tm.NetPnL == nil {
		return 0
	}
	return *tm.NetPnL
}

// replayNet computes net P&L for substituted prices, degrading to the flat
// per-unit model when the trade's market is not registered
func (s *Service) replayNet(t domain.Trade, entry, exit float64) float64 {
	if res, err := s.markets.CalculatePnL(entry, exit, t.Quantity, t.Symbol, t.Direction, true); err == nil {
		return res.NetPnL
	}
	points := exit - entry
	if t.Direction == domain.DirectionShort {
		points = entry - exit
	}
	return markets.RoundMoney(points*float64(t.Quantity) - t.Commission)
}

// GetOptimizationInsights combines the portfolio rollup with the top ranked
// strategies and human-readable observations
func (s *Service) GetOptimizationInsights(trades []domain.Trade) *OptimizationInsights {
	key := s.cacheKey("insights", trades)
	if cached, ok := s.cache.Get(key); ok {
		if res, ok := cached.(*OptimizationInsights); ok {
			return res
		}
	}

	portfolio := s.CalculatePortfolioBEMetrics(trades)
	if portfolio.InsufficientData != nil {
		return &OptimizationInsights{InsufficientData: portfolio.InsufficientData}
	}

	res := &OptimizationInsights{Portfolio: portfolio.Metrics}
	if ranking := s.RankBEStrategies(trades); ranking.InsufficientData == nil {
		top := ranking.Strategies
		if len(top) > 3 {
			top = top[:3]
		}
		res.TopStrategies = top
	}
	res.Insights = buildInsights(portfolio.Metrics, res.TopStrategies)

	s.cache.Set(key, res, s.suggestionsTTL)
	return res
}

// buildInsights renders the templated observations for the suggestion payload
func buildInsights(pm *PortfolioMetrics, top []StrategyResult) []string {
	insights := make([]string, 0, 4)
	switch {
	case pm.BESuccessRate >= 70:
		insights = append(insights, fmt.Sprintf(
			"Break-even stops worked on %.2f%% of tracked trades; keep using them.", pm.BESuccessRate))
	case pm.BESuccessRate >= 40:
		insights = append(insights, fmt.Sprintf(
			"Break-even stops worked on %.2f%% of tracked trades; consider a later trigger.", pm.BESuccessRate))
	default:
		insights = append(insights, fmt.Sprintf(
			"Break-even stops worked on only %.2f%% of tracked trades; they may be cutting winners short.", pm.BESuccessRate))
	}
	if pm.NetBEImpact < 0 {
		insights = append(insights, fmt.Sprintf(
			"Break-even management cost %.2f net: missed profit exceeds protected losses.", -pm.NetBEImpact))
	} else {
		insights = append(insights, fmt.Sprintf(
			"Break-even management protected %.2f net across the tracked trades.", pm.NetBEImpact))
	}
	if pm.AvgCaptureRate < 40 {
		insights = append(insights, fmt.Sprintf(
			"Average profit capture is %.2f%%; exits are leaving most of the available move on the table.", pm.AvgCaptureRate))
	}
	if len(top) > 0 {
		insights = append(insights, fmt.Sprintf(
			"%s scored highest (%.0f) over the recent history.", top[0].Name, top[0].RecommendationScore))
	}
	return insights
}

// cacheKey builds a deterministic key from the analysis inputs. The key
// carries a digest of every calculation-relevant trade field so edited
// histories never collide with a stale cached result.
func (s *Service) cacheKey(kind string, trades []domain.Trade) string {
	return fmt.Sprintf("breakeven:%s:%d:%x", kind, len(trades), domain.SnapshotDigest(trades))
}
