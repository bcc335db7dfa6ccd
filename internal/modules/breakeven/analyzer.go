package breakeven

import (
	"math"

	"github.com/tradelens/analytics/internal/domain"
	"github.com/tradelens/analytics/internal/modules/markets"
)

// Fixed heuristics of the BE model. The 40% distance factor is a heuristic
// by design, not a fitted parameter.
const (
	beDistanceFactor = 0.4 // optimal BE distance as a share of the target move
	beRecoveryFactor = 0.4 // share of missed profit a tuned BE could recover

	beWorkedBase    = 60.0 // efficiency floor when the BE trigger worked
	beWorkedSlope   = 0.4
	beFailedPenalty = 1.2
)

// CalculateBEMetrics computes the per-trade break-even analysis.
// Open trades and trades without usable references yield zeroed fields -
// never NaN.
func (s *Service) CalculateBEMetrics(trade domain.Trade) Metrics {
	var m Metrics
	if trade.IsOpen() {
		return m
	}

	tm := s.metrics.CalculateTradeMetrics(trade)
	actualProfit := 0.0
	if tm.NetPnL != nil {
		actualProfit = *tm.NetPnL
	}
	maxPossible := trade.MaxPotentialProfit

	// Profit capture: share of the maximum possible profit actually kept,
	// clamped to >= 0; 0 when there was no profit to capture
	if maxPossible > 0 {
		m.ProfitCaptureRate = markets.RoundMoney(math.Max(0, actualProfit/maxPossible*100))
	}

	// BE efficiency branches on whether the BE trigger worked. Unknown
	// outcome leaves it 0.
	if trade.BreakEvenWorked != nil {
		if *trade.BreakEvenWorked {
			m.BEEfficiency = markets.RoundMoney(math.Min(100, beWorkedBase+beWorkedSlope*m.ProfitCaptureRate))
		} else {
			m.BEEfficiency = markets.RoundMoney(math.Max(0, 100-beFailedPenalty*(100-m.ProfitCaptureRate)))
		}
	}

	// Drawdown endured relative to the profit that was available
	if maxPossible > 0 && trade.MaxDrawdown > 0 {
		m.DrawdownTolerance = markets.RoundMoney(math.Min(100, trade.MaxDrawdown/maxPossible*100))
	}

	// Optimal BE distance: 40% of the distance to target, or of the actual
	// profit when no target was set
	if trade.TakeProfit != nil {
		m.OptimalBEDistance = markets.RoundMoney(beDistanceFactor * math.Abs(*trade.TakeProfit-trade.EntryPrice))
	} else {
		m.OptimalBEDistance = markets.RoundMoney(beDistanceFactor * math.Abs(actualProfit))
	}

	// Risk/reward once the BE trigger has cut the effective risk in half
	m.RiskRewardWithBE = s.riskRewardWithBE(trade)

	m.MissedProfitAmount = markets.RoundMoney(math.Max(0, maxPossible-actualProfit))
	m.PotentialImprovement = markets.RoundMoney(beRecoveryFactor * m.MissedProfitAmount)

	if trade.BreakEvenWorked != nil && *trade.BreakEvenWorked && trade.StopLoss != nil {
		m.ProtectedAmount = markets.RoundMoney(
			math.Abs(trade.EntryPrice-*trade.StopLoss) * s.pointValue(trade) * float64(trade.Quantity))
	}

	return m
}

// riskRewardWithBE relates the reward distance to half the original stop
// distance - the average risk remaining once a BE trigger is in play.
// 0 when either side is undefined.
func (s *Service) riskRewardWithBE(trade domain.Trade) float64 {
	var reward float64
	switch {
	case trade.TakeProfit != nil:
		reward = math.Abs(*trade.TakeProfit - trade.EntryPrice)
	case trade.MaxFavorablePrice != nil:
		reward = math.Abs(*trade.MaxFavorablePrice - trade.EntryPrice)
	}
	if reward <= 0 || trade.StopLoss == nil {
		return 0
	}
	halfRisk := math.Abs(trade.EntryPrice-*trade.StopLoss) / 2
	if halfRisk == 0 {
		return 0
	}
	return markets.RoundMoney(reward / halfRisk)
}

// pointValue resolves the monetary value of a one-point move, degrading to a
// flat 1.0 for unregistered markets
func (s *Service) pointValue(trade domain.Trade) float64 {
	if spec := s.markets.GetMarket(trade.Symbol); spec != nil {
		return spec.Multiplier()
	}
	return 1.0
}
