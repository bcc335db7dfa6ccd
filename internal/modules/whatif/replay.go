package whatif

import (
	"math"

	"github.com/tradelens/analytics/internal/domain"
	"github.com/tradelens/analytics/internal/modules/markets"
)

// tightStopFraction halves the original stop distance in the tight-stop
// replay
const tightStopFraction = 0.5

// CalculateWhatIfScenarios replays the trade history trade by trade,
// substituting counterfactual entry/exit/stop prices derived from each
// trade's own MAE/MFE and re-deriving commission-adjusted P&L.
//
// This is the only per-trade simulation path - the catalog scenarios in
// RunWhatIfCalculations work on aggregate multipliers instead.
func (s *Service) CalculateWhatIfScenarios(trades []domain.Trade) *ReplayResult {
	result := &ReplayResult{
		PerfectEntry:  ReplayScenario{Name: "perfectEntry"},
		PerfectExit:   ReplayScenario{Name: "perfectExit"},
		NoStopLoss:    ReplayScenario{Name: "noStopLoss"},
		TightStopLoss: ReplayScenario{Name: "tightStopLoss"},
	}

	for _, t := range trades {
		if t.IsOpen() {
			continue
		}
		entry := t.EntryPrice
		exit := *t.ExitPrice
		actual := s.replayNet(t, entry, exit)
		result.BaselineNetPnL += actual

		// Perfect entry: fill at the adverse extreme instead of the actual
		// entry
		if t.MaxAdversePrice != nil {
			result.PerfectEntry.TotalNetPnL += s.replayNet(t, *t.MaxAdversePrice, exit)
			result.PerfectEntry.TradesAffected++
		} else {
			result.PerfectEntry.TotalNetPnL += actual
		}

		// Perfect exit: exit at the favorable extreme
		if t.MaxFavorablePrice != nil {
			result.PerfectExit.TotalNetPnL += s.replayNet(t, entry, *t.MaxFavorablePrice)
			result.PerfectExit.TradesAffected++
		} else {
			result.PerfectExit.TotalNetPnL += actual
		}

		// No stop loss: a stopped-out loser instead rides to its favorable
		// extreme
		if t.StopLoss != nil && actual < 0 && t.MaxFavorablePrice != nil {
			result.NoStopLoss.TotalNetPnL += s.replayNet(t, entry, *t.MaxFavorablePrice)
			result.NoStopLoss.TradesAffected++
		} else {
			result.NoStopLoss.TotalNetPnL += actual
		}

		// Tight stop loss: halve the stop distance; the trade exits at the
		// tight stop whenever the adverse excursion breached it
		if t.StopLoss != nil && t.MaxAdversePrice != nil {
			tight := tightStop(t)
			if breachedStop(t, tight) {
				result.TightStopLoss.TotalNetPnL += s.replayNet(t, entry, tight)
				result.TightStopLoss.TradesAffected++
			} else {
				result.TightStopLoss.TotalNetPnL += actual
			}
		} else {
			result.TightStopLoss.TotalNetPnL += actual
		}
	}

	result.BaselineNetPnL = markets.RoundMoney(result.BaselineNetPnL)
	finishReplay(&result.PerfectEntry, result.BaselineNetPnL)
	finishReplay(&result.PerfectExit, result.BaselineNetPnL)
	finishReplay(&result.NoStopLoss, result.BaselineNetPnL)
	finishReplay(&result.TightStopLoss, result.BaselineNetPnL)
	return result
}

// replayNet computes commission-adjusted net P&L for a trade with
// substituted prices, degrading to the flat per-unit model when the trade's
// market is not registered
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

// tightStop places the stop at half the original stop distance from entry
func tightStop(t domain.Trade) float64 {
	dist := math.Abs(t.EntryPrice-*t.StopLoss) * tightStopFraction
	if t.Direction == domain.DirectionShort {
		return t.EntryPrice + dist
	}
	return t.EntryPrice - dist
}

// breachedStop reports whether the adverse excursion reached the stop level
func breachedStop(t domain.Trade, stop float64) bool {
	if t.Direction == domain.DirectionShort {
		return *t.MaxAdversePrice >= stop
	}
	return *t.MaxAdversePrice <= stop
}

func finishReplay(sc *ReplayScenario, baseline float64) {
	sc.TotalNetPnL = markets.RoundMoney(sc.TotalNetPnL)
	sc.Delta = markets.RoundMoney(sc.TotalNetPnL - baseline)
}
