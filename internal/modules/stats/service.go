package stats

import (
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/tradelens/analytics/internal/domain"
	"github.com/tradelens/analytics/internal/modules/markets"
	"github.com/tradelens/analytics/internal/modules/metrics"
)

// Engine computes aggregate statistics over trade collections. It derives
// per-trade fields through the metrics calculator and never mutates its
// input, so it is safe to call concurrently.
type Engine struct {
	metrics *metrics.Calculator
	log     zerolog.Logger
}

// NewEngine creates an aggregate statistics engine
func NewEngine(metricsCalc *metrics.Calculator, log zerolog.Logger) *Engine {
	return &Engine{
		metrics: metricsCalc,
		log:     log.With().Str("service", "trade_stats").Logger(),
	}
}

// computedTrade pairs a trade with its derived metrics
type computedTrade struct {
	trade domain.Trade
	m     domain.TradeMetrics
}

// completedInTimeOrder derives metrics for every completed trade and returns
// them sorted chronologically (exit date when present, entry date otherwise)
func (e *Engine) completedInTimeOrder(trades []domain.Trade) []computedTrade {
	var completed []computedTrade
	for _, t := range trades {
		if t.IsOpen() {
			continue
		}
		completed = append(completed, computedTrade{trade: t, m: e.metrics.CalculateTradeMetrics(t)})
	}
	sort.SliceStable(completed, func(i, j int) bool {
		return tradeTime(completed[i].trade).Before(tradeTime(completed[j].trade))
	})
	return completed
}

func tradeTime(t domain.Trade) time.Time {
	if t.ExitDate != nil {
		return *t.ExitDate
	}
	return t.EntryDate
}

// CalculateTradeStats computes the full portfolio rollup for a trade
// snapshot. Degenerate inputs (empty set, open trades only) produce a zeroed
// result - never NaN in any documented field.
func (e *Engine) CalculateTradeStats(trades []domain.Trade) TradeStats {
	s := TradeStats{TotalTrades: len(trades)}

	completed := e.completedInTimeOrder(trades)
	s.CompletedTrades = len(completed)
	s.OpenTrades = s.TotalTrades - s.CompletedTrades

	var totalWins, totalLosses float64
	var rSum, rCount, effSum, effCount float64
	var netSeries []float64

	for _, ct := range completed {
		net := deref(ct.m.NetPnL)
		gross := deref(ct.m.PnL)

		s.TotalPnL += gross
		s.NetPnL += net
		s.TotalCommission += gross - net
		netSeries = append(netSeries, net)

		if ct.m.Result != nil {
			switch *ct.m.Result {
			case domain.ResultWin:
				s.Wins++
				totalWins += net
				if net > s.LargestWin {
					s.LargestWin = net
				}
			case domain.ResultLoss:
				s.Losses++
				totalLosses += net
				if net < s.LargestLoss {
					s.LargestLoss = net
				}
			case domain.ResultBreakeven:
				s.Breakevens++
			}
		}

		// Average only over finite, non-NaN values - a missing field is
		// excluded from both numerator and denominator, not counted as zero.
		if ct.m.RMultiple != nil && isFinite(*ct.m.RMultiple) {
			rSum += *ct.m.RMultiple
			rCount++
		}
		if ct.m.Efficiency != nil && isFinite(*ct.m.Efficiency) {
			effSum += *ct.m.Efficiency
			effCount++
		}
	}

	if s.CompletedTrades > 0 {
		s.WinRate = markets.RoundMoney(float64(s.Wins) / float64(s.CompletedTrades) * 100)
	}

	s.ProfitFactor = profitFactor(totalWins, totalLosses)

	if s.Wins > 0 {
		s.AvgWin = markets.RoundMoney(totalWins / float64(s.Wins))
	}
	if s.Losses > 0 {
		s.AvgLoss = markets.RoundMoney(totalLosses / float64(s.Losses))
	}
	if s.CompletedTrades > 0 {
		s.Expectancy = markets.RoundMoney(s.NetPnL / float64(s.CompletedTrades))
	}
	if rCount > 0 {
		s.AvgRMultiple = markets.RoundMoney(rSum / rCount)
	}
	if effCount > 0 {
		s.AvgEfficiency = markets.RoundMoney(effSum / effCount)
	}

	s.SharpeRatio = sharpeLike(netSeries)
	s.MaxDrawdown = maxDrawdown(netSeries)
	e.fillStreaks(&s, completed)

	s.TotalPnL = markets.RoundMoney(s.TotalPnL)
	s.NetPnL = markets.RoundMoney(s.NetPnL)
	s.TotalCommission = markets.RoundMoney(s.TotalCommission)
	s.LargestWin = markets.RoundMoney(s.LargestWin)
	s.LargestLoss = markets.RoundMoney(s.LargestLoss)

	return s
}

// fillStreaks scans completed trades once in chronological order, tracking
// the current win/loss run and the independent maxima. A flip resets the
// opposite counter to 0; breakevens interrupt both runs.
func (e *Engine) fillStreaks(s *TradeStats, completed []computedTrade) {
	for _, ct := range completed {
		if ct.m.Result == nil {
			continue
		}
		switch *ct.m.Result {
		case domain.ResultWin:
			s.CurrentWinStreak++
			s.CurrentLossStreak = 0
			if s.CurrentWinStreak > s.MaxWinStreak {
				s.MaxWinStreak = s.CurrentWinStreak
			}
		case domain.ResultLoss:
			s.CurrentLossStreak++
			s.CurrentWinStreak = 0
			if s.CurrentLossStreak > s.MaxLossStreak {
				s.MaxLossStreak = s.CurrentLossStreak
			}
		default:
			s.CurrentWinStreak = 0
			s.CurrentLossStreak = 0
		}
	}
}

// CalculateGroupBreakdown rolls trades up per symbol or per strategy,
// ordered by descending net P&L
func (e *Engine) CalculateGroupBreakdown(trades []domain.Trade, groupBy GroupBy) []GroupStats {
	groups := make(map[string]*GroupStats)
	var order []string

	for _, ct := range e.completedInTimeOrder(trades) {
		label := groupLabel(ct.trade, groupBy)
		g, ok := groups[label]
		if !ok {
			g = &GroupStats{Label: label}
			groups[label] = g
			order = append(order, label)
		}
		g.TradeCount++
		g.NetPnL += deref(ct.m.NetPnL)
		if ct.m.Result != nil && *ct.m.Result == domain.ResultWin {
			g.Wins++
		}
	}

	out := make([]GroupStats, 0, len(order))
	for _, label := range order {
		g := groups[label]
		if g.TradeCount > 0 {
			g.WinRate = markets.RoundMoney(float64(g.Wins) / float64(g.TradeCount) * 100)
			g.AvgNetPnL = markets.RoundMoney(g.NetPnL / float64(g.TradeCount))
		}
		g.NetPnL = markets.RoundMoney(g.NetPnL)
		out = append(out, *g)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].NetPnL > out[j].NetPnL })
	return out
}

// CalculateHeatmap averages net P&L per (day-of-week x hour-of-day) bucket
// over every trade carrying an entry timestamp. Open trades count toward
// their bucket with their defined zero P&L. Empty buckets stay 0; the Counts
// matrix distinguishes them from true zero-P&L buckets.
func (e *Engine) CalculateHeatmap(trades []domain.Trade) Heatmap {
	var hm Heatmap
	var sums [7][24]float64

	for _, t := range trades {
		if t.EntryDate.IsZero() {
			continue
		}
		day := int(t.EntryDate.Weekday())
		hour := t.EntryDate.Hour()
		if !t.IsOpen() {
			sums[day][hour] += deref(e.metrics.CalculateTradeMetrics(t).NetPnL)
		}
		hm.Counts[day][hour]++
	}

	for d := 0; d < 7; d++ {
		for h := 0; h < 24; h++ {
			if hm.Counts[d][h] > 0 {
				hm.AvgNetPnL[d][h] = markets.RoundMoney(sums[d][h] / float64(hm.Counts[d][h]))
			}
		}
	}
	return hm
}

// CalculateProfitLossChart groups completed trades into period buckets and
// carries a running cumulative P&L across buckets in key order. Bucket keys
// are zero-padded so lexical sort equals chronological sort; week buckets
// normalize to that week's Sunday.
func (e *Engine) CalculateProfitLossChart(trades []domain.Trade, period Period) []ChartBucket {
	sums := make(map[string]float64)
	counts := make(map[string]int)

	for _, ct := range e.completedInTimeOrder(trades) {
		ts := tradeTime(ct.trade)
		if ts.IsZero() {
			continue
		}
		key := bucketKey(ts, period)
		sums[key] += deref(ct.m.NetPnL)
		counts[key]++
	}

	keys := make([]string, 0, len(sums))
	for key := range sums {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var cumulative float64
	out := make([]ChartBucket, 0, len(keys))
	for _, key := range keys {
		pnl := markets.RoundMoney(sums[key])
		cumulative = markets.RoundMoney(cumulative + pnl)
		out = append(out, ChartBucket{
			Key:           key,
			PnL:           pnl,
			CumulativePnL: cumulative,
			TradeCount:    counts[key],
		})
	}
	return out
}

// bucketKey derives the chart bucket key for a timestamp
func bucketKey(ts time.Time, period Period) string {
	switch period {
	case PeriodWeek:
		// Normalize to the Sunday starting that week
		sunday := ts.AddDate(0, 0, -int(ts.Weekday()))
		return sunday.Format("2006-01-02")
	case PeriodMonth:
		return ts.Format("2006-01")
	case PeriodYear:
		return ts.Format("2006")
	default:
		return ts.Format("2006-01-02")
	}
}

func groupLabel(t domain.Trade, groupBy GroupBy) string {
	if groupBy == GroupByStrategy {
		if t.Strategy == "" {
			return "unassigned"
		}
		return t.Strategy
	}
	return t.Symbol
}

// profitFactor implements the documented edge rules: +Inf for wins without
// losses, 0 when both sides are zero
func profitFactor(totalWins, totalLosses float64) float64 {
	absLosses := math.Abs(totalLosses)
	if absLosses == 0 {
		if totalWins > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return markets.RoundMoney(totalWins / absLosses)
}

// sharpeLike computes mean(net P&L) / sample stddev over the per-trade net
// P&L series. Returns 0 for fewer than two observations or zero dispersion.
func sharpeLike(netSeries []float64) float64 {
	if len(netSeries) < 2 {
		return 0
	}
	mean := stat.Mean(netSeries, nil)
	sd := stat.StdDev(netSeries, nil)
	if sd == 0 || math.IsNaN(sd) {
		return 0
	}
	return markets.RoundMoney(mean / sd)
}

// maxDrawdown runs a single O(n) pass over the cumulative P&L curve,
// tracking the running peak and the deepest drop below it
func maxDrawdown(netSeries []float64) float64 {
	var runningPnL, peak, maxDD float64
	for _, net := range netSeries {
		runningPnL += net
		if runningPnL > peak {
			peak = runningPnL
		}
		if dd := peak - runningPnL; dd > maxDD {
			maxDD = dd
		}
	}
	return markets.RoundMoney(maxDD)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
