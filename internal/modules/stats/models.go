// Package stats provides portfolio-level rollups over trade collections:
// win rate, profit factor, streaks, drawdown, correlations, heat maps and
// cumulative P&L charts.
package stats

// TradeStats is the full portfolio rollup computed fresh on every call.
// It has no identity and is never persisted by the core.
//
// Win/loss counts and rates cover completed trades only; TotalTrades always
// reflects the full input length. ProfitFactor is +Inf for an all-winning
// set and 0 when both sides are zero.
type TradeStats struct {
	TotalTrades     int     `json:"total_trades"`
	CompletedTrades int     `json:"completed_trades"`
	OpenTrades      int     `json:"open_trades"`
	Wins            int     `json:"wins"`
	Losses          int     `json:"losses"`
	Breakevens      int     `json:"breakevens"`
	WinRate         float64 `json:"win_rate"`
	ProfitFactor    float64 `json:"profit_factor"`
	TotalPnL        float64 `json:"total_pnl"`
	NetPnL          float64 `json:"net_pnl"`
	TotalCommission float64 `json:"total_commission"`
	AvgWin          float64 `json:"avg_win"`
	AvgLoss         float64 `json:"avg_loss"`
	LargestWin      float64 `json:"largest_win"`
	LargestLoss     float64 `json:"largest_loss"`
	Expectancy      float64 `json:"expectancy"`
	AvgRMultiple    float64 `json:"avg_r_multiple"`
	AvgEfficiency   float64 `json:"avg_efficiency"`
	SharpeRatio     float64 `json:"sharpe_ratio"`
	MaxDrawdown     float64 `json:"max_drawdown"`

	CurrentWinStreak  int `json:"current_win_streak"`
	CurrentLossStreak int `json:"current_loss_streak"`
	MaxWinStreak      int `json:"max_win_streak"`
	MaxLossStreak     int `json:"max_loss_streak"`
}

// GroupBy selects the grouping dimension for breakdowns and correlations
type GroupBy string

const (
	GroupBySymbol   GroupBy = "symbol"
	GroupByStrategy GroupBy = "strategy"
)

// CorrelationMatrix holds pairwise Pearson correlations of P&L-percentage
// series between groups. Self-correlation is exactly 1; a zero-variance
// series correlates 0 with everything, never NaN.
type CorrelationMatrix struct {
	Labels []string    `json:"labels"`
	Matrix [][]float64 `json:"matrix"`
}

// GroupStats is a per-symbol or per-strategy breakdown entry
type GroupStats struct {
	Label      string  `json:"label"`
	TradeCount int     `json:"trade_count"`
	Wins       int     `json:"wins"`
	WinRate    float64 `json:"win_rate"`
	NetPnL     float64 `json:"net_pnl"`
	AvgNetPnL  float64 `json:"avg_net_pnl"`
}

// Heatmap buckets average net P&L by (day-of-week x hour-of-day).
// Empty buckets stay 0 and are distinguished via the parallel Counts matrix.
type Heatmap struct {
	AvgNetPnL [7][24]float64 `json:"avg_net_pnl"`
	Counts    [7][24]int     `json:"counts"`
}

// Period selects the bucket granularity of the profit/loss chart
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// ChartBucket is one period bucket of the cumulative P&L chart.
// Keys are zero-padded so lexical order equals chronological order.
type ChartBucket struct {
	Key           string  `json:"key"`
	PnL           float64 `json:"pnl"`
	CumulativePnL float64 `json:"cumulative_pnl"`
	TradeCount    int     `json:"trade_count"`
}
