// Package whatif replays a trade history under alternate policies and
// reports the counterfactual P&L delta, both as named aggregate scenarios
// and as a per-trade historical replay.
package whatif

import "github.com/tradelens/analytics/internal/modules/stats"

// ImprovementBase selects the measure a scenario's percentage applies to
type ImprovementBase string

const (
	BaseGrossWins   ImprovementBase = "gross_wins"
	BaseAbsLosses   ImprovementBase = "abs_losses"
	BaseNetPnLAbs   ImprovementBase = "net_pnl_abs"
	BaseTotalAbsPnL ImprovementBase = "total_abs_pnl"
	BaseWorst10PnL  ImprovementBase = "worst_10_pnl"
	BaseBestDayGap  ImprovementBase = "best_day_gap"
)

// AffectedFilter selects which trades a scenario counts as affected
type AffectedFilter string

const (
	AffectedAll        AffectedFilter = "all"
	AffectedWinners    AffectedFilter = "winners"
	AffectedLosers     AffectedFilter = "losers"
	AffectedWorst10    AffectedFilter = "worst_10"
	AffectedOffBestDay AffectedFilter = "off_best_day"
)

// ScenarioDefinition is one catalog entry. Defined at process start, never
// mutated; the improvement percentages are heuristic constants by design.
type ScenarioDefinition struct {
	ID          string          `yaml:"id" json:"id"`
	Name        string          `yaml:"name" json:"name"`
	Category    string          `yaml:"category" json:"category"`
	Description string          `yaml:"description" json:"description"`
	Base        ImprovementBase `yaml:"base" json:"base"`
	Percent     float64         `yaml:"percent" json:"percent"`
	Affected    AffectedFilter  `yaml:"affected" json:"affected"`
}

// ImprovedStats is the baseline rollup shifted by a scenario's improvement
type ImprovedStats struct {
	NetPnL       float64 `json:"net_pnl"`
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`
}

// ScenarioResult is the outcome of applying one scenario to the trade set
type ScenarioResult struct {
	ScenarioID          string        `json:"scenario_id"`
	Name                string        `json:"name"`
	Category            string        `json:"category"`
	TotalPnLImprovement float64       `json:"total_pnl_improvement"`
	AffectedTrades      int           `json:"affected_trades"`
	ImprovedStats       ImprovedStats `json:"improved_stats"`
	Insights            []string      `json:"insights"`
}

// Summary condenses a what-if run
type Summary struct {
	ScenarioCount      int     `json:"scenario_count"`
	BestScenarioID     string  `json:"best_scenario_id"`
	BestImprovement    float64 `json:"best_improvement"`
	AverageImprovement float64 `json:"average_improvement"`
}

// InsufficientData is the structured "not enough data" outcome - returned in
// place of results, never raised as an error, so UI layers can render a
// guidance message.
type InsufficientData struct {
	CurrentTrades  int `json:"current_trades"`
	RequiredTrades int `json:"required_trades"`
}

// Result is the full outcome of RunWhatIfCalculations
type Result struct {
	OriginalStats    stats.TradeStats  `json:"original_stats"`
	Scenarios        []ScenarioResult  `json:"scenarios"`
	TopImprovements  []ScenarioResult  `json:"top_improvements"`
	Summary          Summary           `json:"summary"`
	InsufficientData *InsufficientData `json:"insufficient_data,omitempty"`
}

// ReplayScenario is one per-trade counterfactual replay outcome
type ReplayScenario struct {
	Name           string  `json:"name"`
	TotalNetPnL    float64 `json:"total_net_pnl"`
	Delta          float64 `json:"delta"`
	TradesAffected int     `json:"trades_affected"`
}

// ReplayResult holds the granular per-trade replay scenarios. Unlike the
// catalog scenarios these are recomputed trade by trade from each trade's
// own MAE/MFE, not approximated by aggregate multipliers.
type ReplayResult struct {
	BaselineNetPnL float64        `json:"baseline_net_pnl"`
	PerfectEntry   ReplayScenario `json:"perfect_entry"`
	PerfectExit    ReplayScenario `json:"perfect_exit"`
	NoStopLoss     ReplayScenario `json:"no_stop_loss"`
	TightStopLoss  ReplayScenario `json:"tight_stop_loss"`
}
