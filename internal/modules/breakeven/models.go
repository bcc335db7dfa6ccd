// Package breakeven analyzes break-even stop management: per-trade capture
// efficiency, portfolio-level BE effectiveness, and ranking of candidate
// BE-trigger strategies against the trade history.
package breakeven

// Metrics is the per-trade break-even analysis output.
// All percentage fields are rounded to 2 decimals.
type Metrics struct {
	ProfitCaptureRate    float64 `json:"profit_capture_rate"`
	BEEfficiency         float64 `json:"be_efficiency"`
	DrawdownTolerance    float64 `json:"drawdown_tolerance"`
	OptimalBEDistance    float64 `json:"optimal_be_distance"`
	RiskRewardWithBE     float64 `json:"risk_reward_with_be"`
	PotentialImprovement float64 `json:"potential_improvement"`
	MissedProfitAmount   float64 `json:"missed_profit_amount"`
	ProtectedAmount      float64 `json:"protected_amount"`
}

// Recommendation buckets for the portfolio rollup
type Recommendation string

const (
	RecommendAggressive   Recommendation = "aggressive-be"
	RecommendModerate     Recommendation = "moderate-be"
	RecommendConservative Recommendation = "conservative-be"
	RecommendNone         Recommendation = "no-be"
)

// PortfolioMetrics aggregates BE effectiveness over trades that recorded a
// break-even outcome
type PortfolioMetrics struct {
	TradesWithBE   int            `json:"trades_with_be"`
	BEWorkedCount  int            `json:"be_worked_count"`
	BESuccessRate  float64        `json:"be_success_rate"`
	TotalProtected float64        `json:"total_protected"`
	TotalMissed    float64        `json:"total_missed"`
	NetBEImpact    float64        `json:"net_be_impact"`
	AvgCaptureRate float64        `json:"avg_capture_rate"`
	Recommendation Recommendation `json:"recommendation"`
}

// InsufficientData is the structured "not enough data" outcome
type InsufficientData struct {
	CurrentTrades  int `json:"current_trades"`
	RequiredTrades int `json:"required_trades"`
}

// PortfolioResult wraps the rollup with its data-sufficiency marker
type PortfolioResult struct {
	Metrics          *PortfolioMetrics `json:"metrics,omitempty"`
	InsufficientData *InsufficientData `json:"insufficient_data,omitempty"`
}

// StrategyDefinition is one candidate BE-trigger strategy. The trigger
// percent positions the BE trigger along the favorable move; the prior
// seeds the recommendation score before simulation nudges it.
type StrategyDefinition struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	TriggerPercent float64 `json:"trigger_percent"`
	PriorScore     float64 `json:"prior_score"`
	Trailing       bool    `json:"trailing"`
	VolatilityGate bool    `json:"volatility_gate"`
}

// StrategyResult is one ranked strategy with its simulated outcome
type StrategyResult struct {
	StrategyID          string  `json:"strategy_id"`
	Name                string  `json:"name"`
	SimulatedNetPnL     float64 `json:"simulated_net_pnl"`
	Delta               float64 `json:"delta"`
	TradesSimulated     int     `json:"trades_simulated"`
	TriggeredCount      int     `json:"triggered_count"`
	StoppedAtBECount    int     `json:"stopped_at_be_count"`
	RecommendationScore float64 `json:"recommendation_score"`
}

// RankingResult is the outcome of RankBEStrategies
type RankingResult struct {
	Strategies       []StrategyResult  `json:"strategies"`
	Best             *StrategyResult   `json:"best,omitempty"`
	InsufficientData *InsufficientData `json:"insufficient_data,omitempty"`
}

// OptimizationInsights is the combined suggestion payload handed to the
// controller/UI collaborator
type OptimizationInsights struct {
	Portfolio        *PortfolioMetrics `json:"portfolio,omitempty"`
	TopStrategies    []StrategyResult  `json:"top_strategies,omitempty"`
	Insights         []string          `json:"insights"`
	InsufficientData *InsufficientData `json:"insufficient_data,omitempty"`
}
