// Package markets provides the static contract-specification registry and the
// market-aware calculator (tick rounding, commission, P&L, position sizing).
package markets

// Category classifies an instrument's contract type
type Category string

const (
	CategoryFutures Category = "futures"
	CategoryForex   Category = "forex"
	CategoryStocks  Category = "stocks"
	CategoryCrypto  Category = "crypto"
)

// PositionSizingMethod selects how CalculatePositionSize determines quantity
type PositionSizingMethod string

const (
	SizingRiskBased  PositionSizingMethod = "RISK_BASED"
	SizingFixed      PositionSizingMethod = "FIXED"
	SizingPercentage PositionSizingMethod = "PERCENTAGE"
	SizingVolatility PositionSizingMethod = "VOLATILITY"
)

// CommissionSchedule describes the per-contract fee structure of an instrument.
// The optional fee components and caps are nil when the instrument does not
// define them.
type CommissionSchedule struct {
	Amount     float64  `yaml:"amount" json:"amount"`
	Exchange   *float64 `yaml:"exchange,omitempty" json:"exchange,omitempty"`
	Clearing   *float64 `yaml:"clearing,omitempty" json:"clearing,omitempty"`
	NFA        *float64 `yaml:"nfa,omitempty" json:"nfa,omitempty"`
	Regulation *float64 `yaml:"regulation,omitempty" json:"regulation,omitempty"`
	Minimum    *float64 `yaml:"minimum,omitempty" json:"minimum,omitempty"`
	Maximum    *float64 `yaml:"maximum,omitempty" json:"maximum,omitempty"`
}

// RiskDefaults carries per-instrument risk management defaults
type RiskDefaults struct {
	RiskPerTradePercent  float64              `yaml:"risk_per_trade_percent" json:"risk_per_trade_percent"`
	MaxPositionSize      int                  `yaml:"max_position_size" json:"max_position_size"`
	DefaultStopPercent   float64              `yaml:"default_stop_percent" json:"default_stop_percent"`
	DefaultTargetPercent float64              `yaml:"default_target_percent" json:"default_target_percent"`
	SizingMethod         PositionSizingMethod `yaml:"sizing_method" json:"sizing_method"`
}

// ContractSpecification is the immutable per-instrument contract definition.
// Specs are registered once at registry construction and never mutated.
type ContractSpecification struct {
	ID                string             `yaml:"id" json:"id"`
	Symbol            string             `yaml:"symbol" json:"symbol"`
	Name              string             `yaml:"name" json:"name"`
	Category          Category           `yaml:"category" json:"category"`
	TickSize          float64            `yaml:"tick_size" json:"tick_size"`
	TickValue         float64            `yaml:"tick_value" json:"tick_value"`
	PointValue        float64            `yaml:"point_value" json:"point_value"`
	ContractSize      float64            `yaml:"contract_size" json:"contract_size"`
	Precision         int                `yaml:"precision" json:"precision"`
	Currency          string             `yaml:"currency" json:"currency"`
	InitialMargin     float64            `yaml:"initial_margin" json:"initial_margin"`
	DayTradingMargin  float64            `yaml:"day_trading_margin" json:"day_trading_margin"`
	DefaultCommission CommissionSchedule `yaml:"default_commission" json:"default_commission"`
	RiskDefaults      RiskDefaults       `yaml:"risk_defaults" json:"risk_defaults"`
	IsActive          bool               `yaml:"is_active" json:"is_active"`
}

// Multiplier returns the monetary value of a one-point move for one contract.
// Futures contracts use the point value; everything else uses contract size.
func (s *ContractSpecification) Multiplier() float64 {
	if s.Category == CategoryFutures {
		return s.PointValue
	}
	return s.ContractSize
}

// PnLResult is the outcome of a market-aware P&L calculation.
// All monetary fields are rounded to 2 decimals.
type PnLResult struct {
	GrossPnL      float64 `json:"gross_pnl"`
	Commission    float64 `json:"commission"`
	NetPnL        float64 `json:"net_pnl"`
	ContractValue float64 `json:"contract_value"`
}

// ValidationResult accumulates all violations found for a proposed trade.
// Errors block the trade; warnings are advisory only.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}
