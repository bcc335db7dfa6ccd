// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default cache windows for the analysis entry points. The cache only
// affects latency, never results.
const (
	DefaultWhatIfCacheTTL      = 15 * time.Minute
	DefaultSuggestionsCacheTTL = 5 * time.Minute
	DefaultPortfolioCacheTTL   = 30 * time.Minute
)

// Config holds the analysis defaults supplied by the embedding application.
// None of these affect calculation correctness - they parameterize scenario
// runs and caching.
type Config struct {
	AccountSize         float64       // Default account size for what-if runs
	RiskPerTradePercent float64       // Default risk budget per trade
	PreferredSymbols    []string      // Markets surfaced first by embedding UIs
	WhatIfCacheTTL      time.Duration // What-if scenario results
	SuggestionsCacheTTL time.Duration // Per-trade optimization suggestions
	PortfolioCacheTTL   time.Duration // Portfolio BE analysis
	LogLevel            string
}

// Load reads configuration from environment variables, with a .env file
// honored when present
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		AccountSize:         getEnvAsFloat("TRADELENS_ACCOUNT_SIZE", 100000),
		RiskPerTradePercent: getEnvAsFloat("TRADELENS_RISK_PER_TRADE", 1.0),
		PreferredSymbols:    getEnvAsList("TRADELENS_PREFERRED_SYMBOLS", nil),
		WhatIfCacheTTL:      getEnvAsMinutes("TRADELENS_WHATIF_CACHE_MINUTES", DefaultWhatIfCacheTTL),
		SuggestionsCacheTTL: getEnvAsMinutes("TRADELENS_SUGGESTIONS_CACHE_MINUTES", DefaultSuggestionsCacheTTL),
		PortfolioCacheTTL:   getEnvAsMinutes("TRADELENS_PORTFOLIO_CACHE_MINUTES", DefaultPortfolioCacheTTL),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the loaded defaults are usable
func (c *Config) Validate() error {
	if c.AccountSize <= 0 {
		return fmt.Errorf("account size must be positive, got %v", c.AccountSize)
	}
	if c.RiskPerTradePercent <= 0 || c.RiskPerTradePercent > 100 {
		return fmt.Errorf("risk per trade must be in (0, 100], got %v", c.RiskPerTradePercent)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.ToUpper(strings.TrimSpace(p)); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvAsMinutes(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil && intVal > 0 {
			return time.Duration(intVal) * time.Minute
		}
	}
	return defaultValue
}
