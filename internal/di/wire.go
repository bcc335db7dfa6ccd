// Package di wires the analysis services together for embedding
// applications: one call builds the market registry, calculators, and
// analysis engines with a shared cache and logger.
package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tradelens/analytics/internal/cache"
	"github.com/tradelens/analytics/internal/config"
	"github.com/tradelens/analytics/internal/modules/breakeven"
	"github.com/tradelens/analytics/internal/modules/markets"
	"github.com/tradelens/analytics/internal/modules/metrics"
	"github.com/tradelens/analytics/internal/modules/stats"
	"github.com/tradelens/analytics/internal/modules/whatif"
	"github.com/tradelens/analytics/pkg/logger"
)

// Container holds the fully wired analysis services
type Container struct {
	Config *config.Config
	Cache  cache.Cache

	MarketRegistry   *markets.Registry
	MarketCalculator *markets.Calculator
	Metrics          *metrics.Calculator
	Stats            *stats.Engine
	WhatIf           *whatif.Service
	BreakEven        *breakeven.Service
}

// NewFromEnv loads configuration from the environment, builds a logger at
// the configured level, installs it globally, and wires the container with
// an in-memory cache. This is the default entry point for embedding
// applications.
func NewFromEnv() (*Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel})
	logger.SetGlobalLogger(log)
	return NewContainer(cfg, cache.NewMemory(), log)
}

// NewContainer wires every service from the given configuration. Pass a
// cache.Noop to disable caching; a nil cache gets an in-memory one.
func NewContainer(cfg *config.Config, resultCache cache.Cache, log zerolog.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if resultCache == nil {
		resultCache = cache.NewMemory()
	}

	registry, err := markets.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to build market registry: %w", err)
	}
	marketCalc := markets.NewCalculator(registry, log)
	metricsCalc := metrics.NewCalculator(marketCalc, log)
	statsEngine := stats.NewEngine(metricsCalc, log)

	whatIfSvc, err := whatif.NewService(
		statsEngine, metricsCalc, marketCalc, resultCache, cfg.WhatIfCacheTTL, log)
	if err != nil {
		return nil, fmt.Errorf("failed to build what-if service: %w", err)
	}
	breakEvenSvc := breakeven.NewService(
		metricsCalc, marketCalc, resultCache,
		cfg.PortfolioCacheTTL, cfg.SuggestionsCacheTTL, log)

	return &Container{
		Config:           cfg,
		Cache:            resultCache,
		MarketRegistry:   registry,
		MarketCalculator: marketCalc,
		Stats:            statsEngine,
		Metrics:          metricsCalc,
		WhatIf:           whatIfSvc,
		BreakEven:        breakEvenSvc,
	}, nil
}
