package whatif

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradelens/analytics/internal/cache"
	"github.com/tradelens/analytics/internal/domain"
	"github.com/tradelens/analytics/internal/modules/markets"
	"github.com/tradelens/analytics/internal/modules/metrics"
	"github.com/tradelens/analytics/internal/modules/stats"
)

// MinTradesForAnalysis is the minimum number of completed trades required
// before scenario results are meaningful
const MinTradesForAnalysis = 10

// DefaultAccountSize is used when the caller passes a non-positive account size
const DefaultAccountSize = 100000.0

// Service runs what-if scenario analysis over trade histories. Results for
// identical inputs are deterministic; the injected cache only short-circuits
// recomputation within its TTL.
type Service struct {
	stats    *stats.Engine
	metrics  *metrics.Calculator
	markets  *markets.Calculator
	catalog  []ScenarioDefinition
	cache    cache.Cache
	cacheTTL time.Duration
	log      zerolog.Logger
}

// NewService creates a what-if service over the built-in scenario catalog
func NewService(
	statsEngine *stats.Engine,
	metricsCalc *metrics.Calculator,
	marketCalc *markets.Calculator,
	resultCache cache.Cache,
	cacheTTL time.Duration,
	log zerolog.Logger,
) (*Service, error) {
	catalog, err := LoadCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario catalog: %w", err)
	}
	return &Service{
		stats:    statsEngine,
		metrics:  metricsCalc,
		markets:  marketCalc,
		catalog:  catalog,
		cache:    resultCache,
		cacheTTL: cacheTTL,
		log:      log.With().Str("service", "whatif").Logger(),
	}, nil
}

// Catalog returns the scenario definitions the service was built with
func (s *Service) Catalog() []ScenarioDefinition {
	out := make([]ScenarioDefinition, len(s.catalog))
	copy(out, s.catalog)
	return out
}

// measures are the aggregate quantities the scenario formulas draw from
type measures struct {
	completed        int
	wins             int
	losses           int
	netPnL           float64
	grossWins        float64
	absLosses        float64
	worst10Sum       float64
	worst10Count     int
	worst10Wins      int
	worst10GrossWins float64
	worst10AbsLosses float64
	bestDayPnL       float64
	bestDayCount     int
}

// RunWhatIfCalculations applies the named scenarios to the trade history and
// reports the counterfactual improvements.
//
// scenarioIDs filters the catalog (nil means every scenario); customScenarios
// are appended after the catalog entries. Below MinTradesForAnalysis
// completed trades the result carries an InsufficientData marker instead of
// scenarios.
func (s *Service) RunWhatIfCalculations(trades []domain.Trade, scenarioIDs []string, accountSize float64, customScenarios []ScenarioDefinition) *Result {
	if accountSize <= 0 {
		accountSize = DefaultAccountSize
	}

	cacheKey := s.cacheKey(trades, scenarioIDs, accountSize, len(customScenarios))
	if cached, ok := s.cache.Get(cacheKey); ok {
		if result, ok := cached.(*Result); ok {
			s.log.Debug().Str("key", cacheKey).Msg("What-if result served from cache")
			return result
		}
	}

	baseline := s.stats.CalculateTradeStats(trades)
	result := &Result{OriginalStats: baseline}

	if baseline.CompletedTrades < MinTradesForAnalysis {
		result.InsufficientData = &InsufficientData{
			CurrentTrades:  baseline.CompletedTrades,
			RequiredTrades: MinTradesForAnalysis,
		}
		return result
	}

	m := s.collectMeasures(trades)
	defs := s.selectScenarios(scenarioIDs, customScenarios)

	var improvementSum float64
	for _, def := range defs {
		sr := s.applyScenario(def, baseline, m, accountSize)
		result.Scenarios = append(result.Scenarios, sr)
		improvementSum += sr.TotalPnLImprovement
	}

	// Top 3 by improvement; the stable sort keeps catalog order on ties
	ranked := make([]ScenarioResult, len(result.Scenarios))
	copy(ranked, result.Scenarios)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalPnLImprovement > ranked[j].TotalPnLImprovement
	})
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	result.TopImprovements = ranked

	result.Summary = Summary{
		ScenarioCount: len(result.Scenarios),
	}
	if len(ranked) > 0 {
		result.Summary.BestScenarioID = ranked[0].ScenarioID
		result.Summary.BestImprovement = ranked[0].TotalPnLImprovement
		result.Summary.AverageImprovement = markets.RoundMoney(improvementSum / float64(len(result.Scenarios)))
	}

	s.cache.Set(cacheKey, result, s.cacheTTL)
	return result
}

// collectMeasures derives the aggregate scenario inputs in one pass over the
// completed trades
func (s *Service) collectMeasures(trades []domain.Trade) measures {
	var m measures
	var nets []float64
	dayTotals := make(map[string]float64)
	dayCounts := make(map[string]int)

	for _, t := range trades {
		if t.IsOpen() {
			continue
		}
		tm := s.metrics.CalculateTradeMetrics(t)
		net := 0.0
		if tm.NetPnL != nil {
			net = *tm.NetPnL
		}

		m.completed++
		m.netPnL += net
		nets = append(nets, net)

		if net > 0 {
			m.wins++
			m.grossWins += net
		} else if net < 0 {
			m.losses++
			m.absLosses += -net
		}

		day := t.EntryDate.Format("2006-01-02")
		dayTotals[day] += net
		dayCounts[day]++
	}

	// Worst decile by net P&L. On a mostly-winning history the decile can
	// contain winners, so track its composition for the improved-stats
	// recomputation.
	sort.Float64s(nets)
	m.worst10Count = int(math.Ceil(float64(len(nets)) * 0.10))
	for i := 0; i < m.worst10Count && i < len(nets); i++ {
		m.worst10Sum += nets[i]
		if nets[i] > 0 {
			m.worst10Wins++
			m.worst10GrossWins += nets[i]
		} else if nets[i] < 0 {
			m.worst10AbsLosses += -nets[i]
		}
	}

	// Best single trading day
	first := true
	for day, total := range dayTotals {
		if first || total > m.bestDayPnL {
			m.bestDayPnL = total
			m.bestDayCount = dayCounts[day]
			first = false
		} else if total == m.bestDayPnL && dayCounts[day] > m.bestDayCount {
			m.bestDayCount = dayCounts[day]
		}
	}

	return m
}

// selectScenarios filters the catalog by id and appends custom definitions
func (s *Service) selectScenarios(scenarioIDs []string, custom []ScenarioDefinition) []ScenarioDefinition {
	defs := s.catalog
	if len(scenarioIDs) > 0 {
		wanted := make(map[string]bool, len(scenarioIDs))
		for _, id := range scenarioIDs {
			wanted[id] = true
		}
		var filtered []ScenarioDefinition
		for _, def := range s.catalog {
			if wanted[def.ID] {
				filtered = append(filtered, def)
			}
		}
		defs = filtered
	}
	return append(defs, custom...)
}

// applyScenario evaluates one scenario definition against the collected
// measures
func (s *Service) applyScenario(def ScenarioDefinition, baseline stats.TradeStats, m measures, accountSize float64) ScenarioResult {
	base := s.baseMeasure(def.Base, m)
	improvement := markets.RoundMoney(base * def.Percent / 100)
	affected := s.affectedCount(def.Affected, m)

	sr := ScenarioResult{
		ScenarioID:          def.ID,
		Name:                def.Name,
		Category:            def.Category,
		TotalPnLImprovement: improvement,
		AffectedTrades:      affected,
		ImprovedStats:       s.improvedStats(def, baseline, m, improvement, affected),
	}

	sr.Insights = []string{
		fmt.Sprintf("%s would have changed total P&L by $%.2f across %d affected trades",
			def.Name, improvement, affected),
		fmt.Sprintf("Projected net P&L: $%.2f (from $%.2f) on a $%.0f account",
			sr.ImprovedStats.NetPnL, baseline.NetPnL, accountSize),
	}

	return sr
}

// baseMeasure resolves a scenario's base measure from the collected
// aggregates
func (s *Service) baseMeasure(base ImprovementBase, m measures) float64 {
	switch base {
	case BaseGrossWins:
		return m.grossWins
	case BaseAbsLosses:
		return m.absLosses
	case BaseNetPnLAbs:
		return math.Abs(m.netPnL)
	case BaseTotalAbsPnL:
		return m.grossWins + m.absLosses
	case BaseWorst10PnL:
		// Removing the worst decile recovers its (negative) total
		return -m.worst10Sum
	case BaseBestDayGap:
		return m.bestDayPnL - m.netPnL
	default:
		return 0
	}
}

func (s *Service) affectedCount(filter AffectedFilter, m measures) int {
	switch filter {
	case AffectedWinners:
		return m.wins
	case AffectedLosers:
		return m.losses
	case AffectedWorst10:
		return m.worst10Count
	case AffectedOffBestDay:
		return m.completed - m.bestDayCount
	default:
		return m.completed
	}
}

// improvedStats shifts the baseline rollup by the scenario improvement.
// Scenarios that remove losing trades also recompute the win rate over the
// remaining trade count.
func (s *Service) improvedStats(def ScenarioDefinition, baseline stats.TradeStats, m measures, improvement float64, affected int) ImprovedStats {
	improved := ImprovedStats{
		NetPnL:       markets.RoundMoney(baseline.NetPnL + improvement),
		WinRate:      baseline.WinRate,
		ProfitFactor: baseline.ProfitFactor,
	}

	removesLosers := def.Affected == AffectedLosers || def.Affected == AffectedWorst10
	if removesLosers {
		remaining := m.completed - affected
		remainingWins := m.wins
		remainingGrossWins := m.grossWins
		reducedLosses := m.absLosses - improvement
		if def.Affected == AffectedWorst10 {
			// The removed decile can contain winners; drop them from both
			// sides of the rate instead of only shrinking the denominator
			remainingWins -= m.worst10Wins
			remainingGrossWins -= m.worst10GrossWins
			reducedLosses = m.absLosses - m.worst10AbsLosses
		}
		if remaining > 0 {
			improved.WinRate = markets.RoundMoney(clampRate(float64(remainingWins) / float64(remaining) * 100))
		}
		if reducedLosses < 0 {
			reducedLosses = 0
		}
		improved.ProfitFactor = safeProfitFactor(remainingGrossWins, reducedLosses)
	} else {
		gained := improvement
		if gained < 0 {
			gained = 0
		}
		improved.ProfitFactor = safeProfitFactor(m.grossWins+gained, m.absLosses)
	}

	return improved
}

// clampRate keeps a projected percentage inside [0, 100]
func clampRate(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// safeProfitFactor applies the documented profit-factor edge rules
func safeProfitFactor(wins, absLosses float64) float64 {
	if absLosses == 0 {
		if wins > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return markets.RoundMoney(wins / absLosses)
}

// cacheKey builds a deterministic key from the analysis inputs. The key
// carries a digest of every calculation-relevant trade field so edited
// histories never collide with a stale cached result.
func (s *Service) cacheKey(trades []domain.Trade, scenarioIDs []string, accountSize float64, customCount int) string {
	return fmt.Sprintf("whatif:%d:%x:%s:%.2f:%d",
		len(trades), domain.SnapshotDigest(trades), strings.Join(scenarioIDs, ","), accountSize, customCount)
}
