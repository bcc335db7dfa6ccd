package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/tradelens/analytics/internal/domain"
)

// CalculateCorrelationMatrix computes pairwise Pearson correlations of
// P&L-percentage series grouped by symbol or strategy.
//
// Series of unequal length are compared over their overlapping prefix in
// chronological order. Self-correlation is exactly 1. A pair whose
// denominator is 0 (zero variance in either series, or no overlap)
// correlates 0, never NaN.
func (e *Engine) CalculateCorrelationMatrix(trades []domain.Trade, groupBy GroupBy) CorrelationMatrix {
	series := make(map[string][]float64)
	for _, ct := range e.completedInTimeOrder(trades) {
		if ct.m.PnLPercentage == nil {
			continue
		}
		label := groupLabel(ct.trade, groupBy)
		series[label] = append(series[label], *ct.m.PnLPercentage)
	}

	labels := make([]string, 0, len(series))
	for label := range series {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	matrix := make([][]float64, len(labels))
	for i := range labels {
		matrix[i] = make([]float64, len(labels))
		for j := range labels {
			if i == j {
				matrix[i][j] = 1
				continue
			}
			matrix[i][j] = pearson(series[labels[i]], series[labels[j]])
		}
	}

	return CorrelationMatrix{Labels: labels, Matrix: matrix}
}

// pearson correlates the overlapping prefix of two series, mapping any
// undefined result to 0
func pearson(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < 2 {
		return 0
	}
	r := stat.Correlation(a[:n], b[:n], nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}
