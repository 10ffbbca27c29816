package metrics

import (
	"sort"

	"ratelab/domain/eval"
)

// WeightedGini computes the exposure-weighted Gini coefficient of a ranking.
// observed is the per-row pure premium, predicted the model output, weight
// the exposure; the per-row loss is observed*weight. Rows are sorted by
// predicted value descending with ties broken by original row order, the
// Lorenz curve integrated by the trapezoidal rule, and the diagonal
// subtracted. A constant prediction vector has no ranking information and
// returns exactly zero.
func WeightedGini(observed, predicted, weight []float64) float64 {
	n := len(observed)
	if n == 0 {
		return 0
	}
	if constant(predicted) {
		return 0
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return predicted[order[a]] > predicted[order[b]]
	})

	totalW := 0.0
	totalLoss := 0.0
	for _, i := range order {
		totalW += weight[i]
		totalLoss += observed[i] * weight[i]
	}
	if totalW == 0 || totalLoss == 0 {
		return 0
	}

	// Trapezoidal area under the Lorenz curve, then subtract the diagonal.
	area := 0.0
	cumW, cumLoss := 0.0, 0.0
	prevX, prevY := 0.0, 0.0
	for _, i := range order {
		cumW += weight[i]
		cumLoss += observed[i] * weight[i]
		x := cumW / totalW
		y := cumLoss / totalLoss
		area += (x - prevX) * (y + prevY) / 2
		prevX, prevY = x, y
	}
	return 2*area - 1
}

// NormalizedWeightedGini scales the model Gini by the Gini of the oracle
// ranking (predictions equal to the observed values), so a perfect no-ties
// ranking scores 1.
func NormalizedWeightedGini(observed, predicted, weight []float64) eval.GiniResult {
	gini := WeightedGini(observed, predicted, weight)
	perfect := WeightedGini(observed, observed, weight)
	result := eval.GiniResult{Gini: gini}
	if perfect != 0 {
		result.Normalized = gini / perfect
	}
	return result
}

func constant(v []float64) bool {
	for i := 1; i < len(v); i++ {
		if v[i] != v[0] {
			return false
		}
	}
	return true
}
