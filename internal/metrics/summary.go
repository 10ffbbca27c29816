package metrics

import (
	"math"

	"ratelab/domain/eval"
	"ratelab/internal/tweedie"

	"github.com/montanaflynn/stats"
)

// Summarize computes the headline evaluation metrics for one model on one
// split. observed and predicted are pure premiums, weight is exposure.
func Summarize(modelName, split string, observed, predicted, weight []float64, power float64) eval.Summary {
	totalW := 0.0
	obsSum := 0.0
	predSum := 0.0
	absErr := make([]float64, len(observed))
	for i := range observed {
		totalW += weight[i]
		obsSum += weight[i] * observed[i]
		predSum += weight[i] * predicted[i]
		absErr[i] = math.Abs(observed[i] - predicted[i])
	}

	mae, _ := stats.Mean(absErr)

	s := eval.Summary{
		Model:    modelName,
		Split:    split,
		Rows:     len(observed),
		Exposure: totalW,
		Deviance: tweedie.MeanDeviance(observed, predicted, weight, power),
		MAE:      mae,
		Gini:     NormalizedWeightedGini(observed, predicted, weight),
	}
	if totalW > 0 {
		s.MeanObserved = obsSum / totalW
		s.MeanPredicted = predSum / totalW
	}
	return s
}
