package ports

import "ratelab/domain/policy"

// Predictor maps a policy record to a predicted pure premium.
// Both model variants (GLM and GBM) satisfy this contract.
type Predictor interface {
	Name() string
	Predict(record policy.Record) float64
}

// PredictAll scores a portfolio in row order.
func PredictAll(p Predictor, records []policy.Record) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = p.Predict(r)
	}
	return out
}
