package simulator

import (
	"math"

	"ratelab/domain/eval"
	"ratelab/domain/policy"
	"ratelab/internal/errors"
	"ratelab/internal/metrics"

	"github.com/montanaflynn/stats"
)

// Rate-change slider bounds exposed by the dashboard.
const (
	MinRateChange = -0.20
	MaxRateChange = 0.40
)

// Bin is one bar of the premium-change histogram.
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// Result is the reactive recomputation returned to the dashboard.
type Result struct {
	Model          string          `json:"model"`
	RateChange     float64         `json:"rate_change"`
	Policies       int             `json:"policies"`
	TotalLoss      float64         `json:"total_loss"`
	BasePremium    float64         `json:"base_premium"`
	NewPremium     float64         `json:"new_premium"`
	BaseLossRatio  float64         `json:"base_loss_ratio"`
	NewLossRatio   float64         `json:"new_loss_ratio"`
	TargetLR       float64         `json:"target_loss_ratio,omitempty"`
	RequiredChange float64         `json:"required_change,omitempty"`
	Histogram      []Bin           `json:"histogram"`
	Calibration    []eval.DecileRow `json:"calibration"`
}

// Simulator recomputes portfolio aggregates over the read-only scored table.
type Simulator struct {
	table *policy.ScoredTable
}

// New wraps a scored table. The table is never mutated.
func New(table *policy.ScoredTable) *Simulator {
	return &Simulator{table: table}
}

// Models lists the model names carried by the scored table.
func (s *Simulator) Models() []string {
	return s.table.Models
}

// Simulate applies a uniform rate change r to the chosen model's premiums.
// Per-policy premium is predicted pure premium times exposure; the new
// premium is the base premium times (1+r), so the portfolio loss ratio
// scales by exactly 1/(1+r). A positive target loss ratio also yields the
// uniform change required to hit it.
func (s *Simulator) Simulate(model string, rateChange, targetLR float64) (*Result, error) {
	if !s.table.HasModel(model) {
		return nil, errors.NotFound("model " + model)
	}
	if rateChange < MinRateChange || rateChange > MaxRateChange {
		return nil, errors.InvalidInput("rate change outside the supported range")
	}
	if rateChange <= -1 {
		return nil, errors.InvalidInput("rate change must exceed -100%")
	}

	n := len(s.table.Records)
	observed := make([]float64, n)
	predicted := make([]float64, n)
	weight := make([]float64, n)
	deltas := make([]float64, n)

	totalLoss := 0.0
	basePremium := 0.0
	for i, r := range s.table.Records {
		pred := r.Predicted[model]
		premium := pred * r.Exposure

		observed[i] = r.PurePremium
		predicted[i] = pred
		weight[i] = r.Exposure
		deltas[i] = premium * rateChange

		totalLoss += r.ClaimAmount
		basePremium += premium
	}
	if basePremium <= 0 {
		return nil, errors.DataInvalid("scored table yields zero base premium")
	}

	newPremium := basePremium * (1 + rateChange)

	result := &Result{
		Model:         model,
		RateChange:    rateChange,
		Policies:      n,
		TotalLoss:     totalLoss,
		BasePremium:   basePremium,
		NewPremium:    newPremium,
		BaseLossRatio: totalLoss / basePremium,
		NewLossRatio:  totalLoss / newPremium,
		Histogram:     histogram(deltas, 20),
	}

	if targetLR > 0 {
		result.TargetLR = targetLR
		result.RequiredChange = result.BaseLossRatio/targetLR - 1
	}

	if n >= 10 {
		table, err := metrics.Deciles(observed, predicted, weight)
		if err != nil {
			return nil, err
		}
		result.Calibration = table.Rows
	}

	return result, nil
}

// histogram bins the per-policy premium deltas into equal-width bars.
func histogram(values []float64, bins int) []Bin {
	if len(values) == 0 || bins < 1 {
		return nil
	}
	lo, _ := stats.Min(values)
	hi, _ := stats.Max(values)
	if lo == hi {
		return []Bin{{Lo: lo, Hi: hi, Count: len(values)}}
	}

	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for b := range out {
		out[b] = Bin{Lo: lo + float64(b)*width, Hi: lo + float64(b+1)*width}
	}
	for _, v := range values {
		b := int(math.Floor((v - lo) / width))
		if b >= bins {
			b = bins - 1
		}
		if b < 0 {
			b = 0
		}
		out[b].Count++
	}
	return out
}
