package dataset

import (
	"math"

	"ratelab/domain/policy"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// FieldProfile summarizes one numeric column of the prepared portfolio.
type FieldProfile struct {
	Name          string  `json:"name"`
	Mean          float64 `json:"mean"`
	StdDev        float64 `json:"std_dev"`
	Min           float64 `json:"min"`
	Max           float64 `json:"max"`
	Median        float64 `json:"median"`
	Q25           float64 `json:"q25"`
	Q75           float64 `json:"q75"`
	ZeroShare     float64 `json:"zero_share"`
	Skewness      float64 `json:"skewness"`
	NormalPValue  float64 `json:"normal_p_value"`
}

// Profile computes summaries for the exposure, claim-amount and pure-premium
// columns. Pure premium is grossly non-normal by construction (a zero point
// mass plus a heavy right tail); the normality p-value documents that.
func Profile(p *policy.Portfolio) []FieldProfile {
	exposure := make([]float64, p.Len())
	amount := make([]float64, p.Len())
	pp := make([]float64, p.Len())
	for i, r := range p.Records {
		exposure[i] = r.Exposure
		amount[i] = r.ClaimAmount
		pp[i] = r.PurePremium
	}
	return []FieldProfile{
		profileColumn("exposure", exposure),
		profileColumn("claim_amount", amount),
		profileColumn("pure_premium", pp),
	}
}

func profileColumn(name string, data []float64) FieldProfile {
	mean, _ := stats.Mean(data)
	stdDev, _ := stats.StandardDeviation(data)
	min, _ := stats.Min(data)
	max, _ := stats.Max(data)
	median, _ := stats.Median(data)
	q25, _ := stats.Percentile(data, 25)
	q75, _ := stats.Percentile(data, 75)

	zeros := 0
	for _, v := range data {
		if v == 0 {
			zeros++
		}
	}

	skew := skewness(data, mean, stdDev)

	return FieldProfile{
		Name:         name,
		Mean:         mean,
		StdDev:       stdDev,
		Min:          min,
		Max:          max,
		Median:       median,
		Q25:          q25,
		Q75:          q75,
		ZeroShare:    float64(zeros) / float64(len(data)),
		Skewness:     skew,
		NormalPValue: jarqueBeraPValue(data, mean, stdDev, skew),
	}
}

func skewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}
	n := float64(len(data))
	sum := 0.0
	for _, x := range data {
		d := (x - mean) / stdDev
		sum += d * d * d
	}
	return sum / n * math.Sqrt(n*(n-1)) / (n - 2)
}

func jarqueBeraPValue(data []float64, mean, stdDev, skew float64) float64 {
	if len(data) < 4 || stdDev == 0 {
		return 1
	}
	n := float64(len(data))
	sum4 := 0.0
	for _, x := range data {
		d := (x - mean) / stdDev
		sum4 += d * d * d * d
	}
	excess := sum4/n - 3
	jb := n / 6 * (skew*skew + excess*excess/4)
	chi2 := distuv.ChiSquared{K: 2}
	return 1 - chi2.CDF(jb)
}
