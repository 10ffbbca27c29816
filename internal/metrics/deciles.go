package metrics

import (
	"sort"

	"ratelab/domain/eval"
	"ratelab/internal/errors"
)

// Deciles buckets rows into ten equal-count groups ordered by predicted
// value ascending (ties broken by original row order) and reports
// exposure-weighted observed and predicted pure premium per bucket. Every
// row lands in exactly one bucket, so the exposure shares partition 100% of
// exposure; the cumulative share of the last decile is exactly 1.
func Deciles(observed, predicted, weight []float64) (*eval.DecileTable, error) {
	n := len(observed)
	if n < 10 {
		return nil, errors.DataInvalid("decile table needs at least 10 rows")
	}
	if len(predicted) != n || len(weight) != n {
		return nil, errors.InvalidInput("observed, predicted and weight must have equal length")
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return predicted[order[a]] < predicted[order[b]]
	})

	// Equal-count buckets; the first n%10 buckets absorb the remainder.
	base := n / 10
	extra := n % 10

	var exp, loss, predLoss [10]float64
	var count [10]int
	pos := 0
	for d := 0; d < 10; d++ {
		size := base
		if d < extra {
			size++
		}
		for _, i := range order[pos : pos+size] {
			exp[d] += weight[i]
			loss[d] += observed[i] * weight[i]
			predLoss[d] += predicted[i] * weight[i]
		}
		count[d] = size
		pos += size
	}

	// Totals accumulate per-bucket subtotals in bucket order so the final
	// cumulative share is bitwise equal to 1.
	totalExposure := 0.0
	totalLoss := 0.0
	for d := 0; d < 10; d++ {
		totalExposure += exp[d]
		totalLoss += loss[d]
	}
	if totalExposure == 0 {
		return nil, errors.DataInvalid("zero total exposure")
	}

	table := &eval.DecileTable{Rows: make([]eval.DecileRow, 10)}
	cumExposure := 0.0
	cumLoss := 0.0
	for d := 0; d < 10; d++ {
		cumExposure += exp[d]
		cumLoss += loss[d]

		row := eval.DecileRow{
			Decile:        d + 1,
			Policies:      count[d],
			Exposure:      exp[d],
			ExposureShare: exp[d] / totalExposure,
			CumExposure:   cumExposure / totalExposure,
		}
		if exp[d] > 0 {
			row.ObservedPP = loss[d] / exp[d]
			row.PredictedPP = predLoss[d] / exp[d]
		}
		if totalLoss > 0 {
			row.LossShare = loss[d] / totalLoss
			row.CumLoss = cumLoss / totalLoss
		}
		table.Rows[d] = row
	}

	return table, nil
}

// Lift reorders a decile table from highest- to lowest-risk decile and
// recomputes cumulative loss capture and exposure in that order.
func Lift(table *eval.DecileTable) []eval.DecileRow {
	rows := make([]eval.DecileRow, len(table.Rows))
	cumExposure := 0.0
	cumLoss := 0.0
	for i := len(table.Rows) - 1; i >= 0; i-- {
		r := table.Rows[i]
		cumExposure += r.ExposureShare
		cumLoss += r.LossShare
		r.CumExposure = cumExposure
		r.CumLoss = cumLoss
		rows[len(table.Rows)-1-i] = r
	}
	// Guard against float drift at the tail so capture ends at exactly 100%.
	if n := len(rows); n > 0 {
		rows[n-1].CumExposure = 1.0
		if rows[n-1].CumLoss > 0 {
			rows[n-1].CumLoss = 1.0
		}
	}
	return rows
}
