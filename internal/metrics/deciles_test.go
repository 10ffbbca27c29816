package metrics

import (
	"math"
	"math/rand"
	"testing"
)

func syntheticRows(n int, seed int64) (observed, predicted, weight []float64) {
	rng := rand.New(rand.NewSource(seed))
	observed = make([]float64, n)
	predicted = make([]float64, n)
	weight = make([]float64, n)
	for i := 0; i < n; i++ {
		predicted[i] = 50 + 400*rng.Float64()
		weight[i] = 0.05 + rng.Float64()
		if rng.Float64() < 0.1 {
			observed[i] = predicted[i] * (0.5 + rng.Float64())
		}
	}
	return observed, predicted, weight
}

func TestDeciles_PartitionExposureExactly(t *testing.T) {
	observed, predicted, weight := syntheticRows(105, 7)

	table, err := Deciles(observed, predicted, weight)
	if err != nil {
		t.Fatalf("deciles: %v", err)
	}
	if len(table.Rows) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(table.Rows))
	}

	policies := 0
	shareSum := 0.0
	for _, r := range table.Rows {
		policies += r.Policies
		shareSum += r.ExposureShare
	}
	if policies != 105 {
		t.Fatalf("deciles must partition all rows exactly once, got %d", policies)
	}
	if math.Abs(shareSum-1) > 1e-12 {
		t.Fatalf("exposure shares must sum to 1, got %.15f", shareSum)
	}
	if last := table.Rows[9].CumExposure; last != 1.0 {
		t.Fatalf("cumulative exposure share at the last decile must be exactly 1.0, got %v", last)
	}
}

func TestDeciles_EqualCountBuckets(t *testing.T) {
	observed, predicted, weight := syntheticRows(103, 11)

	table, err := Deciles(observed, predicted, weight)
	if err != nil {
		t.Fatalf("deciles: %v", err)
	}
	// 103 rows: the first three buckets take 11, the rest 10.
	for d, r := range table.Rows {
		want := 10
		if d < 3 {
			want = 11
		}
		if r.Policies != want {
			t.Fatalf("decile %d: expected %d policies, got %d", d+1, want, r.Policies)
		}
	}
}

func TestDeciles_OrderedByPredictedRisk(t *testing.T) {
	observed, predicted, weight := syntheticRows(200, 3)

	table, err := Deciles(observed, predicted, weight)
	if err != nil {
		t.Fatalf("deciles: %v", err)
	}
	for d := 1; d < 10; d++ {
		if table.Rows[d].PredictedPP < table.Rows[d-1].PredictedPP {
			t.Fatalf("predicted pure premium must be non-decreasing across deciles: decile %d (%.4f) < decile %d (%.4f)",
				d+1, table.Rows[d].PredictedPP, d, table.Rows[d-1].PredictedPP)
		}
	}
}

func TestLift_CaptureEndsAtOne(t *testing.T) {
	observed, predicted, weight := syntheticRows(150, 19)

	table, err := Deciles(observed, predicted, weight)
	if err != nil {
		t.Fatalf("deciles: %v", err)
	}
	rows := Lift(table)

	if rows[0].Decile != 10 {
		t.Fatalf("lift must start at the highest-risk decile, got %d", rows[0].Decile)
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].CumLoss+1e-12 < rows[i-1].CumLoss {
			t.Fatalf("cumulative loss capture must be non-decreasing")
		}
	}
	if rows[len(rows)-1].CumExposure != 1.0 {
		t.Fatalf("lift capture must end at exactly 100%% exposure, got %v", rows[len(rows)-1].CumExposure)
	}
}

func TestDeciles_TooFewRows(t *testing.T) {
	if _, err := Deciles([]float64{1}, []float64{1}, []float64{1}); err == nil {
		t.Fatal("expected error for fewer than 10 rows")
	}
}
