package simulator

import (
	"fmt"
	"math"
	"testing"

	"ratelab/domain/policy"
)

func scoredTable(n int) *policy.ScoredTable {
	table := &policy.ScoredTable{Models: []string{"glm", "gbm"}}
	for i := 0; i < n; i++ {
		exposure := 0.5 + 0.01*float64(i%50)
		pp := 80 + 3*float64(i%17)
		table.Records = append(table.Records, policy.ScoredRecord{
			Record: policy.Record{
				PolicyID:    fmt.Sprintf("P%04d", i),
				Exposure:    exposure,
				ClaimAmount: pp * exposure * 0.65,
				PurePremium: pp * 0.65,
			},
			Predicted: map[string]float64{
				"glm": pp,
				"gbm": pp * 1.05,
			},
		})
	}
	return table
}

func TestSimulate_ExactUniformScaling(t *testing.T) {
	sim := New(scoredTable(120))

	base, err := sim.Simulate("glm", 0, 0)
	if err != nil {
		t.Fatalf("base simulate: %v", err)
	}

	for _, r := range []float64{-0.20, -0.05, 0.10, 0.40} {
		res, err := sim.Simulate("glm", r, 0)
		if err != nil {
			t.Fatalf("simulate r=%v: %v", r, err)
		}
		if res.NewPremium != base.BasePremium*(1+r) {
			t.Fatalf("new premium must scale exactly: %v != %v", res.NewPremium, base.BasePremium*(1+r))
		}
		want := base.BaseLossRatio / (1 + r)
		if math.Abs(res.NewLossRatio-want) > 1e-12*want {
			t.Fatalf("loss ratio must scale uniformly: %v != %v", res.NewLossRatio, want)
		}
	}
}

func TestSimulate_TargetLossRatioSolve(t *testing.T) {
	sim := New(scoredTable(120))

	target := 0.60
	res, err := sim.Simulate("gbm", 0, target)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if res.RequiredChange == 0 {
		t.Fatal("expected a non-zero required change")
	}

	// Applying the solved change must land the loss ratio on the target.
	achieved := res.TotalLoss / (res.BasePremium * (1 + res.RequiredChange))
	if math.Abs(achieved-target) > 1e-12 {
		t.Fatalf("required change misses target: %v vs %v", achieved, target)
	}
}

func TestSimulate_HistogramCoversAllPolicies(t *testing.T) {
	sim := New(scoredTable(97))

	res, err := sim.Simulate("glm", 0.15, 0)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if len(res.Histogram) == 0 {
		t.Fatal("expected a histogram")
	}
	count := 0
	for _, b := range res.Histogram {
		count += b.Count
	}
	if count != res.Policies {
		t.Fatalf("histogram counts %d, want %d", count, res.Policies)
	}
	if len(res.Calibration) != 10 {
		t.Fatalf("expected 10 calibration rows, got %d", len(res.Calibration))
	}
}

func TestSimulate_RejectsBadInput(t *testing.T) {
	sim := New(scoredTable(30))

	if _, err := sim.Simulate("xgb", 0, 0); err == nil {
		t.Fatal("expected error for unknown model")
	}
	if _, err := sim.Simulate("glm", MaxRateChange+0.01, 0); err == nil {
		t.Fatal("expected error above the slider range")
	}
	if _, err := sim.Simulate("glm", MinRateChange-0.01, 0); err == nil {
		t.Fatal("expected error below the slider range")
	}
}

func TestModels_ListsTableModels(t *testing.T) {
	sim := New(scoredTable(10))
	models := sim.Models()
	if len(models) != 2 || models[0] != "glm" || models[1] != "gbm" {
		t.Fatalf("unexpected model list: %v", models)
	}
}
