package report

import (
	"path/filepath"
	"testing"

	"ratelab/domain/policy"
	"ratelab/internal/testkit"
)

func TestScoredTable_RoundTrip(t *testing.T) {
	cfg := testkit.DefaultConfig()
	cfg.Policies = 40
	portfolio := testkit.Generate(cfg)

	table := &policy.ScoredTable{Models: []string{"glm", "gbm"}}
	for i, r := range portfolio.Records {
		table.Records = append(table.Records, policy.ScoredRecord{
			Record: r,
			Predicted: map[string]float64{
				"glm": 100 + float64(i)*0.125,
				"gbm": 95.5 + float64(i),
			},
		})
	}

	path := filepath.Join(t.TempDir(), "scored.csv")
	if err := WriteScoredTable(path, table); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := ReadScoredTable(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got.Models) != 2 || got.Models[0] != "glm" || got.Models[1] != "gbm" {
		t.Fatalf("models = %v", got.Models)
	}
	if len(got.Records) != len(table.Records) {
		t.Fatalf("rows = %d, want %d", len(got.Records), len(table.Records))
	}
	for i, want := range table.Records {
		r := got.Records[i]
		if r.PolicyID != want.PolicyID {
			t.Fatalf("row %d id = %q, want %q", i, r.PolicyID, want.PolicyID)
		}
		// FormatFloat 'g' with precision -1 round-trips float64 exactly.
		if r.Exposure != want.Exposure || r.PurePremium != want.PurePremium {
			t.Fatalf("row %d numerics do not round-trip", i)
		}
		if r.Predicted["glm"] != want.Predicted["glm"] || r.Predicted["gbm"] != want.Predicted["gbm"] {
			t.Fatalf("row %d predictions do not round-trip", i)
		}
		for _, f := range policy.Factors() {
			if r.Factors[f] != want.Factors[f] {
				t.Fatalf("row %d factor %s = %q, want %q", i, f, r.Factors[f], want.Factors[f])
			}
		}
	}
}

func TestPolicies_RoundTrip(t *testing.T) {
	cfg := testkit.DefaultConfig()
	cfg.Policies = 25
	portfolio := testkit.Generate(cfg)

	path := filepath.Join(t.TempDir(), "sub", "policies.csv")
	if err := WritePolicies(path, portfolio); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := ReadPolicies(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Len() != portfolio.Len() {
		t.Fatalf("rows = %d, want %d", got.Len(), portfolio.Len())
	}
	for i, want := range portfolio.Records {
		r := got.Records[i]
		if r.PolicyID != want.PolicyID || r.ClaimCount != want.ClaimCount {
			t.Fatalf("row %d identity fields changed", i)
		}
		if r.ClaimAmount != want.ClaimAmount || r.Exposure != want.Exposure {
			t.Fatalf("row %d numerics do not round-trip", i)
		}
	}
}

func TestReadScoredTable_Validation(t *testing.T) {
	dir := t.TempDir()

	if _, err := ReadScoredTable(filepath.Join(dir, "missing.csv")); err == nil {
		t.Fatal("expected error for a missing file")
	}

	// A policy CSV has no pred_ columns and must be rejected as a scored table.
	cfg := testkit.DefaultConfig()
	cfg.Policies = 5
	path := filepath.Join(dir, "policies.csv")
	if err := WritePolicies(path, testkit.Generate(cfg)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadScoredTable(path); err == nil {
		t.Fatal("expected error for a table without prediction columns")
	}
}
