package dataset

import (
	"testing"

	"ratelab/domain/policy"
)

var freqHeaders = []string{
	"IDpol", "Exposure", "VehPower", "VehAge", "DrivAge",
	"BonusMalus", "VehBrand", "VehGas", "Area", "Density", "Region", "ClaimNb",
}

func freqRow(id, exposure, drivAge, density, claims string) []string {
	return []string{id, exposure, "6", "3", drivAge, "50", "B1", "Diesel", "C", density, "R82", claims}
}

func TestAggregateSeverity_SumsPerPolicy(t *testing.T) {
	headers := []string{"IDpol", "ClaimAmount"}
	rows := [][]string{
		{"1", "1000"},
		{"1", "250.5"},
		{"2", "75"},
		{"3", "not-a-number"},
	}

	totals, err := AggregateSeverity(headers, rows)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if totals["1"] != 1250.5 {
		t.Fatalf("policy 1 total = %v, want 1250.5", totals["1"])
	}
	if totals["2"] != 75 {
		t.Fatalf("policy 2 total = %v, want 75", totals["2"])
	}
	// Unparsable amounts count as zero, not as an error.
	if totals["3"] != 0 {
		t.Fatalf("policy 3 total = %v, want 0", totals["3"])
	}
}

func TestAggregateSeverity_MissingColumns(t *testing.T) {
	if _, err := AggregateSeverity([]string{"IDpol", "Amount"}, nil); err == nil {
		t.Fatal("expected error for missing ClaimAmount column")
	}
}

func TestPrepare_JoinAndFilter(t *testing.T) {
	rows := [][]string{
		freqRow("1", "0.5", "35", "120", "1"),
		freqRow("2", "1.0", "19", "8000", "0"),
		freqRow("3", "0", "45", "50", "0"),  // zero exposure, dropped
		freqRow("4", "-1", "45", "50", "0"), // negative exposure, dropped
	}
	severity := map[string]float64{"1": 600}

	portfolio, err := Prepare(freqHeaders, rows, severity)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if portfolio.Len() != 2 {
		t.Fatalf("expected 2 usable policies, got %d", portfolio.Len())
	}

	r1 := portfolio.Records[0]
	if r1.ClaimAmount != 600 || r1.PurePremium != 1200 {
		t.Fatalf("policy 1 join wrong: amount=%v pp=%v", r1.ClaimAmount, r1.PurePremium)
	}
	if r1.Factors[policy.FactorDrivAge] != "31-40" {
		t.Fatalf("driver age band = %q, want 31-40", r1.Factors[policy.FactorDrivAge])
	}
	if r1.Factors[policy.FactorDensity] != "low" {
		t.Fatalf("density band = %q, want low", r1.Factors[policy.FactorDensity])
	}

	r2 := portfolio.Records[1]
	if r2.ClaimAmount != 0 || r2.PurePremium != 0 {
		t.Fatalf("policy without claims must be zero-loss: amount=%v pp=%v", r2.ClaimAmount, r2.PurePremium)
	}
	if r2.Factors[policy.FactorDrivAge] != "18-20" {
		t.Fatalf("driver age band = %q, want 18-20", r2.Factors[policy.FactorDrivAge])
	}
	if r2.Factors[policy.FactorDensity] != "urban" {
		t.Fatalf("density band = %q, want urban", r2.Factors[policy.FactorDensity])
	}
}

func TestPrepare_DropsShortRows(t *testing.T) {
	full := freqRow("1", "0.5", "35", "120", "1")
	rows := [][]string{
		full,
		full[:len(full)-2], // trailing cells lost, Region missing
		{"3"},
	}

	portfolio, err := Prepare(freqHeaders, rows, map[string]float64{"1": 600})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if portfolio.Len() != 1 {
		t.Fatalf("short rows must be dropped, got %d policies", portfolio.Len())
	}
	if portfolio.Records[0].PolicyID != "1" {
		t.Fatalf("wrong surviving policy: %q", portfolio.Records[0].PolicyID)
	}
}

func TestPrepare_AllRowsFiltered(t *testing.T) {
	rows := [][]string{freqRow("1", "0", "35", "100", "0")}
	if _, err := Prepare(freqHeaders, rows, nil); err == nil {
		t.Fatal("expected error when no usable policies remain")
	}
}

func TestSplit_DeterministicPartition(t *testing.T) {
	records := make([]policy.Record, 100)
	for i := range records {
		records[i] = policy.Record{PolicyID: string(rune('a' + i%26)), Exposure: 1}
	}
	p := &policy.Portfolio{Records: records}

	train1, test1 := Split(p, 0.8, 7)
	train2, test2 := Split(p, 0.8, 7)

	if train1.Len() != 80 || test1.Len() != 20 {
		t.Fatalf("split sizes %d/%d, want 80/20", train1.Len(), test1.Len())
	}
	for i := range train1.Records {
		if train1.Records[i].PolicyID != train2.Records[i].PolicyID {
			t.Fatal("split must be deterministic for a fixed seed")
		}
	}
	if test1.Len() != test2.Len() {
		t.Fatal("split must be deterministic for a fixed seed")
	}

	// Every record lands on exactly one side.
	if train1.Len()+test1.Len() != p.Len() {
		t.Fatalf("partition lost records: %d + %d != %d", train1.Len(), test1.Len(), p.Len())
	}
}

func TestSubsample_CapsAndPassesThrough(t *testing.T) {
	records := make([]policy.Record, 50)
	for i := range records {
		records[i] = policy.Record{Exposure: float64(i) + 1}
	}
	p := &policy.Portfolio{Records: records}

	sub := Subsample(p, 10, 3)
	if sub.Len() != 10 {
		t.Fatalf("subsample size %d, want 10", sub.Len())
	}
	if Subsample(p, 100, 3) != p {
		t.Fatal("oversized subsample must return the portfolio unchanged")
	}
}

func TestEncoder_DesignAndFeatureRows(t *testing.T) {
	records := []policy.Record{
		{Factors: factorsWith("driv_age", "18-20")},
		{Factors: factorsWith("driv_age", "31-40")},
		{Factors: factorsWith("driv_age", "71+")},
	}
	enc := NewEncoder(records)

	// One factor has 3 levels, the other 8 have 1 level each. Single-level
	// factors contribute no dummy columns to the design matrix.
	if got := enc.DesignColumns(); got != 3 {
		t.Fatalf("design columns = %d, want 3", got)
	}
	if got := enc.FeatureColumns(); got != 11 {
		t.Fatalf("feature columns = %d, want 11", got)
	}

	// Sorted levels: "18-20" < "31-40" < "71+", so "18-20" is the baseline.
	base := enc.DesignRow(records[0])
	if base[0] != 1 || base[1] != 0 || base[2] != 0 {
		t.Fatalf("baseline design row = %v", base)
	}
	mid := enc.DesignRow(records[1])
	if mid[1] != 1 || mid[2] != 0 {
		t.Fatalf("mid-level design row = %v", mid)
	}

	// An unknown level falls back to the baseline encoding.
	unknown := enc.DesignRow(policy.Record{Factors: factorsWith("driv_age", "seen-never")})
	for i, v := range unknown[1:] {
		if v != 0 {
			t.Fatalf("unknown level must encode as baseline, dummy %d = %v", i, v)
		}
	}

	row := enc.FeatureRow(records[2])
	ones := 0.0
	for _, v := range row {
		ones += v
	}
	// One hot bit per known factor.
	if ones != 9 {
		t.Fatalf("feature row should carry 9 ones, got %v", ones)
	}
}

func factorsWith(f policy.Factor, level string) map[policy.Factor]string {
	m := map[policy.Factor]string{}
	for _, name := range policy.Factors() {
		m[name] = "x"
	}
	m[f] = level
	return m
}
