package testkit

import "testing"

func TestGenerate_Deterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policies = 200

	a := Generate(cfg)
	b := Generate(cfg)

	if a.Len() != cfg.Policies || b.Len() != cfg.Policies {
		t.Fatalf("sizes %d/%d, want %d", a.Len(), b.Len(), cfg.Policies)
	}
	for i := range a.Records {
		if a.Records[i].ClaimAmount != b.Records[i].ClaimAmount {
			t.Fatalf("record %d differs between runs with the same seed", i)
		}
	}

	cfg.Seed = 43
	c := Generate(cfg)
	same := true
	for i := range a.Records {
		if a.Records[i].ClaimAmount != c.Records[i].ClaimAmount {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds should produce different portfolios")
	}
}

func TestGenerate_WellFormedRecords(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policies = 500
	p := Generate(cfg)

	claims := 0
	for _, r := range p.Records {
		if r.Exposure <= 0 || r.Exposure > 1 {
			t.Fatalf("exposure out of range: %v", r.Exposure)
		}
		if r.ClaimAmount < 0 {
			t.Fatalf("negative claim amount: %v", r.ClaimAmount)
		}
		if r.PurePremium != r.ClaimAmount/r.Exposure {
			t.Fatal("pure premium must equal claim amount over exposure")
		}
		if len(r.Factors) != 9 {
			t.Fatalf("expected 9 factors, got %d", len(r.Factors))
		}
		claims += r.ClaimCount
	}
	// With a 10% base rate over 500 policies some claims must occur.
	if claims == 0 {
		t.Fatal("generator produced a claim-free portfolio")
	}
}
