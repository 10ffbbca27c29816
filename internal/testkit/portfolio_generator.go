package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"ratelab/domain/policy"
)

// GeneratorConfig controls the synthetic portfolio.
type GeneratorConfig struct {
	Policies  int
	Seed      int64
	BaseRate  float64 // expected claim frequency per policy-year
	MeanClaim float64 // mean severity of a single claim
}

// DefaultConfig returns a portfolio of plausible motor policies.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Policies:  2000,
		Seed:      42,
		BaseRate:  0.1,
		MeanClaim: 1200,
	}
}

// Relative frequency multipliers baked into the generator so tests can rely
// on a real risk gradient across factor levels.
var (
	drivAgeEffect = map[string]float64{
		"18-20": 2.5, "21-25": 1.8, "26-30": 1.3, "31-40": 1.0,
		"41-50": 0.9, "51-70": 0.8, "71+": 1.1,
	}
	densityEffect = map[string]float64{
		"rural": 0.8, "low": 0.9, "mid": 1.0, "high": 1.2, "urban": 1.5,
	}
	bonusEffect = map[string]float64{
		"50-59": 0.7, "60-99": 1.0, "100-119": 1.4, "120+": 2.0,
	}
)

// Generate builds a compound Poisson-gamma portfolio: claim counts are
// Poisson in exposure and the factor-driven rate, severities are Gamma.
// Deterministic for a given seed.
func Generate(cfg GeneratorConfig) *policy.Portfolio {
	rng := rand.New(rand.NewSource(cfg.Seed))

	drivAges := keys(drivAgeEffect)
	densities := keys(densityEffect)
	bonuses := keys(bonusEffect)
	vehPowers := []string{"4", "5", "6", "7", "8"}
	vehAges := []string{"new", "1-9", "10+"}
	brands := []string{"B1", "B2", "B3", "B12"}
	fuels := []string{"Diesel", "Regular"}
	areas := []string{"A", "B", "C", "D", "E"}
	regions := []string{"R11", "R24", "R52", "R82"}

	records := make([]policy.Record, cfg.Policies)
	for i := range records {
		exposure := 0.05 + rng.Float64()*0.95
		drivAge := drivAges[rng.Intn(len(drivAges))]
		density := densities[rng.Intn(len(densities))]
		bonus := bonuses[rng.Intn(len(bonuses))]

		rate := cfg.BaseRate * drivAgeEffect[drivAge] * densityEffect[density] * bonusEffect[bonus]
		count := poisson(rng, rate*exposure)

		amount := 0.0
		for c := 0; c < count; c++ {
			amount += gamma(rng, 2.0, cfg.MeanClaim/2.0)
		}

		records[i] = policy.Record{
			PolicyID:    fmt.Sprintf("P%06d", i+1),
			Exposure:    exposure,
			ClaimCount:  count,
			ClaimAmount: amount,
			PurePremium: amount / exposure,
			Factors: map[policy.Factor]string{
				policy.FactorVehPower: vehPowers[rng.Intn(len(vehPowers))],
				policy.FactorVehAge:   vehAges[rng.Intn(len(vehAges))],
				policy.FactorDrivAge:  drivAge,
				policy.FactorBonusMal: bonus,
				policy.FactorVehBrand: brands[rng.Intn(len(brands))],
				policy.FactorVehGas:   fuels[rng.Intn(len(fuels))],
				policy.FactorArea:     areas[rng.Intn(len(areas))],
				policy.FactorDensity:  density,
				policy.FactorRegion:   regions[rng.Intn(len(regions))],
			},
		}
	}
	return &policy.Portfolio{Records: records}
}

// poisson draws via Knuth's method; rates here are small.
func poisson(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	l := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= l {
			return k
		}
		k++
	}
}

// gamma draws with the Marsaglia-Tsang method for shape >= 1.
func gamma(rng *rand.Rand, shape, scale float64) float64 {
	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)
	for {
		x := rng.NormFloat64()
		v := 1.0 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1.0-0.0331*x*x*x*x {
			return d * v * scale
		}
		if math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

func keys(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	// Deterministic order for a deterministic portfolio.
	sort.Strings(out)
	return out
}
