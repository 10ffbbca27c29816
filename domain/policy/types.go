package policy

// Factor identifies one categorical risk factor on a policy.
type Factor string

// Categorical risk factors carried by every policy record, in the
// canonical encoding order used by the design matrix.
const (
	FactorVehPower  Factor = "veh_power"
	FactorVehAge    Factor = "veh_age"
	FactorDrivAge   Factor = "driv_age"
	FactorBonusMal  Factor = "bonus_malus"
	FactorVehBrand  Factor = "veh_brand"
	FactorVehGas    Factor = "veh_gas"
	FactorArea      Factor = "area"
	FactorDensity   Factor = "density"
	FactorRegion    Factor = "region"
)

// Factors returns the canonical factor ordering.
func Factors() []Factor {
	return []Factor{
		FactorVehPower, FactorVehAge, FactorDrivAge, FactorBonusMal,
		FactorVehBrand, FactorVehGas, FactorArea, FactorDensity, FactorRegion,
	}
}

// Record is a single policy with its aggregated claim experience.
// Exposure is in policy-years and is strictly positive after preparation.
type Record struct {
	PolicyID    string            `json:"policy_id"`
	Exposure    float64           `json:"exposure"`
	ClaimCount  int               `json:"claim_count"`
	ClaimAmount float64           `json:"claim_amount"`
	PurePremium float64           `json:"pure_premium"` // ClaimAmount / Exposure
	Factors     map[Factor]string `json:"factors"`
}

// Portfolio is an in-memory policy table.
type Portfolio struct {
	Records []Record
}

// TotalExposure sums exposure across the portfolio.
func (p *Portfolio) TotalExposure() float64 {
	total := 0.0
	for _, r := range p.Records {
		total += r.Exposure
	}
	return total
}

// TotalLoss sums claim amounts across the portfolio.
func (p *Portfolio) TotalLoss() float64 {
	total := 0.0
	for _, r := range p.Records {
		total += r.ClaimAmount
	}
	return total
}

// Len returns the number of policies.
func (p *Portfolio) Len() int {
	return len(p.Records)
}

// ScoredRecord pairs a policy with model predictions, one column per model.
type ScoredRecord struct {
	Record
	Predicted map[string]float64 `json:"predicted"` // model name -> predicted pure premium
}

// ScoredTable is the scored test set consumed by the dashboard.
type ScoredTable struct {
	Models  []string
	Records []ScoredRecord
}

// PredictionColumn extracts one model's predictions in row order.
func (t *ScoredTable) PredictionColumn(model string) []float64 {
	out := make([]float64, len(t.Records))
	for i, r := range t.Records {
		out[i] = r.Predicted[model]
	}
	return out
}

// HasModel reports whether the table carries predictions for the model.
func (t *ScoredTable) HasModel(model string) bool {
	for _, m := range t.Models {
		if m == model {
			return true
		}
	}
	return false
}
