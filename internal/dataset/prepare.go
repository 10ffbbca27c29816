package dataset

import (
	"strconv"
	"strings"

	"ratelab/domain/policy"
	"ratelab/internal"
	"ratelab/internal/errors"
)

// Expected column names in the frequency table. The severity table needs
// only the policy ID and claim amount.
const (
	colPolicyID    = "IDpol"
	colExposure    = "Exposure"
	colVehPower    = "VehPower"
	colVehAge      = "VehAge"
	colDrivAge     = "DrivAge"
	colBonusMalus  = "BonusMalus"
	colVehBrand    = "VehBrand"
	colVehGas      = "VehGas"
	colArea        = "Area"
	colDensity     = "Density"
	colRegion      = "Region"
	colClaimNb     = "ClaimNb"
	colClaimAmount = "ClaimAmount"
)

// AggregateSeverity sums claim amounts per policy ID. Severity tables carry
// one row per claim; policies absent from the table have zero losses.
func AggregateSeverity(headers []string, rows [][]string) (map[string]float64, error) {
	idCol := indexOf(headers, colPolicyID)
	amtCol := indexOf(headers, colClaimAmount)
	if idCol < 0 || amtCol < 0 {
		return nil, errors.DataInvalid("severity table must have IDpol and ClaimAmount columns")
	}

	totals := make(map[string]float64)
	for _, row := range rows {
		if idCol >= len(row) || amtCol >= len(row) {
			continue
		}
		amt, err := strconv.ParseFloat(strings.TrimSpace(row[amtCol]), 64)
		if err != nil {
			// Missing claim amounts default to zero.
			amt = 0
		}
		totals[strings.TrimSpace(row[idCol])] += amt
	}
	return totals, nil
}

// Prepare joins the frequency table with aggregated severities and builds the
// policy portfolio: exposure-weighted pure premium, categorical casting of
// numeric risk factors, non-positive exposures filtered out.
func Prepare(headers []string, rows [][]string, severity map[string]float64) (*policy.Portfolio, error) {
	cols := map[string]int{}
	for _, name := range []string{
		colPolicyID, colExposure, colVehPower, colVehAge, colDrivAge,
		colBonusMalus, colVehBrand, colVehGas, colArea, colDensity, colRegion,
	} {
		i := indexOf(headers, name)
		if i < 0 {
			return nil, errors.DataInvalid("frequency table missing column " + name)
		}
		cols[name] = i
	}
	claimNbCol := indexOf(headers, colClaimNb) // optional

	// CSV rows can be ragged and XLSX rows lose trailing empty cells, so a
	// row may be shorter than the header. Such rows are dropped like bad
	// exposures rather than indexed blindly.
	maxCol := 0
	for _, i := range cols {
		if i > maxCol {
			maxCol = i
		}
	}

	records := make([]policy.Record, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		if len(row) <= maxCol {
			dropped++
			continue
		}
		id := strings.TrimSpace(row[cols[colPolicyID]])
		exposure, err := strconv.ParseFloat(strings.TrimSpace(row[cols[colExposure]]), 64)
		if err != nil || exposure <= 0 {
			dropped++
			continue
		}

		claimAmount := severity[id] // zero when the policy had no claims
		claimCount := 0
		if claimNbCol >= 0 && claimNbCol < len(row) {
			if n, err := strconv.Atoi(strings.TrimSpace(row[claimNbCol])); err == nil {
				claimCount = n
			}
		}

		rec := policy.Record{
			PolicyID:    id,
			Exposure:    exposure,
			ClaimCount:  claimCount,
			ClaimAmount: claimAmount,
			PurePremium: claimAmount / exposure,
			Factors: map[policy.Factor]string{
				policy.FactorVehPower: strings.TrimSpace(row[cols[colVehPower]]),
				policy.FactorVehAge:   bandVehAge(parseFloatOr(row[cols[colVehAge]], 0)),
				policy.FactorDrivAge:  bandDrivAge(parseFloatOr(row[cols[colDrivAge]], 0)),
				policy.FactorBonusMal: bandBonusMalus(parseFloatOr(row[cols[colBonusMalus]], 100)),
				policy.FactorVehBrand: strings.TrimSpace(row[cols[colVehBrand]]),
				policy.FactorVehGas:   strings.TrimSpace(row[cols[colVehGas]]),
				policy.FactorArea:     strings.TrimSpace(row[cols[colArea]]),
				policy.FactorDensity:  bandDensity(parseFloatOr(row[cols[colDensity]], 0)),
				policy.FactorRegion:   strings.TrimSpace(row[cols[colRegion]]),
			},
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, errors.DataInvalid("no usable policies after filtering non-positive exposures")
	}
	if dropped > 0 {
		logDropped(dropped)
	}
	return &policy.Portfolio{Records: records}, nil
}

func logDropped(n int) {
	internal.DefaultLogger.Warn("dropped %d rows with short records or non-positive exposure", n)
}

func parseFloatOr(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fallback
	}
	return v
}

// Categorical casting of the numeric risk factors. Band edges follow the
// conventional French MTPL tariff cells.

func bandVehAge(age float64) string {
	switch {
	case age < 1:
		return "new"
	case age < 10:
		return "1-9"
	default:
		return "10+"
	}
}

func bandDrivAge(age float64) string {
	switch {
	case age < 21:
		return "18-20"
	case age < 26:
		return "21-25"
	case age < 31:
		return "26-30"
	case age < 41:
		return "31-40"
	case age < 51:
		return "41-50"
	case age < 71:
		return "51-70"
	default:
		return "71+"
	}
}

func bandBonusMalus(bm float64) string {
	switch {
	case bm < 60:
		return "50-59"
	case bm < 100:
		return "60-99"
	case bm < 120:
		return "100-119"
	default:
		return "120+"
	}
}

func bandDensity(d float64) string {
	switch {
	case d < 40:
		return "rural"
	case d < 200:
		return "low"
	case d < 1000:
		return "mid"
	case d < 5000:
		return "high"
	default:
		return "urban"
	}
}

func indexOf(headers []string, name string) int {
	for i, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}
