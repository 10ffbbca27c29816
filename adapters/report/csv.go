package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ratelab/domain/eval"
	"ratelab/domain/policy"
	"ratelab/internal/errors"
)

// WriteSummaries writes the headline metrics table as CSV.
func WriteSummaries(path string, summaries []eval.Summary) error {
	rows := [][]string{{
		"model", "split", "rows", "exposure", "mean_observed_pp",
		"mean_predicted_pp", "tweedie_deviance", "mae", "gini", "gini_normalized",
	}}
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Model, s.Split, strconv.Itoa(s.Rows),
			ftoa(s.Exposure), ftoa(s.MeanObserved), ftoa(s.MeanPredicted),
			ftoa(s.Deviance), ftoa(s.MAE), ftoa(s.Gini.Gini), ftoa(s.Gini.Normalized),
		})
	}
	return writeCSV(path, rows)
}

// WriteDecileRows writes a lift or calibration table as CSV.
func WriteDecileRows(path string, decileRows []eval.DecileRow) error {
	rows := [][]string{{
		"decile", "policies", "exposure", "exposure_share", "observed_pp",
		"predicted_pp", "loss_share", "cum_exposure_share", "cum_loss_share",
	}}
	for _, r := range decileRows {
		rows = append(rows, []string{
			strconv.Itoa(r.Decile), strconv.Itoa(r.Policies),
			ftoa(r.Exposure), ftoa(r.ExposureShare), ftoa(r.ObservedPP),
			ftoa(r.PredictedPP), ftoa(r.LossShare), ftoa(r.CumExposure), ftoa(r.CumLoss),
		})
	}
	return writeCSV(path, rows)
}

// WriteJSON serializes any artifact (fitted model, power profile, field
// profiles) with indentation.
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal artifact")
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// scoredFixedColumns precede the factor and prediction columns in the
// scored CSV.
var scoredFixedColumns = []string{"policy_id", "exposure", "claim_count", "claim_amount", "pure_premium"}

// WriteScoredTable writes the scored test set consumed by the dashboard.
func WriteScoredTable(path string, table *policy.ScoredTable) error {
	factors := policy.Factors()
	header := append([]string{}, scoredFixedColumns...)
	for _, f := range factors {
		header = append(header, string(f))
	}
	for _, m := range table.Models {
		header = append(header, "pred_"+m)
	}

	rows := [][]string{header}
	for _, r := range table.Records {
		row := []string{
			r.PolicyID, ftoa(r.Exposure), strconv.Itoa(r.ClaimCount),
			ftoa(r.ClaimAmount), ftoa(r.PurePremium),
		}
		for _, f := range factors {
			row = append(row, r.Factors[f])
		}
		for _, m := range table.Models {
			row = append(row, ftoa(r.Predicted[m]))
		}
		rows = append(rows, row)
	}
	return writeCSV(path, rows)
}

// ReadScoredTable loads a scored CSV back into memory. Prediction columns
// are recognized by the pred_ prefix.
func ReadScoredTable(path string) (*policy.ScoredTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open scored table")
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read scored table")
	}
	if len(records) < 2 {
		return nil, errors.DataInvalid("scored table must have a header and at least one row")
	}

	header := records[0]
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	for _, c := range scoredFixedColumns {
		if _, ok := col[c]; !ok {
			return nil, errors.DataInvalid("scored table missing column " + c)
		}
	}

	var models []string
	for _, h := range header {
		if strings.HasPrefix(h, "pred_") {
			models = append(models, strings.TrimPrefix(h, "pred_"))
		}
	}
	if len(models) == 0 {
		return nil, errors.DataInvalid("scored table has no prediction columns")
	}

	table := &policy.ScoredTable{Models: models}
	for lineNo, row := range records[1:] {
		rec := policy.ScoredRecord{
			Record: policy.Record{
				PolicyID: row[col["policy_id"]],
				Factors:  make(map[policy.Factor]string),
			},
			Predicted: make(map[string]float64, len(models)),
		}
		var parseErr error
		rec.Exposure, parseErr = strconv.ParseFloat(row[col["exposure"]], 64)
		if parseErr != nil {
			return nil, errors.DataInvalid(fmt.Sprintf("bad exposure on line %d", lineNo+2))
		}
		rec.ClaimCount, _ = strconv.Atoi(row[col["claim_count"]])
		rec.ClaimAmount, _ = strconv.ParseFloat(row[col["claim_amount"]], 64)
		rec.PurePremium, _ = strconv.ParseFloat(row[col["pure_premium"]], 64)
		for _, f := range policy.Factors() {
			if i, ok := col[string(f)]; ok && i < len(row) {
				rec.Factors[f] = row[i]
			}
		}
		for _, m := range models {
			v, err := strconv.ParseFloat(row[col["pred_"+m]], 64)
			if err != nil {
				return nil, errors.DataInvalid(fmt.Sprintf("bad prediction for %s on line %d", m, lineNo+2))
			}
			rec.Predicted[m] = v
		}
		table.Records = append(table.Records, rec)
	}
	return table, nil
}

// WritePolicies writes a prepared portfolio as CSV, the output of the
// preparation step and the input of the fitting step.
func WritePolicies(path string, p *policy.Portfolio) error {
	factors := policy.Factors()
	header := append([]string{}, scoredFixedColumns...)
	for _, f := range factors {
		header = append(header, string(f))
	}

	rows := [][]string{header}
	for _, r := range p.Records {
		row := []string{
			r.PolicyID, ftoa(r.Exposure), strconv.Itoa(r.ClaimCount),
			ftoa(r.ClaimAmount), ftoa(r.PurePremium),
		}
		for _, f := range factors {
			row = append(row, r.Factors[f])
		}
		rows = append(rows, row)
	}
	return writeCSV(path, rows)
}

// ReadPolicies loads a prepared portfolio CSV.
func ReadPolicies(path string) (*policy.Portfolio, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open policy table")
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read policy table")
	}
	if len(records) < 2 {
		return nil, errors.DataInvalid("policy table must have a header and at least one row")
	}

	header := records[0]
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}

	p := &policy.Portfolio{}
	for _, row := range records[1:] {
		rec := policy.Record{
			PolicyID: row[col["policy_id"]],
			Factors:  make(map[policy.Factor]string),
		}
		rec.Exposure, _ = strconv.ParseFloat(row[col["exposure"]], 64)
		rec.ClaimCount, _ = strconv.Atoi(row[col["claim_count"]])
		rec.ClaimAmount, _ = strconv.ParseFloat(row[col["claim_amount"]], 64)
		rec.PurePremium, _ = strconv.ParseFloat(row[col["pure_premium"]], 64)
		for _, f := range policy.Factors() {
			if i, ok := col[string(f)]; ok && i < len(row) {
				rec.Factors[f] = row[i]
			}
		}
		p.Records = append(p.Records, rec)
	}
	return p, nil
}

func writeCSV(path string, rows [][]string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
