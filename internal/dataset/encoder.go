package dataset

import (
	"sort"

	"ratelab/domain/policy"
)

// Encoder maps categorical factor levels onto design-matrix columns. Levels
// are indexed in sorted order per factor so the encoding is deterministic
// across runs; the first level of each factor is the GLM baseline.
type Encoder struct {
	factors []policy.Factor
	levels  map[policy.Factor][]string
	index   map[policy.Factor]map[string]int
}

// NewEncoder scans the records and fixes the level index for every factor.
func NewEncoder(records []policy.Record) *Encoder {
	e := &Encoder{
		factors: policy.Factors(),
		levels:  make(map[policy.Factor][]string),
		index:   make(map[policy.Factor]map[string]int),
	}
	for _, f := range e.factors {
		seen := make(map[string]bool)
		for _, r := range records {
			seen[r.Factors[f]] = true
		}
		levels := make([]string, 0, len(seen))
		for lv := range seen {
			levels = append(levels, lv)
		}
		sort.Strings(levels)
		e.levels[f] = levels
		idx := make(map[string]int, len(levels))
		for i, lv := range levels {
			idx[lv] = i
		}
		e.index[f] = idx
	}
	return e
}

// DesignColumns returns the GLM design width: intercept plus k-1 dummies
// per factor.
func (e *Encoder) DesignColumns() int {
	cols := 1
	for _, f := range e.factors {
		if n := len(e.levels[f]); n > 1 {
			cols += n - 1
		}
	}
	return cols
}

// FeatureColumns returns the tree-feature width: full one-hot, all levels.
func (e *Encoder) FeatureColumns() int {
	cols := 0
	for _, f := range e.factors {
		cols += len(e.levels[f])
	}
	return cols
}

// DesignRow encodes a record as an intercept plus baseline-dropped dummies.
// Unknown levels fall back to the baseline.
func (e *Encoder) DesignRow(r policy.Record) []float64 {
	row := make([]float64, e.DesignColumns())
	row[0] = 1
	col := 1
	for _, f := range e.factors {
		n := len(e.levels[f])
		if n <= 1 {
			continue
		}
		if i, ok := e.index[f][r.Factors[f]]; ok && i > 0 {
			row[col+i-1] = 1
		}
		col += n - 1
	}
	return row
}

// FeatureRow encodes a record as a full one-hot vector for tree splits.
func (e *Encoder) FeatureRow(r policy.Record) []float64 {
	row := make([]float64, e.FeatureColumns())
	col := 0
	for _, f := range e.factors {
		if i, ok := e.index[f][r.Factors[f]]; ok {
			row[col+i] = 1
		}
		col += len(e.levels[f])
	}
	return row
}

// DesignMatrix encodes all records with DesignRow.
func (e *Encoder) DesignMatrix(records []policy.Record) [][]float64 {
	out := make([][]float64, len(records))
	for i, r := range records {
		out[i] = e.DesignRow(r)
	}
	return out
}

// FeatureMatrix encodes all records with FeatureRow.
func (e *Encoder) FeatureMatrix(records []policy.Record) [][]float64 {
	out := make([][]float64, len(records))
	for i, r := range records {
		out[i] = e.FeatureRow(r)
	}
	return out
}

// FeatureNames lists the one-hot feature labels in column order.
func (e *Encoder) FeatureNames() []string {
	names := make([]string, 0, e.FeatureColumns())
	for _, f := range e.factors {
		for _, lv := range e.levels[f] {
			names = append(names, string(f)+"="+lv)
		}
	}
	return names
}

// Levels returns the ordered levels for one factor.
func (e *Encoder) Levels(f policy.Factor) []string {
	return e.levels[f]
}
