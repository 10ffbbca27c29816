package glm

import (
	"math"

	"ratelab/domain/policy"
	"ratelab/internal/dataset"
	"ratelab/internal/errors"
	"ratelab/internal/tweedie"

	"gonum.org/v1/gonum/mat"
)

// Options control the IRLS fit.
type Options struct {
	MaxIterations int
	Tolerance     float64
}

// DefaultOptions returns the standard IRLS settings.
func DefaultOptions() Options {
	return Options{MaxIterations: 50, Tolerance: 1e-8}
}

// Model is a weighted log-link Tweedie GLM over one-hot risk factors.
type Model struct {
	Power      float64
	Coef       []float64
	Deviance   float64 // exposure-weighted mean deviance on the training set
	Iterations int

	encoder *dataset.Encoder
}

// Name implements ports.Predictor.
func (m *Model) Name() string { return "glm" }

// Predict returns the predicted pure premium for one policy.
func (m *Model) Predict(r policy.Record) float64 {
	row := m.encoder.DesignRow(r)
	eta := 0.0
	for j, x := range row {
		eta += x * m.Coef[j]
	}
	return math.Exp(eta)
}

// Fit estimates the GLM by iteratively reweighted least squares. The response
// is pure premium, weights are exposures, and the variance power p comes from
// the profile-likelihood selection.
func Fit(records []policy.Record, enc *dataset.Encoder, power float64, opts Options) (*Model, error) {
	if power <= 1 || power >= 2 {
		return nil, errors.InvalidInput("variance power must lie in (1,2)")
	}
	n := len(records)
	if n == 0 {
		return nil, errors.DataInvalid("cannot fit GLM on empty training set")
	}

	X := enc.DesignMatrix(records)
	cols := enc.DesignColumns()
	y := make([]float64, n)
	w := make([]float64, n)
	for i, r := range records {
		y[i] = r.PurePremium
		w[i] = r.Exposure
	}

	// Starting values: shrink each response toward the weighted mean so the
	// log link is defined for exact zeros.
	yBar := weightedMean(y, w)
	if yBar <= 0 {
		return nil, errors.DataInvalid("training set has no positive losses")
	}
	mu := make([]float64, n)
	eta := make([]float64, n)
	for i := range y {
		mu[i] = (y[i] + yBar) / 2
		eta[i] = math.Log(mu[i])
	}

	beta := make([]float64, cols)
	lastDev := math.Inf(1)

	for iter := 1; iter <= opts.MaxIterations; iter++ {
		// Working response and weights for the log link:
		//   z = eta + (y - mu)/mu,  W = w * mu^(2-p).
		xtwx := mat.NewSymDense(cols, nil)
		xtwz := make([]float64, cols)
		for i := 0; i < n; i++ {
			wi := w[i] * math.Pow(mu[i], 2-power)
			zi := eta[i] + (y[i]-mu[i])/mu[i]
			row := X[i]
			for a := 0; a < cols; a++ {
				if row[a] == 0 {
					continue
				}
				va := wi * row[a]
				xtwz[a] += va * zi
				for b := a; b < cols; b++ {
					if row[b] != 0 {
						xtwx.SetSym(a, b, xtwx.At(a, b)+va*row[b])
					}
				}
			}
		}
		// Small ridge keeps the factorization defined when a dummy column
		// is empty in the training subsample.
		for a := 0; a < cols; a++ {
			xtwx.SetSym(a, a, xtwx.At(a, a)+1e-8)
		}

		var chol mat.Cholesky
		if ok := chol.Factorize(xtwx); !ok {
			return nil, errors.FitError("IRLS normal equations are not positive definite", nil)
		}
		sol := mat.NewVecDense(cols, nil)
		if err := chol.SolveVecTo(sol, mat.NewVecDense(cols, xtwz)); err != nil {
			return nil, errors.FitError("IRLS solve failed", err)
		}
		for a := 0; a < cols; a++ {
			beta[a] = sol.AtVec(a)
		}

		for i := 0; i < n; i++ {
			e := 0.0
			for a, x := range X[i] {
				e += x * beta[a]
			}
			eta[i] = e
			mu[i] = math.Exp(e)
		}

		dev := tweedie.MeanDeviance(y, mu, w, power)
		if math.IsNaN(dev) || math.IsInf(dev, 0) {
			return nil, errors.FitError("deviance diverged during IRLS", nil)
		}
		if math.Abs(lastDev-dev)/(math.Abs(dev)+0.1) < opts.Tolerance {
			return &Model{Power: power, Coef: beta, Deviance: dev, Iterations: iter, encoder: enc}, nil
		}
		lastDev = dev
	}

	return nil, errors.FitError("IRLS did not converge", nil)
}

// FittedValues returns mu for the given records under the model.
func (m *Model) FittedValues(records []policy.Record) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = m.Predict(r)
	}
	return out
}

// Export maps coefficients to design-column labels for the JSON artifact.
func (m *Model) Export() map[string]float64 {
	out := make(map[string]float64, len(m.Coef))
	out["intercept"] = m.Coef[0]
	col := 1
	for _, f := range policy.Factors() {
		levels := m.encoder.Levels(f)
		if len(levels) <= 1 {
			continue
		}
		for _, lv := range levels[1:] {
			out[string(f)+"="+lv] = m.Coef[col]
			col++
		}
	}
	return out
}

func weightedMean(y, w []float64) float64 {
	num, den := 0.0, 0.0
	for i := range y {
		num += w[i] * y[i]
		den += w[i]
	}
	if den == 0 {
		return 0
	}
	return num / den
}
