package gbm

import (
	"math"

	"ratelab/domain/policy"
	"ratelab/internal/dataset"
	"ratelab/internal/errors"
	"ratelab/internal/tweedie"
)

// Params control the boosting run.
type Params struct {
	Rounds        int
	MaxDepth      int
	LearningRate  float64
	RegLambda     float64
	MinChildHess  float64
}

// DefaultParams returns conservative boosting settings.
func DefaultParams() Params {
	return Params{
		Rounds:       150,
		MaxDepth:     4,
		LearningRate: 0.1,
		RegLambda:    1.0,
		MinChildHess: 1e-6,
	}
}

// Model is a gradient-boosted tree ensemble on the Tweedie deviance with a
// log link: trees are fitted on the link scale and predictions exponentiated.
type Model struct {
	Power        float64   `json:"power"`
	BaseScore    float64   `json:"base_score"` // log of the weighted mean pure premium
	LearningRate float64   `json:"learning_rate"`
	Trees        []*Tree   `json:"trees"`
	TrainCurve   []float64 `json:"train_curve"` // weighted mean deviance per round

	encoder *dataset.Encoder
}

// Name implements ports.Predictor.
func (m *Model) Name() string { return "gbm" }

// Predict returns the predicted pure premium for one policy.
func (m *Model) Predict(r policy.Record) float64 {
	row := m.encoder.FeatureRow(r)
	f := m.BaseScore
	for _, t := range m.Trees {
		f += m.LearningRate * t.Predict(row)
	}
	return math.Exp(f)
}

// Fit boosts depth-limited trees on the gradient and hessian of the Tweedie
// deviance. Exposure weights enter both the gradient statistics and the
// reported deviance curve.
func Fit(records []policy.Record, enc *dataset.Encoder, power float64, params Params) (*Model, error) {
	n := len(records)
	if n == 0 {
		return nil, errors.DataInvalid("cannot fit GBM on empty training set")
	}
	if power <= 1 || power >= 2 {
		return nil, errors.InvalidInput("variance power must lie in (1,2)")
	}

	features := enc.FeatureMatrix(records)
	y := make([]float64, n)
	w := make([]float64, n)
	for i, r := range records {
		y[i] = r.PurePremium
		w[i] = r.Exposure
	}

	yBar := 0.0
	wSum := 0.0
	for i := range y {
		yBar += w[i] * y[i]
		wSum += w[i]
	}
	yBar /= wSum
	if yBar <= 0 {
		return nil, errors.DataInvalid("training set has no positive losses")
	}

	m := &Model{
		Power:        power,
		BaseScore:    math.Log(yBar),
		LearningRate: params.LearningRate,
		encoder:      enc,
	}

	f := make([]float64, n) // current link-scale scores
	mu := make([]float64, n)
	for i := range f {
		f[i] = m.BaseScore
		mu[i] = yBar
	}

	grad := make([]float64, n)
	hess := make([]float64, n)
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}

	for round := 0; round < params.Rounds; round++ {
		// d/dF of the unit deviance at mu = exp(F):
		//   g = 2w (mu^(2-p) - y mu^(1-p))
		//   h = 2w ((2-p) mu^(2-p) + (p-1) y mu^(1-p))  > 0 for p in (1,2)
		for i := 0; i < n; i++ {
			a := math.Pow(mu[i], 2-power)
			b := y[i] * math.Pow(mu[i], 1-power)
			grad[i] = 2 * w[i] * (a - b)
			hess[i] = 2 * w[i] * ((2-power)*a + (power-1)*b)
		}

		builder := &treeBuilder{
			features:  features,
			grad:      grad,
			hess:      hess,
			maxDepth:  params.MaxDepth,
			regLambda: params.RegLambda,
			minHess:   params.MinChildHess,
		}
		tree := &Tree{Root: builder.build(rows, 0)}
		m.Trees = append(m.Trees, tree)

		for i := 0; i < n; i++ {
			f[i] += params.LearningRate * tree.Predict(features[i])
			mu[i] = math.Exp(f[i])
		}

		dev := tweedie.MeanDeviance(y, mu, w, power)
		if math.IsNaN(dev) || math.IsInf(dev, 0) {
			return nil, errors.FitError("deviance diverged during boosting", nil)
		}
		m.TrainCurve = append(m.TrainCurve, dev)
	}

	return m, nil
}

// FittedValues returns mu for the given records under the model.
func (m *Model) FittedValues(records []policy.Record) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = m.Predict(r)
	}
	return out
}
