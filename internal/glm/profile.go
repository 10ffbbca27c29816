package glm

import (
	"context"
	"math"

	"ratelab/domain/model"
	"ratelab/domain/policy"
	"ratelab/internal/dataset"
	"ratelab/internal/errors"
	"ratelab/internal/tweedie"

	"golang.org/x/sync/errgroup"
)

// PowerGrid builds the candidate variance powers [from, to] with the given
// step. All candidates must lie strictly inside (1,2).
func PowerGrid(from, to, step float64) []float64 {
	var grid []float64
	for p := from; p <= to+1e-9; p += step {
		grid = append(grid, math.Round(p*1e6)/1e6)
	}
	return grid
}

// SelectPower runs the profile-likelihood line search: for each candidate
// power, fit the weighted log-link GLM on the subsample and score the Tweedie
// log-likelihood at the Pearson dispersion estimate. Candidates are fitted
// concurrently; the maximizer is chosen in ascending grid order, so ties go
// to the first occurrence.
func SelectPower(ctx context.Context, records []policy.Record, enc *dataset.Encoder, grid []float64, opts Options) (*model.PowerSelection, error) {
	if len(grid) == 0 {
		return nil, errors.InvalidInput("empty power grid")
	}

	y := make([]float64, len(records))
	w := make([]float64, len(records))
	for i, r := range records {
		y[i] = r.PurePremium
		w[i] = r.Exposure
	}

	loglik := make([]float64, len(grid))
	dispersions := make([]float64, len(grid))

	g, ctx := errgroup.WithContext(ctx)
	for i, p := range grid {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := Fit(records, enc, p, opts)
			if err != nil {
				return errors.Wrapf(err, "profile fit at power %.3f", p)
			}
			mu := m.FittedValues(records)
			phi := tweedie.PearsonDispersion(y, mu, w, p, len(m.Coef))
			// A noiseless subsample can drive the Pearson estimate to zero;
			// the likelihood needs a strictly positive dispersion.
			if phi < 1e-6 {
				phi = 1e-6
			}
			ll, err := tweedie.LogLikelihood(y, mu, w, p, phi)
			if err != nil {
				return errors.Wrapf(err, "likelihood at power %.3f", p)
			}
			loglik[i] = ll
			dispersions[i] = phi
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := 0
	for i := 1; i < len(grid); i++ {
		if loglik[i] > loglik[best] {
			best = i
		}
	}

	return &model.PowerSelection{
		Grid:          grid,
		LogLikelihood: loglik,
		Power:         grid[best],
		Dispersion:    dispersions[best],
		SampleSize:    len(records),
	}, nil
}
