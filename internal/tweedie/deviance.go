package tweedie

import (
	"math"

	"ratelab/internal/errors"
)

// UnitDeviance computes the canonical Tweedie unit deviance for variance
// power p in (1,2):
//
//	d(y, mu) = 2 * [ y^(2-p)/((1-p)(2-p)) - y*mu^(1-p)/(1-p) + mu^(2-p)/(2-p) ]
//
// It is zero at y == mu and positive elsewhere. mu must be positive; y may
// be zero (exact zeros are the point mass of the compound Poisson-gamma).
func UnitDeviance(y, mu, p float64) float64 {
	if mu <= 0 {
		return math.Inf(1)
	}
	term1 := 0.0
	if y > 0 {
		term1 = math.Pow(y, 2-p) / ((1 - p) * (2 - p))
	}
	term2 := y * math.Pow(mu, 1-p) / (1 - p)
	term3 := math.Pow(mu, 2-p) / (2 - p)
	return 2 * (term1 - term2 + term3)
}

// MeanDeviance computes the weight-averaged Tweedie deviance over a sample.
// Weights are exposures, never raw row counts.
func MeanDeviance(y, mu, w []float64, p float64) float64 {
	sum := 0.0
	wSum := 0.0
	for i := range y {
		sum += w[i] * UnitDeviance(y[i], mu[i], p)
		wSum += w[i]
	}
	if wSum == 0 {
		return 0
	}
	return sum / wSum
}

// PearsonDispersion estimates the dispersion phi from weighted Pearson
// residuals, with dof fitted parameters subtracted from the sample size.
func PearsonDispersion(y, mu, w []float64, p float64, dof int) float64 {
	sum := 0.0
	for i := range y {
		v := math.Pow(mu[i], p)
		if v <= 0 {
			continue
		}
		r := y[i] - mu[i]
		sum += w[i] * r * r / v
	}
	n := len(y) - dof
	if n < 1 {
		n = 1
	}
	return sum / float64(n)
}

// LogLikelihood evaluates the weighted Tweedie log-likelihood at variance
// power p and dispersion phi using the Dunn-Smyth series for the density
// normalizer. Observation weights scale the dispersion per row
// (phi_i = phi / w_i), the standard weighted-GLM convention.
func LogLikelihood(y, mu, w []float64, p, phi float64) (float64, error) {
	if p <= 1 || p >= 2 {
		return 0, errors.InvalidInput("variance power must lie in (1,2)")
	}
	if phi <= 0 {
		return 0, errors.InvalidInput("dispersion must be positive")
	}
	total := 0.0
	for i := range y {
		phiI := phi / w[i]
		ll, err := logDensity(y[i], mu[i], p, phiI)
		if err != nil {
			return 0, err
		}
		total += ll
	}
	return total, nil
}

// logDensity computes log f(y; mu, phi, p) for one observation.
func logDensity(y, mu, p, phi float64) (float64, error) {
	if mu <= 0 {
		return 0, errors.InvalidInput("mean must be positive")
	}
	// Deviance-generating part of the exponent, shared by y = 0 and y > 0.
	theta := y*math.Pow(mu, 1-p)/(1-p) - math.Pow(mu, 2-p)/(2-p)

	if y == 0 {
		// Point mass at zero: P(Y=0) = exp(-mu^(2-p) / (phi*(2-p))).
		return theta / phi, nil
	}
	if y < 0 {
		return 0, errors.DataInvalid("negative response in Tweedie likelihood")
	}

	logW, err := logSeriesSum(y, p, phi)
	if err != nil {
		return 0, err
	}
	return logW - math.Log(y) + theta/phi, nil
}

// logSeriesSum evaluates log sum_j W_j from Dunn & Smyth (2005), expanding
// outward from the index that maximizes the summand until added terms are
// negligible on the log scale.
func logSeriesSum(y, p, phi float64) (float64, error) {
	alpha := (2 - p) / (p - 1)

	// log W_j as a function of the (real-valued) index j.
	logTerm := func(j float64) float64 {
		lg, _ := math.Lgamma(j * alpha)
		lfact, _ := math.Lgamma(j + 1)
		return j*alpha*math.Log(y) - j*alpha*math.Log(p-1) -
			j*(1+alpha)*math.Log(phi) - j*math.Log(2-p) - lfact - lg
	}

	// Index of the largest term (Dunn-Smyth eq. 4.2).
	jMax := math.Pow(y, 2-p) / (phi * (2 - p))
	center := int(math.Max(1, math.Round(jMax)))

	logMax := logTerm(float64(center))
	sum := 1.0 // term at center, scaled by exp(logMax)

	const tol = 1e-17
	const maxTerms = 10000

	for j := center + 1; j < center+maxTerms; j++ {
		t := math.Exp(logTerm(float64(j)) - logMax)
		sum += t
		if t < tol {
			break
		}
	}
	for j, steps := center-1, 0; j >= 1 && steps < maxTerms; j, steps = j-1, steps+1 {
		t := math.Exp(logTerm(float64(j)) - logMax)
		sum += t
		if t < tol {
			break
		}
	}

	if math.IsNaN(sum) || math.IsInf(sum, 0) {
		return 0, errors.FitError("Tweedie series did not converge", nil)
	}
	return logMax + math.Log(sum), nil
}
