package plot

import (
	"bytes"
	"os"
	"path/filepath"

	"ratelab/domain/eval"
	"ratelab/internal/errors"
	"ratelab/internal/simulator"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	plotWidth  = 6 * vg.Inch
	plotHeight = 4 * vg.Inch
)

// PremiumChangeHistogram renders the per-policy premium-change distribution.
func PremiumChangeHistogram(bins []simulator.Bin, title string) ([]byte, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "premium change"
	p.Y.Label.Text = "policies"

	bars := make(plotter.Values, len(bins))
	for i, b := range bins {
		bars[i] = float64(b.Count)
	}

	h, err := plotter.NewBarChart(bars, vg.Points(12))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build histogram")
	}
	p.Add(h)
	return render(p)
}

// CalibrationScatter renders observed vs. predicted pure premium by decile
// with the identity line.
func CalibrationScatter(rows []eval.DecileRow, title string) ([]byte, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "predicted pure premium"
	p.Y.Label.Text = "observed pure premium"

	pts := make(plotter.XYs, len(rows))
	maxV := 0.0
	for i, r := range rows {
		pts[i].X = r.PredictedPP
		pts[i].Y = r.ObservedPP
		if r.PredictedPP > maxV {
			maxV = r.PredictedPP
		}
		if r.ObservedPP > maxV {
			maxV = r.ObservedPP
		}
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build scatter")
	}
	identity := plotter.NewFunction(func(x float64) float64 { return x })
	identity.XMin, identity.XMax = 0, maxV

	p.Add(scatter, identity, plotter.NewGrid())
	return render(p)
}

// LiftCurve renders cumulative loss capture against cumulative exposure,
// highest-risk decile first, with the no-discrimination diagonal.
func LiftCurve(rows []eval.DecileRow, title string) ([]byte, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "cumulative exposure share"
	p.Y.Label.Text = "cumulative loss share"

	pts := make(plotter.XYs, len(rows)+1)
	for i, r := range rows {
		pts[i+1].X = r.CumExposure
		pts[i+1].Y = r.CumLoss
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build lift curve")
	}
	diagonal := plotter.NewFunction(func(x float64) float64 { return x })
	diagonal.XMin, diagonal.XMax = 0, 1

	p.Add(line, diagonal, plotter.NewGrid())
	return render(p)
}

// SavePNG writes rendered bytes to disk, creating parent directories.
func SavePNG(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create %s", dir)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func render(p *plot.Plot) ([]byte, error) {
	wt, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return nil, errors.Wrap(err, "failed to render plot")
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "failed to encode PNG")
	}
	return buf.Bytes(), nil
}
