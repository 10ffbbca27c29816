package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"ratelab/adapters/plot"
	"ratelab/adapters/postgres"
	"ratelab/adapters/report"
	"ratelab/domain/eval"
	"ratelab/domain/model"
	"ratelab/domain/policy"
	"ratelab/internal"
	"ratelab/internal/config"
	"ratelab/internal/dataset"
	"ratelab/internal/gbm"
	"ratelab/internal/glm"
	"ratelab/internal/metrics"
	"ratelab/internal/migration"
	"ratelab/ports"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// scoreStoreRunID is the run the dashboard falls back to when the scored
// CSV is missing.
const scoreStoreRunID = "latest"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.DefaultLogger

	portfolio, err := report.ReadPolicies(cfg.Data.PolicyFile)
	if err != nil {
		log.Fatalf("Failed to read prepared policies (run cmd/prepare first): %v", err)
	}
	logger.Info("loaded %d policies", portfolio.Len())

	train, test := dataset.Split(portfolio, cfg.Fit.TrainFraction, cfg.Fit.Seed)
	logger.Info("split: %d train / %d test", train.Len(), test.Len())

	// Level index spans the full portfolio so test-only levels still encode.
	enc := dataset.NewEncoder(portfolio.Records)

	// Variance-power profile on a training subsample.
	profileSample := dataset.Subsample(train, cfg.Fit.ProfileSample, cfg.Fit.Seed)
	grid := glm.PowerGrid(cfg.Fit.PowerGridFrom, cfg.Fit.PowerGridTo, cfg.Fit.PowerGridStep)
	selection, err := glm.SelectPower(context.Background(), profileSample.Records, enc, grid, glm.DefaultOptions())
	if err != nil {
		log.Fatalf("Power profile failed: %v", err)
	}
	logger.Info("selected variance power %.3f (dispersion %.2f, %d-point grid, %d rows)",
		selection.Power, selection.Dispersion, len(grid), selection.SampleSize)

	glmModel, err := glm.Fit(train.Records, enc, selection.Power, glm.DefaultOptions())
	if err != nil {
		log.Fatalf("GLM fit failed: %v", err)
	}
	logger.Info("GLM converged in %d IRLS iterations, train deviance %.4f", glmModel.Iterations, glmModel.Deviance)

	gbmParams := gbm.Params{
		Rounds:       cfg.Fit.BoostRounds,
		MaxDepth:     cfg.Fit.MaxDepth,
		LearningRate: cfg.Fit.LearningRate,
		RegLambda:    cfg.Fit.RegLambda,
		MinChildHess: 1e-6,
	}
	gbmModel, err := gbm.Fit(train.Records, enc, selection.Power, gbmParams)
	if err != nil {
		log.Fatalf("GBM fit failed: %v", err)
	}
	logger.Info("GBM fitted %d trees, final train deviance %.4f",
		len(gbmModel.Trees), gbmModel.TrainCurve[len(gbmModel.TrainCurve)-1])

	predictors := []ports.Predictor{glmModel, gbmModel}

	// Evaluation tables per model per split.
	var summaries []eval.Summary
	splits := map[string]*policy.Portfolio{"train": train, "test": test}
	for _, p := range predictors {
		for _, splitName := range []string{"train", "test"} {
			split := splits[splitName]
			observed, weight := targets(split)
			predicted := ports.PredictAll(p, split.Records)

			summaries = append(summaries, metrics.Summarize(p.Name(), splitName, observed, predicted, weight, selection.Power))

			table, err := metrics.Deciles(observed, predicted, weight)
			if err != nil {
				log.Fatalf("Decile table failed for %s/%s: %v", p.Name(), splitName, err)
			}
			calPath := filepath.Join(cfg.Data.OutputDir, fmt.Sprintf("calibration_%s_%s.csv", p.Name(), splitName))
			if err := report.WriteDecileRows(calPath, table.Rows); err != nil {
				log.Fatalf("Failed to write %s: %v", calPath, err)
			}
			liftRows := metrics.Lift(table)
			liftPath := filepath.Join(cfg.Data.OutputDir, fmt.Sprintf("lift_%s_%s.csv", p.Name(), splitName))
			if err := report.WriteDecileRows(liftPath, liftRows); err != nil {
				log.Fatalf("Failed to write %s: %v", liftPath, err)
			}

			if splitName == "test" {
				writePlots(cfg.Data.OutputDir, p.Name(), table.Rows, liftRows)
			}
		}
	}
	if err := report.WriteSummaries(filepath.Join(cfg.Data.OutputDir, "metrics.csv"), summaries); err != nil {
		log.Fatalf("Failed to write metrics: %v", err)
	}
	for _, s := range summaries {
		logger.Info("%s/%s: deviance=%.4f gini=%.4f (normalized %.4f)",
			s.Model, s.Split, s.Deviance, s.Gini.Gini, s.Gini.Normalized)
	}

	// Model artifacts.
	if err := report.WriteJSON(filepath.Join(cfg.Data.OutputDir, "power_profile.json"), selection); err != nil {
		log.Fatalf("Failed to write power profile: %v", err)
	}
	if err := report.WriteJSON(filepath.Join(cfg.Data.OutputDir, "glm_model.json"), map[string]interface{}{
		"power":        glmModel.Power,
		"coefficients": glmModel.Export(),
	}); err != nil {
		log.Fatalf("Failed to write GLM artifact: %v", err)
	}
	if err := report.WriteJSON(filepath.Join(cfg.Data.OutputDir, "gbm_model.json"), gbmModel); err != nil {
		log.Fatalf("Failed to write GBM artifact: %v", err)
	}

	// Scored test set for the dashboard.
	scored := scoreTable(test, predictors)
	if err := report.WriteScoredTable(cfg.Data.ScoredFile, scored); err != nil {
		log.Fatalf("Failed to write scored table: %v", err)
	}
	logger.Info("wrote %s", cfg.Data.ScoredFile)

	if cfg.Database.URL != "" {
		if err := persist(cfg, scored, selection, train.Len(), test.Len()); err != nil {
			log.Fatalf("Failed to persist to score store: %v", err)
		}
		logger.Info("persisted scores and artifacts to the score store")
	}
}

func targets(p *policy.Portfolio) (observed, weight []float64) {
	observed = make([]float64, p.Len())
	weight = make([]float64, p.Len())
	for i, r := range p.Records {
		observed[i] = r.PurePremium
		weight[i] = r.Exposure
	}
	return observed, weight
}

func scoreTable(test *policy.Portfolio, predictors []ports.Predictor) *policy.ScoredTable {
	table := &policy.ScoredTable{}
	for _, p := range predictors {
		table.Models = append(table.Models, p.Name())
	}
	for _, r := range test.Records {
		rec := policy.ScoredRecord{Record: r, Predicted: make(map[string]float64, len(predictors))}
		for _, p := range predictors {
			rec.Predicted[p.Name()] = p.Predict(r)
		}
		table.Records = append(table.Records, rec)
	}
	return table
}

func writePlots(outputDir, modelName string, calRows, liftRows []eval.DecileRow) {
	png, err := plot.CalibrationScatter(calRows, fmt.Sprintf("Calibration by decile (%s, test)", modelName))
	if err == nil {
		err = plot.SavePNG(filepath.Join(outputDir, fmt.Sprintf("calibration_%s.png", modelName)), png)
	}
	if err != nil {
		internal.DefaultLogger.Warn("calibration plot for %s: %v", modelName, err)
	}

	png, err = plot.LiftCurve(liftRows, fmt.Sprintf("Lift curve (%s, test)", modelName))
	if err == nil {
		err = plot.SavePNG(filepath.Join(outputDir, fmt.Sprintf("lift_%s.png", modelName)), png)
	}
	if err != nil {
		internal.DefaultLogger.Warn("lift plot for %s: %v", modelName, err)
	}
}

func persist(cfg *config.Config, scored *policy.ScoredTable, selection *model.PowerSelection, trainRows, testRows int) error {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if err := migration.NewRunner().Run(ctx, db); err != nil {
		return err
	}

	modelRepo := postgres.NewModelRepository(db)
	for _, kind := range []model.Kind{model.KindGLM, model.KindGBM} {
		artifact := model.NewArtifact(kind, selection.Power, trainRows, testRows, cfg.Fit.Seed)
		if err := modelRepo.SaveArtifact(ctx, scoreStoreRunID, artifact); err != nil {
			return err
		}
	}

	return postgres.NewScoreRepository(db).SaveScores(ctx, scoreStoreRunID, scored)
}
