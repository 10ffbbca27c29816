package main

import (
	"log"
	"path/filepath"

	"ratelab/adapters/excel"
	"ratelab/adapters/report"
	"ratelab/internal"
	"ratelab/internal/config"
	"ratelab/internal/dataset"

	"github.com/joho/godotenv"
)

// prepare joins the per-policy frequency table with the per-claim severity
// table, derives the exposure-weighted pure premium, casts numeric risk
// factors to tariff bands and writes the prepared policy table.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.DefaultLogger

	freqHeaders, freqRows, err := excel.NewDataReader(cfg.Data.FrequencyFile).ReadTable()
	if err != nil {
		log.Fatalf("Failed to read frequency table: %v", err)
	}
	logger.Info("frequency table: %d rows", len(freqRows))

	sevHeaders, sevRows, err := excel.NewDataReader(cfg.Data.SeverityFile).ReadTable()
	if err != nil {
		log.Fatalf("Failed to read severity table: %v", err)
	}
	logger.Info("severity table: %d claims", len(sevRows))

	severity, err := dataset.AggregateSeverity(sevHeaders, sevRows)
	if err != nil {
		log.Fatalf("Failed to aggregate severities: %v", err)
	}

	portfolio, err := dataset.Prepare(freqHeaders, freqRows, severity)
	if err != nil {
		log.Fatalf("Failed to prepare portfolio: %v", err)
	}
	logger.Info("prepared %d policies, %.0f policy-years exposure, total loss %.0f",
		portfolio.Len(), portfolio.TotalExposure(), portfolio.TotalLoss())

	profiles := dataset.Profile(portfolio)
	for _, p := range profiles {
		logger.Info("%s: mean=%.4f sd=%.4f zero_share=%.3f skew=%.2f",
			p.Name, p.Mean, p.StdDev, p.ZeroShare, p.Skewness)
	}
	if err := report.WriteJSON(filepath.Join(cfg.Data.OutputDir, "field_profiles.json"), profiles); err != nil {
		log.Fatalf("Failed to write field profiles: %v", err)
	}

	if err := report.WritePolicies(cfg.Data.PolicyFile, portfolio); err != nil {
		log.Fatalf("Failed to write policy table: %v", err)
	}
	logger.Info("wrote %s", cfg.Data.PolicyFile)
}
