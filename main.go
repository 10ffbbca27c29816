package main

import (
	"context"
	"log"

	"ratelab/adapters/api"
	"ratelab/adapters/postgres"
	"ratelab/adapters/report"
	"ratelab/domain/policy"
	"ratelab/internal"
	"ratelab/internal/config"
	"ratelab/internal/simulator"
	"ratelab/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// loadScoredTable prefers the scored CSV written by cmd/fit and falls back
// to the Postgres score store when a DATABASE_URL is configured.
func loadScoredTable(cfg *config.Config) (*policy.ScoredTable, error) {
	table, fileErr := report.ReadScoredTable(cfg.Data.ScoredFile)
	if fileErr == nil {
		return table, nil
	}
	if cfg.Database.URL == "" {
		return nil, fileErr
	}

	internal.DefaultLogger.Warn("scored file unavailable (%v), trying score store", fileErr)
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	repo := postgres.NewScoreRepository(db)
	return repo.LoadScores(context.Background(), "latest")
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	table, err := loadScoredTable(cfg)
	if err != nil {
		log.Fatalf("Failed to load scored test set: %v", err)
	}
	internal.DefaultLogger.Info("loaded %d scored policies (models: %v)", len(table.Records), table.Models)

	// Headless JSON API alongside the dashboard.
	apiApp := api.NewApp(simulator.New(table))
	go func() {
		if err := apiApp.Serve(cfg.Server.APIPort); err != nil {
			internal.DefaultLogger.Error("headless API stopped: %v", err)
		}
	}()

	server, err := ui.NewServer(table, cfg.Server.GinMode)
	if err != nil {
		log.Fatalf("Failed to initialize dashboard: %v", err)
	}
	if err := server.Run(cfg.Server.Port); err != nil {
		log.Fatalf("Dashboard server failed: %v", err)
	}
}
