package migration

import (
	"context"

	"ratelab/internal/errors"

	"github.com/jmoiron/sqlx"
)

// MigrationRunner creates the score-store schema.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{version: "1.0.0"}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createModelArtifactsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create model_artifacts table")
	}
	if err := r.createScoredPoliciesTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create scored_policies table")
	}
	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}
	return nil
}

func (r *MigrationRunner) createModelArtifactsTable(ctx context.Context, db *sqlx.DB) error {
	query := `CREATE TABLE IF NOT EXISTS model_artifacts (
		id UUID PRIMARY KEY,
		run_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		power DOUBLE PRECISION NOT NULL,
		train_rows INTEGER NOT NULL,
		test_rows INTEGER NOT NULL,
		seed BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`
	_, err := db.ExecContext(ctx, query)
	return err
}

func (r *MigrationRunner) createScoredPoliciesTable(ctx context.Context, db *sqlx.DB) error {
	query := `CREATE TABLE IF NOT EXISTS scored_policies (
		run_id TEXT NOT NULL,
		policy_id TEXT NOT NULL,
		exposure DOUBLE PRECISION NOT NULL,
		claim_count INTEGER NOT NULL,
		claim_amount DOUBLE PRECISION NOT NULL,
		pure_premium DOUBLE PRECISION NOT NULL,
		factors JSONB NOT NULL,
		predictions JSONB NOT NULL,
		PRIMARY KEY (run_id, policy_id)
	)`
	_, err := db.ExecContext(ctx, query)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	queries := []string{
		`CREATE INDEX IF NOT EXISTS idx_model_artifacts_run ON model_artifacts(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_scored_policies_run ON scored_policies(run_id)`,
	}
	for _, q := range queries {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
