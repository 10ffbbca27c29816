package postgres

import (
	"context"
	"fmt"

	"ratelab/domain/model"
	"ratelab/ports"

	"github.com/jmoiron/sqlx"
)

// modelRepository implements the ModelRepository interface
type modelRepository struct {
	db *sqlx.DB
}

// NewModelRepository creates a new model repository
func NewModelRepository(db *sqlx.DB) ports.ModelRepository {
	return &modelRepository{db: db}
}

// SaveArtifact inserts fitted-model metadata for a run.
func (r *modelRepository) SaveArtifact(ctx context.Context, runID string, artifact model.Artifact) error {
	query := `INSERT INTO model_artifacts (
		id, run_id, kind, power, train_rows, test_rows, seed, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		artifact.ID, runID, string(artifact.Kind), artifact.Power,
		artifact.TrainRows, artifact.TestRows, artifact.Seed, artifact.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save model artifact: %w", err)
	}
	return nil
}

// ListArtifacts retrieves fitted-model metadata for a run.
func (r *modelRepository) ListArtifacts(ctx context.Context, runID string) ([]model.Artifact, error) {
	query := `SELECT id, kind, power, train_rows, test_rows, seed, created_at
		FROM model_artifacts WHERE run_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list model artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []model.Artifact
	for rows.Next() {
		var a model.Artifact
		var kind string
		if err := rows.Scan(&a.ID, &kind, &a.Power, &a.TrainRows, &a.TestRows, &a.Seed, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan model artifact: %w", err)
		}
		a.Kind = model.Kind(kind)
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}
