package ports

import (
	"context"

	"ratelab/domain/model"
	"ratelab/domain/policy"
)

// ScoreRepository persists scored policies for later retrieval.
type ScoreRepository interface {
	SaveScores(ctx context.Context, runID string, table *policy.ScoredTable) error
	LoadScores(ctx context.Context, runID string) (*policy.ScoredTable, error)
}

// ModelRepository persists fitted-model metadata.
type ModelRepository interface {
	SaveArtifact(ctx context.Context, runID string, artifact model.Artifact) error
	ListArtifacts(ctx context.Context, runID string) ([]model.Artifact, error)
}
