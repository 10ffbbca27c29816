package model

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies a fitted model variant.
type Kind string

const (
	KindGLM Kind = "glm"
	KindGBM Kind = "gbm"
)

// PowerSelection records the outcome of the Tweedie variance-power profile.
type PowerSelection struct {
	Grid          []float64 `json:"grid"`
	LogLikelihood []float64 `json:"log_likelihood"` // one per grid point
	Power         float64   `json:"power"`          // selected maximizer
	Dispersion    float64   `json:"dispersion"`     // Pearson estimate at the selected power
	SampleSize    int       `json:"sample_size"`
}

// Artifact is the serialized metadata written next to a fitted model.
type Artifact struct {
	ID        uuid.UUID `json:"id"`
	Kind      Kind      `json:"kind"`
	Power     float64   `json:"power"`
	TrainRows int       `json:"train_rows"`
	TestRows  int       `json:"test_rows"`
	Seed      int64     `json:"seed"`
	CreatedAt time.Time `json:"created_at"`
}

// NewArtifact stamps a fresh artifact for a fitted model.
func NewArtifact(kind Kind, power float64, trainRows, testRows int, seed int64) Artifact {
	return Artifact{
		ID:        uuid.New(),
		Kind:      kind,
		Power:     power,
		TrainRows: trainRows,
		TestRows:  testRows,
		Seed:      seed,
		CreatedAt: time.Now().UTC(),
	}
}
