package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"ratelab/domain/policy"
	"ratelab/internal/errors"
	"ratelab/ports"

	"github.com/jmoiron/sqlx"
)

// scoreRepository implements the ScoreRepository interface
type scoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository creates a new score repository
func NewScoreRepository(db *sqlx.DB) ports.ScoreRepository {
	return &scoreRepository{db: db}
}

// SaveScores inserts the scored table under a run ID, replacing any previous
// scores for the same run.
func (r *scoreRepository) SaveScores(ctx context.Context, runID string, table *policy.ScoredTable) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM scored_policies WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("failed to clear previous scores: %w", err)
	}

	query := `INSERT INTO scored_policies (
		run_id, policy_id, exposure, claim_count, claim_amount, pure_premium, factors, predictions
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for _, rec := range table.Records {
		factorsJSON, err := json.Marshal(rec.Factors)
		if err != nil {
			return fmt.Errorf("failed to marshal factors: %w", err)
		}
		predJSON, err := json.Marshal(rec.Predicted)
		if err != nil {
			return fmt.Errorf("failed to marshal predictions: %w", err)
		}
		_, err = tx.ExecContext(ctx, query,
			runID, rec.PolicyID, rec.Exposure, rec.ClaimCount, rec.ClaimAmount,
			rec.PurePremium, factorsJSON, predJSON,
		)
		if err != nil {
			return fmt.Errorf("failed to insert scored policy %s: %w", rec.PolicyID, err)
		}
	}

	return tx.Commit()
}

// LoadScores retrieves the scored table for a run ID.
func (r *scoreRepository) LoadScores(ctx context.Context, runID string) (*policy.ScoredTable, error) {
	query := `SELECT policy_id, exposure, claim_count, claim_amount, pure_premium, factors, predictions
		FROM scored_policies WHERE run_id = $1 ORDER BY policy_id`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load scores: %w", err)
	}
	defer rows.Close()

	table := &policy.ScoredTable{}
	modelSet := map[string]bool{}
	for rows.Next() {
		var rec policy.ScoredRecord
		var factorsJSON, predJSON []byte
		err := rows.Scan(&rec.PolicyID, &rec.Exposure, &rec.ClaimCount,
			&rec.ClaimAmount, &rec.PurePremium, &factorsJSON, &predJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scored policy: %w", err)
		}
		if err := json.Unmarshal(factorsJSON, &rec.Factors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal factors: %w", err)
		}
		if err := json.Unmarshal(predJSON, &rec.Predicted); err != nil {
			return nil, fmt.Errorf("failed to unmarshal predictions: %w", err)
		}
		for m := range rec.Predicted {
			modelSet[m] = true
		}
		table.Records = append(table.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scored policies: %w", err)
	}
	if len(table.Records) == 0 {
		return nil, errors.NotFound("scores for run " + runID)
	}

	for m := range modelSet {
		table.Models = append(table.Models, m)
	}
	sort.Strings(table.Models)
	return table, nil
}
