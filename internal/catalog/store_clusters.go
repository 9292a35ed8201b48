package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"mixtape/internal/cluster"
)

// SaveClusterModel replaces the stored model wholesale. Readers either see
// the previous complete model or the new one, never a mix.
func (s *Store) SaveClusterModel(ctx context.Context, priority Priority, model *cluster.Model) error {
	modelJSON, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("encode cluster model: %w", err)
	}

	m := newMutation("save cluster model", func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM cluster_models"); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO cluster_models (id, k, seed, fitted_at, model_json) VALUES (1, ?, ?, ?, ?)`,
			model.K, model.Seed, model.FittedAt.UTC().Format(timestampLayout), string(modelJSON),
		)
		return err
	})
	return s.writer.submit(ctx, priority, m)
}

// ClusterModel fetches the current model, or ErrStaleClusterModel when no
// fit has run yet.
func (s *Store) ClusterModel(ctx context.Context) (*cluster.Model, error) {
	var modelJSON string
	err := s.db.QueryRowContext(ctx, "SELECT model_json FROM cluster_models WHERE id = 1").Scan(&modelJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStaleClusterModel
	}
	if err != nil {
		return nil, fmt.Errorf("load cluster model: %w", err)
	}

	var model cluster.Model
	if err := json.Unmarshal([]byte(modelJSON), &model); err != nil {
		return nil, fmt.Errorf("decode cluster model: %w", err)
	}
	return &model, nil
}
