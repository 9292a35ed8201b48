package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mixtape/internal/compat"
)

// SaveCompatibility caches a scored pair. The record is symmetric, so one
// row keyed on the normalized pair covers both directions.
func (s *Store) SaveCompatibility(ctx context.Context, priority Priority, a, b int64, record compat.Record) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode compatibility record: %w", err)
	}
	pair := NewPairKey(a, b)
	timestamp := time.Now().UTC().Format(timestampLayout)

	m := newMutation("save compatibility", func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO compatibility_cache (track_low, track_high, record_json, created_at)
             VALUES (?, ?, ?, ?)
             ON CONFLICT(track_low, track_high) DO UPDATE SET
                 record_json = excluded.record_json,
                 created_at = excluded.created_at`,
			pair.Low, pair.High, string(recordJSON), timestamp,
		)
		return err
	})
	return s.writer.submit(ctx, priority, m)
}

// TrySaveCompatibility caches a scored pair without blocking on a full
// lane. Score caching is best effort, so callers treat ErrQueueSaturated as
// a skip rather than a failure.
func (s *Store) TrySaveCompatibility(ctx context.Context, priority Priority, a, b int64, record compat.Record) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode compatibility record: %w", err)
	}
	pair := NewPairKey(a, b)
	timestamp := time.Now().UTC().Format(timestampLayout)

	m := newMutation("save compatibility", func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO compatibility_cache (track_low, track_high, record_json, created_at)
             VALUES (?, ?, ?, ?)
             ON CONFLICT(track_low, track_high) DO UPDATE SET
                 record_json = excluded.record_json,
                 created_at = excluded.created_at`,
			pair.Low, pair.High, string(recordJSON), timestamp,
		)
		return err
	})
	return s.writer.trySubmit(ctx, priority, m)
}

// Compatibility fetches a cached pair score. The ids may arrive in either
// order. A cache miss returns (nil, nil).
func (s *Store) Compatibility(ctx context.Context, a, b int64) (*CompatibilityRow, error) {
	pair := NewPairKey(a, b)
	var (
		recordJSON string
		createdRaw string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT record_json, created_at FROM compatibility_cache WHERE track_low = ? AND track_high = ?",
		pair.Low, pair.High,
	).Scan(&recordJSON, &createdRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load compatibility %d/%d: %w", pair.Low, pair.High, err)
	}

	row := &CompatibilityRow{Pair: pair, CreatedAt: parseTimestamp(createdRaw)}
	if err := json.Unmarshal([]byte(recordJSON), &row.Record); err != nil {
		return nil, fmt.Errorf("decode compatibility record: %w", err)
	}
	return row, nil
}

// CompatibilitiesFor returns all cached rows involving the given track.
func (s *Store) CompatibilitiesFor(ctx context.Context, trackID int64) ([]*CompatibilityRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT track_low, track_high, record_json, created_at
         FROM compatibility_cache WHERE track_low = ? OR track_high = ?`,
		trackID, trackID,
	)
	if err != nil {
		return nil, fmt.Errorf("list compatibilities for track %d: %w", trackID, err)
	}
	defer rows.Close()

	var result []*CompatibilityRow
	for rows.Next() {
		var (
			row        CompatibilityRow
			recordJSON string
			createdRaw string
		)
		if err := rows.Scan(&row.Pair.Low, &row.Pair.High, &recordJSON, &createdRaw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(recordJSON), &row.Record); err != nil {
			return nil, fmt.Errorf("decode compatibility record: %w", err)
		}
		row.CreatedAt = parseTimestamp(createdRaw)
		result = append(result, &row)
	}
	return result, rows.Err()
}
