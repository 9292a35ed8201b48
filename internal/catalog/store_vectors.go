package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mixtape/internal/camelot"
	"mixtape/internal/hamms"
)

// SaveVector upserts a track's feature vector. Cached pair scores involving
// the track are computed from the old vector, so they are invalidated in the
// same transaction.
func (s *Store) SaveVector(ctx context.Context, priority Priority, trackID int64, vector hamms.Vector, key camelot.Key, bpm, energy float64) error {
	vectorJSON, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("encode vector: %w", err)
	}
	timestamp := time.Now().UTC().Format(timestampLayout)

	m := newMutation("save vector", func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO feature_vectors (track_id, vector_json, camelot_key, bpm, energy, algo_version, created_at)
             VALUES (?, ?, ?, ?, ?, ?, ?)
             ON CONFLICT(track_id) DO UPDATE SET
                 vector_json = excluded.vector_json,
                 camelot_key = excluded.camelot_key,
                 bpm = excluded.bpm,
                 energy = excluded.energy,
                 algo_version = excluded.algo_version,
                 created_at = excluded.created_at`,
			trackID, string(vectorJSON), key.String(), bpm, energy, VectorAlgorithmVersion, timestamp,
		)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"DELETE FROM compatibility_cache WHERE track_low = ? OR track_high = ?", trackID, trackID)
		return err
	})
	return s.writer.submit(ctx, priority, m)
}

const vectorColumns = "track_id, vector_json, camelot_key, bpm, energy, algo_version, created_at"

func scanVector(scanner interface{ Scan(dest ...any) error }) (*VectorRecord, error) {
	var (
		rec        VectorRecord
		vectorJSON string
		keyRaw     string
		createdRaw string
	)
	if err := scanner.Scan(&rec.TrackID, &vectorJSON, &keyRaw, &rec.BPM, &rec.Energy, &rec.Version, &createdRaw); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(vectorJSON), &rec.Vector); err != nil {
		return nil, fmt.Errorf("decode vector: %w", err)
	}
	key, err := camelot.Parse(keyRaw)
	if err != nil {
		return nil, fmt.Errorf("decode camelot key %q: %w", keyRaw, err)
	}
	rec.Key = key
	rec.CreatedAt = parseTimestamp(createdRaw)
	return &rec, nil
}

// VectorByTrack fetches a track's vector. A missing row or a row computed
// under an older algorithm version both return ErrNoVector.
func (s *Store) VectorByTrack(ctx context.Context, trackID int64) (*VectorRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+vectorColumns+" FROM feature_vectors WHERE track_id = ?", trackID)
	rec, err := scanVector(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoVector
	}
	if err != nil {
		return nil, fmt.Errorf("load vector for track %d: %w", trackID, err)
	}
	if rec.Version != VectorAlgorithmVersion {
		return nil, ErrNoVector
	}
	return rec, nil
}

// ListVectors returns all vectors at the current algorithm version keyed by
// track id.
func (s *Store) ListVectors(ctx context.Context) (map[int64]*VectorRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+vectorColumns+" FROM feature_vectors WHERE algo_version = ?", VectorAlgorithmVersion)
	if err != nil {
		return nil, fmt.Errorf("list vectors: %w", err)
	}
	defer rows.Close()

	vectors := make(map[int64]*VectorRecord)
	for rows.Next() {
		rec, err := scanVector(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vector: %w", err)
		}
		vectors[rec.TrackID] = rec
	}
	return vectors, rows.Err()
}
