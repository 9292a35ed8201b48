package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mixtape/internal/hamms"
)

const trackColumns = "id, title, artist, genre, duration_sec, descriptors_json, created_at, updated_at"

func scanTrack(scanner interface{ Scan(dest ...any) error }) (*Track, error) {
	var (
		track      Track
		rawJSON    string
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&track.ID,
		&track.Title,
		&track.Artist,
		&track.Genre,
		&track.DurationSec,
		&rawJSON,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(rawJSON), &track.Raw); err != nil {
		return nil, fmt.Errorf("decode track descriptors: %w", err)
	}
	track.CreatedAt = parseTimestamp(createdRaw)
	track.UpdatedAt = parseTimestamp(updatedRaw)
	return &track, nil
}

func parseTimestamp(raw string) time.Time {
	t, err := time.Parse(timestampLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

// AddTrack inserts a track with its raw descriptors and returns it with the
// assigned id. The write goes through the given priority lane.
func (s *Store) AddTrack(ctx context.Context, priority Priority, title, artist string, raw hamms.RawFeatures) (*Track, error) {
	rawJSON, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode track descriptors: %w", err)
	}
	now := time.Now().UTC()
	timestamp := now.Format(timestampLayout)

	track := &Track{
		Title:       title,
		Artist:      artist,
		Genre:       raw.Genre,
		DurationSec: raw.DurationSec,
		Raw:         raw,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	m := newMutation("add track", func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO tracks (title, artist, genre, duration_sec, descriptors_json, created_at, updated_at)
             VALUES (?, ?, ?, ?, ?, ?, ?)`,
			title, artist, raw.Genre, raw.DurationSec, string(rawJSON), timestamp, timestamp,
		)
		if err != nil {
			return err
		}
		track.ID, err = res.LastInsertId()
		return err
	})
	if err := s.writer.submit(ctx, priority, m); err != nil {
		return nil, err
	}
	return track, nil
}

// UpdateTrack rewrites a track's descriptors. The stored feature vector and
// cached pair scores become stale, so they are dropped in the same
// transaction.
func (s *Store) UpdateTrack(ctx context.Context, priority Priority, id int64, title, artist string, raw hamms.RawFeatures) error {
	rawJSON, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode track descriptors: %w", err)
	}
	timestamp := time.Now().UTC().Format(timestampLayout)

	m := newMutation("update track", func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE tracks SET title = ?, artist = ?, genre = ?, duration_sec = ?, descriptors_json = ?, updated_at = ?
             WHERE id = ?`,
			title, artist, raw.Genre, raw.DurationSec, string(rawJSON), timestamp, id,
		)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrTrackNotFound
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM feature_vectors WHERE track_id = ?", id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"DELETE FROM compatibility_cache WHERE track_low = ? OR track_high = ?", id, id)
		return err
	})
	return s.writer.submit(ctx, priority, m)
}

// RemoveTrack deletes a track. Vectors and cached scores follow via foreign
// keys. Returns false when the id was not present.
func (s *Store) RemoveTrack(ctx context.Context, priority Priority, id int64) (bool, error) {
	var removed bool
	m := newMutation("remove track", func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM tracks WHERE id = ?", id)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		removed = affected > 0
		return nil
	})
	if err := s.writer.submit(ctx, priority, m); err != nil {
		return false, err
	}
	return removed, nil
}

// TrackByID fetches a single track.
func (s *Store) TrackByID(ctx context.Context, id int64) (*Track, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+trackColumns+" FROM tracks WHERE id = ?", id)
	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTrackNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load track %d: %w", id, err)
	}
	return track, nil
}

// ListTracks returns all tracks ordered by id.
func (s *Store) ListTracks(ctx context.Context) ([]*Track, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+trackColumns+" FROM tracks ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		tracks = append(tracks, track)
	}
	return tracks, rows.Err()
}

// UnanalyzedTrackIDs returns ids with no vector at the current algorithm
// version, the worklist for a batch analysis run.
func (s *Store) UnanalyzedTrackIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id FROM tracks t
         LEFT JOIN feature_vectors v ON v.track_id = t.id AND v.algo_version = ?
         WHERE v.track_id IS NULL
         ORDER BY t.id`,
		VectorAlgorithmVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("list unanalyzed tracks: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Stats summarizes the catalog for status output.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(1) FROM tracks", &stats.Tracks},
		{"SELECT COUNT(1) FROM feature_vectors WHERE algo_version = " + fmt.Sprint(VectorAlgorithmVersion), &stats.Analyzed},
		{"SELECT COUNT(1) FROM compatibility_cache", &stats.CachedPairs},
		{"SELECT COUNT(1) FROM playlists", &stats.Playlists},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return Stats{}, fmt.Errorf("catalog stats: %w", err)
		}
	}
	model, err := s.ClusterModel(ctx)
	if err != nil && !errors.Is(err, ErrStaleClusterModel) {
		return Stats{}, err
	}
	if model != nil {
		stats.Clusters = len(model.Clusters)
	}
	stats.PendingWrites = s.PendingWrites()
	return stats, nil
}
