package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mixtape/internal/playlist"
)

// SavePlaylist persists a generated playlist with the parameters that
// produced it.
func (s *Store) SavePlaylist(ctx context.Context, priority Priority, p *playlist.Playlist) error {
	tracksJSON, err := json.Marshal(p.Tracks)
	if err != nil {
		return fmt.Errorf("encode playlist tracks: %w", err)
	}
	transitionsJSON, err := json.Marshal(p.Transitions)
	if err != nil {
		return fmt.Errorf("encode playlist transitions: %w", err)
	}

	m := newMutation("save playlist", func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO playlists (id, generated_at, curve, target_duration_sec, total_duration_sec, surprise_seed, tracks_json, transitions_json)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID,
			p.GeneratedAt.UTC().Format(timestampLayout),
			string(p.Params.Curve),
			p.Params.TargetDuration.Seconds(),
			p.TotalDuration.Seconds(),
			p.Params.SurpriseSeed,
			string(tracksJSON),
			string(transitionsJSON),
		)
		return err
	})
	return s.writer.submit(ctx, priority, m)
}

// PlaylistByID fetches a stored playlist.
func (s *Store) PlaylistByID(ctx context.Context, id string) (*playlist.Playlist, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, generated_at, curve, target_duration_sec, total_duration_sec, surprise_seed, tracks_json, transitions_json
         FROM playlists WHERE id = ?`, id)
	p, err := scanPlaylist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("playlist %s: %w", id, ErrPlaylistNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load playlist %s: %w", id, err)
	}
	return p, nil
}

// ListPlaylists returns all stored playlists, newest first.
func (s *Store) ListPlaylists(ctx context.Context) ([]*playlist.Playlist, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, generated_at, curve, target_duration_sec, total_duration_sec, surprise_seed, tracks_json, transitions_json
         FROM playlists ORDER BY generated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*playlist.Playlist
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

func scanPlaylist(scanner interface{ Scan(dest ...any) error }) (*playlist.Playlist, error) {
	var (
		p               playlist.Playlist
		generatedRaw    string
		curve           string
		targetSec       float64
		totalSec        float64
		tracksJSON      string
		transitionsJSON string
	)
	if err := scanner.Scan(&p.ID, &generatedRaw, &curve, &targetSec, &totalSec, &p.Params.SurpriseSeed, &tracksJSON, &transitionsJSON); err != nil {
		return nil, err
	}
	p.GeneratedAt = parseTimestamp(generatedRaw)
	p.Params.Curve = playlist.CurveShape(curve)
	p.Params.TargetDuration = time.Duration(targetSec * float64(time.Second))
	p.TotalDuration = time.Duration(totalSec * float64(time.Second))
	if err := json.Unmarshal([]byte(tracksJSON), &p.Tracks); err != nil {
		return nil, fmt.Errorf("decode playlist tracks: %w", err)
	}
	if err := json.Unmarshal([]byte(transitionsJSON), &p.Transitions); err != nil {
		return nil, fmt.Errorf("decode playlist transitions: %w", err)
	}
	return &p, nil
}
