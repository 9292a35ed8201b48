package engine_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"mixtape/internal/catalog"
	"mixtape/internal/compat"
	"mixtape/internal/config"
	"mixtape/internal/engine"
	"mixtape/internal/logging"
	"mixtape/internal/playlist"
	"mixtape/internal/testsupport"
)

func newEngine(t *testing.T, opts ...testsupport.ConfigOption) (*engine.Engine, *catalog.Store, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	eng := engine.New(cfg, store, logging.NewNop(), nil)
	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("engine.Start: %v", err)
	}
	t.Cleanup(eng.Stop)
	return eng, store, cfg
}

func analyzeTrack(t *testing.T, eng *engine.Engine, store *catalog.Store, title string, raw testsupport.RawTrack) *catalog.Track {
	t.Helper()
	track := testsupport.AddTrack(t, store, title, "artist", raw)
	task, err := eng.Analyze(context.Background(), track.ID, catalog.PriorityInteractive)
	if err != nil {
		t.Fatalf("Analyze(%s): %v", title, err)
	}
	select {
	case <-task.Done():
	case <-time.After(10 * time.Second):
		t.Fatalf("analysis of %s did not finish", title)
	}
	if err := task.Err(); err != nil {
		t.Fatalf("analysis of %s failed: %v", title, err)
	}
	return track
}

func TestCompatibilityComputesAndCaches(t *testing.T) {
	eng, store, _ := newEngine(t)
	ctx := context.Background()

	a := analyzeTrack(t, eng, store, "A", testsupport.RawTrack{BPM: 124, Key: "8A", DurationSec: 300, Energy: 0.68})
	b := analyzeTrack(t, eng, store, "B", testsupport.RawTrack{BPM: 128, Key: "9A", DurationSec: 300, Energy: 0.60})

	record, err := eng.Compatibility(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("Compatibility failed: %v", err)
	}
	if record.HarmonicDistance != 1 {
		t.Fatalf("expected harmonic distance 1, got %d", record.HarmonicDistance)
	}
	if record.Transition != compat.TransitionBlend {
		t.Fatalf("expected blend, got %s", record.Transition)
	}

	// The pair lands in the persistent cache.
	deadline := time.Now().Add(5 * time.Second)
	for {
		row, err := store.Compatibility(ctx, a.ID, b.ID)
		if err != nil {
			t.Fatalf("cache lookup failed: %v", err)
		}
		if row != nil {
			if row.Record.Score != record.Score {
				t.Fatalf("cached score %v differs from computed %v", row.Record.Score, record.Score)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("pair was never cached")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Argument order does not matter.
	reversed, err := eng.Compatibility(ctx, b.ID, a.ID)
	if err != nil {
		t.Fatalf("reversed Compatibility failed: %v", err)
	}
	if reversed.Score != record.Score {
		t.Fatalf("expected symmetric score, got %v vs %v", reversed.Score, record.Score)
	}
}

func TestCompatibilityRequiresVectors(t *testing.T) {
	eng, store, _ := newEngine(t)
	ctx := context.Background()

	a := analyzeTrack(t, eng, store, "A", testsupport.RawTrack{BPM: 124, Key: "8A", DurationSec: 300})
	b := testsupport.AddTrack(t, store, "B", "artist", testsupport.RawTrack{BPM: 128, Key: "9A", DurationSec: 300})

	if _, err := eng.Compatibility(ctx, a.ID, b.ID); !errors.Is(err, catalog.ErrNoVector) {
		t.Fatalf("expected ErrNoVector, got %v", err)
	}
}

func TestSimilarityReflexive(t *testing.T) {
	eng, store, _ := newEngine(t)
	ctx := context.Background()

	a := analyzeTrack(t, eng, store, "A", testsupport.RawTrack{BPM: 124, Key: "8A", DurationSec: 300, Energy: 0.7})
	result, err := eng.Similarity(ctx, a.ID, a.ID)
	if err != nil {
		t.Fatalf("Similarity failed: %v", err)
	}
	if result.Overall < 0.999 {
		t.Fatalf("expected reflexive similarity near 1, got %v", result.Overall)
	}
}

func TestSuggestNextRanksByScore(t *testing.T) {
	eng, store, cfg := newEngine(t)
	cfg.Playlist.MinScore = 0
	ctx := context.Background()

	seed := analyzeTrack(t, eng, store, "seed", testsupport.RawTrack{BPM: 124, Key: "8A", DurationSec: 300, Energy: 0.6})
	close1 := analyzeTrack(t, eng, store, "close", testsupport.RawTrack{BPM: 125, Key: "8A", DurationSec: 300, Energy: 0.6})
	far := analyzeTrack(t, eng, store, "far", testsupport.RawTrack{BPM: 170, Key: "2B", DurationSec: 300, Energy: 0.95})

	suggestions, err := eng.SuggestNext(ctx, seed.ID, 10)
	if err != nil {
		t.Fatalf("SuggestNext failed: %v", err)
	}
	if len(suggestions) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(suggestions))
	}
	if suggestions[0].Track.ID != close1.ID {
		t.Fatalf("expected closest track first, got %d", suggestions[0].Track.ID)
	}
	if suggestions[1].Track.ID != far.ID {
		t.Fatalf("expected far track last, got %d", suggestions[1].Track.ID)
	}
	if suggestions[0].Record.Score <= suggestions[1].Record.Score {
		t.Fatal("expected descending scores")
	}
}

func TestSuggestNextHonorsMinScore(t *testing.T) {
	eng, store, cfg := newEngine(t)
	cfg.Playlist.MinScore = 0.5
	ctx := context.Background()

	seed := analyzeTrack(t, eng, store, "seed", testsupport.RawTrack{BPM: 124, Key: "8A", DurationSec: 300, Energy: 0.6})
	analyzeTrack(t, eng, store, "far", testsupport.RawTrack{BPM: 170, Key: "2B", DurationSec: 300, Energy: 0.95})

	suggestions, err := eng.SuggestNext(ctx, seed.ID, 10)
	if err != nil {
		t.Fatalf("SuggestNext failed: %v", err)
	}
	if len(suggestions) != 0 {
		t.Fatalf("expected incompatible track filtered out, got %d suggestions", len(suggestions))
	}
}

func TestGeneratePlaylistPersists(t *testing.T) {
	eng, store, _ := newEngine(t)
	ctx := context.Background()

	keys := []string{"8A", "8A", "9A", "8B", "7A", "9B", "8A", "9A"}
	for i, key := range keys {
		analyzeTrack(t, eng, store, fmt.Sprintf("t%d", i), testsupport.RawTrack{
			BPM: 122 + float64(i), Key: key, DurationSec: 300, Energy: 0.4 + 0.05*float64(i),
		})
	}

	result, err := eng.GeneratePlaylist(ctx, playlist.Params{
		TargetDuration: 20 * time.Minute,
		Curve:          playlist.CurveAscending,
		SurpriseSeed:   7,
	})
	if err != nil {
		t.Fatalf("GeneratePlaylist failed: %v", err)
	}
	if len(result.Tracks) == 0 {
		t.Fatal("expected a non-empty playlist")
	}

	stored, err := store.PlaylistByID(ctx, result.ID)
	if err != nil {
		t.Fatalf("PlaylistByID failed: %v", err)
	}
	if len(stored.Tracks) != len(result.Tracks) {
		t.Fatalf("stored playlist lost tracks: %d vs %d", len(stored.Tracks), len(result.Tracks))
	}
	if stored.Params.Curve != playlist.CurveAscending {
		t.Fatalf("unexpected stored curve %q", stored.Params.Curve)
	}
}

func TestGeneratePlaylistEmptyLibrary(t *testing.T) {
	eng, _, _ := newEngine(t)

	_, err := eng.GeneratePlaylist(context.Background(), playlist.Params{
		TargetDuration: 20 * time.Minute,
		Curve:          playlist.CurveFlat,
	})
	if !errors.Is(err, playlist.ErrEmptyPool) {
		t.Fatalf("expected ErrEmptyPool, got %v", err)
	}
}

func TestRefitAndReadClusters(t *testing.T) {
	eng, store, _ := newEngine(t)
	ctx := context.Background()

	if _, err := eng.Clusters(ctx); !errors.Is(err, catalog.ErrStaleClusterModel) {
		t.Fatalf("expected ErrStaleClusterModel before first fit, got %v", err)
	}

	for i := 0; i < 6; i++ {
		analyzeTrack(t, eng, store, fmt.Sprintf("slow%d", i), testsupport.RawTrack{
			BPM: 95 + float64(i), Key: "5A", DurationSec: 300, Energy: 0.3,
		})
		analyzeTrack(t, eng, store, fmt.Sprintf("fast%d", i), testsupport.RawTrack{
			BPM: 170 + float64(i), Key: "11B", DurationSec: 300, Energy: 0.9,
		})
	}

	model, err := eng.RefitClusters(ctx, 2)
	if err != nil {
		t.Fatalf("RefitClusters failed: %v", err)
	}
	if model.K != 2 || len(model.Clusters) != 2 {
		t.Fatalf("unexpected model: %#v", model)
	}

	loaded, err := eng.Clusters(ctx)
	if err != nil {
		t.Fatalf("Clusters failed: %v", err)
	}
	if loaded.FittedAt.IsZero() || len(loaded.Clusters) != 2 {
		t.Fatalf("unexpected loaded model: %#v", loaded)
	}
}

func TestAutoRefitAfterThreshold(t *testing.T) {
	eng, store, cfg := newEngine(t)
	cfg.Cluster.AutoRefitThreshold = 4
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		analyzeTrack(t, eng, store, fmt.Sprintf("t%d", i), testsupport.RawTrack{
			BPM: 100 + 20*float64(i), Key: "8A", DurationSec: 300, Energy: 0.2 + 0.2*float64(i),
		})
	}
	if _, err := eng.RefitClusters(ctx, 2); err != nil {
		t.Fatalf("RefitClusters failed: %v", err)
	}
	fitted, err := eng.Clusters(ctx)
	if err != nil {
		t.Fatalf("Clusters failed: %v", err)
	}
	firstFit := fitted.FittedAt

	// Four fresh analyses cross the threshold; the next read re-fits.
	time.Sleep(10 * time.Millisecond)
	for i := 0; i < 4; i++ {
		analyzeTrack(t, eng, store, fmt.Sprintf("new%d", i), testsupport.RawTrack{
			BPM: 140 + float64(i), Key: "9B", DurationSec: 300, Energy: 0.7,
		})
	}
	refitted, err := eng.Clusters(ctx)
	if err != nil {
		t.Fatalf("Clusters after threshold failed: %v", err)
	}
	if !refitted.FittedAt.After(firstFit) {
		t.Fatal("expected automatic refit after threshold")
	}
}
