package playlist_test

import (
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"
	"time"

	"mixtape/internal/camelot"
	"mixtape/internal/compat"
	"mixtape/internal/playlist"
)

func newGenerator() *playlist.Generator {
	scorer := compat.NewScorer(camelot.NewGraph(), compat.DefaultWeights(), compat.DefaultThresholds())
	return playlist.NewGenerator(scorer)
}

// syntheticLibrary spreads bpm uniformly over [118,132] with all 24 keys
// represented and energies across the full range.
func syntheticLibrary(n int, seed int64) []playlist.Candidate {
	rng := rand.New(rand.NewSource(seed))
	keys := camelot.AllKeys()
	genres := []string{"House", "Techno", "Deep House", "Trance"}
	candidates := make([]playlist.Candidate, 0, n)
	for i := 0; i < n; i++ {
		candidates = append(candidates, playlist.Candidate{
			TrackID:     int64(i + 1),
			Title:       "Track",
			DurationSec: 240 + rng.Float64()*120,
			Genre:       genres[i%len(genres)],
			Profile: compat.Profile{
				BPM:    118 + rng.Float64()*14,
				Key:    keys[i%len(keys)],
				Energy: rng.Float64(),
			},
		})
	}
	return candidates
}

func TestGenerateMeetsDurationTarget(t *testing.T) {
	gen := newGenerator()
	library := syntheticLibrary(500, 1)
	target := 60 * time.Minute

	result, err := gen.Generate(library, playlist.Params{
		TargetDuration: target,
		Curve:          playlist.CurveAscending,
		SurpriseSeed:   42,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(result.Tracks) == 0 {
		t.Fatal("expected non-empty playlist")
	}
	// Tolerance: the generator stops once the target is reached, so any
	// overshoot is bounded by one track.
	longest := time.Duration(0)
	for _, track := range result.Tracks {
		if d := time.Duration(track.DurationSec * float64(time.Second)); d > longest {
			longest = d
		}
	}
	if result.TotalDuration < target || result.TotalDuration > target+longest {
		t.Fatalf("total duration %v outside [%v, %v]", result.TotalDuration, target, target+longest)
	}
}

func TestGenerateAdjacentPairsPassHardFilter(t *testing.T) {
	gen := newGenerator()
	scorer := compat.NewScorer(camelot.NewGraph(), compat.DefaultWeights(), compat.DefaultThresholds())

	for _, seed := range []int64{1, 2, 3, 4, 5} {
		library := syntheticLibrary(200, seed)
		result, err := gen.Generate(library, playlist.Params{
			TargetDuration: 45 * time.Minute,
			Curve:          playlist.CurveWave,
			SurpriseSeed:   seed,
		})
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if len(result.Transitions) != len(result.Tracks)-1 {
			t.Fatalf("expected %d transitions, got %d", len(result.Tracks)-1, len(result.Transitions))
		}
		for i := 1; i < len(result.Tracks); i++ {
			record, err := scorer.Score(result.Tracks[i-1].Profile, result.Tracks[i].Profile)
			if err != nil {
				t.Fatalf("Score failed: %v", err)
			}
			if !record.BPMCompatible && !record.HarmonicCompatible {
				t.Fatalf("seed %d: adjacent pair %d/%d fails hard filter", seed, i-1, i)
			}
		}
	}
}

func TestGenerateNoRepeats(t *testing.T) {
	gen := newGenerator()
	result, err := gen.Generate(syntheticLibrary(100, 9), playlist.Params{
		TargetDuration: 90 * time.Minute,
		Curve:          playlist.CurveFlat,
		SurpriseSeed:   9,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	seen := make(map[int64]struct{})
	for _, track := range result.Tracks {
		if _, dup := seen[track.TrackID]; dup {
			t.Fatalf("track %d repeated", track.TrackID)
		}
		seen[track.TrackID] = struct{}{}
	}
}

func TestGeneratePeakCurveShape(t *testing.T) {
	gen := newGenerator()
	library := syntheticLibrary(500, 17)

	result, err := gen.Generate(library, playlist.Params{
		TargetDuration: 60 * time.Minute,
		Curve:          playlist.CurvePeak,
		SurpriseSeed:   17,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(result.Tracks) < 6 {
		t.Fatalf("peak playlist too short for shape check: %d tracks", len(result.Tracks))
	}

	third := len(result.Tracks) / 3
	opening := averageEnergy(result.Tracks[:third])
	middle := averageEnergy(result.Tracks[third : 2*third])
	closing := averageEnergy(result.Tracks[2*third:])

	if middle <= opening || middle <= closing {
		t.Fatalf("peak curve not honored: opening %.2f, middle %.2f, closing %.2f", opening, middle, closing)
	}
}

func averageEnergy(tracks []playlist.Candidate) float64 {
	var sum float64
	for _, track := range tracks {
		sum += track.Profile.Energy
	}
	return sum / float64(len(tracks))
}

func TestGenerateReproducibleWithFixedSeed(t *testing.T) {
	gen := newGenerator()
	library := syntheticLibrary(150, 23)
	params := playlist.Params{
		TargetDuration: 30 * time.Minute,
		Curve:          playlist.CurveDescending,
		SurpriseSeed:   99,
	}

	first, err := gen.Generate(library, params)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	second, err := gen.Generate(library, params)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(first.Tracks) != len(second.Tracks) {
		t.Fatalf("runs differ in length: %d vs %d", len(first.Tracks), len(second.Tracks))
	}
	for i := range first.Tracks {
		if first.Tracks[i].TrackID != second.Tracks[i].TrackID {
			t.Fatalf("runs diverge at position %d", i)
		}
	}
}

func TestGenerateHonorsConstraint(t *testing.T) {
	gen := newGenerator()
	library := syntheticLibrary(200, 31)

	result, err := gen.Generate(library, playlist.Params{
		TargetDuration: 30 * time.Minute,
		Curve:          playlist.CurveFlat,
		SurpriseSeed:   31,
		Constraint: func(c playlist.Candidate) bool {
			return strings.Contains(c.Genre, "House")
		},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	for _, track := range result.Tracks {
		if !strings.Contains(track.Genre, "House") {
			t.Fatalf("constraint violated by genre %q", track.Genre)
		}
	}
}

func TestGenerateSeedTrackOpensSet(t *testing.T) {
	gen := newGenerator()
	library := syntheticLibrary(50, 37)

	result, err := gen.Generate(library, playlist.Params{
		SeedTrackID:    7,
		TargetDuration: 20 * time.Minute,
		Curve:          playlist.CurveAscending,
		SurpriseSeed:   37,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Tracks[0].TrackID != 7 {
		t.Fatalf("expected seed track to open, got %d", result.Tracks[0].TrackID)
	}
}

func TestGenerateEmptyPool(t *testing.T) {
	gen := newGenerator()
	_, err := gen.Generate(nil, playlist.Params{
		TargetDuration: 30 * time.Minute,
		Curve:          playlist.CurveFlat,
	})
	if !errors.Is(err, playlist.ErrEmptyPool) {
		t.Fatalf("got %v, want ErrEmptyPool", err)
	}
}

func TestGenerateExhaustedPoolEndsEarly(t *testing.T) {
	gen := newGenerator()
	// Ten tracks cannot fill three hours; early termination is normal.
	result, err := gen.Generate(syntheticLibrary(10, 41), playlist.Params{
		TargetDuration: 3 * time.Hour,
		Curve:          playlist.CurveFlat,
		SurpriseSeed:   41,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(result.Tracks) == 0 || len(result.Tracks) > 10 {
		t.Fatalf("unexpected track count %d", len(result.Tracks))
	}
	if result.TotalDuration >= 3*time.Hour {
		t.Fatal("ten tracks cannot reach three hours")
	}
}

func TestCurveTargets(t *testing.T) {
	cases := []struct {
		shape    playlist.CurveShape
		t        float64
		expected float64
	}{
		{playlist.CurveAscending, 0, 0.3},
		{playlist.CurveAscending, 1, 0.9},
		{playlist.CurveDescending, 0, 0.9},
		{playlist.CurveDescending, 1, 0.3},
		{playlist.CurvePeak, 0.5, 0.9},
		{playlist.CurvePeak, 0, 0.3},
		{playlist.CurvePeak, 1, 0.3},
		{playlist.CurveWave, 0.25, 0.9},
		{playlist.CurveWave, 0.5, 0.3},
		{playlist.CurveFlat, 0.42, 0.6},
	}
	for _, tc := range cases {
		if got := tc.shape.Target(tc.t); math.Abs(got-tc.expected) > 1e-9 {
			t.Fatalf("%s.Target(%.2f) = %f, want %f", tc.shape, tc.t, got, tc.expected)
		}
	}
}

func TestParseCurveShape(t *testing.T) {
	shape, err := playlist.ParseCurveShape(" Peak ")
	if err != nil || shape != playlist.CurvePeak {
		t.Fatalf("ParseCurveShape = %v, %v", shape, err)
	}
	if _, err := playlist.ParseCurveShape("spiky"); err == nil {
		t.Fatal("expected error for unknown shape")
	}
}
