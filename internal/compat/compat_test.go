package compat_test

import (
	"math"
	"testing"

	"mixtape/internal/camelot"
	"mixtape/internal/compat"
)

func newScorer() *compat.Scorer {
	return compat.NewScorer(camelot.NewGraph(), compat.DefaultWeights(), compat.DefaultThresholds())
}

func TestScoreAdjacentTracksBlend(t *testing.T) {
	scorer := newScorer()
	a := compat.Profile{BPM: 124, Key: camelot.MustParse("8A"), Energy: 0.68}
	b := compat.Profile{BPM: 128, Key: camelot.MustParse("9A"), Energy: 0.60}

	record, err := scorer.Score(a, b)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if record.HarmonicDistance != 1 {
		t.Fatalf("harmonic distance = %d, want 1", record.HarmonicDistance)
	}
	if !record.BPMCompatible {
		t.Fatalf("bpm ratio %f should be compatible", record.BPMRatio)
	}
	if math.Abs(record.BPMRatio-0.96875) > 1e-9 {
		t.Fatalf("bpm ratio = %f, want 0.96875", record.BPMRatio)
	}
	if !record.EnergyCompatible || math.Abs(record.EnergyDelta-0.08) > 1e-9 {
		t.Fatalf("energy delta = %f, want compatible 0.08", record.EnergyDelta)
	}
	if record.Score < 0.85 || record.Score > 1 {
		t.Fatalf("score = %f, want high compatibility", record.Score)
	}
	if record.Transition != compat.TransitionBlend {
		t.Fatalf("transition = %s, want blend", record.Transition)
	}
}

func TestScoreBPMFloor(t *testing.T) {
	scorer := newScorer()
	key := camelot.MustParse("8A")

	near, err := scorer.Score(
		compat.Profile{BPM: 124, Key: key, Energy: 0.5},
		compat.Profile{BPM: 128, Key: key, Energy: 0.5},
	)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if !near.BPMCompatible {
		t.Fatalf("124/128 should be bpm compatible (ratio %f)", near.BPMRatio)
	}

	far, err := scorer.Score(
		compat.Profile{BPM: 100, Key: key, Energy: 0.5},
		compat.Profile{BPM: 130, Key: key, Energy: 0.5},
	)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if far.BPMCompatible {
		t.Fatalf("100/130 should not be bpm compatible (ratio %f)", far.BPMRatio)
	}
}

func TestScoreSymmetricAndBounded(t *testing.T) {
	scorer := newScorer()
	profiles := []compat.Profile{
		{BPM: 90, Key: camelot.MustParse("1A"), Energy: 0.1},
		{BPM: 128, Key: camelot.MustParse("8B"), Energy: 0.7},
		{BPM: 174, Key: camelot.MustParse("2A"), Energy: 0.95},
		{BPM: 122, Key: camelot.MustParse("7B"), Energy: 0.4},
	}
	for _, a := range profiles {
		for _, b := range profiles {
			ab, err := scorer.Score(a, b)
			if err != nil {
				t.Fatalf("Score failed: %v", err)
			}
			ba, err := scorer.Score(b, a)
			if err != nil {
				t.Fatalf("Score failed: %v", err)
			}
			if math.Abs(ab.Score-ba.Score) > 1e-9 || ab.Transition != ba.Transition {
				t.Fatalf("score not symmetric for %+v/%+v", a, b)
			}
			if ab.Score < 0 || ab.Score > 1 {
				t.Fatalf("score outside [0,1]: %f", ab.Score)
			}
			if ab.HarmonicDistance < 0 || ab.HarmonicDistance > camelot.Diameter {
				t.Fatalf("harmonic distance outside graph bounds: %d", ab.HarmonicDistance)
			}
		}
	}
}

func TestScoreDistantPairCuts(t *testing.T) {
	scorer := newScorer()
	record, err := scorer.Score(
		compat.Profile{BPM: 90, Key: camelot.MustParse("8A"), Energy: 0.2},
		compat.Profile{BPM: 160, Key: camelot.MustParse("2A"), Energy: 0.95},
	)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if record.Transition != compat.TransitionCut {
		t.Fatalf("transition = %s, want cut (score %f)", record.Transition, record.Score)
	}
}

func TestScoreIdenticalTracks(t *testing.T) {
	scorer := newScorer()
	profile := compat.Profile{BPM: 126, Key: camelot.MustParse("5B"), Energy: 0.6}
	record, err := scorer.Score(profile, profile)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if math.Abs(record.Score-1) > 1e-9 {
		t.Fatalf("identical tracks score = %f, want 1", record.Score)
	}
	if record.Transition != compat.TransitionBlend {
		t.Fatalf("identical tracks transition = %s, want blend", record.Transition)
	}
}

func TestWeightsNormalized(t *testing.T) {
	weights := compat.Weights{Harmonic: 5, BPM: 3, Energy: 2}.Normalized()
	if math.Abs(weights.Harmonic-0.5) > 1e-9 || math.Abs(weights.BPM-0.3) > 1e-9 || math.Abs(weights.Energy-0.2) > 1e-9 {
		t.Fatalf("unexpected normalization: %+v", weights)
	}
	fallback := compat.Weights{}.Normalized()
	if fallback != compat.DefaultWeights() {
		t.Fatalf("zero weights should fall back to defaults, got %+v", fallback)
	}
}
