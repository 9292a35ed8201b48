// Package compat turns two tracks' tempo, key, and energy into a mix
// compatibility score and a transition recommendation. Scoring is symmetric:
// one record describes an unordered pair of tracks.
package compat

import (
	"fmt"
	"math"

	"mixtape/internal/camelot"
)

// Transition is the categorical mixing recommendation derived from a score.
type Transition string

const (
	// TransitionBlend marks pairs that mix cleanly with a long overlap.
	TransitionBlend Transition = "blend"
	// TransitionFade marks pairs that work with a crossfade but reward care.
	TransitionFade Transition = "fade"
	// TransitionCut marks risky pairs best joined with a hard cut or effect.
	TransitionCut Transition = "cut"
)

// Weights splits the overall score across the three partial scores. The
// shares should sum to 1; Normalized rescales them when they do not.
type Weights struct {
	Harmonic float64
	BPM      float64
	Energy   float64
}

// DefaultWeights favors harmonic fit over tempo fit over energy fit.
func DefaultWeights() Weights {
	return Weights{Harmonic: 0.5, BPM: 0.3, Energy: 0.2}
}

// Normalized rescales the weights to sum to 1. Zero or negative totals fall
// back to the defaults.
func (w Weights) Normalized() Weights {
	total := w.Harmonic + w.BPM + w.Energy
	if total <= 0 {
		return DefaultWeights()
	}
	return Weights{Harmonic: w.Harmonic / total, BPM: w.BPM / total, Energy: w.Energy / total}
}

// Thresholds holds the compatibility cutoffs and the transition
// classification boundaries. All of these are configuration, not algorithm
// constants.
type Thresholds struct {
	// BPMRatioFloor is the minimum min/max tempo ratio considered
	// beatmatchable (0.92 allows roughly an 8% stretch).
	BPMRatioFloor float64
	// HarmonicMaxDistance is the largest wheel distance considered harmonic.
	HarmonicMaxDistance int
	// EnergyMaxDelta is the largest energy gap considered smooth.
	EnergyMaxDelta float64
	// BlendMinScore is the overall score at or above which a harmonically
	// compatible pair classifies as a blend.
	BlendMinScore float64
	// FadeMinScore is the overall score at or above which a pair classifies
	// as a fade rather than a cut.
	FadeMinScore float64
}

// DefaultThresholds returns the standard cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		BPMRatioFloor:       0.92,
		HarmonicMaxDistance: 1,
		EnergyMaxDelta:      0.3,
		BlendMinScore:       0.8,
		FadeMinScore:        0.55,
	}
}

// Profile is the per-track slice of descriptors the scorer needs.
type Profile struct {
	BPM    float64
	Key    camelot.Key
	Energy float64
}

// Record is the scored relationship between two tracks.
type Record struct {
	Score              float64
	HarmonicDistance   int
	HarmonicScore      float64
	HarmonicCompatible bool
	BPMRatio           float64
	BPMScore           float64
	BPMCompatible      bool
	EnergyDelta        float64
	EnergyScore        float64
	EnergyCompatible   bool
	Transition         Transition
}

// Scorer combines harmonic distance, tempo ratio, and energy delta into one
// compatibility figure. Pure and deterministic.
type Scorer struct {
	graph      *camelot.Graph
	weights    Weights
	thresholds Thresholds
}

// NewScorer builds a scorer over the given wheel graph. Zero-valued weights
// or thresholds take the documented defaults.
func NewScorer(graph *camelot.Graph, weights Weights, thresholds Thresholds) *Scorer {
	if thresholds == (Thresholds{}) {
		thresholds = DefaultThresholds()
	}
	return &Scorer{
		graph:      graph,
		weights:    weights.Normalized(),
		thresholds: thresholds,
	}
}

// Score rates the pair. The result is independent of argument order.
func (s *Scorer) Score(a, b Profile) (Record, error) {
	if a.BPM <= 0 || b.BPM <= 0 {
		return Record{}, fmt.Errorf("compat: non-positive bpm (%f, %f)", a.BPM, b.BPM)
	}

	distance, err := s.graph.Distance(a.Key, b.Key)
	if err != nil {
		return Record{}, err
	}

	record := Record{HarmonicDistance: distance}
	record.HarmonicScore = math.Max(0, 1-float64(distance)/float64(camelot.Diameter))
	record.HarmonicCompatible = distance <= s.thresholds.HarmonicMaxDistance

	record.BPMRatio = math.Min(a.BPM, b.BPM) / math.Max(a.BPM, b.BPM)
	record.BPMScore = record.BPMRatio
	record.BPMCompatible = record.BPMRatio > s.thresholds.BPMRatioFloor

	record.EnergyDelta = math.Abs(a.Energy - b.Energy)
	record.EnergyScore = math.Max(0, 1-record.EnergyDelta)
	record.EnergyCompatible = record.EnergyDelta <= s.thresholds.EnergyMaxDelta

	record.Score = clamp01(
		s.weights.Harmonic*record.HarmonicScore +
			s.weights.BPM*record.BPMScore +
			s.weights.Energy*record.EnergyScore)
	record.Transition = s.classify(record)
	return record, nil
}

func (s *Scorer) classify(record Record) Transition {
	switch {
	case record.HarmonicCompatible && record.Score >= s.thresholds.BlendMinScore:
		return TransitionBlend
	case record.Score >= s.thresholds.FadeMinScore:
		return TransitionFade
	default:
		return TransitionCut
	}
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
