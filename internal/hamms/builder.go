package hamms

import (
	"errors"
	"fmt"

	"mixtape/internal/camelot"
)

// ErrIncompleteMetadata reports a track missing the descriptors the vector
// cannot be built without (bpm and key).
var ErrIncompleteMetadata = errors.New("incomplete metadata")

// Default values applied when the import pipeline supplies no measurement.
const (
	defaultEnergy           = 0.5
	defaultDanceability     = 0.5
	defaultValence          = 0.5
	defaultAcousticness     = 0.3
	defaultInstrumentalness = 0.5
	defaultTempoStability   = 0.7
)

// BPM normalization range. Tracks outside it clamp to the interval edges.
const (
	minBPM = 60
	maxBPM = 200
)

// RawFeatures carries the per-track descriptors delivered by the import/DSP
// collaborator. BPM and Key are mandatory; nil optional descriptors take
// documented defaults or genre-derived fallbacks.
type RawFeatures struct {
	BPM         float64
	Key         string
	DurationSec float64
	Genre       string

	// Energy accepts either a [0,1] value or the 1-10 convention used by
	// some tagging tools.
	Energy *float64

	Danceability       *float64
	Valence            *float64
	Acousticness       *float64
	Instrumentalness   *float64
	RhythmicPattern    *float64
	SpectralCentroid   *float64
	TempoStability     *float64
	HarmonicComplexity *float64
	DynamicRange       *float64
}

// Builder converts raw descriptors into normalized feature vectors. It is
// pure and deterministic; construct once and share freely.
type Builder struct {
	fallbacks GenreFallbacks
}

// NewBuilder constructs a Builder using the provided genre fallback table.
func NewBuilder(fallbacks GenreFallbacks) *Builder {
	return &Builder{fallbacks: fallbacks}
}

// Build normalizes the raw descriptors into a 12-dimensional vector. The
// parsed Camelot key is returned alongside so callers persist the normalized
// form rather than the raw label.
func (b *Builder) Build(raw RawFeatures) (Vector, camelot.Key, error) {
	if raw.BPM <= 0 {
		return Vector{}, camelot.Key{}, fmt.Errorf("%w: bpm missing", ErrIncompleteMetadata)
	}
	if raw.Key == "" {
		return Vector{}, camelot.Key{}, fmt.Errorf("%w: key missing", ErrIncompleteMetadata)
	}
	key, err := camelot.Parse(raw.Key)
	if err != nil {
		return Vector{}, camelot.Key{}, err
	}

	energy := NormalizeEnergy(valueOr(raw.Energy, defaultEnergy))

	var vector Vector
	vector[DimBPM] = clamp01((raw.BPM - minBPM) / (maxBPM - minBPM))
	vector[DimKey] = key.Position()
	vector[DimEnergy] = energy
	vector[DimDanceability] = clamp01(valueOr(raw.Danceability, defaultDanceability))
	vector[DimValence] = clamp01(valueOr(raw.Valence, defaultValence))
	vector[DimAcousticness] = clamp01(valueOr(raw.Acousticness, defaultAcousticness))
	vector[DimInstrumentalness] = clamp01(valueOr(raw.Instrumentalness, defaultInstrumentalness))
	vector[DimTempoStability] = clamp01(valueOr(raw.TempoStability, defaultTempoStability))

	if raw.RhythmicPattern != nil {
		vector[DimRhythmicPattern] = clamp01(*raw.RhythmicPattern)
	} else {
		vector[DimRhythmicPattern] = b.fallbacks.rhythmicPattern(raw.Genre, raw.BPM)
	}
	if raw.SpectralCentroid != nil {
		vector[DimSpectralCentroid] = clamp01(*raw.SpectralCentroid)
	} else {
		vector[DimSpectralCentroid] = b.fallbacks.spectralCentroid(raw.Genre, energy)
	}
	if raw.HarmonicComplexity != nil {
		vector[DimHarmonicComplexity] = clamp01(*raw.HarmonicComplexity)
	} else {
		vector[DimHarmonicComplexity] = keyComplexity(key)
	}
	if raw.DynamicRange != nil {
		vector[DimDynamicRange] = clamp01(*raw.DynamicRange)
	} else {
		vector[DimDynamicRange] = b.fallbacks.dynamicRange(raw.Genre)
	}

	return vector, key, nil
}

// NormalizeEnergy maps an energy value onto [0,1]. Values above 1 are
// treated as the 1-10 tagging scale and divided by 10.
func NormalizeEnergy(energy float64) float64 {
	if energy > 1 {
		energy /= 10
	}
	return clamp01(energy)
}

// keyComplexity estimates harmonic complexity from the key signature: minor
// keys read as slightly more complex than major, and each accidental in the
// signature adds a small increment. Camelot numbers sit a fifth apart, so
// the accidental count equals the circular distance from position 8 (C
// major / A minor).
func keyComplexity(key camelot.Key) float64 {
	base := 0.4
	if key.Mode == camelot.ModeMinor {
		base = 0.6
	}
	accidentals := key.Number - 8
	if accidentals < 0 {
		accidentals = -accidentals
	}
	if accidentals > 6 {
		accidentals = 12 - accidentals
	}
	return clamp01(base + float64(accidentals)*0.05)
}

func valueOr(value *float64, fallback float64) float64 {
	if value == nil {
		return fallback
	}
	return *value
}
