package hamms

import "strings"

// GenreFallbacks supplies descriptor values keyed by genre label for tracks
// whose import metadata lacks measured descriptors. Values are stylistic
// estimates, not signal measurements.
type GenreFallbacks struct {
	RhythmicPattern  map[string]float64
	SpectralCentroid map[string]float64
	DynamicRange     map[string]float64
}

// DefaultGenreFallbacks returns the built-in estimate table covering the
// club genres the engine was tuned on.
func DefaultGenreFallbacks() GenreFallbacks {
	return GenreFallbacks{
		RhythmicPattern: map[string]float64{
			"house":       0.6,
			"techno":      0.7,
			"drum & bass": 0.9,
			"hip hop":     0.8,
			"dubstep":     0.85,
			"trance":      0.65,
			"progressive": 0.75,
			"deep house":  0.55,
			"tech house":  0.7,
			"breaks":      0.85,
		},
		SpectralCentroid: map[string]float64{
			"house":       0.6,
			"techno":      0.5,
			"drum & bass": 0.8,
			"trance":      0.7,
			"ambient":     0.3,
			"deep house":  0.4,
			"progressive": 0.65,
		},
		DynamicRange: map[string]float64{
			"classical":   0.9,
			"jazz":        0.8,
			"acoustic":    0.75,
			"rock":        0.6,
			"electronic":  0.4,
			"house":       0.35,
			"techno":      0.3,
			"drum & bass": 0.45,
			"ambient":     0.7,
		},
	}
}

func lookupFallback(table map[string]float64, genre string, fallback float64) float64 {
	if value, ok := table[strings.ToLower(strings.TrimSpace(genre))]; ok {
		return value
	}
	return fallback
}

// rhythmicPattern estimates beat-structure complexity from genre, nudged by
// tempo: faster material tends toward denser patterns.
func (f GenreFallbacks) rhythmicPattern(genre string, bpm float64) float64 {
	base := lookupFallback(f.RhythmicPattern, genre, 0.5)
	var factor float64
	switch {
	case bpm < 100:
		factor = 0.9
	case bpm < 128:
		factor = 1.0
	case bpm < 140:
		factor = 1.1
	default:
		factor = 1.2
	}
	return clamp01(base * factor)
}

// spectralCentroid estimates brightness as the mean of the genre's typical
// brightness and the track's energy.
func (f GenreFallbacks) spectralCentroid(genre string, energy float64) float64 {
	base := lookupFallback(f.SpectralCentroid, genre, 0.5)
	return clamp01((base + energy) / 2)
}

func (f GenreFallbacks) dynamicRange(genre string) float64 {
	return lookupFallback(f.DynamicRange, genre, 0.5)
}
