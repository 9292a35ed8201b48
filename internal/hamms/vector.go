package hamms

// Dimensions is the fixed length of a feature vector.
const Dimensions = 12

// Dimension indexes a component of a feature vector.
type Dimension int

const (
	DimBPM Dimension = iota
	DimKey
	DimEnergy
	DimDanceability
	DimValence
	DimAcousticness
	DimInstrumentalness
	DimRhythmicPattern
	DimSpectralCentroid
	DimTempoStability
	DimHarmonicComplexity
	DimDynamicRange
)

var dimensionNames = [Dimensions]string{
	"bpm",
	"key",
	"energy",
	"danceability",
	"valence",
	"acousticness",
	"instrumentalness",
	"rhythmic_pattern",
	"spectral_centroid",
	"tempo_stability",
	"harmonic_complexity",
	"dynamic_range",
}

// String returns the stable name used in logs and per-dimension reports.
func (d Dimension) String() string {
	if d < 0 || int(d) >= Dimensions {
		return "unknown"
	}
	return dimensionNames[d]
}

// DimensionNames returns the ordered component names.
func DimensionNames() [Dimensions]string {
	return dimensionNames
}

// Vector is a 12-dimensional track feature vector. Components are always
// clamped to [0,1].
type Vector [Dimensions]float64

// Weights expresses the fixed per-dimension importance applied before any
// distance computation. Key and bpm matter most for mixing; acoustic
// character dimensions matter least.
type Weights [Dimensions]float64

// DefaultWeights returns the standard dimension weights.
func DefaultWeights() Weights {
	return Weights{
		DimBPM:                1.3,
		DimKey:                1.4,
		DimEnergy:             1.2,
		DimDanceability:       0.9,
		DimValence:            0.8,
		DimAcousticness:       0.6,
		DimInstrumentalness:   0.5,
		DimRhythmicPattern:    1.1,
		DimSpectralCentroid:   0.7,
		DimTempoStability:     0.9,
		DimHarmonicComplexity: 0.8,
		DimDynamicRange:       0.6,
	}
}

// Weighted returns the elementwise product of the vector and the weights.
func (v Vector) Weighted(w Weights) Vector {
	var out Vector
	for i := range v {
		out[i] = v[i] * w[i]
	}
	return out
}

// Valid reports whether every component lies in [0,1].
func (v Vector) Valid() bool {
	for _, component := range v {
		if component < 0 || component > 1 {
			return false
		}
	}
	return true
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
