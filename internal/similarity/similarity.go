// Package similarity scores how alike two feature vectors are. The blend of
// weighted euclidean similarity (magnitude across all dimensions) and cosine
// similarity (profile shape independent of magnitude) gives a single overall
// figure while the per-dimension breakdown supports UI drill-down.
package similarity

import (
	"math"

	"mixtape/internal/hamms"
)

// Blend coefficients for the overall score. Euclidean dominates because DJs
// care about absolute differences in tempo and energy, not just profile
// shape.
const (
	euclideanShare = 0.6
	cosineShare    = 0.4
)

// Result reports similarity between two vectors. All fields lie in [0,1].
type Result struct {
	Overall      float64
	Euclidean    float64
	Cosine       float64
	PerDimension map[string]float64
}

// Engine computes vector similarity under a fixed weight profile. It is pure
// and deterministic, so results are safe to cache by vector pair.
type Engine struct {
	weights     hamms.Weights
	maxDistance float64
}

// NewEngine precomputes the maximum weighted distance (the distance between
// the all-zero and all-one vectors after weighting) used to normalize
// euclidean similarity.
func NewEngine(weights hamms.Weights) *Engine {
	var sum float64
	for _, weight := range weights {
		sum += weight * weight
	}
	return &Engine{weights: weights, maxDistance: math.Sqrt(sum)}
}

// Compare scores two vectors. Reflexive (Compare(v, v).Overall == 1) and
// symmetric.
func (e *Engine) Compare(a, b hamms.Vector) Result {
	wa := a.Weighted(e.weights)
	wb := b.Weighted(e.weights)

	var squaredDelta, dot, normA, normB float64
	for i := range wa {
		delta := wa[i] - wb[i]
		squaredDelta += delta * delta
		dot += wa[i] * wb[i]
		normA += wa[i] * wa[i]
		normB += wb[i] * wb[i]
	}

	euclidean := 1 - clamp01(math.Sqrt(squaredDelta)/e.maxDistance)

	var cosine float64
	switch {
	case normA > 0 && normB > 0:
		cosine = clamp01(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
	case normA == 0 && normB == 0:
		// Two zero vectors are indistinguishable; keep Compare reflexive.
		cosine = 1
	}

	names := hamms.DimensionNames()
	perDimension := make(map[string]float64, hamms.Dimensions)
	for i := range names {
		delta := math.Abs(a[i] - b[i])
		perDimension[names[i]] = clamp01(1 - delta)
	}

	return Result{
		Overall:      clamp01(euclidean*euclideanShare + cosine*cosineShare),
		Euclidean:    euclidean,
		Cosine:       cosine,
		PerDimension: perDimension,
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
