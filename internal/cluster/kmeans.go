package cluster

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mixtape/internal/camelot"
	"mixtape/internal/hamms"
)

// ErrInsufficientData reports a fit request with fewer distinct vectors than
// requested clusters.
var ErrInsufficientData = errors.New("insufficient data")

const maxIterations = 100

// Observation is one analyzed track presented to the fitter. BPM, key, and
// energy feed the per-cluster aggregate stats.
type Observation struct {
	TrackID int64
	Vector  hamms.Vector
	BPM     float64
	Key     camelot.Key
	Energy  float64
}

// Cluster is one fitted group with its centroid, membership, and aggregate
// stats for external consumption.
type Cluster struct {
	ID           int
	Label        string
	Centroid     hamms.Vector
	Members      []int64
	AverageBPM   float64
	MeanEnergy   float64
	DominantKeys []string
}

// Model is a complete fit result. Assignments are only meaningful against
// the model they were fitted with; the catalog replaces models wholesale.
type Model struct {
	K        int
	Seed     int64
	FittedAt time.Time
	Clusters []Cluster
}

// Assignment returns the cluster id a track belongs to, or -1 when the
// track was not part of the fit.
func (m *Model) Assignment(trackID int64) int {
	for _, c := range m.Clusters {
		for _, member := range c.Members {
			if member == trackID {
				return c.ID
			}
		}
	}
	return -1
}

// Fit runs seeded k-means++ over the observations. The same observations,
// k, and seed always produce the same model. Requesting more clusters than
// distinct vectors fails with ErrInsufficientData.
func Fit(observations []Observation, k int, seed int64) (*Model, error) {
	if k <= 0 {
		return nil, fmt.Errorf("cluster: k must be positive, got %d", k)
	}
	distinct := countDistinct(observations)
	if distinct < k {
		return nil, fmt.Errorf("%w: %d distinct vectors for k=%d", ErrInsufficientData, distinct, k)
	}

	rng := rand.New(rand.NewSource(seed))
	centroids := seedCentroids(observations, k, rng)
	assignments := make([]int, len(observations))

	for iteration := 0; iteration < maxIterations; iteration++ {
		changed := false
		for i, obs := range observations {
			best := nearestCentroid(obs.Vector, centroids)
			if best != assignments[i] {
				assignments[i] = best
				changed = true
			}
		}
		if !changed && iteration > 0 {
			break
		}
		recomputeCentroids(observations, assignments, centroids)
	}

	return buildModel(observations, assignments, centroids, k, seed), nil
}

func countDistinct(observations []Observation) int {
	seen := make(map[hamms.Vector]struct{}, len(observations))
	for _, obs := range observations {
		seen[obs.Vector] = struct{}{}
	}
	return len(seen)
}

// seedCentroids implements k-means++ initialization: the first centroid is
// uniform, each subsequent one is drawn proportionally to squared distance
// from the nearest centroid chosen so far.
func seedCentroids(observations []Observation, k int, rng *rand.Rand) []hamms.Vector {
	centroids := make([]hamms.Vector, 0, k)
	centroids = append(centroids, observations[rng.Intn(len(observations))].Vector)

	distances := make([]float64, len(observations))
	for len(centroids) < k {
		var total float64
		for i, obs := range observations {
			nearest := math.MaxFloat64
			for _, centroid := range centroids {
				if d := squaredDistance(obs.Vector, centroid); d < nearest {
					nearest = d
				}
			}
			distances[i] = nearest
			total += nearest
		}
		if total == 0 {
			// Remaining points coincide with existing centroids; distinct
			// count has been checked, so pick any unused vector.
			centroids = append(centroids, firstUnused(observations, centroids))
			continue
		}
		target := rng.Float64() * total
		var cumulative float64
		picked := len(observations) - 1
		for i, d := range distances {
			cumulative += d
			if cumulative >= target {
				picked = i
				break
			}
		}
		centroids = append(centroids, observations[picked].Vector)
	}
	return centroids
}

func firstUnused(observations []Observation, centroids []hamms.Vector) hamms.Vector {
	used := make(map[hamms.Vector]struct{}, len(centroids))
	for _, c := range centroids {
		used[c] = struct{}{}
	}
	for _, obs := range observations {
		if _, ok := used[obs.Vector]; !ok {
			return obs.Vector
		}
	}
	return observations[0].Vector
}

func nearestCentroid(vector hamms.Vector, centroids []hamms.Vector) int {
	best := 0
	bestDistance := math.MaxFloat64
	for i, centroid := range centroids {
		if d := squaredDistance(vector, centroid); d < bestDistance {
			bestDistance = d
			best = i
		}
	}
	return best
}

func recomputeCentroids(observations []Observation, assignments []int, centroids []hamms.Vector) {
	counts := make([]int, len(centroids))
	sums := make([][hamms.Dimensions]float64, len(centroids))
	for i, obs := range observations {
		cluster := assignments[i]
		counts[cluster]++
		for d := range obs.Vector {
			sums[cluster][d] += obs.Vector[d]
		}
	}
	for c := range centroids {
		if counts[c] == 0 {
			continue
		}
		for d := range centroids[c] {
			centroids[c][d] = sums[c][d] / float64(counts[c])
		}
	}
}

func squaredDistance(a, b hamms.Vector) float64 {
	var sum float64
	for i := range a {
		delta := a[i] - b[i]
		sum += delta * delta
	}
	return sum
}

func buildModel(observations []Observation, assignments []int, centroids []hamms.Vector, k int, seed int64) *Model {
	model := &Model{K: k, Seed: seed, FittedAt: time.Now().UTC()}
	titler := cases.Title(language.English)

	for c := 0; c < k; c++ {
		fitted := Cluster{ID: c, Centroid: centroids[c]}
		var bpmSum, energySum float64
		keyCounts := make(map[string]int)

		for i, obs := range observations {
			if assignments[i] != c {
				continue
			}
			fitted.Members = append(fitted.Members, obs.TrackID)
			bpmSum += obs.BPM
			energySum += obs.Energy
			keyCounts[obs.Key.String()]++
		}
		if n := len(fitted.Members); n > 0 {
			sort.Slice(fitted.Members, func(i, j int) bool { return fitted.Members[i] < fitted.Members[j] })
			fitted.AverageBPM = bpmSum / float64(n)
			fitted.MeanEnergy = energySum / float64(n)
			fitted.DominantKeys = dominantKeys(keyCounts, 3)
		}
		fitted.Label = titler.String(describeCentroid(fitted))
		model.Clusters = append(model.Clusters, fitted)
	}
	return model
}

func dominantKeys(counts map[string]int, limit int) []string {
	type keyCount struct {
		key   string
		count int
	}
	ranked := make([]keyCount, 0, len(counts))
	for key, count := range counts {
		ranked = append(ranked, keyCount{key, count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].key < ranked[j].key
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	keys := make([]string, len(ranked))
	for i, kc := range ranked {
		keys[i] = kc.key
	}
	return keys
}

// describeCentroid produces a human label from the cluster's tempo and
// energy bands, e.g. "fast peak-time" or "slow warm-up".
func describeCentroid(c Cluster) string {
	if len(c.Members) == 0 {
		return "empty"
	}
	var tempo string
	switch {
	case c.AverageBPM < 100:
		tempo = "slow"
	case c.AverageBPM < 126:
		tempo = "mid-tempo"
	case c.AverageBPM < 140:
		tempo = "fast"
	default:
		tempo = "high-tempo"
	}
	var energy string
	switch {
	case c.MeanEnergy < 0.35:
		energy = "warm-up"
	case c.MeanEnergy < 0.65:
		energy = "groove"
	default:
		energy = "peak-time"
	}
	return tempo + " " + energy
}
