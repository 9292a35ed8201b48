package playlist

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"mixtape/internal/compat"
)

// surpriseBound caps the randomized share of a candidate's score. Keeping
// it small preserves the greedy ranking while breaking ties differently
// between runs.
const surpriseBound = 0.1

// Blend between pair compatibility and energy-curve fit when ranking
// candidates.
const (
	compatibilityShare = 0.7
	curveFitShare      = 0.3
)

// defaultOpenerTolerance bounds how far the opening track's energy may sit
// from the curve's initial target before the generator falls back to the
// closest available track.
const defaultOpenerTolerance = 0.2

// ErrEmptyPool reports generation against a library with no eligible tracks.
var ErrEmptyPool = errors.New("playlist: no eligible tracks")

// Candidate is one track eligible for sequencing.
type Candidate struct {
	TrackID     int64
	Title       string
	Artist      string
	DurationSec float64
	Genre       string
	Profile     compat.Profile
}

// Constraint is a caller-supplied hard filter over candidates (genre, label,
// era). A nil constraint admits everything.
type Constraint func(Candidate) bool

// Params describes one generation request.
type Params struct {
	// SeedTrackID opens the set when non-zero; otherwise the generator
	// picks an opener matching the curve's initial energy target.
	SeedTrackID    int64
	TargetDuration time.Duration
	Curve          CurveShape
	Constraint     Constraint `json:"-"`
	// SurpriseSeed drives the bounded randomized score component. Zero
	// means seed from the clock; fix it for reproducible output.
	SurpriseSeed int64
	// OpenerTolerance overrides defaultOpenerTolerance when positive.
	OpenerTolerance float64
}

// Transition records the scored hop between two adjacent playlist tracks.
type Transition struct {
	FromTrackID int64
	ToTrackID   int64
	Record      compat.Record
}

// Playlist is an ordered set with per-transition scores and the parameters
// that produced it.
type Playlist struct {
	ID          string
	GeneratedAt time.Time
	Tracks      []Candidate
	Transitions []Transition
	Params      Params
	// TotalDuration accumulates the chosen tracks. It lands within one
	// track of the target unless the candidate pool ran out first.
	TotalDuration time.Duration
}

// Generator sequences tracks greedily with single-step lookahead. Output is
// not globally optimal; each hop is locally best under the hard filter,
// which is the documented trade-off.
type Generator struct {
	scorer *compat.Scorer
}

// NewGenerator builds a generator over the given scorer.
func NewGenerator(scorer *compat.Scorer) *Generator {
	return &Generator{scorer: scorer}
}

// Generate builds an ordered playlist from the candidate pool. Every
// adjacent pair in the result passes the hard compatibility filter (bpm or
// harmonic compatibility plus the caller constraint). Running out of
// eligible candidates before reaching the duration target ends the set
// early; that is a normal outcome, not an error.
func (g *Generator) Generate(pool []Candidate, params Params) (*Playlist, error) {
	if params.TargetDuration <= 0 {
		return nil, fmt.Errorf("playlist: target duration must be positive, got %v", params.TargetDuration)
	}
	eligible := filterPool(pool, params.Constraint)
	if len(eligible) == 0 {
		return nil, ErrEmptyPool
	}

	seed := params.SurpriseSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	result := &Playlist{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Params:      params,
	}

	current, err := g.pickOpener(eligible, params)
	if err != nil {
		return nil, err
	}
	used := map[int64]struct{}{current.TrackID: {}}
	result.Tracks = append(result.Tracks, current)
	result.TotalDuration = secondsToDuration(current.DurationSec)

	for result.TotalDuration < params.TargetDuration {
		position := float64(result.TotalDuration) / float64(params.TargetDuration)
		target := params.Curve.Target(position)

		next, record, found := g.pickNext(eligible, used, current, target, rng)
		if !found {
			break
		}
		result.Transitions = append(result.Transitions, Transition{
			FromTrackID: current.TrackID,
			ToTrackID:   next.TrackID,
			Record:      record,
		})
		result.Tracks = append(result.Tracks, next)
		result.TotalDuration += secondsToDuration(next.DurationSec)
		used[next.TrackID] = struct{}{}
		current = next
	}

	return result, nil
}

func filterPool(pool []Candidate, constraint Constraint) []Candidate {
	eligible := make([]Candidate, 0, len(pool))
	for _, candidate := range pool {
		if candidate.DurationSec <= 0 || candidate.Profile.BPM <= 0 || !candidate.Profile.Key.Valid() {
			continue
		}
		if constraint != nil && !constraint(candidate) {
			continue
		}
		eligible = append(eligible, candidate)
	}
	return eligible
}

func (g *Generator) pickOpener(eligible []Candidate, params Params) (Candidate, error) {
	if params.SeedTrackID != 0 {
		for _, candidate := range eligible {
			if candidate.TrackID == params.SeedTrackID {
				return candidate, nil
			}
		}
		return Candidate{}, fmt.Errorf("playlist: seed track %d not in eligible pool", params.SeedTrackID)
	}

	tolerance := params.OpenerTolerance
	if tolerance <= 0 {
		tolerance = defaultOpenerTolerance
	}
	target := params.Curve.Target(0)

	within := make([]Candidate, 0, len(eligible))
	for _, candidate := range eligible {
		if energyDelta(candidate, target) <= tolerance {
			within = append(within, candidate)
		}
	}
	// When nothing sits within tolerance, the closest track still opens:
	// a warm-up set built from a peak-time library starts as low as the
	// library allows.
	source := within
	if len(source) == 0 {
		source = eligible
	}

	best := source[0]
	bestDelta := energyDelta(best, target)
	for _, candidate := range source[1:] {
		if delta := energyDelta(candidate, target); delta < bestDelta {
			best = candidate
			bestDelta = delta
		}
	}
	return best, nil
}

// pickNext scores the remaining pool against the current track and the
// curve target, returning the best candidate that passes the hard filter.
func (g *Generator) pickNext(eligible []Candidate, used map[int64]struct{}, current Candidate, target float64, rng *rand.Rand) (Candidate, compat.Record, bool) {
	var (
		best       Candidate
		bestRecord compat.Record
		bestScore  = -1.0
		found      bool
	)
	for _, candidate := range eligible {
		if _, taken := used[candidate.TrackID]; taken {
			continue
		}
		record, err := g.scorer.Score(current.Profile, candidate.Profile)
		if err != nil {
			continue
		}
		if !record.BPMCompatible && !record.HarmonicCompatible {
			continue
		}

		curveFit := 1 - energyDelta(candidate, target)
		score := compatibilityShare*record.Score + curveFitShare*curveFit
		score += rng.Float64() * surpriseBound * score

		if score > bestScore {
			best = candidate
			bestRecord = record
			bestScore = score
			found = true
		}
	}
	return best, bestRecord, found
}

func energyDelta(candidate Candidate, target float64) float64 {
	delta := candidate.Profile.Energy - target
	if delta < 0 {
		delta = -delta
	}
	return delta
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
