package catalog

import (
	"errors"
	"time"

	"mixtape/internal/camelot"
	"mixtape/internal/compat"
	"mixtape/internal/hamms"
)

// VectorAlgorithmVersion identifies the current feature model. Stored
// vectors carry the version they were computed under; a bump invalidates
// them and re-analysis overwrites in place.
const VectorAlgorithmVersion = 3

// timestampLayout is the format for timestamps stored in the database.
const timestampLayout = time.RFC3339Nano

var (
	// ErrStoreClosed reports a submit against a closed store.
	ErrStoreClosed = errors.New("catalog: store closed")
	// ErrQueueSaturated reports a non-blocking submit against a full
	// write lane.
	ErrQueueSaturated = errors.New("catalog: write queue saturated")
	// ErrTrackNotFound reports a lookup for an id the catalog does not hold.
	ErrTrackNotFound = errors.New("catalog: track not found")
	// ErrPlaylistNotFound reports a lookup for an unknown playlist id.
	ErrPlaylistNotFound = errors.New("catalog: playlist not found")
	// ErrNoVector reports a track that has no valid feature vector, either
	// because analysis never ran, failed, or the algorithm version moved on.
	ErrNoVector = errors.New("catalog: no feature vector")
	// ErrStaleClusterModel reports a cluster query before any fit has run.
	ErrStaleClusterModel = errors.New("catalog: no cluster model fitted")
)

// Priority orders mutations and analysis tasks. Interactive work preempts
// queued batch work.
type Priority int

const (
	PriorityBatch Priority = iota
	PriorityInteractive
)

func (p Priority) String() string {
	if p == PriorityInteractive {
		return "interactive"
	}
	return "batch"
}

// Track is a library entry. Raw descriptors arrive from the import
// collaborator and are read-only here; the engine only adds derived data.
type Track struct {
	ID          int64
	Title       string
	Artist      string
	Genre       string
	DurationSec float64

	Raw hamms.RawFeatures

	CreatedAt time.Time
	UpdatedAt time.Time
}

// VectorRecord is a persisted feature vector with its provenance.
type VectorRecord struct {
	TrackID   int64
	Vector    hamms.Vector
	Key       camelot.Key
	BPM       float64
	Energy    float64
	Version   int
	CreatedAt time.Time
}

// Profile projects the record into the scorer's input shape.
func (r VectorRecord) Profile() compat.Profile {
	return compat.Profile{BPM: r.BPM, Key: r.Key, Energy: r.Energy}
}

// PairKey identifies an unordered track pair. Normalize orders the ids so
// one symmetric record covers both directions.
type PairKey struct {
	Low  int64
	High int64
}

// NewPairKey normalizes two track ids into a PairKey.
func NewPairKey(a, b int64) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{Low: a, High: b}
}

// CompatibilityRow is a cached scored pair.
type CompatibilityRow struct {
	Pair      PairKey
	Record    compat.Record
	CreatedAt time.Time
}

// Stats summarizes catalog contents for status output.
type Stats struct {
	Tracks        int
	Analyzed      int
	CachedPairs   int
	Clusters      int
	Playlists     int
	PendingWrites int
}
