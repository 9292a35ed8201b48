package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"

	"mixtape/internal/analysis"
	"mixtape/internal/camelot"
	"mixtape/internal/catalog"
	"mixtape/internal/cluster"
	"mixtape/internal/compat"
	"mixtape/internal/config"
	"mixtape/internal/hamms"
	"mixtape/internal/logging"
	"mixtape/internal/playlist"
	"mixtape/internal/similarity"
)

// Engine ties the catalog, the analysis pool, and the scoring components
// into the single entry point the CLI and embedding callers use.
type Engine struct {
	cfg       *config.Config
	store     *catalog.Store
	logger    *slog.Logger
	scheduler *analysis.Scheduler
	scorer    *compat.Scorer
	sim       *similarity.Engine
	generator *playlist.Generator

	// flight collapses concurrent cache misses for the same pair into one
	// computation.
	flight singleflight.Group
}

// New constructs an engine over an open store. Call Start before submitting
// analysis work.
func New(cfg *config.Config, store *catalog.Store, logger *slog.Logger, extractor analysis.Extractor) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	scorer := compat.NewScorer(
		camelot.NewGraph(),
		compat.Weights{
			Harmonic: cfg.Compat.HarmonicWeight,
			BPM:      cfg.Compat.BPMWeight,
			Energy:   cfg.Compat.EnergyWeight,
		},
		compat.Thresholds{
			BPMRatioFloor:       cfg.Compat.BPMRatioFloor,
			HarmonicMaxDistance: cfg.Compat.HarmonicMaxDistance,
			EnergyMaxDelta:      cfg.Compat.EnergyMaxDelta,
			BlendMinScore:       cfg.Compat.BlendMinScore,
			FadeMinScore:        cfg.Compat.FadeMinScore,
		},
	)
	return &Engine{
		cfg:       cfg,
		store:     store,
		logger:    logger,
		scheduler: analysis.NewScheduler(cfg, store, logger, extractor),
		scorer:    scorer,
		sim:       similarity.NewEngine(hamms.DefaultWeights()),
		generator: playlist.NewGenerator(scorer),
	}
}

// Start launches the analysis worker pool.
func (e *Engine) Start(ctx context.Context) error {
	return e.scheduler.Start(ctx)
}

// Stop drains the analysis pool.
func (e *Engine) Stop() {
	e.scheduler.Stop()
}

// Analyze queues one track for feature extraction.
func (e *Engine) Analyze(ctx context.Context, trackID int64, priority catalog.Priority) (*analysis.Task, error) {
	return e.scheduler.Submit(ctx, trackID, priority)
}

// AnalyzeLibrary queues every track lacking a current vector.
func (e *Engine) AnalyzeLibrary(ctx context.Context) ([]*analysis.Task, error) {
	return e.scheduler.EnqueueLibrary(ctx)
}

// Similarity compares the full feature vectors of two analyzed tracks.
func (e *Engine) Similarity(ctx context.Context, a, b int64) (similarity.Result, error) {
	va, err := e.store.VectorByTrack(ctx, a)
	if err != nil {
		return similarity.Result{}, fmt.Errorf("track %d: %w", a, err)
	}
	vb, err := e.store.VectorByTrack(ctx, b)
	if err != nil {
		return similarity.Result{}, fmt.Errorf("track %d: %w", b, err)
	}
	return e.sim.Compare(va.Vector, vb.Vector), nil
}

// Compatibility rates a pair, serving from the persistent cache when the
// vectors have not changed since the pair was last scored. Cache writes are
// best effort; a saturated write lane skips the write rather than failing
// the read.
func (e *Engine) Compatibility(ctx context.Context, a, b int64) (compat.Record, error) {
	pair := catalog.NewPairKey(a, b)
	v, err, _ := e.flight.Do(fmt.Sprintf("%d:%d", pair.Low, pair.High), func() (any, error) {
		return e.compatibility(ctx, pair)
	})
	if err != nil {
		return compat.Record{}, err
	}
	return v.(compat.Record), nil
}

func (e *Engine) compatibility(ctx context.Context, pair catalog.PairKey) (compat.Record, error) {
	row, err := e.store.Compatibility(ctx, pair.Low, pair.High)
	if err != nil {
		return compat.Record{}, err
	}
	if row != nil {
		return row.Record, nil
	}

	va, err := e.store.VectorByTrack(ctx, pair.Low)
	if err != nil {
		return compat.Record{}, fmt.Errorf("track %d: %w", pair.Low, err)
	}
	vb, err := e.store.VectorByTrack(ctx, pair.High)
	if err != nil {
		return compat.Record{}, fmt.Errorf("track %d: %w", pair.High, err)
	}

	record, err := e.scorer.Score(va.Profile(), vb.Profile())
	if err != nil {
		return compat.Record{}, err
	}

	if err := e.store.TrySaveCompatibility(ctx, catalog.PriorityBatch, pair.Low, pair.High, record); err != nil {
		if !errors.Is(err, catalog.ErrQueueSaturated) {
			return compat.Record{}, err
		}
		e.logger.Debug("compatibility cache write skipped",
			logging.Int64("track_low", pair.Low),
			logging.Int64("track_high", pair.High))
	}
	return record, nil
}

// Suggestion pairs a candidate follow-up track with its transition rating.
type Suggestion struct {
	Track  *catalog.Track
	Record compat.Record
}

// SuggestNext ranks analyzed tracks as follow-ups to the given one, best
// first, keeping only pairs at or above the configured minimum score. A
// limit of zero returns everything that qualifies.
func (e *Engine) SuggestNext(ctx context.Context, trackID int64, limit int) ([]Suggestion, error) {
	if _, err := e.store.VectorByTrack(ctx, trackID); err != nil {
		return nil, fmt.Errorf("track %d: %w", trackID, err)
	}
	vectors, err := e.store.ListVectors(ctx)
	if err != nil {
		return nil, err
	}

	suggestions := make([]Suggestion, 0, len(vectors))
	for otherID := range vectors {
		if otherID == trackID {
			continue
		}
		record, err := e.Compatibility(ctx, trackID, otherID)
		if err != nil {
			return nil, err
		}
		if record.Score < e.cfg.Playlist.MinScore {
			continue
		}
		track, err := e.store.TrackByID(ctx, otherID)
		if err != nil {
			return nil, err
		}
		suggestions = append(suggestions, Suggestion{Track: track, Record: record})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Record.Score != suggestions[j].Record.Score {
			return suggestions[i].Record.Score > suggestions[j].Record.Score
		}
		return suggestions[i].Track.ID < suggestions[j].Track.ID
	})
	if limit > 0 && len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}

// GeneratePlaylist sequences a playlist from every analyzed track and
// persists the result.
func (e *Engine) GeneratePlaylist(ctx context.Context, params playlist.Params) (*playlist.Playlist, error) {
	if params.Curve == "" {
		curve, err := playlist.ParseCurveShape(e.cfg.Playlist.DefaultCurve)
		if err != nil {
			return nil, err
		}
		params.Curve = curve
	}
	if params.OpenerTolerance <= 0 {
		params.OpenerTolerance = e.cfg.Playlist.OpenerTolerance
	}

	pool, err := e.candidatePool(ctx)
	if err != nil {
		return nil, err
	}
	result, err := e.generator.Generate(pool, params)
	if err != nil {
		return nil, err
	}
	if err := e.store.SavePlaylist(ctx, catalog.PriorityInteractive, result); err != nil {
		return nil, fmt.Errorf("persist playlist: %w", err)
	}
	e.logger.Info("playlist generated",
		logging.String("playlist_id", result.ID),
		logging.Int("tracks", len(result.Tracks)),
		logging.Duration("total", result.TotalDuration))
	return result, nil
}

func (e *Engine) candidatePool(ctx context.Context) ([]playlist.Candidate, error) {
	vectors, err := e.store.ListVectors(ctx)
	if err != nil {
		return nil, err
	}
	tracks, err := e.store.ListTracks(ctx)
	if err != nil {
		return nil, err
	}

	pool := make([]playlist.Candidate, 0, len(vectors))
	for _, track := range tracks {
		rec, ok := vectors[track.ID]
		if !ok {
			continue
		}
		pool = append(pool, playlist.Candidate{
			TrackID:     track.ID,
			Title:       track.Title,
			Artist:      track.Artist,
			DurationSec: track.DurationSec,
			Genre:       track.Genre,
			Profile:     rec.Profile(),
		})
	}
	return pool, nil
}

// Clusters returns the stored model, re-fitting first when enough tracks
// were analyzed after the last fit to cross the auto-refit threshold.
func (e *Engine) Clusters(ctx context.Context) (*cluster.Model, error) {
	model, err := e.store.ClusterModel(ctx)
	if err != nil {
		return nil, err
	}

	threshold := e.cfg.Cluster.AutoRefitThreshold
	if threshold <= 0 {
		return model, nil
	}
	fresh, err := e.vectorsNewerThan(ctx, model.FittedAt)
	if err != nil {
		return nil, err
	}
	if fresh < threshold {
		return model, nil
	}
	e.logger.Info("auto-refitting clusters",
		logging.Int("new_tracks", fresh),
		logging.Int("k", model.K))
	return e.RefitClusters(ctx, model.K)
}

func (e *Engine) vectorsNewerThan(ctx context.Context, cutoff time.Time) (int, error) {
	vectors, err := e.store.ListVectors(ctx)
	if err != nil {
		return 0, err
	}
	fresh := 0
	for _, rec := range vectors {
		if rec.CreatedAt.After(cutoff) {
			fresh++
		}
	}
	return fresh, nil
}

// RefitClusters fits a fresh model over every analyzed track and replaces
// the stored one. A k of zero uses the configured default.
func (e *Engine) RefitClusters(ctx context.Context, k int) (*cluster.Model, error) {
	if k <= 0 {
		k = e.cfg.Cluster.DefaultK
	}
	vectors, err := e.store.ListVectors(ctx)
	if err != nil {
		return nil, err
	}

	observations := make([]cluster.Observation, 0, len(vectors))
	for id, rec := range vectors {
		observations = append(observations, cluster.Observation{
			TrackID: id,
			Vector:  rec.Vector,
			BPM:     rec.BPM,
			Key:     rec.Key,
			Energy:  rec.Energy,
		})
	}
	sort.Slice(observations, func(i, j int) bool { return observations[i].TrackID < observations[j].TrackID })

	model, err := cluster.Fit(observations, k, e.cfg.Cluster.Seed)
	if err != nil {
		return nil, err
	}
	if err := e.store.SaveClusterModel(ctx, catalog.PriorityBatch, model); err != nil {
		return nil, fmt.Errorf("persist cluster model: %w", err)
	}
	return model, nil
}

// Stats reports catalog counts for status output.
func (e *Engine) Stats(ctx context.Context) (catalog.Stats, error) {
	return e.store.Stats(ctx)
}
