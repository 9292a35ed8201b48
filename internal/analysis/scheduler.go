package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"mixtape/internal/catalog"
	"mixtape/internal/config"
	"mixtape/internal/hamms"
	"mixtape/internal/logging"
)

var (
	// ErrAnalysisTimeout reports a single track exceeding the configured
	// extraction deadline.
	ErrAnalysisTimeout = errors.New("analysis: track timed out")
	// ErrQueueSaturated reports a non-blocking submit against a full lane.
	ErrQueueSaturated = errors.New("analysis: task queue saturated")
	// ErrSchedulerStopped reports a submit against a stopped scheduler.
	ErrSchedulerStopped = errors.New("analysis: scheduler stopped")
)

// Scheduler runs feature extraction over a fixed worker pool. Tasks arrive
// on two bounded lanes; workers drain the interactive lane before the batch
// lane so a user-requested analysis never queues behind a library scan.
type Scheduler struct {
	cfg       *config.Config
	store     *catalog.Store
	logger    *slog.Logger
	extractor Extractor
	builder   *hamms.Builder

	interactive chan *Task
	batch       chan *Task

	mu      sync.Mutex
	pending map[int64]*Task
	running bool
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// NewScheduler constructs a scheduler. A nil extractor defaults to the
// stored-descriptor extractor.
func NewScheduler(cfg *config.Config, store *catalog.Store, logger *slog.Logger, extractor Extractor) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	if extractor == nil {
		extractor = StoredExtractor{}
	}
	capacity := cfg.Analysis.QueueCapacity
	if capacity <= 0 {
		capacity = 1
	}
	return &Scheduler{
		cfg:         cfg,
		store:       store,
		logger:      logger,
		extractor:   extractor,
		builder:     hamms.NewBuilder(hamms.DefaultGenreFallbacks()),
		interactive: make(chan *Task, capacity),
		batch:       make(chan *Task, capacity),
		pending:     make(map[int64]*Task),
	}
}

// Start launches the worker pool. Workers stop when ctx is canceled or Stop
// is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("analysis: scheduler already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(runCtx)
	workers := s.cfg.Analysis.Workers
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		group.Go(func() error {
			s.worker(groupCtx)
			return nil
		})
	}

	s.running = true
	s.cancel = cancel
	s.group = group
	s.logger.Info("analysis scheduler started", logging.Int("workers", workers))
	return nil
}

// Stop cancels in-flight work and waits for the workers to exit. Queued
// tasks that never ran finish as failed with ErrSchedulerStopped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	group := s.group
	s.cancel = nil
	s.group = nil
	s.mu.Unlock()

	cancel()
	_ = group.Wait()
	s.drainStopped()
	s.logger.Info("analysis scheduler stopped")
}

func (s *Scheduler) drainStopped() {
	for {
		select {
		case task := <-s.interactive:
			s.settle(task, ErrSchedulerStopped)
		case task := <-s.batch:
			s.settle(task, ErrSchedulerStopped)
		default:
			return
		}
	}
}

// Submit enqueues one track for analysis and blocks while the lane is full.
// A track already queued or running returns its existing task, regardless
// of priority.
func (s *Scheduler) Submit(ctx context.Context, trackID int64, priority catalog.Priority) (*Task, error) {
	task, lane, err := s.admit(trackID, priority)
	if err != nil || lane == nil {
		return task, err
	}
	select {
	case lane <- task:
		return task, nil
	case <-ctx.Done():
		s.settle(task, ctx.Err())
		return nil, ctx.Err()
	}
}

// TrySubmit enqueues without blocking and reports ErrQueueSaturated when the
// lane is full.
func (s *Scheduler) TrySubmit(trackID int64, priority catalog.Priority) (*Task, error) {
	task, lane, err := s.admit(trackID, priority)
	if err != nil || lane == nil {
		return task, err
	}
	select {
	case lane <- task:
		return task, nil
	default:
		s.forget(task)
		return nil, ErrQueueSaturated
	}
}

// EnqueueLibrary queues every track lacking a current vector on the batch
// lane. It blocks as lanes fill, which paces a large scan to the pool.
func (s *Scheduler) EnqueueLibrary(ctx context.Context) ([]*Task, error) {
	ids, err := s.store.UnanalyzedTrackIDs(ctx)
	if err != nil {
		return nil, err
	}
	tasks := make([]*Task, 0, len(ids))
	for _, id := range ids {
		task, err := s.Submit(ctx, id, catalog.PriorityBatch)
		if err != nil {
			return tasks, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// admit registers a task for the track, deduplicating against one already
// pending. A nil lane with a non-nil task means the caller got an existing
// task and must not enqueue again.
func (s *Scheduler) admit(trackID int64, priority catalog.Priority) (*Task, chan *Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil, nil, ErrSchedulerStopped
	}
	if existing, ok := s.pending[trackID]; ok {
		return existing, nil, nil
	}
	task := newTask(trackID, priority)
	s.pending[trackID] = task
	if priority == catalog.PriorityInteractive {
		return task, s.interactive, nil
	}
	return task, s.batch, nil
}

func (s *Scheduler) forget(task *Task) {
	s.mu.Lock()
	delete(s.pending, task.TrackID)
	s.mu.Unlock()
}

func (s *Scheduler) settle(task *Task, err error) {
	s.forget(task)
	task.finish(err)
}

func (s *Scheduler) worker(ctx context.Context) {
	for {
		select {
		case task := <-s.interactive:
			s.process(ctx, task)
			continue
		default:
		}

		select {
		case task := <-s.interactive:
			s.process(ctx, task)
		case task := <-s.batch:
			s.process(ctx, task)
		case <-ctx.Done():
			return
		}
	}
}

// process runs the task with bounded retries and doubling backoff. Context
// cancellation stops retrying immediately; timed-out and exhausted tasks
// fail and their tracks keep no vector.
func (s *Scheduler) process(ctx context.Context, task *Task) {
	backoff := time.Duration(s.cfg.Analysis.RetryBackoffSeconds) * time.Second
	maxAttempts := s.cfg.Analysis.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			task.markRequeued()
			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				s.settle(task, ctx.Err())
				return
			}
		}

		task.markInProgress()
		lastErr = s.analyzeOnce(ctx, task)
		if lastErr == nil {
			s.settle(task, nil)
			s.logger.Info("analysis completed",
				logging.Int64("track_id", task.TrackID),
				logging.Int("attempts", task.Attempts()),
				logging.Duration("elapsed", task.Duration()))
			return
		}
		if ctx.Err() != nil {
			s.settle(task, ctx.Err())
			return
		}
		// Incomplete metadata never improves on retry.
		if errors.Is(lastErr, hamms.ErrIncompleteMetadata) || errors.Is(lastErr, catalog.ErrTrackNotFound) {
			break
		}
		s.logger.Warn("analysis attempt failed",
			logging.Int64("track_id", task.TrackID),
			logging.Int("attempt", attempt+1),
			logging.Error(lastErr))
	}

	s.settle(task, lastErr)
	s.logger.Error("analysis failed",
		logging.Int64("track_id", task.TrackID),
		logging.Int("attempts", task.Attempts()),
		logging.Duration("elapsed", task.Duration()),
		logging.Error(lastErr))
}

func (s *Scheduler) analyzeOnce(ctx context.Context, task *Task) error {
	track, err := s.store.TrackByID(ctx, task.TrackID)
	if err != nil {
		return err
	}

	timeout := time.Duration(s.cfg.Analysis.TrackTimeoutSeconds) * time.Second
	extractCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		extractCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	raw, err := s.extractor.Extract(extractCtx, track)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("%w: track %d after %s", ErrAnalysisTimeout, task.TrackID, timeout)
		}
		return fmt.Errorf("extract track %d: %w", task.TrackID, err)
	}

	vector, key, err := s.builder.Build(raw)
	if err != nil {
		return fmt.Errorf("build vector for track %d: %w", task.TrackID, err)
	}

	energy := vector[hamms.DimEnergy]
	if err := s.store.SaveVector(ctx, task.Priority, task.TrackID, vector, key, raw.BPM, energy); err != nil {
		return fmt.Errorf("persist vector for track %d: %w", task.TrackID, err)
	}
	return nil
}

// Pending reports tasks queued or running.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
