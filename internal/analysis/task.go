package analysis

import (
	"sync"
	"time"

	"mixtape/internal/catalog"
)

// Status tracks an analysis task through its lifecycle.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Task is one track analysis request moving through the scheduler. A failed
// task leaves the track without a vector; the engine treats that the same
// as never analyzed.
type Task struct {
	TrackID  int64
	Priority catalog.Priority

	mu         sync.Mutex
	status     Status
	attempts   int
	err        error
	enqueuedAt time.Time
	finishedAt time.Time
	done       chan struct{}
}

func newTask(trackID int64, priority catalog.Priority) *Task {
	return &Task{
		TrackID:    trackID,
		Priority:   priority,
		status:     StatusQueued,
		enqueuedAt: time.Now(),
		done:       make(chan struct{}),
	}
}

// Status returns the task's current lifecycle state.
func (t *Task) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Err returns the final error for a failed task, nil otherwise.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Attempts reports how many extraction attempts have run.
func (t *Task) Attempts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts
}

// Duration reports queue-to-terminal wall time. Zero until the task settles.
func (t *Task) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finishedAt.IsZero() {
		return 0
	}
	return t.finishedAt.Sub(t.enqueuedAt)
}

// Done is closed when the task reaches a terminal state.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

func (t *Task) markInProgress() {
	t.mu.Lock()
	t.status = StatusInProgress
	t.attempts++
	t.mu.Unlock()
}

func (t *Task) markRequeued() {
	t.mu.Lock()
	t.status = StatusQueued
	t.mu.Unlock()
}

func (t *Task) finish(err error) {
	t.mu.Lock()
	if err != nil {
		t.status = StatusFailed
		t.err = err
	} else {
		t.status = StatusCompleted
	}
	t.finishedAt = time.Now()
	t.mu.Unlock()
	close(t.done)
}
