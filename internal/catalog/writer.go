package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"mixtape/internal/logging"
)

// mutation is a unit of catalog write work. fn runs inside its own
// transaction on the writer goroutine; the outcome is delivered on done.
type mutation struct {
	name string
	fn   func(ctx context.Context, tx *sql.Tx) error
	done chan error
}

// writer serializes all catalog mutations through one goroutine fed by two
// bounded lanes. The interactive lane is always drained before the batch
// lane so user-facing writes never wait behind a library scan.
type writer struct {
	store       *Store
	interactive chan *mutation
	batch       chan *mutation

	mu        sync.Mutex
	closed    bool
	producers sync.WaitGroup
	wg        sync.WaitGroup
	quit      chan struct{}
}

func newWriter(store *Store, capacity int) *writer {
	if capacity <= 0 {
		capacity = 1
	}
	return &writer{
		store:       store,
		interactive: make(chan *mutation, capacity),
		batch:       make(chan *mutation, capacity),
		quit:        make(chan struct{}),
	}
}

func (w *writer) start() {
	w.wg.Add(1)
	go w.run()
}

// stop waits for in-flight producers, drains both lanes, and stops the
// goroutine. Every accepted mutation is applied before stop returns;
// submissions after stop fail with ErrStoreClosed.
func (w *writer) stop() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	w.producers.Wait()
	close(w.quit)
	w.wg.Wait()
}

func (w *writer) pending() int {
	return len(w.interactive) + len(w.batch)
}

// submit enqueues a mutation on the lane for the given priority and blocks
// until it has been applied or ctx is done. A full lane exerts backpressure
// on the producer rather than growing without bound.
func (w *writer) submit(ctx context.Context, priority Priority, m *mutation) error {
	lane, err := w.lane(priority)
	if err != nil {
		return err
	}
	enqueued := false
	select {
	case lane <- m:
		enqueued = true
	case <-ctx.Done():
	}
	w.producers.Done()
	if !enqueued {
		return ctx.Err()
	}
	select {
	case err := <-m.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// trySubmit enqueues without blocking and reports ErrQueueSaturated when the
// lane is full. The caller still waits for the mutation to apply.
func (w *writer) trySubmit(ctx context.Context, priority Priority, m *mutation) error {
	lane, err := w.lane(priority)
	if err != nil {
		return err
	}
	enqueued := false
	select {
	case lane <- m:
		enqueued = true
	default:
	}
	w.producers.Done()
	if !enqueued {
		return ErrQueueSaturated
	}
	select {
	case err := <-m.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// lane registers the caller as an in-flight producer. The caller must
// release it with producers.Done after its send attempt, whether or not the
// send happened.
func (w *writer) lane(priority Priority) (chan *mutation, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrStoreClosed
	}
	w.producers.Add(1)
	if priority == PriorityInteractive {
		return w.interactive, nil
	}
	return w.batch, nil
}

func (w *writer) run() {
	defer w.wg.Done()
	for {
		// Interactive work first, regardless of arrival order.
		select {
		case m := <-w.interactive:
			w.apply(m)
			continue
		default:
		}

		select {
		case m := <-w.interactive:
			w.apply(m)
		case m := <-w.batch:
			w.apply(m)
		case <-w.quit:
			w.drain()
			return
		}
	}
}

// drain applies everything still enqueued at shutdown. No producer can add
// work at this point, so an empty pass means the lanes stay empty.
func (w *writer) drain() {
	for {
		select {
		case m := <-w.interactive:
			w.apply(m)
			continue
		default:
		}
		select {
		case m := <-w.batch:
			w.apply(m)
		default:
			return
		}
	}
}

func (w *writer) apply(m *mutation) {
	ctx := context.Background()
	err := w.applyTx(ctx, m)
	if err != nil {
		w.store.logger.Warn("catalog write failed",
			logging.String("mutation", m.name),
			logging.Error(err))
	}
	m.done <- err
}

func (w *writer) applyTx(ctx context.Context, m *mutation) error {
	tx, err := w.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s tx: %w", m.name, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := m.fn(ctx, tx); err != nil {
		return fmt.Errorf("%s: %w", m.name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", m.name, err)
	}
	return nil
}

func newMutation(name string, fn func(ctx context.Context, tx *sql.Tx) error) *mutation {
	return &mutation{name: name, fn: fn, done: make(chan error, 1)}
}
