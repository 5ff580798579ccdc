// Package task provides the unordered background queue that editor event
// handlers defer their network round trips to.
//
// The queue promises exactly what its consumers are built for: work runs
// off the UI thread, and no ordering is guaranteed between queued tasks. A
// later-queued task may complete before an earlier one; staleness handling
// is the caller's job. Enqueueing never blocks — when the queue is full the
// task is dropped and counted, because the next editor event will naturally
// re-issue a fresh request.
package task

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// PanicHandler is called when a task panics.
type PanicHandler func(id, name string, v any, stack []byte)

func defaultPanicHandler(id, name string, v any, stack []byte) {
	// Swallow by default; the queue must never take the host down.
	_ = stack
}

type queuedTask struct {
	id   string
	name string
	fn   func(ctx context.Context)
}

// Queue is a bounded worker pool executing deferred tasks.
type Queue struct {
	queueSize   int
	workerCount int
	timeout     time.Duration

	mu      sync.Mutex // protects queue creation/destruction
	tasks   chan queuedTask
	running atomic.Bool
	wg      sync.WaitGroup

	panicHandler PanicHandler

	enqueued  atomic.Uint64
	processed atomic.Uint64
	dropped   atomic.Uint64
	panicked  atomic.Uint64
}

// Option configures a Queue.
type Option func(*Queue)

// WithQueueSize sets the task queue capacity.
func WithQueueSize(size int) Option {
	return func(q *Queue) {
		if size > 0 {
			q.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(q *Queue) {
		if count > 0 {
			q.workerCount = count
		}
	}
}

// WithTaskTimeout sets the per-task execution timeout.
func WithTaskTimeout(timeout time.Duration) Option {
	return func(q *Queue) {
		q.timeout = timeout
	}
}

// WithPanicHandler sets the panic handler.
func WithPanicHandler(h PanicHandler) Option {
	return func(q *Queue) {
		if h != nil {
			q.panicHandler = h
		}
	}
}

// New creates a queue. Call Start before deferring work.
func New(opts ...Option) *Queue {
	q := &Queue{
		queueSize:    256,
		workerCount:  4,
		timeout:      30 * time.Second,
		panicHandler: defaultPanicHandler,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Start starts the worker pool.
func (q *Queue) Start() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running.Load() {
		return ErrAlreadyRunning
	}

	q.tasks = make(chan queuedTask, q.queueSize)
	q.running.Store(true)

	for i := 0; i < q.workerCount; i++ {
		q.wg.Add(1)
		go q.worker()
	}

	return nil
}

// Stop stops the pool, waiting for in-flight tasks to finish or the
// context to expire. Tasks still queued when Stop is called are executed.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.running.Load() {
		q.mu.Unlock()
		return ErrNotRunning
	}
	q.running.Store(false)
	close(q.tasks)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Defer schedules fn for background execution. It never blocks: when the
// queue is full or stopped the task is dropped and Defer reports false.
func (q *Queue) Defer(name string, fn func(ctx context.Context)) bool {
	t := queuedTask{id: uuid.New().String(), name: name, fn: fn}

	// The lock pairs the running check with the send so Stop cannot close
	// the channel between them.
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.running.Load() {
		q.dropped.Add(1)
		return false
	}

	select {
	case q.tasks <- t:
		q.enqueued.Add(1)
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Stats is a snapshot of queue counters.
type Stats struct {
	Enqueued  uint64
	Processed uint64
	Dropped   uint64
	Panicked  uint64
}

// Stats returns a snapshot of the queue counters.
func (q *Queue) Stats() Stats {
	return Stats{
		Enqueued:  q.enqueued.Load(),
		Processed: q.processed.Load(),
		Dropped:   q.dropped.Load(),
		Panicked:  q.panicked.Load(),
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for t := range q.tasks {
		q.run(t)
	}
}

func (q *Queue) run(t queuedTask) {
	defer func() {
		if v := recover(); v != nil {
			q.panicked.Add(1)
			q.panicHandler(t.id, t.name, v, debug.Stack())
		}
		q.processed.Add(1)
	}()

	ctx := context.Background()
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	t.fn(ctx)
}
