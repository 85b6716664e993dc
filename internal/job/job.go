// Package job implements the Job Coordinator: an in-memory table of
// long-running annotation/MSA requests, dispatched to a bounded worker
// pool and polled by status ID until a terminal state is reached.
package job

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pbnjay/memory"
	"go.uber.org/zap"
)

// Status is a job's lifecycle state. Completed/Failed/Cancelled are
// terminal and sticky — once reached, a JobRecord never changes state
// again.
type Status string

// Supported job states.
const (
	Pending   Status = "pending"
	Running   Status = "running"
	Completed Status = "completed"
	Failed    Status = "failed"
	Cancelled Status = "cancelled"
)

func (s Status) terminal() bool {
	return s == Completed || s == Failed || s == Cancelled
}

// Request is one submitted unit of work: a function the worker pool
// runs with a cancellable context, returning a result or an error.
type Request struct {
	Run func(ctx context.Context) (any, error)
}

// JobRecord is the Job Coordinator's bookkeeping row for one submitted
// request.
type JobRecord struct {
	ID          uuid.UUID
	Status      Status
	Progress    float64
	Message     string
	Result      any
	Err         error
	SubmittedAt time.Time
	StartedAt   time.Time
	FinishedAt  time.Time
}

// OverloadedError reports that the Job Coordinator's queue was full at
// submission time.
type OverloadedError struct {
	Capacity int
}

func (e *OverloadedError) Error() string {
	return fmt.Sprintf("job queue overloaded (capacity %d)", e.Capacity)
}

// CancelledError reports that a job was cancelled before completion.
type CancelledError struct {
	ID uuid.UUID
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("job %s cancelled", e.ID)
}

type queuedJob struct {
	id     uuid.UUID
	req    Request
	cancel context.CancelFunc
	ctx    context.Context
}

// Coordinator holds the in-flight job table and a bounded FIFO queue
// drained by a worker pool. Table mutations are serialized by a single
// mutex, held only across bookkeeping — never across a subprocess call.
type Coordinator struct {
	mu       sync.Mutex
	records  map[uuid.UUID]*JobRecord
	cancels  map[uuid.UUID]context.CancelFunc
	queue    chan queuedJob
	capacity int
	ttl      time.Duration
	log      *zap.Logger

	stopJanitor chan struct{}
	janitorOnce sync.Once
}

// Option configures a Coordinator at construction.
type Option func(*Coordinator)

// WithCapacity overrides the default queue capacity.
func WithCapacity(capacity int) Option {
	return func(c *Coordinator) { c.capacity = capacity }
}

// WithTTL overrides the default job-retention TTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Coordinator) { c.ttl = ttl }
}

// WithLogger attaches a structured logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Coordinator) { c.log = log }
}

// defaultCapacity derives a queue capacity from system memory — one
// slot per ~512MB, floor 4 — when the caller hasn't configured one
// explicitly.
func defaultCapacity() int {
	const slotSize = 512 * 1024 * 1024
	total := memory.TotalMemory()
	slots := int(total / slotSize)
	if slots < 4 {
		return 4
	}
	return slots
}

// NewCoordinator builds a Job Coordinator and starts its worker pool
// and janitor goroutine. workers is the number of concurrent long-running
// requests; if 0, a single worker is used.
func NewCoordinator(workers int, opts ...Option) *Coordinator {
	c := &Coordinator{
		records:     make(map[uuid.UUID]*JobRecord),
		cancels:     make(map[uuid.UUID]context.CancelFunc),
		capacity:    defaultCapacity(),
		ttl:         1 * time.Hour,
		log:         zap.NewNop(),
		stopJanitor: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.queue = make(chan queuedJob, c.capacity)

	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		go c.worker()
	}
	go c.janitor()

	return c
}

// Submit enqueues a request, returning its job ID. If the queue is at
// capacity, it returns OverloadedError without enqueueing.
func (c *Coordinator) Submit(req Request) (uuid.UUID, error) {
	id := uuid.New()
	ctx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	if len(c.queue) >= c.capacity {
		c.mu.Unlock()
		cancel()
		return uuid.Nil, &OverloadedError{Capacity: c.capacity}
	}
	c.records[id] = &JobRecord{ID: id, Status: Pending, SubmittedAt: time.Now()}
	c.cancels[id] = cancel
	c.mu.Unlock()

	select {
	case c.queue <- queuedJob{id: id, req: req, cancel: cancel, ctx: ctx}:
		return id, nil
	default:
		c.mu.Lock()
		delete(c.records, id)
		delete(c.cancels, id)
		c.mu.Unlock()
		cancel()
		return uuid.Nil, &OverloadedError{Capacity: c.capacity}
	}
}

// Status returns a copy of a job's current record.
func (c *Coordinator) Status(id uuid.UUID) (JobRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[id]
	if !ok {
		return JobRecord{}, false
	}
	return *rec, true
}

// Cancel requests cancellation of an in-flight job. It is a no-op if
// the job has already reached a terminal state.
func (c *Coordinator) Cancel(id uuid.UUID) {
	c.mu.Lock()
	cancel, ok := c.cancels[id]
	rec := c.records[id]
	c.mu.Unlock()
	if !ok || rec == nil || rec.Status.terminal() {
		return
	}
	cancel()
}

func (c *Coordinator) worker() {
	for qj := range c.queue {
		c.mu.Lock()
		rec, ok := c.records[qj.id]
		if ok {
			rec.Status = Running
			rec.StartedAt = time.Now()
		}
		c.mu.Unlock()

		result, err := qj.req.Run(qj.ctx)

		c.mu.Lock()
		rec, ok = c.records[qj.id]
		if ok {
			rec.FinishedAt = time.Now()
			switch {
			case qj.ctx.Err() == context.Canceled:
				rec.Status = Cancelled
				rec.Err = &CancelledError{ID: qj.id}
			case err != nil:
				rec.Status = Failed
				rec.Err = err
			default:
				rec.Status = Completed
				rec.Result = result
				rec.Progress = 1.0
			}
		}
		delete(c.cancels, qj.id)
		c.mu.Unlock()
	}
}

func (c *Coordinator) janitor() {
	ticker := time.NewTicker(c.ttl / 4)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopJanitor:
			return
		case <-ticker.C:
			c.purgeExpired()
		}
	}
}

func (c *Coordinator) purgeExpired() {
	cutoff := time.Now().Add(-c.ttl)
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, rec := range c.records {
		if rec.Status.terminal() && rec.FinishedAt.Before(cutoff) {
			delete(c.records, id)
		}
	}
}

// Close stops the janitor goroutine. It does not close the queue, so
// the worker goroutines keep running.
func (c *Coordinator) Close() {
	c.janitorOnce.Do(func() { close(c.stopJanitor) })
}
