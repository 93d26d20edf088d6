// Package workerpool runs jobs on a fixed set of workers fed by a dispatcher.
package workerpool

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrQueueFull = errors.New("job queue full")
	ErrStopped   = errors.New("worker pool stopped")
)

type Config struct {
	MaxWorkers   int
	JobQueueSize int
}

// ProcessFunc handles one job. The context is cancelled when the pool shuts down.
type ProcessFunc[T any] func(ctx context.Context, job T)

type worker[T any] struct {
	id         int
	workerPool chan chan T
	jobChannel chan T
	logger     *slog.Logger
}

func (w *worker[T]) start(ctx context.Context, wg *sync.WaitGroup, process func(T)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case w.workerPool <- w.jobChannel:
			case <-ctx.Done():
				return
			}

			select {
			case job := <-w.jobChannel:
				process(job)
			case <-ctx.Done():
				w.logger.Debug("worker shutting down", "worker_id", w.id)
				return
			}
		}
	}()
}

type Pool[T any] struct {
	name    string
	process ProcessFunc[T]
	logger  *slog.Logger

	jobQueue   chan T
	workerPool chan chan T
	maxWorkers int
	inflight   atomic.Int64
	stopped    atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once

	mu          sync.Mutex
	unprocessed []T
}

func New[T any](name string, cfg Config, process ProcessFunc[T], logger *slog.Logger) *Pool[T] {
	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 5
	}
	queueSize := cfg.JobQueueSize
	if queueSize <= 0 {
		queueSize = 100
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool[T]{
		name:       name,
		process:    process,
		logger:     logger.With("pool", name),
		jobQueue:   make(chan T, queueSize),
		workerPool: make(chan chan T, maxWorkers),
		maxWorkers: maxWorkers,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start launches the workers and the dispatcher. Calling it twice is a no-op.
func (p *Pool[T]) Start() {
	p.once.Do(func() {
		for i := 0; i < p.maxWorkers; i++ {
			w := &worker[T]{id: i, workerPool: p.workerPool, jobChannel: make(chan T), logger: p.logger}
			w.start(p.ctx, &p.wg, p.run)
		}

		p.wg.Add(1)
		go p.dispatch()

		p.logger.Info("worker pool started", "max_workers", p.maxWorkers, "queue_size", cap(p.jobQueue))
	})
}

func (p *Pool[T]) run(job T) {
	defer p.inflight.Add(-1)
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error("job panicked", "panic", rec)
		}
	}()
	p.process(p.ctx, job)
}

// keep records a job that was accepted but never reached a worker.
func (p *Pool[T]) keep(job T) {
	p.mu.Lock()
	p.unprocessed = append(p.unprocessed, job)
	p.mu.Unlock()
}

func (p *Pool[T]) dispatch() {
	defer p.wg.Done()

	for {
		select {
		case job := <-p.jobQueue:
			select {
			case jobChannel := <-p.workerPool:
				// no job is handed out once shutdown has begun
				if p.ctx.Err() != nil {
					p.inflight.Add(-1)
					p.keep(job)
					return
				}
				select {
				case jobChannel <- job:
				case <-p.ctx.Done():
					p.inflight.Add(-1)
					p.keep(job)
					return
				}
			case <-p.ctx.Done():
				p.inflight.Add(-1)
				p.keep(job)
				return
			}
		case <-p.ctx.Done():
			p.logger.Debug("dispatcher shutting down")
			return
		}
	}
}

// Submit queues job without blocking.
func (p *Pool[T]) Submit(job T) error {
	if p.stopped.Load() {
		return ErrStopped
	}
	return p.enqueue(job)
}

func (p *Pool[T]) enqueue(job T) error {
	p.inflight.Add(1)
	select {
	case p.jobQueue <- job:
		return nil
	default:
		p.inflight.Add(-1)
		p.logger.Warn("job queue full, rejecting job", "queue_capacity", cap(p.jobQueue))
		return ErrQueueFull
	}
}

// SubmitWait blocks until job is queued or ctx is done.
func (p *Pool[T]) SubmitWait(ctx context.Context, job T) error {
	if p.stopped.Load() {
		return ErrStopped
	}
	p.inflight.Add(1)
	select {
	case p.jobQueue <- job:
		return nil
	case <-ctx.Done():
		p.inflight.Add(-1)
		return ctx.Err()
	case <-p.ctx.Done():
		p.inflight.Add(-1)
		return ErrStopped
	}
}

// SubmitAfter queues job once delay has passed. Delayed jobs still run while Shutdown drains.
func (p *Pool[T]) SubmitAfter(delay time.Duration, job T) {
	if p.stopped.Load() {
		p.keep(job)
		return
	}
	p.inflight.Add(1)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.inflight.Add(-1)
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-t.C:
			if err := p.enqueue(job); err != nil {
				p.logger.Warn("delayed job dropped", "error", err)
			}
		case <-p.ctx.Done():
			p.keep(job)
		}
	}()
}

// QueueLength is the number of jobs waiting for a worker.
func (p *Pool[T]) QueueLength() int {
	return len(p.jobQueue)
}

// Pending counts queued, delayed and running jobs.
func (p *Pool[T]) Pending() int {
	return int(p.inflight.Load())
}

// Shutdown stops accepting jobs, waits for pending ones until ctx is done, then stops the workers.
func (p *Pool[T]) Shutdown(ctx context.Context) {
	p.stopped.Store(true)
	p.logger.Info("shutting down worker pool", "pending", p.Pending())

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
drain:
	for p.Pending() > 0 {
		select {
		case <-ctx.Done():
			p.logger.Warn("shutdown deadline reached with pending jobs", "pending", p.Pending())
			break drain
		case <-ticker.C:
		}
	}

	p.cancel()
	p.wg.Wait()

leftovers:
	for {
		select {
		case job := <-p.jobQueue:
			p.inflight.Add(-1)
			p.keep(job)
		default:
			break leftovers
		}
	}
	p.logger.Info("worker pool shutdown complete", "unprocessed", len(p.Unprocessed()))
}

// Unprocessed returns the jobs accepted before Shutdown that never ran.
// It is complete once Shutdown has returned.
func (p *Pool[T]) Unprocessed() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]T(nil), p.unprocessed...)
}
