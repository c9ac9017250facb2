package executor

import (
	"context"
	"errors"
	"sync"
)

// ErrPoolClosed is returned by Run after Close.
var ErrPoolClosed = errors.New("executor pool closed")

// task pairs a step with the channel its caller is parked on.
type task struct {
	step func() error
	done chan error
}

// Pool offloads blocking steps to a fixed set of worker goroutines.
// Callers block until their step completes, so results are identical to
// Inline; only the executing goroutine differs.
type Pool struct {
	queue   chan task
	workers int

	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

// PoolConfig holds worker pool configuration.
type PoolConfig struct {
	// Workers is the number of concurrent worker goroutines. Default: 4.
	Workers int

	// QueueSize is the maximum number of steps waiting for a worker.
	// Default: 64.
	QueueSize int
}

// DefaultPoolConfig returns sensible defaults.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{Workers: 4, QueueSize: 64}
}

// NewPool creates and starts a worker pool.
func NewPool(cfg PoolConfig) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}

	p := &Pool{
		queue:   make(chan task, cfg.QueueSize),
		workers: cfg.Workers,
	}
	p.wg.Add(p.workers)
	for range p.workers {
		go p.worker()
	}
	return p
}

func (p *Pool) Name() string { return "pool" }

func (p *Pool) worker() {
	defer p.wg.Done()
	for t := range p.queue {
		t.done <- t.step()
	}
}

// Run submits the step to a worker and blocks until it completes.
// The context is consulted only before the step starts; a running step is
// never abandoned, matching Inline semantics.
func (p *Pool) Run(ctx context.Context, step func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t := task{step: step, done: make(chan error, 1)}

	// The send happens under the lock so Close cannot close the queue
	// while a submission is parked on it. Workers drain independently,
	// so holding the lock across a full queue cannot deadlock.
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	select {
	case p.queue <- t:
		p.mu.Unlock()
	case <-ctx.Done():
		p.mu.Unlock()
		return ctx.Err()
	}

	return <-t.done
}

// Close stops accepting new steps and waits for queued steps to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}
