package stream

import (
	"context"
	"sync"

	"github.com/scopedfs/scopedfs/internal/logger"
)

// Reflector runs the reflect procedure for abandoned streams in the
// background. Errors are discarded by construction: no caller remains to
// receive them, so they are only logged and counted.
type Reflector struct {
	queue chan *state

	mu      sync.Mutex
	wg      sync.WaitGroup
	spawned sync.WaitGroup
	closed  bool
}

// ReflectorConfig holds background reflector configuration.
type ReflectorConfig struct {
	// Workers is the number of concurrent reflect workers. Default: 2.
	Workers int

	// QueueSize is the maximum number of pending reflects. Default: 64.
	QueueSize int
}

// DefaultReflectorConfig returns sensible defaults.
func DefaultReflectorConfig() ReflectorConfig {
	return ReflectorConfig{Workers: 2, QueueSize: 64}
}

// NewReflector creates and starts a background reflector.
func NewReflector(cfg ReflectorConfig) *Reflector {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}

	r := &Reflector{queue: make(chan *state, cfg.QueueSize)}
	r.wg.Add(cfg.Workers)
	for range cfg.Workers {
		go r.worker()
	}
	return r
}

func (r *Reflector) worker() {
	defer r.wg.Done()
	for st := range r.queue {
		_ = st.reflect(context.Background(), TriggerImplicit)
	}
}

// enqueue hands a detached stream state to the workers. The call must not
// block the cleanup goroutine, so when the queue is full or the reflector
// is already closed the reflect runs on its own goroutine instead.
func (r *Reflector) enqueue(st *state) {
	r.mu.Lock()
	if !r.closed {
		select {
		case r.queue <- st:
			r.mu.Unlock()
			return
		default:
		}
	}
	r.mu.Unlock()

	logger.Warn("reflector queue unavailable, running implicit reflect directly",
		logger.KeyTarget, st.target.Reference)
	r.spawned.Add(1)
	go func() {
		defer r.spawned.Done()
		_ = st.reflect(context.Background(), TriggerImplicit)
	}()
}

// Close stops accepting new work and waits for all pending reflects,
// including overflow ones, to finish.
func (r *Reflector) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	r.wg.Wait()
	r.spawned.Wait()
}
