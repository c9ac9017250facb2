// Package stream implements writable streams over provider entries. A
// stream writes either directly through a provider descriptor or, for
// providers whose direct writes are unreliable, through a local scratch
// file that is reconciled ("reflected") to the target afterwards.
package stream

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/scopedfs/scopedfs/internal/logger"
	"github.com/scopedfs/scopedfs/internal/telemetry"
	"github.com/scopedfs/scopedfs/pkg/access"
	"github.com/scopedfs/scopedfs/pkg/bridge"
	"github.com/scopedfs/scopedfs/pkg/entry"
	"github.com/scopedfs/scopedfs/pkg/scratch"
)

// Reflect triggers, for metrics and logs.
const (
	TriggerExplicit = "explicit"
	TriggerImplicit = "implicit"
)

// Metrics observes stream lifecycle events. A nil Metrics records nothing.
type Metrics interface {
	RecordOpen(buffered bool)
	RecordReflect(trigger string, duration time.Duration, err error)
	RecordDispose()
}

// Deps carries the collaborators a stream needs. Bridge, Platform and
// Scratch are required; Reflector and Metrics may be nil (a nil Reflector
// runs implicit reflects on the cleanup goroutine itself).
type Deps struct {
	Bridge    bridge.Bridge
	Platform  access.Platform
	Scratch   *scratch.Manager
	Reflector *Reflector
	Metrics   Metrics
}

// state is the detachable inner state of a stream. It is what the implicit
// disposal path takes over when a stream is abandoned, so it must not
// reference the Writable that owns it.
type state struct {
	handle   access.Handle
	buffered bool
	scratch  scratch.File
	target   entry.Ref

	b       bridge.Bridge
	sm      *scratch.Manager
	metrics Metrics
}

// Writable is a single-owner writable stream. Exactly one of the states
// direct, buffered, or disposed holds at any time; Reflect and Dispose are
// the terminal calls. A stream abandoned without a terminal call is
// reflected best-effort in the background.
type Writable struct {
	mu      sync.Mutex
	st      *state
	cleanup runtime.Cleanup
}

// New creates a writable stream on target.
//
// Construction probes the provider's write routing for the target: direct
// streams open a truncation-guaranteed descriptor on the target itself,
// buffered streams allocate a fresh scratch file and record the target for
// the later reflect.
func New(ctx context.Context, deps Deps, target entry.Ref) (*Writable, error) {
	ctx, span := telemetry.StartStreamSpan(ctx, telemetry.SpanStreamOpen, target.Reference)
	defer span.End()

	var routing bridge.QueryWriteRoutingResponse
	req := bridge.QueryWriteRoutingRequest{Reference: target.Reference}
	if err := deps.Bridge.Invoke(ctx, bridge.OpQueryWriteRouting, req, &routing); err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}

	st := &state{
		target:  target,
		b:       deps.Bridge,
		sm:      deps.Scratch,
		metrics: deps.Metrics,
	}

	if routing.Indirect {
		sf, f, err := deps.Scratch.Create()
		if err != nil {
			telemetry.RecordError(ctx, err)
			return nil, err
		}
		st.buffered = true
		st.scratch = sf
		// A freshly created scratch file is empty, so the truncation
		// contract holds without negotiating provider modes.
		st.handle = access.NewLocalHandle(f, entry.ModeReadWriteTruncate)
	} else {
		h, err := access.OpenWritable(ctx, deps.Bridge, deps.Platform, target)
		if err != nil {
			telemetry.RecordError(ctx, err)
			return nil, err
		}
		st.handle = h
	}
	span.SetAttributes(telemetry.StreamState(st.name()))

	if deps.Metrics != nil {
		deps.Metrics.RecordOpen(st.buffered)
	}
	logger.DebugCtx(ctx, "writable stream opened",
		logger.KeyTarget, target.Reference,
		logger.KeyStreamState, st.name())

	w := &Writable{st: st}

	// Implicit disposal: when the stream is collected without a terminal
	// call, its detached state is reflected best-effort. Losing the data
	// silently is judged worse than a save attempt that may fail.
	reflector := deps.Reflector
	w.cleanup = runtime.AddCleanup(w, func(st *state) {
		logger.Warn("stream abandoned without terminal call, reflecting in background",
			logger.KeyTarget, st.target.Reference,
			logger.KeyStreamState, st.name())
		if reflector != nil {
			reflector.enqueue(st)
		} else {
			_ = st.reflect(context.Background(), TriggerImplicit)
		}
	}, st)

	return w, nil
}

// Buffered reports whether the stream routes writes through a scratch file.
func (w *Writable) Buffered() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.st != nil && w.st.buffered
}

// Write appends bytes to whichever handle is active.
func (w *Writable) Write(ctx context.Context, p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.st == nil {
		return 0, ErrDisposed
	}
	return w.st.handle.Write(ctx, p)
}

// Sync flushes the active handle.
func (w *Writable) Sync(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.st == nil {
		return ErrDisposed
	}
	return w.st.handle.Sync(ctx)
}

// Reflect propagates the stream's contents to the target and consumes the
// stream. For direct streams the data already landed through the handle;
// for buffered streams the scratch file is copied to the target and then
// deleted. Every cleanup step runs even after an earlier failure; the
// first error encountered is returned, later ones are logged.
func (w *Writable) Reflect(ctx context.Context) error {
	st, err := w.take()
	if err != nil {
		return err
	}
	return st.reflect(ctx, TriggerExplicit)
}

// Dispose consumes the stream without touching the target. The handle is
// dropped and, for buffered streams, the scratch file deleted; the target
// keeps its prior contents.
func (w *Writable) Dispose(ctx context.Context) error {
	st, err := w.take()
	if err != nil {
		return err
	}
	return st.dispose(ctx)
}

// take detaches the state for a terminal call and stops the implicit
// disposal hook. The transition to disposed is one-way.
func (w *Writable) take() (*state, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.st == nil {
		return nil, ErrDisposed
	}
	st := w.st
	w.st = nil
	w.cleanup.Stop()
	return st, nil
}

func (s *state) name() string {
	if s.buffered {
		return "buffered"
	}
	return "direct"
}

// reflect runs the full reconciliation procedure. All steps are attempted
// regardless of earlier failures so cleanup is as complete as possible; the
// returned error is the first one encountered.
func (s *state) reflect(ctx context.Context, trigger string) error {
	ctx, span := telemetry.StartStreamSpan(ctx, telemetry.SpanStreamReflect, s.target.Reference,
		telemetry.StreamState(s.name()))
	defer span.End()

	start := time.Now()
	var firstErr error

	keep := func(err error, msg string) {
		if err == nil {
			return
		}
		if firstErr == nil {
			firstErr = err
			return
		}
		// Only one error can be returned; later ones must still be
		// diagnosable.
		logger.WarnCtx(ctx, msg,
			logger.KeyTarget, s.target.Reference,
			logger.KeyError, err.Error())
	}

	keep(s.handle.Sync(ctx), "reflect: flushing handle failed")
	keep(s.handle.Close(ctx), "reflect: closing handle failed")

	if s.buffered {
		var resp bridge.CopyFromLocalResponse
		req := bridge.CopyFromLocalRequest{SourcePath: s.scratch.Path, TargetRef: s.target.Reference}
		keep(s.b.Invoke(ctx, bridge.OpCopyFromLocal, req, &resp), "reflect: copy to target failed")
		keep(s.sm.Remove(s.scratch), "reflect: removing scratch file failed")
	}

	if s.metrics != nil {
		s.metrics.RecordReflect(trigger, time.Since(start), firstErr)
	}
	if firstErr != nil {
		telemetry.RecordError(ctx, firstErr)
		logger.WarnCtx(ctx, "reflect finished with error",
			logger.KeyTarget, s.target.Reference,
			logger.KeyError, firstErr.Error())
	} else {
		logger.DebugCtx(ctx, "reflect finished",
			logger.KeyTarget, s.target.Reference,
			logger.KeyDurationMs, time.Since(start).Milliseconds())
	}
	return firstErr
}

// dispose drops the handle and scratch file without writing to the target.
func (s *state) dispose(ctx context.Context) error {
	ctx, span := telemetry.StartStreamSpan(ctx, telemetry.SpanStreamDispose, s.target.Reference,
		telemetry.StreamState(s.name()))
	defer span.End()

	var firstErr error

	if err := s.handle.Close(ctx); err != nil {
		firstErr = err
	}
	if s.buffered {
		if err := s.sm.Remove(s.scratch); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if s.metrics != nil {
		s.metrics.RecordDispose()
	}
	if firstErr != nil {
		telemetry.RecordError(ctx, firstErr)
	}
	return firstErr
}
