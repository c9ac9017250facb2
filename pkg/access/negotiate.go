package access

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/scopedfs/scopedfs/internal/logger"
	"github.com/scopedfs/scopedfs/internal/telemetry"
	"github.com/scopedfs/scopedfs/pkg/bridge"
	"github.com/scopedfs/scopedfs/pkg/entry"
)

// OpenWithFallback opens ref by trying each candidate mode in order and
// returns the handle together with the mode that worked.
//
// Per-mode failures never surface individually; they are retried with the
// next candidate and reported only on total exhaustion, aggregated in a
// *NegotiationError. An empty candidate list fails with ErrNoCandidateModes
// before any bridge call.
func OpenWithFallback(ctx context.Context, b bridge.Bridge, ref entry.Ref, modes []entry.AccessMode) (Handle, entry.AccessMode, error) {
	if len(modes) == 0 {
		return nil, 0, fmt.Errorf("%w for %q", ErrNoCandidateModes, ref.Reference)
	}

	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanNegotiateOpen,
		trace.WithAttributes(telemetry.Ref(ref.Reference)))
	defer span.End()

	modeErrs := make([]error, 0, len(modes))
	for _, mode := range modes {
		h, err := openRemote(ctx, b, ref, mode)
		if err == nil {
			span.SetAttributes(telemetry.ModeUsed(mode.Token()))
			if len(modeErrs) > 0 {
				logger.DebugCtx(ctx, "open mode negotiated after fallback",
					logger.KeyRef, ref.Reference,
					logger.KeyModeUsed, mode.Token())
			}
			return h, mode, nil
		}
		modeErrs = append(modeErrs, fmt.Errorf("mode %s: %w", mode.Token(), err))
	}

	negErr := &NegotiationError{Ref: ref.Reference, ModeErrs: modeErrs}
	telemetry.RecordError(ctx, negErr)
	return nil, 0, negErr
}
