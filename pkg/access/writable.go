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

// legacyGenerationMax is the newest platform generation whose generic write
// mode still guarantees truncation. Later generations delegate mode handling
// to the individual provider, which may or may not truncate.
const legacyGenerationMax = 28

// Platform describes the host platform generation the library runs on.
type Platform struct {
	// Generation is the platform API generation number.
	Generation int
}

// LegacyWriteTruncates reports whether the generic write mode is known to
// truncate on this platform generation.
func (p Platform) LegacyWriteTruncates() bool {
	return p.Generation > 0 && p.Generation <= legacyGenerationMax
}

// writableCandidates is the fallback order for truncate-on-write opens on
// modern platform generations. The generic write mode comes last because it
// does not truncate by itself and needs a forced resize afterwards.
var writableCandidates = []entry.AccessMode{
	entry.ModeWriteTruncate,
	entry.ModeReadWriteTruncate,
	entry.ModeWrite,
}

// OpenWritable opens ref for writing with guaranteed truncate-on-write
// semantics, regardless of which open modes the entry's provider supports.
//
// On legacy platform generations the generic write mode already truncates,
// so it is opened directly. Otherwise the truncating modes are tried first;
// if only the generic write mode succeeds, the handle is explicitly resized
// to zero length. A failed resize surfaces as an error rather than handing
// back a handle that may still contain stale trailing bytes.
func OpenWritable(ctx context.Context, b bridge.Bridge, platform Platform, ref entry.Ref) (Handle, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanOpenWritable,
		trace.WithAttributes(telemetry.Ref(ref.Reference)))
	defer span.End()

	if platform.LegacyWriteTruncates() {
		h, err := openRemote(ctx, b, ref, entry.ModeWrite)
		if err != nil {
			telemetry.RecordError(ctx, err)
			return nil, err
		}
		span.SetAttributes(telemetry.ModeUsed(entry.ModeWrite.Token()))
		return h, nil
	}

	h, used, err := OpenWithFallback(ctx, b, ref, writableCandidates)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}
	span.SetAttributes(telemetry.ModeUsed(used.Token()))

	if !used.Truncates() {
		if err := h.Resize(ctx, 0); err != nil {
			closeErr := h.Close(ctx)
			if closeErr != nil {
				logger.WarnCtx(ctx, "closing handle after failed resize",
					logger.KeyRef, ref.Reference,
					logger.KeyError, closeErr.Error())
			}
			err = fmt.Errorf("forcing empty contents for %q: %w", ref.Reference, err)
			telemetry.RecordError(ctx, err)
			return nil, err
		}
		logger.DebugCtx(ctx, "truncation forced via resize",
			logger.KeyRef, ref.Reference,
			logger.KeyModeUsed, used.Token())
	}
	return h, nil
}
