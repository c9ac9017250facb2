package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for storage operations.
// Keys use a "bridge." prefix for provider bridge invocations and an
// "entry." / "stream." prefix for reference and stream level attributes.
const (
	// Bridge attributes
	AttrBridgeOp       = "bridge.op"
	AttrBridgeEndpoint = "bridge.endpoint"
	AttrBridgeStrategy = "bridge.strategy"

	// Reference model attributes
	AttrRef       = "entry.ref"
	AttrRootGrant = "entry.root_grant"
	AttrKind      = "entry.kind"
	AttrRelPath   = "entry.rel_path"
	AttrMode      = "entry.mode"
	AttrModeUsed  = "entry.mode_used"

	// Stream and scratch attributes
	AttrStreamState = "stream.state"
	AttrTarget      = "stream.target"
	AttrScratchID   = "scratch.id"
	AttrScratchPath = "scratch.path"

	// I/O attributes
	AttrBytesWritten = "io.bytes_written"
	AttrBytesCopied  = "io.bytes_copied"
	AttrSize         = "io.size"
)

// Span names. Format: <component>.<operation>.
const (
	SpanResolve       = "resolve.child"
	SpanNegotiateOpen = "access.negotiate_open"
	SpanOpenWritable  = "access.open_writable"
	SpanStreamOpen    = "stream.open"
	SpanStreamReflect = "stream.reflect"
	SpanStreamDispose = "stream.dispose"
	SpanScratchCreate = "scratch.create"
	SpanScratchSweep  = "scratch.sweep"
	SpanBridgeInvoke  = "bridge.invoke"
)

// BridgeOp returns an attribute for a bridge operation name
func BridgeOp(op string) attribute.KeyValue {
	return attribute.String(AttrBridgeOp, op)
}

// Ref returns an attribute for a provider reference
func Ref(ref string) attribute.KeyValue {
	return attribute.String(AttrRef, ref)
}

// RelPath returns an attribute for a relative path under a base ref
func RelPath(path string) attribute.KeyValue {
	return attribute.String(AttrRelPath, path)
}

// Mode returns an attribute for an access mode token
func Mode(mode string) attribute.KeyValue {
	return attribute.String(AttrMode, mode)
}

// ModeUsed returns an attribute for the negotiated mode that succeeded
func ModeUsed(mode string) attribute.KeyValue {
	return attribute.String(AttrModeUsed, mode)
}

// Target returns an attribute for a stream's reflect target
func Target(ref string) attribute.KeyValue {
	return attribute.String(AttrTarget, ref)
}

// StreamState returns an attribute for a stream state name
func StreamState(state string) attribute.KeyValue {
	return attribute.String(AttrStreamState, state)
}

// ScratchID returns an attribute for a scratch file id
func ScratchID(id uint64) attribute.KeyValue {
	return attribute.Int64(AttrScratchID, int64(id))
}

// BytesCopied returns an attribute for reflect copy size
func BytesCopied(n int64) attribute.KeyValue {
	return attribute.Int64(AttrBytesCopied, n)
}

// StartBridgeSpan starts a span for a bridge invocation.
// This is a convenience function that sets common attributes.
func StartBridgeSpan(ctx context.Context, op, ref string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{BridgeOp(op)}
	if ref != "" {
		allAttrs = append(allAttrs, Ref(ref))
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanBridgeInvoke, trace.WithAttributes(allAttrs...))
}

// StartStreamSpan starts a span for a stream lifecycle operation.
func StartStreamSpan(ctx context.Context, name, target string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{Target(target)}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, name, trace.WithAttributes(allAttrs...))
}
