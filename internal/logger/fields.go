package logger

import (
	"log/slog"
)

// Standard field keys for structured logging. Use these keys consistently
// across all log statements so aggregated logs stay queryable.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Bridge Operations
	// ========================================================================
	KeyOp       = "op"       // Bridge operation name (OpenDescriptor, CopyFromLocal, ...)
	KeyStrategy = "strategy" // Execution strategy: inline, pool
	KeyEndpoint = "endpoint" // Provider host endpoint

	// ========================================================================
	// Reference Model
	// ========================================================================
	KeyRef       = "ref"        // Provider reference string
	KeyRootGrant = "root_grant" // Root-grant context, when present
	KeyKind      = "kind"       // Entry kind: file, directory
	KeyRelPath   = "rel_path"   // Relative path under a base ref
	KeyMode      = "mode"       // Access mode token (r, w, wt, ...)
	KeyModeUsed  = "mode_used"  // Mode that actually succeeded in negotiation

	// ========================================================================
	// Scratch Files & Streams
	// ========================================================================
	KeyScratchID   = "scratch_id"   // Monotonic scratch file id
	KeyScratchPath = "scratch_path" // Scratch file path
	KeyScratchRoot = "scratch_root" // Scratch root directory
	KeyStreamState = "stream_state" // direct, buffered, disposed
	KeyTarget      = "target"       // Reflect target ref

	// ========================================================================
	// I/O
	// ========================================================================
	KeyBytesWritten = "bytes_written" // Bytes accepted by a write
	KeyBytesCopied  = "bytes_copied"  // Bytes moved by a reflect copy
	KeySize         = "size"          // Entry or resize size in bytes
	KeyEntries      = "entries"       // Number of directory entries

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
)

// Err returns a standard error attribute. A nil error yields an empty
// attribute, which the handlers drop.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
