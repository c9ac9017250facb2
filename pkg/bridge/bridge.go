// Package bridge defines the request/response contract between this library
// and the platform-native storage component. Every operation is named,
// carries a structured JSON payload, and returns either a structured
// response or a descriptive error.
//
// The bridge is treated as an opaque, possibly slow, possibly failing
// capability: callers must not assume bounded latency, and every invocation
// takes a context.
package bridge

import (
	"context"
	"time"
)

// Op names a bridge operation.
type Op string

const (
	// OpOpenDescriptor opens an entry with a requested access mode and
	// returns a provider descriptor id.
	OpOpenDescriptor Op = "OpenDescriptor"

	// OpCloseDescriptor releases a descriptor.
	OpCloseDescriptor Op = "CloseDescriptor"

	// OpWriteDescriptor appends bytes through an open descriptor.
	OpWriteDescriptor Op = "WriteDescriptor"

	// OpReadDescriptor reads up to a requested number of bytes.
	OpReadDescriptor Op = "ReadDescriptor"

	// OpSyncDescriptor flushes provider-side buffers for a descriptor.
	OpSyncDescriptor Op = "SyncDescriptor"

	// OpResizeDescriptor sets the length of the entry behind a descriptor.
	// Used to force empty contents after a non-truncating open.
	OpResizeDescriptor Op = "ResizeDescriptor"

	// OpCopyFromLocal copies a local file into the entry named by a ref.
	// This is the reconciliation step for buffered writable streams.
	OpCopyFromLocal Op = "CopyFromLocal"

	// OpListDirectory lists the children of a directory entry.
	OpListDirectory Op = "ListDirectory"

	// OpQueryType reports whether a ref is a file, a directory, or missing.
	OpQueryType Op = "QueryType"

	// OpQueryWriteRouting reports whether writes to a ref must be routed
	// through a local scratch copy instead of a direct descriptor.
	OpQueryWriteRouting Op = "QueryWriteRouting"
)

// Bridge executes named operations against the platform-native component.
//
// req is the operation's request struct; resp is a pointer to the matching
// response struct and is populated on success. Implementations must return
// a *InvocationError when the provider side reports a failure.
type Bridge interface {
	Invoke(ctx context.Context, op Op, req, resp any) error
}

// Metrics observes bridge invocations. Implementations must be safe for
// concurrent use. A nil Metrics is valid and records nothing.
type Metrics interface {
	ObserveInvoke(op Op, duration time.Duration, err error)
}

func observeInvoke(m Metrics, op Op, start time.Time, err error) {
	if m != nil {
		m.ObserveInvoke(op, time.Since(start), err)
	}
}
