// Package access opens storage entries through the bridge: mode-negotiated
// opens, truncation-guaranteed writable opens, and the Handle abstraction
// shared by remote descriptors and local scratch files.
package access

import (
	"context"
	"io"
	"os"

	"github.com/scopedfs/scopedfs/pkg/bridge"
	"github.com/scopedfs/scopedfs/pkg/entry"
)

// Handle is an open descriptor to a storage entry. Implementations are not
// safe for concurrent use; a handle has a single owner.
type Handle interface {
	Read(ctx context.Context, p []byte) (int, error)
	Write(ctx context.Context, p []byte) (int, error)

	// Sync flushes buffered data to the entry.
	Sync(ctx context.Context) error

	// Resize sets the entry's length. Resize(ctx, 0) forces empty
	// contents after a non-truncating open.
	Resize(ctx context.Context, size int64) error

	Close(ctx context.Context) error

	// Mode reports the access mode the handle was opened with.
	Mode() entry.AccessMode
}

// remoteHandle drives a provider descriptor through bridge operations.
type remoteHandle struct {
	b          bridge.Bridge
	descriptor string
	mode       entry.AccessMode
	closed     bool
}

// openRemote opens ref with a single mode and wraps the descriptor.
func openRemote(ctx context.Context, b bridge.Bridge, ref entry.Ref, mode entry.AccessMode) (*remoteHandle, error) {
	var resp bridge.OpenDescriptorResponse
	req := bridge.OpenDescriptorRequest{Reference: ref.Reference, Mode: mode.Token()}
	if err := b.Invoke(ctx, bridge.OpOpenDescriptor, req, &resp); err != nil {
		return nil, err
	}
	return &remoteHandle{b: b, descriptor: resp.Descriptor, mode: mode}, nil
}

func (h *remoteHandle) Read(ctx context.Context, p []byte) (int, error) {
	if h.closed {
		return 0, ErrHandleClosed
	}
	var resp bridge.ReadDescriptorResponse
	req := bridge.ReadDescriptorRequest{Descriptor: h.descriptor, Length: len(p)}
	if err := h.b.Invoke(ctx, bridge.OpReadDescriptor, req, &resp); err != nil {
		return 0, err
	}
	n := copy(p, resp.Data)
	if resp.EOF && n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (h *remoteHandle) Write(ctx context.Context, p []byte) (int, error) {
	if h.closed {
		return 0, ErrHandleClosed
	}
	var resp bridge.WriteDescriptorResponse
	req := bridge.WriteDescriptorRequest{Descriptor: h.descriptor, Data: p}
	if err := h.b.Invoke(ctx, bridge.OpWriteDescriptor, req, &resp); err != nil {
		return 0, err
	}
	return resp.Written, nil
}

func (h *remoteHandle) Sync(ctx context.Context) error {
	if h.closed {
		return ErrHandleClosed
	}
	req := bridge.SyncDescriptorRequest{Descriptor: h.descriptor}
	return h.b.Invoke(ctx, bridge.OpSyncDescriptor, req, &bridge.SyncDescriptorResponse{})
}

func (h *remoteHandle) Resize(ctx context.Context, size int64) error {
	if h.closed {
		return ErrHandleClosed
	}
	req := bridge.ResizeDescriptorRequest{Descriptor: h.descriptor, Size: size}
	return h.b.Invoke(ctx, bridge.OpResizeDescriptor, req, &bridge.ResizeDescriptorResponse{})
}

func (h *remoteHandle) Close(ctx context.Context) error {
	if h.closed {
		return nil
	}
	h.closed = true
	req := bridge.CloseDescriptorRequest{Descriptor: h.descriptor}
	return h.b.Invoke(ctx, bridge.OpCloseDescriptor, req, &bridge.CloseDescriptorResponse{})
}

func (h *remoteHandle) Mode() entry.AccessMode { return h.mode }

// localHandle adapts a local *os.File to Handle. Buffered writable streams
// use it for their scratch files.
type localHandle struct {
	f    *os.File
	mode entry.AccessMode
}

// NewLocalHandle wraps an already-open local file.
func NewLocalHandle(f *os.File, mode entry.AccessMode) Handle {
	return &localHandle{f: f, mode: mode}
}

func (h *localHandle) Read(_ context.Context, p []byte) (int, error)  { return h.f.Read(p) }
func (h *localHandle) Write(_ context.Context, p []byte) (int, error) { return h.f.Write(p) }
func (h *localHandle) Sync(context.Context) error                     { return h.f.Sync() }
func (h *localHandle) Resize(_ context.Context, size int64) error     { return h.f.Truncate(size) }
func (h *localHandle) Close(context.Context) error                    { return h.f.Close() }
func (h *localHandle) Mode() entry.AccessMode                         { return h.mode }
