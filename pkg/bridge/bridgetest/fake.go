// Package bridgetest provides an in-memory fake provider for unit tests.
// It counts invocations per operation (so tests can assert "zero bridge
// calls" properties) and supports failure injection per operation and per
// open mode.
package bridgetest

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/scopedfs/scopedfs/pkg/bridge"
	"github.com/scopedfs/scopedfs/pkg/entry"
)

// Entry is one fake storage entry.
type Entry struct {
	Kind entry.Kind
	Data []byte
	// Children maps child name to child reference (directories only).
	Children map[string]string
}

type descriptor struct {
	ref  string
	mode entry.AccessMode
	pos  int
}

// Fake is an in-memory bridge.Bridge.
type Fake struct {
	mu          sync.Mutex
	entries     map[string]*Entry
	descriptors map[string]*descriptor
	nextFD      int
	calls       map[bridge.Op]int
	failOps     map[bridge.Op]error
	failModes   map[string]error
	indirect    map[string]bool
}

// New returns an empty fake provider.
func New() *Fake {
	return &Fake{
		entries:     make(map[string]*Entry),
		descriptors: make(map[string]*descriptor),
		calls:       make(map[bridge.Op]int),
		failOps:     make(map[bridge.Op]error),
		failModes:   make(map[string]error),
		indirect:    make(map[string]bool),
	}
}

// AddFile installs a file entry with the given contents.
func (f *Fake) AddFile(ref string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[ref] = &Entry{Kind: entry.KindFile, Data: append([]byte(nil), data...)}
}

// AddDir installs a directory entry whose children map name to child ref.
// Children must be installed separately.
func (f *Fake) AddDir(ref string, children map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make(map[string]string, len(children))
	for k, v := range children {
		cp[k] = v
	}
	f.entries[ref] = &Entry{Kind: entry.KindDirectory, Children: cp}
}

// SetIndirect marks a ref as requiring scratch-routed writes.
func (f *Fake) SetIndirect(ref string, indirect bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indirect[ref] = indirect
}

// FailOp makes every invocation of op fail with err.
func (f *Fake) FailOp(op bridge.Op, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOps[op] = err
}

// FailOpenMode makes OpenDescriptor fail for a specific mode token.
func (f *Fake) FailOpenMode(mode entry.AccessMode, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failModes[mode.Token()] = err
}

// Calls returns the invocation count for op.
func (f *Fake) Calls(op bridge.Op) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// TotalCalls returns the invocation count across all operations.
func (f *Fake) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// Contents returns the current data of a file entry.
func (f *Fake) Contents(ref string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[ref]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), e.Data...), true
}

// OpenDescriptors returns the number of descriptors not yet closed.
func (f *Fake) OpenDescriptors() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.descriptors)
}

func (f *Fake) fail(op bridge.Op, msg string) error {
	return &bridge.InvocationError{Op: op, Message: msg}
}

// Invoke implements bridge.Bridge.
func (f *Fake) Invoke(_ context.Context, op bridge.Op, req, resp any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[op]++

	if err := f.failOps[op]; err != nil {
		return err
	}

	switch op {
	case bridge.OpOpenDescriptor:
		r := req.(bridge.OpenDescriptorRequest)
		return f.openDescriptor(r, resp.(*bridge.OpenDescriptorResponse))
	case bridge.OpCloseDescriptor:
		r := req.(bridge.CloseDescriptorRequest)
		if _, ok := f.descriptors[r.Descriptor]; !ok {
			return f.fail(op, "unknown descriptor "+r.Descriptor)
		}
		delete(f.descriptors, r.Descriptor)
		return nil
	case bridge.OpWriteDescriptor:
		r := req.(bridge.WriteDescriptorRequest)
		return f.writeDescriptor(r, resp.(*bridge.WriteDescriptorResponse))
	case bridge.OpReadDescriptor:
		r := req.(bridge.ReadDescriptorRequest)
		return f.readDescriptor(r, resp.(*bridge.ReadDescriptorResponse))
	case bridge.OpSyncDescriptor:
		r := req.(bridge.SyncDescriptorRequest)
		if _, ok := f.descriptors[r.Descriptor]; !ok {
			return f.fail(op, "unknown descriptor "+r.Descriptor)
		}
		return nil
	case bridge.OpResizeDescriptor:
		r := req.(bridge.ResizeDescriptorRequest)
		return f.resizeDescriptor(r)
	case bridge.OpCopyFromLocal:
		r := req.(bridge.CopyFromLocalRequest)
		return f.copyFromLocal(r, resp.(*bridge.CopyFromLocalResponse))
	case bridge.OpListDirectory:
		r := req.(bridge.ListDirectoryRequest)
		return f.listDirectory(r, resp.(*bridge.ListDirectoryResponse))
	case bridge.OpQueryType:
		r := req.(bridge.QueryTypeRequest)
		out := resp.(*bridge.QueryTypeResponse)
		e, ok := f.entries[r.Reference]
		if !ok {
			out.Kind = bridge.KindMissing
		} else {
			out.Kind = e.Kind.String()
		}
		return nil
	case bridge.OpQueryWriteRouting:
		r := req.(bridge.QueryWriteRoutingRequest)
		resp.(*bridge.QueryWriteRoutingResponse).Indirect = f.indirect[r.Reference]
		return nil
	default:
		return f.fail(op, "unimplemented")
	}
}

func (f *Fake) openDescriptor(r bridge.OpenDescriptorRequest, out *bridge.OpenDescriptorResponse) error {
	if err := f.failModes[r.Mode]; err != nil {
		return err
	}

	mode, ok := entry.ParseAccessMode(r.Mode)
	if !ok {
		return f.fail(bridge.OpOpenDescriptor, "unsupported mode "+r.Mode)
	}

	e, exists := f.entries[r.Reference]
	if !exists {
		if !mode.Writable() {
			return f.fail(bridge.OpOpenDescriptor, "no such entry "+r.Reference)
		}
		e = &Entry{Kind: entry.KindFile}
		f.entries[r.Reference] = e
	}
	if e.Kind == entry.KindDirectory {
		return f.fail(bridge.OpOpenDescriptor, "is a directory: "+r.Reference)
	}

	d := &descriptor{ref: r.Reference, mode: mode}
	switch mode {
	case entry.ModeWriteTruncate, entry.ModeReadWriteTruncate:
		e.Data = nil
	case entry.ModeWriteAppend:
		d.pos = len(e.Data)
	}
	// The generic write mode deliberately leaves existing data in place
	// and overwrites from offset zero, so a short write leaves a stale
	// tail. That is exactly the provider behavior the truncation
	// guarantor exists to paper over.

	f.nextFD++
	id := strconv.Itoa(f.nextFD)
	f.descriptors[id] = d
	out.Descriptor = id
	return nil
}

func (f *Fake) writeDescriptor(r bridge.WriteDescriptorRequest, out *bridge.WriteDescriptorResponse) error {
	d, ok := f.descriptors[r.Descriptor]
	if !ok {
		return f.fail(bridge.OpWriteDescriptor, "unknown descriptor "+r.Descriptor)
	}
	if !d.mode.Writable() {
		return f.fail(bridge.OpWriteDescriptor, "descriptor not writable")
	}

	e := f.entries[d.ref]
	end := d.pos + len(r.Data)
	if end > len(e.Data) {
		grown := make([]byte, end)
		copy(grown, e.Data)
		e.Data = grown
	}
	copy(e.Data[d.pos:end], r.Data)
	d.pos = end
	out.Written = len(r.Data)
	return nil
}

func (f *Fake) readDescriptor(r bridge.ReadDescriptorRequest, out *bridge.ReadDescriptorResponse) error {
	d, ok := f.descriptors[r.Descriptor]
	if !ok {
		return f.fail(bridge.OpReadDescriptor, "unknown descriptor "+r.Descriptor)
	}
	e := f.entries[d.ref]
	if d.pos >= len(e.Data) {
		out.EOF = true
		return nil
	}
	end := min(d.pos+r.Length, len(e.Data))
	out.Data = append([]byte(nil), e.Data[d.pos:end]...)
	d.pos = end
	out.EOF = end == len(e.Data)
	return nil
}

func (f *Fake) resizeDescriptor(r bridge.ResizeDescriptorRequest) error {
	d, ok := f.descriptors[r.Descriptor]
	if !ok {
		return f.fail(bridge.OpResizeDescriptor, "unknown descriptor "+r.Descriptor)
	}
	e := f.entries[d.ref]
	switch {
	case r.Size < int64(len(e.Data)):
		e.Data = e.Data[:r.Size]
	case r.Size > int64(len(e.Data)):
		grown := make([]byte, r.Size)
		copy(grown, e.Data)
		e.Data = grown
	}
	return nil
}

func (f *Fake) copyFromLocal(r bridge.CopyFromLocalRequest, out *bridge.CopyFromLocalResponse) error {
	data, err := os.ReadFile(r.SourcePath)
	if err != nil {
		return f.fail(bridge.OpCopyFromLocal, fmt.Sprintf("reading %s: %v", r.SourcePath, err))
	}
	e, ok := f.entries[r.TargetRef]
	if !ok {
		e = &Entry{Kind: entry.KindFile}
		f.entries[r.TargetRef] = e
	}
	e.Data = append([]byte(nil), data...)
	out.Copied = int64(len(data))
	return nil
}

func (f *Fake) listDirectory(r bridge.ListDirectoryRequest, out *bridge.ListDirectoryResponse) error {
	e, ok := f.entries[r.Reference]
	if !ok {
		return f.fail(bridge.OpListDirectory, "no such entry "+r.Reference)
	}
	if e.Kind != entry.KindDirectory {
		return f.fail(bridge.OpListDirectory, "not a directory: "+r.Reference)
	}
	for name, childRef := range e.Children {
		kind := bridge.KindMissing
		if child, ok := f.entries[childRef]; ok {
			kind = child.Kind.String()
		}
		out.Entries = append(out.Entries, bridge.DirEntry{Name: name, Reference: childRef, Kind: kind})
	}
	return nil
}
