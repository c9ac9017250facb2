// Package devhost implements a local provider host over a directory tree.
// It serves the bridge operations via HTTP so development and end-to-end
// tests can run against a real round trip on hosts that have no native
// provider component.
//
// The host issues references in three shapes, mirroring what real providers
// hand out: structured tree-document refs (content://devhost/tree/...),
// opaque refs (opq://<hex>), and plain file:// refs for entries addressed
// by absolute path.
package devhost

import (
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/scopedfs/scopedfs/internal/logger"
	"github.com/scopedfs/scopedfs/pkg/bridge"
	"github.com/scopedfs/scopedfs/pkg/entry"
)

// grantName is the single root grant the dev host exposes.
const grantName = "root"

var treeDocPattern = regexp.MustCompile(`^content://devhost/tree/([^/]+)/document/(.+)$`)

// opError is a provider-side failure with an HTTP status.
type opError struct {
	status int
	msg    string
}

func (e *opError) Error() string { return e.msg }

func errBadRequest(format string, args ...any) error {
	return &opError{status: 400, msg: fmt.Sprintf(format, args...)}
}

func errNotFound(format string, args ...any) error {
	return &opError{status: 404, msg: fmt.Sprintf(format, args...)}
}

func errInternal(format string, args ...any) error {
	return &opError{status: 500, msg: fmt.Sprintf(format, args...)}
}

// Host serves bridge operations over a local directory tree.
type Host struct {
	root string

	// rejectModes simulates a provider with a limited mode capability
	// set: OpenDescriptor fails for these mode tokens.
	rejectModes map[string]bool

	// indirectOpaque routes writes to opaque refs through scratch
	// copies, which is how the flakier real providers behave.
	indirectOpaque bool

	mu          sync.Mutex
	descriptors map[string]*hostDescriptor
	nextFD      int
}

type hostDescriptor struct {
	f    *os.File
	mode entry.AccessMode
}

// Option customizes a Host.
type Option func(*Host)

// WithRejectedModes makes OpenDescriptor fail for the given modes,
// simulating providers with incomplete capability sets.
func WithRejectedModes(modes ...entry.AccessMode) Option {
	return func(h *Host) {
		for _, m := range modes {
			h.rejectModes[m.Token()] = true
		}
	}
}

// WithDirectOpaqueWrites disables scratch routing for opaque refs.
func WithDirectOpaqueWrites() Option {
	return func(h *Host) { h.indirectOpaque = false }
}

// New creates a host backed by the directory at root.
func New(root string, opts ...Option) *Host {
	h := &Host{
		root:           root,
		rejectModes:    make(map[string]bool),
		indirectOpaque: true,
		descriptors:    make(map[string]*hostDescriptor),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RootRef returns the structured ref of the host's granted tree root.
func (h *Host) RootRef() entry.Ref {
	return entry.Ref{
		Reference: "content://devhost/tree/" + grantName + "/document/" + grantName,
		RootGrant: grantName,
	}
}

// OpaqueRootRef returns the opaque ref of the root, forcing callers down
// the segment-walk resolution path and scratch-buffered writes.
func (h *Host) OpaqueRootRef() entry.Ref {
	return entry.Ref{Reference: opaqueRef(".")}
}

func opaqueRef(relPath string) string {
	return "opq://" + hex.EncodeToString([]byte(relPath))
}

// resolveRef maps any supported ref shape to a path under the host root.
func (h *Host) resolveRef(ref string) (string, error) {
	switch {
	case strings.HasPrefix(ref, "opq://"):
		raw, err := hex.DecodeString(strings.TrimPrefix(ref, "opq://"))
		if err != nil {
			return "", errBadRequest("malformed opaque ref %q", ref)
		}
		return h.join(string(raw))

	case treeDocPattern.MatchString(ref):
		m := treeDocPattern.FindStringSubmatch(ref)
		if m[1] != grantName {
			return "", errNotFound("unknown grant %q", m[1])
		}
		doc, err := url.PathUnescape(m[2])
		if err != nil {
			return "", errBadRequest("malformed document segment in %q", ref)
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(doc, grantName), "/")
		if rel == "" {
			rel = "."
		}
		return h.join(rel)

	case strings.HasPrefix(ref, "file://"):
		return h.confine(strings.TrimPrefix(ref, "file://"))

	case strings.HasPrefix(ref, "/"):
		return h.confine(ref)

	default:
		return "", errBadRequest("unsupported ref shape %q", ref)
	}
}

// join resolves a relative path under the root, rejecting escapes.
func (h *Host) join(rel string) (string, error) {
	path := filepath.Join(h.root, filepath.FromSlash(rel))
	return h.confine(path)
}

// confine ensures path stays inside the host root.
func (h *Host) confine(path string) (string, error) {
	cleaned := filepath.Clean(path)
	if cleaned != h.root && !strings.HasPrefix(cleaned, h.root+string(filepath.Separator)) {
		return "", errNotFound("ref outside granted tree")
	}
	return cleaned, nil
}

// childRef builds a child's ref in the same shape as its parent's ref.
func (h *Host) childRef(parentRef, childPath string) string {
	rel, err := filepath.Rel(h.root, childPath)
	if err != nil {
		rel = childPath
	}
	rel = filepath.ToSlash(rel)

	switch {
	case strings.HasPrefix(parentRef, "opq://"):
		return opaqueRef(rel)
	case treeDocPattern.MatchString(parentRef):
		doc := grantName
		for _, seg := range strings.Split(rel, "/") {
			doc += "%2F" + url.PathEscape(seg)
		}
		return "content://devhost/tree/" + grantName + "/document/" + doc
	default:
		return "file://" + childPath
	}
}

func openFlags(mode entry.AccessMode) int {
	switch mode {
	case entry.ModeRead:
		return os.O_RDONLY
	case entry.ModeWrite:
		// Deliberately no O_TRUNC: the generic write mode leaves
		// existing bytes in place, as real providers do.
		return os.O_WRONLY | os.O_CREATE
	case entry.ModeWriteTruncate:
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case entry.ModeWriteAppend:
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND
	case entry.ModeReadWrite:
		return os.O_RDWR | os.O_CREATE
	case entry.ModeReadWriteTruncate:
		return os.O_RDWR | os.O_CREATE | os.O_TRUNC
	default:
		return os.O_RDONLY
	}
}

func (h *Host) openDescriptor(req bridge.OpenDescriptorRequest) (bridge.OpenDescriptorResponse, error) {
	var resp bridge.OpenDescriptorResponse

	if h.rejectModes[req.Mode] {
		return resp, errBadRequest("provider does not support mode %q", req.Mode)
	}
	mode, ok := entry.ParseAccessMode(req.Mode)
	if !ok {
		return resp, errBadRequest("unknown mode %q", req.Mode)
	}

	path, err := h.resolveRef(req.Reference)
	if err != nil {
		return resp, err
	}

	f, err := os.OpenFile(path, openFlags(mode), 0o644)
	if err != nil {
		if os.IsNotExist(err) {
			return resp, errNotFound("no such entry %q", req.Reference)
		}
		return resp, errInternal("opening %q: %v", req.Reference, err)
	}

	h.mu.Lock()
	h.nextFD++
	id := strconv.Itoa(h.nextFD)
	h.descriptors[id] = &hostDescriptor{f: f, mode: mode}
	h.mu.Unlock()

	resp.Descriptor = id
	return resp, nil
}

func (h *Host) descriptor(id string) (*hostDescriptor, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	d, ok := h.descriptors[id]
	if !ok {
		return nil, errBadRequest("unknown descriptor %q", id)
	}
	return d, nil
}

func (h *Host) closeDescriptor(req bridge.CloseDescriptorRequest) (bridge.CloseDescriptorResponse, error) {
	var resp bridge.CloseDescriptorResponse

	h.mu.Lock()
	d, ok := h.descriptors[req.Descriptor]
	delete(h.descriptors, req.Descriptor)
	h.mu.Unlock()

	if !ok {
		return resp, errBadRequest("unknown descriptor %q", req.Descriptor)
	}
	if err := d.f.Close(); err != nil {
		return resp, errInternal("closing descriptor: %v", err)
	}
	return resp, nil
}

func (h *Host) writeDescriptor(req bridge.WriteDescriptorRequest) (bridge.WriteDescriptorResponse, error) {
	var resp bridge.WriteDescriptorResponse

	d, err := h.descriptor(req.Descriptor)
	if err != nil {
		return resp, err
	}
	n, err := d.f.Write(req.Data)
	if err != nil {
		return resp, errInternal("write failed: %v", err)
	}
	resp.Written = n
	return resp, nil
}

func (h *Host) readDescriptor(req bridge.ReadDescriptorRequest) (bridge.ReadDescriptorResponse, error) {
	var resp bridge.ReadDescriptorResponse

	d, err := h.descriptor(req.Descriptor)
	if err != nil {
		return resp, err
	}

	buf := make([]byte, req.Length)
	n, err := d.f.Read(buf)
	if n > 0 {
		resp.Data = buf[:n]
	}
	if err == io.EOF {
		resp.EOF = true
		return resp, nil
	}
	if err != nil {
		return resp, errInternal("read failed: %v", err)
	}
	return resp, nil
}

func (h *Host) syncDescriptor(req bridge.SyncDescriptorRequest) (bridge.SyncDescriptorResponse, error) {
	var resp bridge.SyncDescriptorResponse

	d, err := h.descriptor(req.Descriptor)
	if err != nil {
		return resp, err
	}
	if err := d.f.Sync(); err != nil {
		return resp, errInternal("sync failed: %v", err)
	}
	return resp, nil
}

func (h *Host) resizeDescriptor(req bridge.ResizeDescriptorRequest) (bridge.ResizeDescriptorResponse, error) {
	var resp bridge.ResizeDescriptorResponse

	d, err := h.descriptor(req.Descriptor)
	if err != nil {
		return resp, err
	}
	if err := d.f.Truncate(req.Size); err != nil {
		return resp, errInternal("resize failed: %v", err)
	}
	logger.Debug("devhost: descriptor resized",
		logger.KeySize, req.Size)
	return resp, nil
}

func (h *Host) copyFromLocal(req bridge.CopyFromLocalRequest) (bridge.CopyFromLocalResponse, error) {
	var resp bridge.CopyFromLocalResponse

	targetPath, err := h.resolveRef(req.TargetRef)
	if err != nil {
		return resp, err
	}

	src, err := os.Open(req.SourcePath)
	if err != nil {
		return resp, errNotFound("no such source %q", req.SourcePath)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.Create(targetPath)
	if err != nil {
		return resp, errInternal("creating target: %v", err)
	}

	n, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return resp, errInternal("copying to target: %v", err)
	}
	resp.Copied = n
	logger.Debug("devhost: reflected local file",
		logger.KeyTarget, req.TargetRef,
		logger.KeyBytesCopied, n)
	return resp, nil
}

func (h *Host) listDirectory(req bridge.ListDirectoryRequest) (bridge.ListDirectoryResponse, error) {
	var resp bridge.ListDirectoryResponse

	path, err := h.resolveRef(req.Reference)
	if err != nil {
		return resp, err
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return resp, errNotFound("no such entry %q", req.Reference)
		}
		return resp, errInternal("listing %q: %v", req.Reference, err)
	}

	for _, de := range entries {
		kind := entry.KindFile
		if de.IsDir() {
			kind = entry.KindDirectory
		}
		resp.Entries = append(resp.Entries, bridge.DirEntry{
			Name:      de.Name(),
			Reference: h.childRef(req.Reference, filepath.Join(path, de.Name())),
			Kind:      kind.String(),
		})
	}
	return resp, nil
}

func (h *Host) queryType(req bridge.QueryTypeRequest) (bridge.QueryTypeResponse, error) {
	var resp bridge.QueryTypeResponse

	path, err := h.resolveRef(req.Reference)
	if err != nil {
		return resp, err
	}

	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		resp.Kind = bridge.KindMissing
	case err != nil:
		return resp, errInternal("stat %q: %v", req.Reference, err)
	case info.IsDir():
		resp.Kind = entry.KindDirectory.String()
	default:
		resp.Kind = entry.KindFile.String()
	}
	logger.Debug("devhost: type probed",
		logger.KeyRef, req.Reference,
		logger.KeyKind, resp.Kind)
	return resp, nil
}

func (h *Host) queryWriteRouting(req bridge.QueryWriteRoutingRequest) (bridge.QueryWriteRoutingResponse, error) {
	var resp bridge.QueryWriteRoutingResponse

	if _, err := h.resolveRef(req.Reference); err != nil {
		return resp, err
	}
	resp.Indirect = h.indirectOpaque && strings.HasPrefix(req.Reference, "opq://")
	return resp, nil
}
