package devhost

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scopedfs/scopedfs/pkg/access"
	"github.com/scopedfs/scopedfs/pkg/bridge"
	"github.com/scopedfs/scopedfs/pkg/entry"
	"github.com/scopedfs/scopedfs/pkg/resolve"
	"github.com/scopedfs/scopedfs/pkg/scratch"
	"github.com/scopedfs/scopedfs/pkg/stream"
)

// newTestHost serves a temp directory and returns the host together with a
// bridge client pointed at it.
func newTestHost(t *testing.T, opts ...Option) (*Host, *bridge.HTTPClient, string) {
	t.Helper()

	root := t.TempDir()
	host := New(root, opts...)
	srv := httptest.NewServer(host.Router())
	t.Cleanup(srv.Close)

	return host, bridge.NewHTTPClient(srv.URL, 5*time.Second, nil), root
}

func TestQueryType(t *testing.T) {
	host, client, root := newTestHost(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))

	ctx := context.Background()
	rootRef := host.RootRef()

	tests := []struct {
		ref  string
		want string
	}{
		{rootRef.Reference, "directory"},
		{rootRef.Reference + "%2Fa.txt", "file"},
		{rootRef.Reference + "%2Fsub", "directory"},
		{rootRef.Reference + "%2Fnope", "missing"},
	}
	for _, tt := range tests {
		var resp bridge.QueryTypeResponse
		err := client.Invoke(ctx, bridge.OpQueryType, bridge.QueryTypeRequest{Reference: tt.ref}, &resp)
		require.NoError(t, err)
		assert.Equal(t, tt.want, resp.Kind, tt.ref)
	}
}

func TestRefEscapeRejected(t *testing.T) {
	_, client, _ := newTestHost(t)

	var resp bridge.QueryTypeResponse
	err := client.Invoke(context.Background(), bridge.OpQueryType,
		bridge.QueryTypeRequest{Reference: "file:///etc/passwd"}, &resp)
	assert.ErrorIs(t, err, bridge.ErrInvocation)
}

func TestStructuredResolveAndRead(t *testing.T) {
	host, client, root := newTestHost(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "note.md"), []byte("hello devhost"), 0o644))

	ctx := context.Background()
	r := resolve.New(client)

	ref, err := r.Resolve(ctx, host.RootRef(), "docs/note.md", entry.KindFile)
	require.NoError(t, err)

	h, used, err := access.OpenWithFallback(ctx, client, ref, []entry.AccessMode{entry.ModeRead})
	require.NoError(t, err)
	defer func() { _ = h.Close(ctx) }()
	assert.Equal(t, entry.ModeRead, used)

	data := readAll(t, ctx, h)
	assert.Equal(t, "hello devhost", string(data))
}

func TestOpaqueWalkResolve(t *testing.T) {
	host, client, root := newTestHost(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "b", "f.txt"), []byte("deep"), 0o644))

	ctx := context.Background()
	r := resolve.New(client)

	ref, err := r.Resolve(ctx, host.OpaqueRootRef(), "a/b/f.txt", entry.KindFile)
	require.NoError(t, err)

	h, _, err := access.OpenWithFallback(ctx, client, ref, []entry.AccessMode{entry.ModeRead})
	require.NoError(t, err)
	defer func() { _ = h.Close(ctx) }()

	assert.Equal(t, "deep", string(readAll(t, ctx, h)))
}

func TestListDirectoryKeepsRefShape(t *testing.T) {
	host, client, root := newTestHost(t)
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "f"), nil, 0o644))

	ctx := context.Background()

	var resp bridge.ListDirectoryResponse
	err := client.Invoke(ctx, bridge.OpListDirectory,
		bridge.ListDirectoryRequest{Reference: host.RootRef().Reference}, &resp)
	require.NoError(t, err)
	require.Len(t, resp.Entries, 2)
	for _, e := range resp.Entries {
		assert.Contains(t, e.Reference, "content://devhost/tree/", "children inherit the parent's ref shape")
	}

	resp = bridge.ListDirectoryResponse{}
	err = client.Invoke(ctx, bridge.OpListDirectory,
		bridge.ListDirectoryRequest{Reference: host.OpaqueRootRef().Reference}, &resp)
	require.NoError(t, err)
	for _, e := range resp.Entries {
		assert.Contains(t, e.Reference, "opq://")
	}
}

func TestDirectStreamRoundTrip(t *testing.T) {
	host, client, root := newTestHost(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "out.txt"), []byte("previous longer body"), 0o644))

	ctx := context.Background()
	r := resolve.New(client)
	ref, err := r.Resolve(ctx, host.RootRef(), "out.txt", entry.KindAny)
	require.NoError(t, err)

	deps := stream.Deps{
		Bridge:   client,
		Platform: access.Platform{Generation: 34},
		Scratch:  scratch.NewManager(scratch.Config{Dir: filepath.Join(t.TempDir(), "scratch")}, nil),
	}

	w, err := stream.New(ctx, deps, ref)
	require.NoError(t, err)
	assert.False(t, w.Buffered(), "structured refs take the direct path")

	_, err = w.Write(ctx, []byte("new"))
	require.NoError(t, err)
	require.NoError(t, w.Reflect(ctx))

	data, err := os.ReadFile(filepath.Join(root, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestBufferedStreamRoundTripOverOpaqueRef(t *testing.T) {
	host, client, root := newTestHost(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "out.txt"), []byte("previous longer body"), 0o644))

	ctx := context.Background()
	r := resolve.New(client)
	ref, err := r.Resolve(ctx, host.OpaqueRootRef(), "out.txt", entry.KindAny)
	require.NoError(t, err)

	deps := stream.Deps{
		Bridge:   client,
		Platform: access.Platform{Generation: 34},
		Scratch:  scratch.NewManager(scratch.Config{Dir: filepath.Join(t.TempDir(), "scratch")}, nil),
	}

	w, err := stream.New(ctx, deps, ref)
	require.NoError(t, err)
	assert.True(t, w.Buffered(), "opaque refs route through scratch")

	_, err = w.Write(ctx, []byte("replaced"))
	require.NoError(t, err)
	require.NoError(t, w.Reflect(ctx))

	data, err := os.ReadFile(filepath.Join(root, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "replaced", string(data))
}

func TestRejectedModesForceFallback(t *testing.T) {
	host, client, root := newTestHost(t, WithRejectedModes(entry.ModeWriteTruncate, entry.ModeReadWriteTruncate))
	require.NoError(t, os.WriteFile(filepath.Join(root, "f"), []byte("a long stale body"), 0o644))

	ctx := context.Background()
	r := resolve.New(client)
	ref, err := r.Resolve(ctx, host.RootRef(), "f", entry.KindFile)
	require.NoError(t, err)

	// Only the generic write mode is left, so the open is followed by a
	// forced resize to keep the truncate-on-write contract.
	h, err := access.OpenWritable(ctx, client, access.Platform{Generation: 34}, ref)
	require.NoError(t, err)
	assert.Equal(t, entry.ModeWrite, h.Mode())

	_, err = h.Write(ctx, []byte("tiny"))
	require.NoError(t, err)
	require.NoError(t, h.Close(ctx))

	data, err := os.ReadFile(filepath.Join(root, "f"))
	require.NoError(t, err)
	assert.Equal(t, "tiny", string(data))
}

func TestOpenMissingFileFails(t *testing.T) {
	host, client, _ := newTestHost(t)

	_, _, err := access.OpenWithFallback(context.Background(), client,
		entry.Ref{Reference: host.RootRef().Reference + "%2Fmissing"},
		[]entry.AccessMode{entry.ModeRead})
	assert.ErrorIs(t, err, access.ErrAllModesFailed)
}

func readAll(t *testing.T, ctx context.Context, h access.Handle) []byte {
	t.Helper()
	var out []byte
	buf := make([]byte, 4096)
	for {
		n, err := h.Read(ctx, buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
	}
}
