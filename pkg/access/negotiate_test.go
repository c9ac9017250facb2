package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scopedfs/scopedfs/pkg/bridge"
	"github.com/scopedfs/scopedfs/pkg/bridge/bridgetest"
	"github.com/scopedfs/scopedfs/pkg/entry"
)

func TestOpenWithFallbackEmptyCandidates(t *testing.T) {
	fake := bridgetest.New()

	_, _, err := OpenWithFallback(context.Background(), fake, entry.NewRef("/f"), nil)
	assert.ErrorIs(t, err, ErrNoCandidateModes)
	assert.Zero(t, fake.TotalCalls(), "an empty candidate list must not reach the provider")
}

func TestOpenWithFallbackFirstModeWins(t *testing.T) {
	fake := bridgetest.New()
	fake.AddFile("/f", []byte("hello"))

	h, used, err := OpenWithFallback(context.Background(), fake, entry.NewRef("/f"),
		[]entry.AccessMode{entry.ModeRead, entry.ModeReadWrite})
	require.NoError(t, err)
	defer func() { _ = h.Close(context.Background()) }()

	assert.Equal(t, entry.ModeRead, used)
	assert.Equal(t, 1, fake.Calls(bridge.OpOpenDescriptor))

	buf := make([]byte, 16)
	n, err := h.Read(context.Background(), buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))
}

func TestOpenWithFallbackSkipsRejectedMode(t *testing.T) {
	fake := bridgetest.New()
	fake.AddFile("/f", nil)
	fake.FailOpenMode(entry.ModeWriteTruncate, errors.New("mode not supported"))

	h, used, err := OpenWithFallback(context.Background(), fake, entry.NewRef("/f"),
		[]entry.AccessMode{entry.ModeWriteTruncate, entry.ModeReadWriteTruncate})
	require.NoError(t, err, "a per-mode failure must not surface when a later mode works")
	defer func() { _ = h.Close(context.Background()) }()

	assert.Equal(t, entry.ModeReadWriteTruncate, used)
	assert.Equal(t, 2, fake.Calls(bridge.OpOpenDescriptor))
}

func TestOpenWithFallbackExhaustion(t *testing.T) {
	fake := bridgetest.New()
	fake.AddFile("/f", nil)
	errWT := errors.New("wt rejected")
	errW := errors.New("w rejected")
	fake.FailOpenMode(entry.ModeWriteTruncate, errWT)
	fake.FailOpenMode(entry.ModeWrite, errW)

	_, _, err := OpenWithFallback(context.Background(), fake, entry.NewRef("/f"),
		[]entry.AccessMode{entry.ModeWriteTruncate, entry.ModeWrite})

	assert.ErrorIs(t, err, ErrAllModesFailed)
	assert.ErrorIs(t, err, errWT)
	assert.ErrorIs(t, err, errW)

	var negErr *NegotiationError
	require.ErrorAs(t, err, &negErr)
	assert.Equal(t, "/f", negErr.Ref)
	assert.Len(t, negErr.ModeErrs, 2)
}

func TestHandleClosedOperations(t *testing.T) {
	fake := bridgetest.New()
	fake.AddFile("/f", []byte("x"))

	h, _, err := OpenWithFallback(context.Background(), fake, entry.NewRef("/f"),
		[]entry.AccessMode{entry.ModeReadWrite})
	require.NoError(t, err)
	require.NoError(t, h.Close(context.Background()))

	_, err = h.Read(context.Background(), make([]byte, 1))
	assert.ErrorIs(t, err, ErrHandleClosed)
	_, err = h.Write(context.Background(), []byte("y"))
	assert.ErrorIs(t, err, ErrHandleClosed)
	assert.ErrorIs(t, h.Sync(context.Background()), ErrHandleClosed)
	assert.ErrorIs(t, h.Resize(context.Background(), 0), ErrHandleClosed)

	// Double close is a no-op, not an error.
	assert.NoError(t, h.Close(context.Background()))
	assert.Equal(t, 1, fake.Calls(bridge.OpCloseDescriptor))
}
