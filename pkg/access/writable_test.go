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

func TestLegacyWriteTruncates(t *testing.T) {
	assert.False(t, Platform{}.LegacyWriteTruncates(), "unknown generation must not assume truncation")
	assert.True(t, Platform{Generation: 28}.LegacyWriteTruncates())
	assert.True(t, Platform{Generation: 1}.LegacyWriteTruncates())
	assert.False(t, Platform{Generation: 29}.LegacyWriteTruncates())
}

func TestOpenWritableLegacyGeneration(t *testing.T) {
	fake := bridgetest.New()
	fake.AddFile("/f", []byte("previous"))

	// On legacy generations the generic write mode truncates on its own:
	// one open, no mode probing, no forced resize.
	h, err := OpenWritable(context.Background(), fake, Platform{Generation: 25}, entry.NewRef("/f"))
	require.NoError(t, err)
	defer func() { _ = h.Close(context.Background()) }()

	assert.Equal(t, entry.ModeWrite, h.Mode())
	assert.Equal(t, 1, fake.Calls(bridge.OpOpenDescriptor))
	assert.Zero(t, fake.Calls(bridge.OpResizeDescriptor))
}

func TestOpenWritableTruncatingModePreferred(t *testing.T) {
	fake := bridgetest.New()
	fake.AddFile("/f", []byte("previous contents"))

	h, err := OpenWritable(context.Background(), fake, Platform{Generation: 33}, entry.NewRef("/f"))
	require.NoError(t, err)

	_, err = h.Write(context.Background(), []byte("new"))
	require.NoError(t, err)
	require.NoError(t, h.Close(context.Background()))

	// The truncating mode succeeded, so no forced resize was needed.
	assert.Zero(t, fake.Calls(bridge.OpResizeDescriptor))

	data, ok := fake.Contents("/f")
	require.True(t, ok)
	assert.Equal(t, "new", string(data))
}

func TestOpenWritableForcesResizeForGenericWrite(t *testing.T) {
	fake := bridgetest.New()
	fake.AddFile("/f", []byte("a much longer previous body"))
	fake.FailOpenMode(entry.ModeWriteTruncate, errors.New("wt unsupported"))
	fake.FailOpenMode(entry.ModeReadWriteTruncate, errors.New("rwt unsupported"))

	h, err := OpenWritable(context.Background(), fake, Platform{Generation: 33}, entry.NewRef("/f"))
	require.NoError(t, err)

	assert.Equal(t, entry.ModeWrite, h.Mode())
	assert.Equal(t, 1, fake.Calls(bridge.OpResizeDescriptor))

	_, err = h.Write(context.Background(), []byte("short"))
	require.NoError(t, err)
	require.NoError(t, h.Close(context.Background()))

	// Without the forced resize the old tail would survive the short write.
	data, ok := fake.Contents("/f")
	require.True(t, ok)
	assert.Equal(t, "short", string(data))
}

func TestOpenWritableResizeFailureSurfaces(t *testing.T) {
	fake := bridgetest.New()
	fake.AddFile("/f", []byte("stale"))
	fake.FailOpenMode(entry.ModeWriteTruncate, errors.New("wt unsupported"))
	fake.FailOpenMode(entry.ModeReadWriteTruncate, errors.New("rwt unsupported"))
	resizeErr := errors.New("provider rejects resize")
	fake.FailOp(bridge.OpResizeDescriptor, resizeErr)

	_, err := OpenWritable(context.Background(), fake, Platform{Generation: 33}, entry.NewRef("/f"))
	assert.ErrorIs(t, err, resizeErr)

	// The unusable handle is not leaked.
	assert.Zero(t, fake.OpenDescriptors())
}

func TestOpenWritableAllModesRejected(t *testing.T) {
	fake := bridgetest.New()
	fake.AddFile("/f", nil)
	for _, m := range []entry.AccessMode{entry.ModeWriteTruncate, entry.ModeReadWriteTruncate, entry.ModeWrite} {
		fake.FailOpenMode(m, errors.New(m.Token()+" unsupported"))
	}

	_, err := OpenWritable(context.Background(), fake, Platform{Generation: 33}, entry.NewRef("/f"))
	assert.ErrorIs(t, err, ErrAllModesFailed)
}
