package bridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scopedfs/scopedfs/pkg/executor"
)

// countingStrategy wraps Inline and counts how many steps pass through it.
type countingStrategy struct {
	runs int
}

func (s *countingStrategy) Name() string { return "counting" }

func (s *countingStrategy) Run(ctx context.Context, step func() error) error {
	s.runs++
	return executor.Inline{}.Run(ctx, step)
}

type echoBridge struct {
	invoked int
}

func (b *echoBridge) Invoke(_ context.Context, _ Op, _, resp any) error {
	b.invoked++
	if out, ok := resp.(*QueryTypeResponse); ok {
		out.Kind = "file"
	}
	return nil
}

func TestWithStrategyRoutesEveryInvocation(t *testing.T) {
	inner := &echoBridge{}
	strategy := &countingStrategy{}
	b := WithStrategy(inner, strategy)

	var resp QueryTypeResponse
	for range 3 {
		require.NoError(t, b.Invoke(context.Background(), OpQueryType, QueryTypeRequest{Reference: "/f"}, &resp))
	}

	assert.Equal(t, 3, strategy.runs)
	assert.Equal(t, 3, inner.invoked)
	assert.Equal(t, "file", resp.Kind)
}

func TestWithStrategyNilStrategyIsIdentity(t *testing.T) {
	inner := &echoBridge{}
	assert.Same(t, Bridge(inner), WithStrategy(inner, nil))
}

func TestWithStrategyHonorsDoneContext(t *testing.T) {
	inner := &echoBridge{}
	b := WithStrategy(inner, executor.Inline{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Invoke(ctx, OpQueryType, QueryTypeRequest{Reference: "/f"}, &QueryTypeResponse{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, inner.invoked)
}
