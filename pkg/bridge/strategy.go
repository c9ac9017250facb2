package bridge

import (
	"context"

	"github.com/scopedfs/scopedfs/pkg/executor"
)

// strategyBridge routes every invocation through an execution strategy.
// This is the single seam the sync/async duality passes through: resolution,
// negotiation, and reflect are written once against Bridge, and the strategy
// decides whether the blocking call runs inline or on a worker.
type strategyBridge struct {
	inner Bridge
	exec  executor.Strategy
}

// WithStrategy wraps b so that Invoke runs under the given strategy.
// A nil strategy returns b unchanged.
func WithStrategy(b Bridge, exec executor.Strategy) Bridge {
	if exec == nil {
		return b
	}
	return &strategyBridge{inner: b, exec: exec}
}

func (s *strategyBridge) Invoke(ctx context.Context, op Op, req, resp any) error {
	return s.exec.Run(ctx, func() error {
		return s.inner.Invoke(ctx, op, req, resp)
	})
}
