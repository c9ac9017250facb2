// Package executor provides the two execution strategies every blocking
// step in this library runs under: inline on the caller's goroutine, or
// offloaded to a fixed worker pool with the caller parked until the worker
// finishes. Both strategies produce identical observable results; the
// choice only changes where the blocking call executes.
package executor

import "context"

// Strategy runs a single blocking step.
//
// Run returns the step's own error. A context that is already done before
// the step starts short-circuits with ctx.Err(); once a step has started
// it always runs to completion.
type Strategy interface {
	Name() string
	Run(ctx context.Context, step func() error) error
}

// Inline executes steps directly on the calling goroutine.
type Inline struct{}

func (Inline) Name() string { return "inline" }

func (Inline) Run(ctx context.Context, step func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return step()
}
