package access

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCandidateModes indicates OpenWithFallback was called with an
	// empty mode list. No bridge call is issued.
	ErrNoCandidateModes = errors.New("no candidate open modes")

	// ErrAllModesFailed indicates every candidate mode was rejected by
	// the provider. The wrapping *NegotiationError carries the per-mode
	// failures.
	ErrAllModesFailed = errors.New("all open modes failed")

	// ErrHandleClosed is returned by operations on a closed handle.
	ErrHandleClosed = errors.New("handle closed")
)

// NegotiationError aggregates the per-mode failures of an exhausted
// negotiation. It matches ErrAllModesFailed and each underlying mode error
// through errors.Is.
type NegotiationError struct {
	Ref      string
	ModeErrs []error
}

func (e *NegotiationError) Error() string {
	return fmt.Sprintf("no usable open mode for %q: %v", e.Ref, errors.Join(e.ModeErrs...))
}

func (e *NegotiationError) Unwrap() []error {
	errs := make([]error, 0, len(e.ModeErrs)+1)
	errs = append(errs, ErrAllModesFailed)
	errs = append(errs, e.ModeErrs...)
	return errs
}
