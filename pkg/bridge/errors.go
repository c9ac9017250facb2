package bridge

import (
	"errors"
	"fmt"
)

// ErrInvocation indicates a bridge operation reached the provider side and
// came back with an error. The provider's message is preserved verbatim in
// the wrapping *InvocationError.
var ErrInvocation = errors.New("bridge invocation failed")

// ErrUnknownOp indicates the provider side does not implement the operation.
var ErrUnknownOp = errors.New("unknown bridge operation")

// InvocationError carries the failing operation, the ref it targeted (when
// the request had one), and the provider's error message.
type InvocationError struct {
	Op      Op
	Ref     string
	Message string
}

func (e *InvocationError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("bridge %s failed for %q: %s", e.Op, e.Ref, e.Message)
	}
	return fmt.Sprintf("bridge %s failed: %s", e.Op, e.Message)
}

// Unwrap lets errors.Is match ErrInvocation through the wrapper.
func (e *InvocationError) Unwrap() error {
	return ErrInvocation
}

// refOf extracts the target reference from a request payload, when present,
// for error reporting.
func refOf(req any) string {
	switch r := req.(type) {
	case OpenDescriptorRequest:
		return r.Reference
	case ListDirectoryRequest:
		return r.Reference
	case QueryTypeRequest:
		return r.Reference
	case QueryWriteRoutingRequest:
		return r.Reference
	case CopyFromLocalRequest:
		return r.TargetRef
	default:
		return ""
	}
}
