package resolve

import "errors"

// Standard resolution errors. Callers should match with errors.Is.
var (
	// ErrInvalidRelativePath indicates the relative path contains a
	// parent-directory or current-directory segment, an empty segment,
	// or an absolute root prefix. Resolution fails before any bridge
	// call is issued.
	ErrInvalidRelativePath = errors.New("invalid relative path")

	// ErrNotFound indicates segment-wise resolution reached a path
	// segment with no matching child, or the type probe reported the
	// resolved entry missing.
	ErrNotFound = errors.New("entry not found")

	// ErrTypeMismatch indicates the resolved entry exists but is not of
	// the kind the caller required.
	ErrTypeMismatch = errors.New("entry type mismatch")
)
