// Package entry defines the reference model for provider-issued storage
// entries: opaque references, entry kinds, and platform open modes.
package entry

// Ref identifies a file or directory held by a storage provider.
//
// The Reference string is opaque: depending on the provider it may be a
// filesystem path, a structured provider URI, or an arbitrary token. Two
// refs denote the same entry exactly when their Reference strings are equal.
//
// RootGrant is set only for entries descended from a user-granted directory
// tree. It is inherited by children during resolution and carries no
// lifecycle of its own.
type Ref struct {
	Reference string `json:"reference"`
	RootGrant string `json:"root_grant,omitempty"`
}

// NewRef returns a ref with no root-grant context.
func NewRef(reference string) Ref {
	return Ref{Reference: reference}
}

// Granted returns a copy of r tagged with the given root grant.
func (r Ref) Granted(grant string) Ref {
	r.RootGrant = grant
	return r
}

// IsZero reports whether the ref carries no reference string.
func (r Ref) IsZero() bool {
	return r.Reference == ""
}

// Equal reports reference equality. Root grants do not participate:
// the same entry reached through two grants is still the same entry.
func (r Ref) Equal(other Ref) bool {
	return r.Reference == other.Reference
}

func (r Ref) String() string {
	return r.Reference
}

// Kind classifies a storage entry.
type Kind int

const (
	// KindAny matches any entry kind. Resolution callers pass KindAny to
	// skip the post-resolution type probe entirely.
	KindAny Kind = iota

	// KindFile is a regular file entry.
	KindFile

	// KindDirectory is a directory entry.
	KindDirectory
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	case KindAny:
		return "any"
	default:
		return "unknown"
	}
}

// ParseKind maps a provider-reported kind token back to a Kind.
// Unknown tokens map to KindAny.
func ParseKind(s string) Kind {
	switch s {
	case "file":
		return KindFile
	case "directory":
		return KindDirectory
	default:
		return KindAny
	}
}
