package entry

// AccessMode is a platform-level open intent. The wire tokens follow the
// mobile platform's descriptor-mode convention ("r", "w", "wt", ...).
//
// The generic write mode never guarantees truncation; only the "-truncate"
// variants do, and third-party providers are free to reject those outright.
// Callers that need truncate-on-write semantics must go through
// access.OpenWritable rather than opening with ModeWriteTruncate directly.
type AccessMode int

const (
	// ModeRead opens for reading only.
	ModeRead AccessMode = iota

	// ModeWrite opens for writing with unspecified truncation behavior.
	// Some providers truncate, some append, some overwrite in place.
	ModeWrite

	// ModeWriteTruncate opens for writing and truncates to zero length.
	ModeWriteTruncate

	// ModeWriteAppend opens for writing positioned at the end of the entry.
	ModeWriteAppend

	// ModeReadWrite opens for reading and writing without truncation.
	ModeReadWrite

	// ModeReadWriteTruncate opens for reading and writing and truncates
	// to zero length.
	ModeReadWriteTruncate
)

// Token returns the provider wire token for the mode.
func (m AccessMode) Token() string {
	switch m {
	case ModeRead:
		return "r"
	case ModeWrite:
		return "w"
	case ModeWriteTruncate:
		return "wt"
	case ModeWriteAppend:
		return "wa"
	case ModeReadWrite:
		return "rw"
	case ModeReadWriteTruncate:
		return "rwt"
	default:
		return "r"
	}
}

func (m AccessMode) String() string {
	return m.Token()
}

// Truncates reports whether the mode guarantees the entry starts empty.
func (m AccessMode) Truncates() bool {
	return m == ModeWriteTruncate || m == ModeReadWriteTruncate
}

// Writable reports whether the mode permits writing.
func (m AccessMode) Writable() bool {
	return m != ModeRead
}

// ParseAccessMode maps a wire token back to an AccessMode.
// Unknown tokens report ok == false.
func ParseAccessMode(token string) (AccessMode, bool) {
	switch token {
	case "r":
		return ModeRead, true
	case "w":
		return ModeWrite, true
	case "wt":
		return ModeWriteTruncate, true
	case "wa":
		return ModeWriteAppend, true
	case "rw":
		return ModeReadWrite, true
	case "rwt":
		return ModeReadWriteTruncate, true
	default:
		return ModeRead, false
	}
}
