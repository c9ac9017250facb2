package bridge

// Request and response payloads for every bridge operation.
//
// Field tags double as the wire schema: json tags define the payload layout,
// validate tags the constraints a well-formed request must satisfy. The
// `scopedfs bridge schema` command reflects these types into JSON Schema.

// OpenDescriptorRequest asks the provider to open an entry.
type OpenDescriptorRequest struct {
	Reference string `json:"reference" validate:"required"`
	Mode      string `json:"mode"      validate:"required,oneof=r w wt wa rw rwt"`
}

// OpenDescriptorResponse carries the provider descriptor id.
type OpenDescriptorResponse struct {
	Descriptor string `json:"descriptor"`
}

// CloseDescriptorRequest releases an open descriptor.
type CloseDescriptorRequest struct {
	Descriptor string `json:"descriptor" validate:"required"`
}

// CloseDescriptorResponse is empty; presence signals success.
type CloseDescriptorResponse struct{}

// WriteDescriptorRequest writes bytes through a descriptor. Data is
// base64-encoded on the wire (encoding/json's []byte convention).
type WriteDescriptorRequest struct {
	Descriptor string `json:"descriptor" validate:"required"`
	Data       []byte `json:"data"`
}

// WriteDescriptorResponse reports how many bytes the provider accepted.
type WriteDescriptorResponse struct {
	Written int `json:"written"`
}

// ReadDescriptorRequest reads up to Length bytes from a descriptor.
type ReadDescriptorRequest struct {
	Descriptor string `json:"descriptor" validate:"required"`
	Length     int    `json:"length"     validate:"gt=0"`
}

// ReadDescriptorResponse carries the bytes read and an EOF marker.
type ReadDescriptorResponse struct {
	Data []byte `json:"data"`
	EOF  bool   `json:"eof"`
}

// SyncDescriptorRequest flushes provider-side buffers.
type SyncDescriptorRequest struct {
	Descriptor string `json:"descriptor" validate:"required"`
}

// SyncDescriptorResponse is empty; presence signals success.
type SyncDescriptorResponse struct{}

// ResizeDescriptorRequest sets the entry length behind a descriptor.
type ResizeDescriptorRequest struct {
	Descriptor string `json:"descriptor" validate:"required"`
	Size       int64  `json:"size"       validate:"gte=0"`
}

// ResizeDescriptorResponse is empty; presence signals success.
type ResizeDescriptorResponse struct{}

// CopyFromLocalRequest copies a local file into the target entry,
// replacing its contents.
type CopyFromLocalRequest struct {
	SourcePath string `json:"source_path" validate:"required"`
	TargetRef  string `json:"target_ref"  validate:"required"`
}

// CopyFromLocalResponse reports the number of bytes copied.
type CopyFromLocalResponse struct {
	Copied int64 `json:"copied"`
}

// ListDirectoryRequest lists the children of a directory ref.
type ListDirectoryRequest struct {
	Reference string `json:"reference" validate:"required"`
}

// DirEntry is one child in a directory listing.
type DirEntry struct {
	Name      string `json:"name"`
	Reference string `json:"reference"`
	Kind      string `json:"kind"`
}

// ListDirectoryResponse carries the directory's children.
type ListDirectoryResponse struct {
	Entries []DirEntry `json:"entries"`
}

// QueryTypeRequest asks what kind of entry a ref denotes.
type QueryTypeRequest struct {
	Reference string `json:"reference" validate:"required"`
}

// QueryTypeResponse reports "file", "directory", or "missing".
type QueryTypeResponse struct {
	Kind string `json:"kind"`
}

// KindMissing is the QueryTypeResponse kind for refs that denote nothing.
const KindMissing = "missing"

// QueryWriteRoutingRequest probes whether writes to a ref must go through
// a local scratch copy.
type QueryWriteRoutingRequest struct {
	Reference string `json:"reference" validate:"required"`
}

// QueryWriteRoutingResponse reports the provider's write-routing capability
// for the ref. Indirect means direct descriptor writes are unreliable and
// a scratch-and-copy stream must be used.
type QueryWriteRoutingResponse struct {
	Indirect bool `json:"indirect"`
}
