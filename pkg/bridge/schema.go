package bridge

// OpSchema pairs an operation name with prototypes of its request and
// response payloads, for schema generation and provider-host dispatch.
type OpSchema struct {
	Op       Op
	Request  any
	Response any
}

// Operations enumerates every bridge operation with payload prototypes.
// The order is stable and suitable for documentation output.
func Operations() []OpSchema {
	return []OpSchema{
		{OpOpenDescriptor, OpenDescriptorRequest{}, OpenDescriptorResponse{}},
		{OpCloseDescriptor, CloseDescriptorRequest{}, CloseDescriptorResponse{}},
		{OpWriteDescriptor, WriteDescriptorRequest{}, WriteDescriptorResponse{}},
		{OpReadDescriptor, ReadDescriptorRequest{}, ReadDescriptorResponse{}},
		{OpSyncDescriptor, SyncDescriptorRequest{}, SyncDescriptorResponse{}},
		{OpResizeDescriptor, ResizeDescriptorRequest{}, ResizeDescriptorResponse{}},
		{OpCopyFromLocal, CopyFromLocalRequest{}, CopyFromLocalResponse{}},
		{OpListDirectory, ListDirectoryRequest{}, ListDirectoryResponse{}},
		{OpQueryType, QueryTypeRequest{}, QueryTypeResponse{}},
		{OpQueryWriteRouting, QueryWriteRoutingRequest{}, QueryWriteRoutingResponse{}},
	}
}
