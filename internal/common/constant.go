package common

// Capability names reported in PermissionError.
const (
	CapabilityCamera  = "camera"
	CapabilityStorage = "storage"
)

// ImageContentType is the content type of every captured upload.
const ImageContentType = "image/jpeg"
