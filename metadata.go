package mimekit

// Metadata keys read and written by the detector
const (
	// ResourceNameKey holds a file name, path or URL hint
	ResourceNameKey = "resourceName"

	// ContentTypeKey holds the declared type on input and the verdict after Annotate
	ContentTypeKey = "Content-Type"
)

// Metadata is the caller-owned hint bag passed to detection. A nil Metadata is
// valid and carries no hints.
type Metadata map[string]string

// NewMetadata creates a metadata bag with the two detection hints. Empty values
// are left out.
func NewMetadata(resourceName, contentType string) Metadata {
	md := make(Metadata, 2)
	if resourceName != "" {
		md[ResourceNameKey] = resourceName
	}
	if contentType != "" {
		md[ContentTypeKey] = contentType
	}
	return md
}

// Get returns the value stored under key
func (m Metadata) Get(key string) string { return m[key] }

// Set stores value under key
func (m Metadata) Set(key, value string) { m[key] = value }

// ResourceName returns the name hint
func (m Metadata) ResourceName() string { return m[ResourceNameKey] }

// ContentType returns the declared type hint
func (m Metadata) ContentType() string { return m[ContentTypeKey] }
