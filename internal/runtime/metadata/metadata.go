package metadata

// Reserved header keys carried alongside bus messages.
const (
	// KeyCorrelationID ties replies to the message that produced them.
	KeyCorrelationID = "correlation_id"

	// KeyContentType names the wire format of the payload.
	KeyContentType = "content_type"

	// KeySource is the name of the listener that published the message.
	KeySource = "tagflow_source"

	// KeyReceivedOn records the topic a message was consumed from.
	KeyReceivedOn = "tagflow_received_on"
)

// Metadata represents the headers carried alongside a bus message.
type Metadata map[string]string

func (m Metadata) cloneWithExtra(extra int) Metadata {
	size := len(m) + extra
	if size <= 0 {
		return Metadata{}
	}

	cloned := make(Metadata, size)
	for k, v := range m {
		cloned[k] = v
	}
	return cloned
}

// Clone returns a shallow copy of the metadata map.
func (m Metadata) Clone() Metadata {
	return m.cloneWithExtra(0)
}

// With returns a cloned metadata map containing the provided key/value pair.
// Empty values are not added.
func (m Metadata) With(key, value string) Metadata {
	cloned := m.cloneWithExtra(1)
	if value != "" {
		cloned[key] = value
	}
	return cloned
}

// CorrelationID returns the correlation id header, if present.
func (m Metadata) CorrelationID() string {
	return m[KeyCorrelationID]
}

// ContentType returns the content type header, if present.
func (m Metadata) ContentType() string {
	return m[KeyContentType]
}
