// Package wire parses bus payloads into read-only message views and builds
// outgoing messages.
//
// Three payload formats are understood: the text format of the agent bus
// (key=value pairs joined by '&', with one "tag" pair per tag), JSON objects
// and binary google.protobuf.Struct messages. In every format the tag-set is
// read from the "tag" field (or "tags"), which holds one string or a list of
// strings.
package wire

import (
	"bytes"
	"mime"
	"strings"

	errspkg "github.com/drblury/tagflow/internal/runtime/errors"
	"github.com/drblury/tagflow/internal/runtime/tags"
)

// Content types recognised by Decode.
const (
	ContentTypeText  = "text/x-tagflow"
	ContentTypeJSON  = "application/json"
	ContentTypeProto = "application/protobuf"
)

const (
	// FieldTag is the field carrying tags; it may repeat in the text format.
	FieldTag = "tag"
	// FieldTags is accepted as an alias of FieldTag in JSON and proto payloads.
	FieldTags = "tags"
)

// View is a read-only view over one inbound message.
type View interface {
	// Tags returns the tag-set of the message. An error means the tag
	// collection is malformed.
	Tags() (tags.Set, error)
	// Get returns the value of a field. Missing, null, false and empty
	// values are reported as absent.
	Get(field string) (string, bool)
	// Raw returns the payload the view was parsed from.
	Raw() []byte
}

// Decode parses payload according to contentType. An empty content type is
// sniffed: payloads starting with '{' are JSON, everything else is text.
func Decode(contentType string, payload []byte) (View, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, errspkg.ErrEmptyPayload
	}

	switch normalizeContentType(contentType) {
	case ContentTypeJSON:
		return ParseJSON(payload)
	case ContentTypeProto:
		return ParseProto(payload)
	case ContentTypeText:
		return Parse(payload)
	}

	if bytes.HasPrefix(bytes.TrimSpace(payload), []byte("{")) {
		return ParseJSON(payload)
	}
	return Parse(payload)
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	switch mediaType {
	case "application/x-protobuf", "application/vnd.google.protobuf":
		return ContentTypeProto
	case "text/plain":
		return ContentTypeText
	}
	return mediaType
}

// ContentTyper is implemented by outgoing messages that know their wire
// format; the sender copies it into the content type header.
type ContentTyper interface {
	ContentType() string
}

// Text is a raw, already serialised outgoing message.
type Text string

func (t Text) String() string { return string(t) }
