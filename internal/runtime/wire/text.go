package wire

import (
	"net/url"
	"strings"

	errspkg "github.com/drblury/tagflow/internal/runtime/errors"
	"github.com/drblury/tagflow/internal/runtime/tags"
)

var fieldEscaper = strings.NewReplacer("%", "%25", "&", "%26", "=", "%3D")

// Field is one key/value pair of a text message.
type Field struct {
	Key   string
	Value string
}

// Message is an ordered list of fields in the text format. It is returned by
// Parse and doubles as a builder for outgoing messages:
//
//	wire.NewMessage().Set("dst", "relay").Tag("send").Set("to", "alice")
type Message struct {
	fields []Field
	raw    []byte
}

// NewMessage returns an empty message builder.
func NewMessage() *Message {
	return &Message{}
}

// Parse reads a text-format payload. Segments without '=' are kept as fields
// with an empty value; invalid escapes are kept verbatim.
func Parse(payload []byte) (*Message, error) {
	text := strings.TrimSpace(string(payload))
	if text == "" {
		return nil, errspkg.ErrEmptyPayload
	}

	m := &Message{raw: payload}
	for _, segment := range strings.Split(text, "&") {
		if segment == "" {
			continue
		}
		key, value, _ := strings.Cut(segment, "=")
		m.fields = append(m.fields, Field{Key: unescape(key), Value: unescape(value)})
	}
	return m, nil
}

func unescape(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	out, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return out
}

// Set replaces every value of key with value. The field keeps the position of
// its first occurrence.
func (m *Message) Set(key, value string) *Message {
	m.raw = nil
	kept := m.fields[:0]
	replaced := false
	for _, f := range m.fields {
		if f.Key != key {
			kept = append(kept, f)
			continue
		}
		if !replaced {
			kept = append(kept, Field{Key: key, Value: value})
			replaced = true
		}
	}
	m.fields = kept
	if !replaced {
		m.fields = append(m.fields, Field{Key: key, Value: value})
	}
	return m
}

// Add appends a field, keeping existing values of the same key.
func (m *Message) Add(key, value string) *Message {
	m.raw = nil
	m.fields = append(m.fields, Field{Key: key, Value: value})
	return m
}

// Tag appends one tag field per tag.
func (m *Message) Tag(tagList ...string) *Message {
	for _, t := range tagList {
		m.Add(FieldTag, t)
	}
	return m
}

// Get returns the first non-empty value of field.
func (m *Message) Get(field string) (string, bool) {
	for _, f := range m.fields {
		if f.Key == field && f.Value != "" {
			return f.Value, true
		}
	}
	return "", false
}

// GetAll returns every value of field in order.
func (m *Message) GetAll(field string) []string {
	var values []string
	for _, f := range m.fields {
		if f.Key == field {
			values = append(values, f.Value)
		}
	}
	return values
}

// Tags returns the tag-set of the message.
func (m *Message) Tags() (tags.Set, error) {
	return tags.New(m.GetAll(FieldTag)...), nil
}

// Fields returns a copy of the fields in order.
func (m *Message) Fields() []Field {
	out := make([]Field, len(m.fields))
	copy(out, m.fields)
	return out
}

// Raw returns the parsed payload, or the encoding of a built message.
func (m *Message) Raw() []byte {
	if m.raw != nil {
		return m.raw
	}
	return []byte(m.String())
}

// String encodes the message in the text format. A nil message encodes as
// the empty string.
func (m *Message) String() string {
	if m == nil {
		return ""
	}
	var b strings.Builder
	for i, f := range m.fields {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(fieldEscaper.Replace(f.Key))
		b.WriteByte('=')
		b.WriteString(fieldEscaper.Replace(f.Value))
	}
	return b.String()
}

// ContentType reports the text format.
func (m *Message) ContentType() string {
	return ContentTypeText
}

// values groups fields by key; tags are always a list.
func (m *Message) values() map[string]any {
	out := make(map[string]any, len(m.fields))
	for _, f := range m.fields {
		existing, ok := out[f.Key]
		switch {
		case !ok && f.Key == FieldTag:
			out[f.Key] = []any{f.Value}
		case !ok:
			out[f.Key] = f.Value
		default:
			if list, isList := existing.([]any); isList {
				out[f.Key] = append(list, f.Value)
			} else {
				out[f.Key] = []any{existing, f.Value}
			}
		}
	}
	return out
}
