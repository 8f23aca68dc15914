package wire

import (
	"fmt"

	"github.com/tidwall/gjson"

	errspkg "github.com/drblury/tagflow/internal/runtime/errors"
	"github.com/drblury/tagflow/internal/runtime/jsoncodec"
	"github.com/drblury/tagflow/internal/runtime/tags"
)

type jsonView struct {
	raw []byte
}

// ParseJSON returns a view over a JSON object. Field lookups accept gjson
// paths, so nested values are reachable as "address.city".
func ParseJSON(payload []byte) (View, error) {
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("tagflow: invalid JSON payload")
	}
	if !gjson.ParseBytes(payload).IsObject() {
		return nil, fmt.Errorf("tagflow: JSON payload must be an object")
	}
	return &jsonView{raw: payload}, nil
}

func (v *jsonView) Tags() (tags.Set, error) {
	res := gjson.GetBytes(v.raw, FieldTag)
	if !res.Exists() {
		res = gjson.GetBytes(v.raw, FieldTags)
	}

	switch {
	case !res.Exists(), res.Type == gjson.Null:
		return nil, nil
	case res.Type == gjson.String:
		return tags.New(res.Str), nil
	case res.IsArray():
		var list []string
		for _, item := range res.Array() {
			if item.Type != gjson.String {
				return nil, fmt.Errorf("%w: tag entry %s is not a string", errspkg.ErrMalformedTags, item.Raw)
			}
			list = append(list, item.Str)
		}
		return tags.New(list...), nil
	default:
		return nil, fmt.Errorf("%w: tag field is %s", errspkg.ErrMalformedTags, res.Type)
	}
}

func (v *jsonView) Get(field string) (string, bool) {
	res := gjson.GetBytes(v.raw, field)
	switch {
	case !res.Exists(), res.Type == gjson.Null, res.Type == gjson.False:
		return "", false
	}
	s := res.String()
	return s, s != ""
}

func (v *jsonView) Raw() []byte {
	return v.raw
}

// JSONMessage is an outgoing message encoded as a JSON object. Repeated keys
// become arrays and tags are always an array.
type JSONMessage struct {
	msg *Message
}

// JSON returns the message as a JSON-encoded outgoing message.
func (m *Message) JSON() JSONMessage {
	return JSONMessage{msg: m}
}

func (j JSONMessage) String() string {
	if j.msg == nil {
		return "{}"
	}
	out, err := jsoncodec.MarshalToString(j.msg.values())
	if err != nil {
		return "{}"
	}
	return out
}

// ContentType reports JSON.
func (j JSONMessage) ContentType() string {
	return ContentTypeJSON
}
