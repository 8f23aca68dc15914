package wire

import (
	"fmt"
	"strconv"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	errspkg "github.com/drblury/tagflow/internal/runtime/errors"
	"github.com/drblury/tagflow/internal/runtime/jsoncodec"
	"github.com/drblury/tagflow/internal/runtime/tags"
)

type protoView struct {
	fields map[string]*structpb.Value
	raw    []byte
}

// ParseProto returns a view over a binary google.protobuf.Struct payload.
func ParseProto(payload []byte) (View, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("tagflow: invalid protobuf payload: %w", err)
	}
	return &protoView{fields: s.GetFields(), raw: payload}, nil
}

// EncodeProto encodes a message as a binary google.protobuf.Struct.
func EncodeProto(m *Message) ([]byte, error) {
	s, err := structpb.NewStruct(m.values())
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

func (v *protoView) Tags() (tags.Set, error) {
	value, ok := v.fields[FieldTag]
	if !ok {
		value, ok = v.fields[FieldTags]
	}
	if !ok {
		return nil, nil
	}

	switch kind := value.GetKind().(type) {
	case *structpb.Value_NullValue:
		return nil, nil
	case *structpb.Value_StringValue:
		return tags.New(kind.StringValue), nil
	case *structpb.Value_ListValue:
		var list []string
		for _, item := range kind.ListValue.GetValues() {
			s, isString := item.GetKind().(*structpb.Value_StringValue)
			if !isString {
				return nil, fmt.Errorf("%w: tag entry is not a string", errspkg.ErrMalformedTags)
			}
			list = append(list, s.StringValue)
		}
		return tags.New(list...), nil
	default:
		return nil, fmt.Errorf("%w: tag field has kind %T", errspkg.ErrMalformedTags, kind)
	}
}

func (v *protoView) Get(field string) (string, bool) {
	value, ok := v.fields[field]
	if !ok {
		return "", false
	}

	switch kind := value.GetKind().(type) {
	case *structpb.Value_StringValue:
		return kind.StringValue, kind.StringValue != ""
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(kind.NumberValue, 'f', -1, 64), true
	case *structpb.Value_BoolValue:
		if !kind.BoolValue {
			return "", false
		}
		return "true", true
	case *structpb.Value_StructValue, *structpb.Value_ListValue:
		out, err := jsoncodec.MarshalToString(value.AsInterface())
		if err != nil {
			return "", false
		}
		return out, true
	default:
		return "", false
	}
}

func (v *protoView) Raw() []byte {
	return v.raw
}
