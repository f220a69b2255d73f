package codec

import "fmt"

// rawCodec passes byte slices and strings through untouched. It exists for
// callers that already hold serialized bytes (HTTP response bodies, blobs)
// and do not want a second encoding layer.
type rawCodec struct{}

func (rawCodec) Encode(v any) ([]byte, error) {
	switch val := v.(type) {
	case []byte:
		return val, nil
	case string:
		return []byte(val), nil
	default:
		return nil, fmt.Errorf("codec: raw codec supports []byte and string, got %T", v)
	}
}

func (rawCodec) Decode(data []byte, v any) error {
	switch dst := v.(type) {
	case *[]byte:
		*dst = data
		return nil
	case *string:
		*dst = string(data)
		return nil
	case *any:
		*dst = data
		return nil
	default:
		return fmt.Errorf("codec: raw codec decodes into *[]byte, *string or *any, got %T", v)
	}
}
