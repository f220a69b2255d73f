package codec

import "encoding/json"

// jsonCodec is the textual format. Payloads stay human-readable at the cost
// of size and encode speed.
type jsonCodec struct{}

func (jsonCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
