/*
Package codec is the serialization pipeline: it turns values into the byte
payloads the tiers store, and back. A configured format does the encoding;
payloads above a size threshold are additionally compressed.

The decode side always works on mixed data — compressed and uncompressed
payloads can coexist in one cache across a configuration change.
*/
package codec

import "fmt"

// Codec encodes values to bytes and back.
type Codec interface {

	// Encode serializes v.
	Encode(v any) ([]byte, error)

	// Decode deserializes data into the value pointed to by v.
	Decode(data []byte, v any) error
}

// Type identifies a supported encoding format.
type Type string

const (
	// Msgpack is the binary-packed format (the default).
	Msgpack Type = "msgpack"

	// JSON is the textual format.
	JSON Type = "json"

	// Raw stores byte slices and strings as-is, with no encoding step.
	// Only []byte and string values are supported.
	Raw Type = "raw"
)

// New creates the codec for the given format type.
func New(t Type) (Codec, error) {
	switch t {
	case Msgpack, "":
		return msgpackCodec{}, nil
	case JSON:
		return jsonCodec{}, nil
	case Raw:
		return rawCodec{}, nil
	default:
		return nil, fmt.Errorf("codec: unknown serialization type %q", t)
	}
}
