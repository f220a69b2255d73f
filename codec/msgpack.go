package codec

import "github.com/vmihailenco/msgpack/v5"

// msgpackCodec is the binary-packed format. Most Go values work out of the
// box: primitives, structs with exported fields, maps, slices, pointers.
type msgpackCodec struct{}

func (msgpackCodec) Encode(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (msgpackCodec) Decode(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}
