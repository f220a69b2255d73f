package codec

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Pipeline combines a codec with conditional compression. Encoded payloads
// larger than the threshold are gzipped before storage; smaller ones are
// stored as-is, so a single cache holds a mix of both.
type Pipeline struct {
	codec     Codec
	compress  bool
	threshold int
}

// NewPipeline wraps the codec. When compress is false the pipeline is a
// plain pass-through around the codec. A threshold of zero compresses
// every payload.
func NewPipeline(c Codec, compress bool, threshold int) *Pipeline {
	return &Pipeline{codec: c, compress: compress, threshold: threshold}
}

// Encode serializes v and compresses the result if it crosses the
// threshold.
func (p *Pipeline) Encode(v any) ([]byte, error) {
	data, err := p.codec.Encode(v)
	if err != nil {
		return nil, err
	}
	if !p.compress || len(data) < p.threshold {
		return data, nil
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes data into v. Decompression is attempted first and
// the raw bytes are used when it fails, which keeps payloads written
// before a compression config change readable.
func (p *Pipeline) Decode(data []byte, v any) error {
	if plain, ok := tryGunzip(data); ok {
		data = plain
	}
	return p.codec.Decode(data, v)
}

// tryGunzip attempts to decompress data, reporting whether it was a valid
// gzip stream.
func tryGunzip(data []byte) ([]byte, bool) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	defer zr.Close()
	plain, err := io.ReadAll(zr)
	if err != nil {
		return nil, false
	}
	return plain, true
}
