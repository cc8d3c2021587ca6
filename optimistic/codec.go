package optimistic

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// codec is the pluggable compression boundary between the projection layer
// and the cache. Encode decides whether a payload is worth compressing and
// reports its decision; Decode trusts the stored flag and never sniffs
// content.
type codec interface {
	Encode(payload []byte) (encoded []byte, compressed bool, err error)
	Decode(payload []byte, compressed bool) ([]byte, error)
}

// gzipCodec compresses payloads larger than threshold bytes. A compressed
// result that ends up no smaller than the input is discarded in favor of the
// original, so the stored flag always reflects a real size win.
type gzipCodec struct {
	threshold int
}

func newGzipCodec(threshold int) *gzipCodec {
	return &gzipCodec{threshold: threshold}
}

func (c *gzipCodec) Encode(payload []byte) ([]byte, bool, error) {
	if c.threshold <= 0 || len(payload) < c.threshold {
		return payload, false, nil
	}

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(payload); err != nil {
		return nil, false, fmt.Errorf("compress payload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, false, fmt.Errorf("compress payload: %w", err)
	}

	if buf.Len() >= len(payload) {
		return payload, false, nil
	}
	return buf.Bytes(), true, nil
}

func (c *gzipCodec) Decode(payload []byte, compressed bool) ([]byte, error) {
	if !compressed {
		return payload, nil
	}

	r, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("decompress payload: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompress payload: %w", err)
	}
	return out, nil
}

// identityCodec never compresses. Used when compression is disabled.
type identityCodec struct{}

func (identityCodec) Encode(payload []byte) ([]byte, bool, error) {
	return payload, false, nil
}

func (identityCodec) Decode(payload []byte, compressed bool) ([]byte, error) {
	if compressed {
		// The store says compressed but this codec cannot decompress;
		// surfacing the mismatch beats returning garbage bytes.
		return nil, fmt.Errorf("stored item is compressed but compression is disabled")
	}
	return payload, nil
}
