package codec

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// zstdCodec wraps a reusable encoder/decoder pair. klauspost/compress's
// encoder and decoder are both safe for concurrent use internally, so no
// extra locking is needed here.
type zstdCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newZstdCodec() (*zstdCodec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("new zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("new zstd decoder: %w", err)
	}
	return &zstdCodec{enc: enc, dec: dec}, nil
}

func (z *zstdCodec) compress(payload []byte) []byte {
	return z.enc.EncodeAll(payload, make([]byte, 0, len(payload)))
}

func (z *zstdCodec) decompress(payload []byte) ([]byte, error) {
	out, err := z.dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return out, nil
}

func (z *zstdCodec) close() {
	z.enc.Close()
	z.dec.Close()
}
