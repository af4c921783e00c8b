// Package codec implements the relay's binary payload framing: plain
// pass-through, zstd, and a small dictionary coder tuned for short ASCII
// bursts ("smaz"), plus a padded envelope used on replay snapshots to
// blunt BREACH/CRIME-style size-oracle attacks.
package codec

import "fmt"

// Mode selects how binary payloads are encoded on the wire.
type Mode string

const (
	// ModeNone sends payloads unmodified.
	ModeNone Mode = "none"
	// ModeZstd compresses payloads with zstd.
	ModeZstd Mode = "zstd"
	// ModeSmaz compresses payloads with the smaz dictionary coder.
	ModeSmaz Mode = "smaz"
	// ModeDeflate delegates compression to the transport's per-message
	// deflate extension; the codec itself is a no-op for this mode.
	ModeDeflate Mode = "deflate"
)

// ParseMode validates a mode string received over the wire or from
// configuration.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNone, ModeZstd, ModeSmaz, ModeDeflate:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("codec: unknown compression mode %q", s)
	}
}

// Codec compresses and decompresses binary frames for one session,
// according to its configured Mode. A Codec is safe for concurrent use;
// the zstd implementation holds its own internal locking.
type Codec struct {
	mode Mode
	zstd *zstdCodec
}

// New builds a Codec for the given mode. ModeDeflate and ModeNone need no
// backing implementation: Compress/Decompress are identity functions and
// callers rely on transport-level compression or none at all.
func New(mode Mode) (*Codec, error) {
	c := &Codec{mode: mode}
	if mode == ModeZstd {
		z, err := newZstdCodec()
		if err != nil {
			return nil, fmt.Errorf("codec: init zstd: %w", err)
		}
		c.zstd = z
	}
	return c, nil
}

// Mode reports the codec's configured mode.
func (c *Codec) Mode() Mode {
	return c.mode
}

// Compress encodes payload per the codec's mode. ModeNone and ModeDeflate
// return payload unchanged.
func (c *Codec) Compress(payload []byte) ([]byte, error) {
	switch c.mode {
	case ModeZstd:
		return c.zstd.compress(payload), nil
	case ModeSmaz:
		return smazCompress(payload), nil
	default:
		return payload, nil
	}
}

// Decompress reverses Compress. For ModeNone/ModeDeflate it returns
// payload unchanged.
func (c *Codec) Decompress(payload []byte) ([]byte, error) {
	switch c.mode {
	case ModeZstd:
		return c.zstd.decompress(payload)
	case ModeSmaz:
		return smazDecompress(payload)
	default:
		return payload, nil
	}
}

// Close releases any resources held by the codec (the zstd encoder/decoder
// pair). Safe to call on a codec in any mode.
func (c *Codec) Close() {
	if c.zstd != nil {
		c.zstd.close()
	}
}
