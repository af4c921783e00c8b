package codec

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// Padding bounds for PadFrame, matching the replay-snapshot framing rule:
// padLen is uniformly sampled in [minPad, maxPad).
const (
	minPad = 16
	maxPad = 128
)

// PadFrame wraps a compressed payload in the padded snapshot envelope:
// [u16 BE padLen][padLen random bytes][payload]. padLen is drawn from a
// cryptographic RNG so the wire size of a snapshot frame doesn't leak the
// exact size of the underlying screen content. Only replay snapshots use
// this framing; live runner-originated frames pass through unpadded.
func PadFrame(payload []byte) ([]byte, error) {
	padLen, err := randomPadLen()
	if err != nil {
		return nil, fmt.Errorf("codec: generate pad length: %w", err)
	}

	padding := make([]byte, padLen)
	if _, err := rand.Read(padding); err != nil {
		return nil, fmt.Errorf("codec: generate padding: %w", err)
	}

	out := make([]byte, 2+len(padding)+len(payload))
	binary.BigEndian.PutUint16(out[0:2], uint16(padLen))
	copy(out[2:2+len(padding)], padding)
	copy(out[2+len(padding):], payload)
	return out, nil
}

// UnpadFrame reverses PadFrame, discarding the random padding and
// returning the compressed payload it wrapped.
func UnpadFrame(frame []byte) ([]byte, error) {
	if len(frame) < 2 {
		return nil, fmt.Errorf("codec: padded frame too short for length header")
	}
	padLen := int(binary.BigEndian.Uint16(frame[0:2]))
	if len(frame) < 2+padLen {
		return nil, fmt.Errorf("codec: padded frame shorter than declared padding")
	}
	return frame[2+padLen:], nil
}

func randomPadLen() (int, error) {
	var b [1]byte
	// Rejection sampling: only bytes below the largest multiple of the
	// range size (224 for 112 values) are used, so the modulo maps them
	// onto [minPad, maxPad) with every value equally likely.
	limit := 256 - 256%(maxPad-minPad)
	for {
		if _, err := rand.Read(b[:]); err != nil {
			return 0, err
		}
		if int(b[0]) < limit {
			return minPad + int(b[0])%(maxPad-minPad), nil
		}
	}
}
