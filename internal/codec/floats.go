// Package codec packs and unpacks little-endian 64-bit float sequences, the
// sole wire framing used for send_data/receive_data payloads.
package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

const wordSize = 8

// ErrInvalidFraming indicates a byte buffer whose length is not a multiple
// of 8 and therefore cannot be decoded into a whole number of float64s.
var ErrInvalidFraming = fmt.Errorf("codec: payload length is not a multiple of %d bytes", wordSize)

// Encode packs xs into the little-endian concatenation of their IEEE-754
// encodings, 8 bytes per value.
func Encode(xs []float64) []byte {
	buf := make([]byte, len(xs)*wordSize)
	for i, x := range xs {
		binary.LittleEndian.PutUint64(buf[i*wordSize:], math.Float64bits(x))
	}
	return buf
}

// Decode unpacks buf into the sequence of float64s it encodes. buf's length
// must be a multiple of 8; otherwise ErrInvalidFraming is returned.
func Decode(buf []byte) ([]float64, error) {
	if len(buf)%wordSize != 0 {
		return nil, ErrInvalidFraming
	}
	n := len(buf) / wordSize
	xs := make([]float64, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint64(buf[i*wordSize:])
		xs[i] = math.Float64frombits(bits)
	}
	return xs, nil
}
