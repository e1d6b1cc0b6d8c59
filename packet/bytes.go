package packet

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrInvalidParam reports a caller-supplied value outside its
// protocol-mandated range. It is raised before any bytes hit the wire.
var ErrInvalidParam = errors.New("INVALID_PARAM")

// byteLen returns the minimum number of bytes needed to represent the
// magnitude of v, with a floor of one byte (zero still occupies a byte).
func byteLen(v int) int {
	u := uint64(v)
	if v < 0 {
		u = uint64(-v)
	}
	n := (bits.Len64(u) + 7) / 8
	if n == 0 {
		return 1
	}
	return n
}

// appendMinimal appends v to dst in minimal-width little-endian form.
// Non-negative values are packed unsigned; negative values as two's
// complement of the same width, failing if the width cannot hold them.
func appendMinimal(dst []byte, v int) ([]byte, error) {
	n := byteLen(v)
	if v < 0 && int64(v) < -(int64(1)<<(8*n-1)) {
		return dst, fmt.Errorf("%w: %d does not fit signed in %d byte(s)", ErrInvalidParam, v, n)
	}
	u := uint64(v)
	for i := 0; i < n; i++ {
		dst = append(dst, byte(u>>(8*i)))
	}
	return dst, nil
}

// ToLEBytes converts v into exactly n little-endian bytes.
func ToLEBytes(v uint64, n int) []byte {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = byte(v >> (8 * i))
	}
	return out
}

// LEParams splits v into exactly n single-byte command parameters in
// little-endian order, the form the command builders pass to CommandPacket.
func LEParams(v uint64, n int) []int {
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = int(byte(v >> (8 * i)))
	}
	return out
}

// LEToUint assembles a little-endian byte slice into an unsigned integer.
func LEToUint(b []byte) uint64 {
	var v uint64
	for i, x := range b {
		v |= uint64(x) << (8 * i)
	}
	return v
}
