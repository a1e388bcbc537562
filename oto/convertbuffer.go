package oto

import (
	"encoding/binary"
	"math"
)

// FloatBufferToLE writes buff into dst as little-endian float32 samples and
// returns the number of bytes written. Samples that do not fit in dst are
// dropped.
func FloatBufferToLE(buff []float32, dst []byte) int {
	n := min(len(buff), len(dst)/4)
	for i, v := range buff[:n] {
		binary.LittleEndian.PutUint32(dst[4*i:], math.Float32bits(v))
	}
	return 4 * n
}
