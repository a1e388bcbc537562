package oto_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/vsariola/granular/oto"
)

func TestFloatBufferToLE(t *testing.T) {
	src := []float32{0, 1, -0.5, 0.25}
	dst := make([]byte, 14)
	n := oto.FloatBufferToLE(src, dst)
	if n != 12 {
		t.Fatalf("expected 12 bytes written, got %d", n)
	}
	for i := 0; i < 3; i++ {
		if got := math.Float32frombits(binary.LittleEndian.Uint32(dst[4*i:])); got != src[i] {
			t.Fatalf("sample %d: got %v, want %v", i, got, src[i])
		}
	}
}
