package granular

import "unsafe"

// AudioBuffer is a buffer of stereo audio frames, left channel in index 0 and
// right channel in index 1 of each frame.
type AudioBuffer [][2]float32

// Floats returns the frames of the buffer as one interleaved slice of
// samples. The returned slice shares memory with the buffer, so it can be
// handed to vectorized routines without copying.
func (b AudioBuffer) Floats() []float32 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice(&b[0][0], 2*len(b))
}

// Clear sets every frame of the buffer to silence.
func (b AudioBuffer) Clear() {
	for i := range b {
		b[i] = [2]float32{}
	}
}

// Scale multiplies every sample of the buffer by gain.
func (b AudioBuffer) Scale(gain float32) {
	for i := range b {
		b[i][0] *= gain
		b[i][1] *= gain
	}
}
