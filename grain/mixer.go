package grain

import (
	"github.com/viterin/vek/vek32"
	"github.com/vsariola/granular"
)

// mix writes the average of slots into dst. Every slot must be as long as
// dst.
func mix(dst granular.AudioBuffer, slots []granular.AudioBuffer) {
	d := dst.Floats()
	if len(d) == 0 {
		return
	}
	vek32.Zeros_Into(d, len(d))
	for _, s := range slots {
		vek32.Add_Inplace(d, s.Floats())
	}
	if len(slots) > 1 {
		vek32.MulNumber_Inplace(d, 1/float32(len(slots)))
	}
}

// fadeOut applies a linear release ramp to buf. pos is how many frames of
// the release have already been played and length the whole release. It
// returns the new position; frames past the end of the release are silenced.
func fadeOut(buf granular.AudioBuffer, pos, length int) int {
	for i := range buf {
		if pos >= length {
			buf[i:].Clear()
			return pos
		}
		g := 1 - float32(pos)/float32(length)
		buf[i][0] *= g
		buf[i][1] *= g
		pos++
	}
	return pos
}
