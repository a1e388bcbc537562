package grain

import (
	"github.com/vsariola/granular"
)

// grainFrames returns the grain length S, counted in output frames. The
// length is measured at the rate of the sample, so a sample recorded at half
// the output rate gets grains half as many frames long. It is never less than
// one frame.
func grainFrames(seconds float64, sampleRate int) int64 {
	return max(1, int64(seconds*float64(sampleRate)))
}

// grainOffset returns how many frames grain slot g of count is ahead of slot
// 0, spreading the slots evenly over one grain so that they do not all
// restart at once.
func grainOffset(g, count int, size int64) int64 {
	return int64(float64(g) / float64(count) * float64(size))
}

// framesUntilBoundary returns how many frames a grain that has been playing
// for since frames still has before it ends.
func framesUntilBoundary(since, size int64) int64 {
	return size - since%size
}

// envelope returns the triangular grain envelope at frame t of the note's
// continuous counter: 0 at grain boundaries, rising to 0.5 in the middle.
func envelope(t, size int64) float32 {
	phase := float64(t%size) / float64(size)
	if phase < 0.5 {
		return float32(phase)
	}
	return float32(1 - phase)
}

// renderGrain renders len(out) frames of grain slot g of voice v into out.
// since counts the frames the slot has played, including its offset.
// Whenever the slot crosses a grain boundary, its cursor jumps to a new
// jittered start; a boundary that falls exactly on since restarts it too,
// unless the note is just starting. The envelope is locked to since, so
// rendering a span in one call or in several calls gives the same result.
func (in *Instrument) renderGrain(v *Voice, g int, out granular.AudioBuffer, since, size int64) bool {
	c := &v.cursors[g]
	for pos := 0; pos < len(out); {
		t := since + int64(pos)
		if t > 0 && t%size == 0 {
			in.restart(v, c)
		}
		n := int(min(framesUntilBoundary(t, size), int64(len(out)-pos)))
		if !Render(in.sample, c, out[pos:pos+n], v.ratio, in.snapshot.LoopMode, in.snapshot.Interpolation) {
			return false
		}
		pos += n
	}
	for f := range out {
		e := envelope(since+int64(f), size)
		out[f][0] *= e
		out[f][1] *= e
	}
	return true
}
