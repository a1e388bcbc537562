package grain

import (
	"math"

	"github.com/vsariola/granular"
)

// Cursor is the playback position of one grain: a fractional frame index
// into the sample and the direction it is moving in.
type Cursor struct {
	Frame     float64
	Backwards bool
}

// Render fills out with frames of smp, starting at the cursor and moving it
// by ratio sample frames per output frame. The loop mode decides what
// happens at the markers:
//
//   - LoopOff plays up to the end marker and then outputs silence, leaving the
//     cursor on the end marker.
//   - LoopOn jumps from the end marker back to the loop marker.
//   - LoopPingPong turns around at the last frame before the end marker and
//     at the loop marker.
//
// The samples are scaled by the sample's amplification. Render returns false
// and silences out only if there is nothing to read from.
func Render(smp *granular.Sample, c *Cursor, out granular.AudioBuffer, ratio float64, mode granular.LoopMode, interp granular.Interpolation) bool {
	if smp == nil || smp.Empty() {
		out.Clear()
		return false
	}
	start, end := float64(smp.StartFrame()), float64(smp.EndFrame())
	loop := float64(smp.LoopFrame())
	if loop >= end {
		loop = start
	}
	// ping pong turns on the last frame, not on the end marker after it
	top := end - 1
	if top <= loop {
		top = end
	}
	if mode == granular.LoopOn {
		c.Backwards = false
	}
	if !c.Backwards && c.Frame < start {
		c.Frame = start
	}
	amp := smp.Amplification()
	for i := range out {
		if mode == granular.LoopOff {
			if c.Backwards && c.Frame < start {
				c.Frame, c.Backwards = end, false
			}
			if c.Frame >= end {
				c.Frame = end
				out[i:].Clear()
				return true
			}
		}
		f := read(smp, c.Frame, interp)
		out[i] = [2]float32{f[0] * amp, f[1] * amp}
		switch mode {
		case granular.LoopOn:
			c.Frame += ratio
			if c.Frame >= end {
				c.Frame = loop + math.Mod(c.Frame-end, end-loop)
			}
		case granular.LoopPingPong:
			c.bounce(ratio, loop, top)
		default:
			if c.Backwards {
				c.Frame -= ratio
			} else {
				c.Frame += ratio
			}
		}
	}
	return true
}

// bounce moves the cursor by step, reflecting it between lo and hi. The
// position is unfolded into the distance travelled since the cursor last
// left lo, so one step may cross the range several times.
func (c *Cursor) bounce(step, lo, hi float64) {
	span := hi - lo
	if c.Frame > hi {
		c.Frame = hi
	}
	var u float64
	if c.Backwards {
		u = span + hi - c.Frame
	} else {
		u = c.Frame - lo
	}
	u += step
	if u < 0 {
		// not yet inside the loop, e.g. started before the loop marker
		c.Frame = lo + u
		return
	}
	u = math.Mod(u, 2*span)
	if u < span {
		c.Frame, c.Backwards = lo+u, false
	} else {
		c.Frame, c.Backwards = hi-(u-span), true
	}
}
