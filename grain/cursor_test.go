package grain_test

import (
	"math"
	"testing"

	"github.com/vsariola/granular"
	"github.com/vsariola/granular/grain"
)

// rampSample returns a sample where frame i has the value i in the left
// channel and -i in the right channel.
func rampSample(length int) *granular.Sample {
	frames := make(granular.AudioBuffer, length)
	for i := range frames {
		frames[i] = [2]float32{float32(i), -float32(i)}
	}
	return granular.NewSample(frames, granular.DefaultSampleRate)
}

func leftChannel(b granular.AudioBuffer) []float32 {
	ret := make([]float32, len(b))
	for i, f := range b {
		ret[i] = f[0]
	}
	return ret
}

func TestRenderLoopModes(t *testing.T) {
	tests := []struct {
		name       string
		points     granular.Points
		mode       granular.LoopMode
		cursor     grain.Cursor
		want       []float32
		wantCursor grain.Cursor
	}{
		{"off stops at end", granular.FullRange, granular.LoopOff, grain.Cursor{Frame: 7}, []float32{7, 8, 9, 0, 0}, grain.Cursor{Frame: 10}},
		{"off starts at start", granular.Points{Start: 0.5, End: 1, Loop: 0.5}, granular.LoopOff, grain.Cursor{Frame: 0}, []float32{5, 6, 7}, grain.Cursor{Frame: 8}},
		{"off backwards past start", granular.FullRange, granular.LoopOff, grain.Cursor{Frame: 1, Backwards: true}, []float32{1, 0, 0, 0}, grain.Cursor{Frame: 10}},
		{"loop wraps to loop point", granular.Points{Start: 0, End: 1, Loop: 0.5}, granular.LoopOn, grain.Cursor{Frame: 8}, []float32{8, 9, 5, 6, 7}, grain.Cursor{Frame: 8}},
		{"loop plays forward", granular.Points{Start: 0, End: 1, Loop: 0.5}, granular.LoopOn, grain.Cursor{Frame: 8, Backwards: true}, []float32{8, 9, 5}, grain.Cursor{Frame: 6}},
		{"ping pong", granular.Points{Start: 0, End: 1, Loop: 0.5}, granular.LoopPingPong, grain.Cursor{Frame: 8}, []float32{8, 9, 8, 7, 6, 5, 6, 7}, grain.Cursor{Frame: 8}},
		{"ping pong backwards", granular.Points{Start: 0, End: 1, Loop: 0.5}, granular.LoopPingPong, grain.Cursor{Frame: 6, Backwards: true}, []float32{6, 5, 6}, grain.Cursor{Frame: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			smp := rampSample(10)
			smp.SetPoints(tt.points)
			out := make(granular.AudioBuffer, len(tt.want))
			c := tt.cursor
			if !grain.Render(smp, &c, out, 1, tt.mode, granular.InterpolationNearest) {
				t.Fatalf("Render failed")
			}
			got := leftChannel(out)
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("frame %d: got %v, want %v (output %v)", i, got[i], tt.want[i], got)
				}
			}
			if c != tt.wantCursor {
				t.Fatalf("cursor after render: got %+v, want %+v", c, tt.wantCursor)
			}
		})
	}
}

func TestRenderReversed(t *testing.T) {
	smp := rampSample(10)
	smp.SetReversed(true)
	out := make(granular.AudioBuffer, 3)
	c := grain.Cursor{}
	grain.Render(smp, &c, out, 1, granular.LoopOff, granular.InterpolationLinear)
	for i, want := range []float32{9, 8, 7} {
		if out[i] != [2]float32{want, -want} {
			t.Fatalf("frame %d: got %v, want %v", i, out[i], want)
		}
	}
}

func TestRenderEmptySampleFails(t *testing.T) {
	out := granular.AudioBuffer{{1, 1}, {1, 1}}
	c := grain.Cursor{}
	if grain.Render(granular.EmptySample(), &c, out, 1, granular.LoopOn, granular.InterpolationLinear) {
		t.Fatalf("Render of an empty sample should fail")
	}
	for i, f := range out {
		if f != [2]float32{} {
			t.Fatalf("frame %d should be silent, got %v", i, f)
		}
	}
}

func TestRenderAmplification(t *testing.T) {
	smp := rampSample(10)
	smp.SetAmplification(2)
	out := make(granular.AudioBuffer, 2)
	c := grain.Cursor{Frame: 3}
	grain.Render(smp, &c, out, 1, granular.LoopOff, granular.InterpolationNearest)
	if out[0] != [2]float32{6, -6} || out[1] != [2]float32{8, -8} {
		t.Fatalf("amplified output: got %v", out)
	}
}

func TestInterpolation(t *testing.T) {
	smp := rampSample(40)
	for _, interp := range []granular.Interpolation{granular.InterpolationNearest, granular.InterpolationLinear, granular.InterpolationSinc} {
		t.Run(interp.String(), func(t *testing.T) {
			out := make(granular.AudioBuffer, 10)
			c := grain.Cursor{Frame: 10}
			grain.Render(smp, &c, out, 1, granular.LoopOff, interp)
			for i, f := range out {
				if want := float32(10 + i); math.Abs(float64(f[0]-want)) > 1e-3 {
					t.Fatalf("frame %d: got %v, want %v", i, f[0], want)
				}
			}
		})
	}
	out := make(granular.AudioBuffer, 4)
	c := grain.Cursor{Frame: 10}
	grain.Render(smp, &c, out, 0.5, granular.LoopOff, granular.InterpolationLinear)
	for i, want := range []float32{10, 10.5, 11, 11.5} {
		if math.Abs(float64(out[i][0]-want)) > 1e-6 {
			t.Fatalf("linear frame %d: got %v, want %v", i, out[i][0], want)
		}
	}
	if c.Frame != 12 {
		t.Fatalf("cursor should advance by the ratio, got %v", c.Frame)
	}
}

func TestSincFollowsSmoothSignal(t *testing.T) {
	frames := make(granular.AudioBuffer, 400)
	for i := range frames {
		v := float32(math.Sin(2 * math.Pi * float64(i) / 100))
		frames[i] = [2]float32{v, v}
	}
	smp := granular.NewSample(frames, granular.DefaultSampleRate)
	out := make(granular.AudioBuffer, 100)
	c := grain.Cursor{Frame: 100.25}
	grain.Render(smp, &c, out, 1, granular.LoopOff, granular.InterpolationSinc)
	for i, f := range out {
		want := math.Sin(2 * math.Pi * (100.25 + float64(i)) / 100)
		if math.Abs(float64(f[0])-want) > 1e-2 {
			t.Fatalf("frame %d: got %v, want %v", i, f[0], want)
		}
	}
}
