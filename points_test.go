package granular_test

import (
	"math/rand"
	"testing"

	"github.com/vsariola/granular"
)

func TestPointEditsKeepInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	values := []float64{0, 1, 0.5, 0.999, 0.001, 0.9995, 0.0005}
	p := granular.FullRange
	for i := 0; i < 100000; i++ {
		v := rng.Float64()
		if rng.Intn(4) == 0 {
			v = values[rng.Intn(len(values))]
		}
		var edited granular.Points
		switch rng.Intn(3) {
		case 0:
			edited = p.WithStart(v)
		case 1:
			edited = p.WithEnd(v)
		default:
			edited = p.WithLoop(v)
		}
		if !edited.Valid(1e-9) {
			t.Fatalf("edit %d of %+v to %v gave invalid points %+v", i, p, v, edited)
		}
		p = edited
	}
}

func TestPointTieBreaks(t *testing.T) {
	tests := []struct {
		name string
		got  granular.Points
		want granular.Points
	}{
		{"start past end swaps", granular.Points{Start: 0.2, End: 0.6, Loop: 0.3}.WithStart(0.8), granular.Points{Start: 0.6, End: 0.8, Loop: 0.6}},
		{"end below loop pulls loop", granular.Points{Start: 0, End: 1, Loop: 0.5}.WithEnd(0.4), granular.Points{Start: 0, End: 0.4, Loop: 0.4 - granular.PointEpsilon}},
		{"start above loop pushes loop", granular.Points{Start: 0, End: 1, Loop: 0.2}.WithStart(0.3), granular.Points{Start: 0.3, End: 1, Loop: 0.3}},
		{"start on end separates", granular.Points{Start: 0.2, End: 0.5, Loop: 0.2}.WithStart(0.5), granular.Points{Start: 0.5, End: 0.5 + granular.PointEpsilon, Loop: 0.5}},
		{"loop past end pushes end", granular.Points{Start: 0, End: 0.5, Loop: 0}.WithLoop(0.7), granular.Points{Start: 0, End: 0.7 + granular.PointEpsilon, Loop: 0.7}},
		{"loop at the very end", granular.Points{Start: 0, End: 0.5, Loop: 0}.WithLoop(1), granular.Points{Start: 0, End: 1, Loop: 1 - granular.PointEpsilon}},
		{"loop below start pulls start", granular.Points{Start: 0.4, End: 0.8, Loop: 0.5}.WithLoop(0.1), granular.Points{Start: 0.1, End: 0.8, Loop: 0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const tol = 1e-12
			if d := tt.got.Start - tt.want.Start; d > tol || d < -tol {
				t.Fatalf("start: got %v, want %v", tt.got.Start, tt.want.Start)
			}
			if d := tt.got.End - tt.want.End; d > tol || d < -tol {
				t.Fatalf("end: got %v, want %v", tt.got.End, tt.want.End)
			}
			if d := tt.got.Loop - tt.want.Loop; d > tol || d < -tol {
				t.Fatalf("loop: got %v, want %v", tt.got.Loop, tt.want.Loop)
			}
		})
	}
}

func TestSampleSetPoints(t *testing.T) {
	for _, size := range []int{1, 2, 3, 10, 44100} {
		smp := granular.NewSample(make(granular.AudioBuffer, size), granular.DefaultSampleRate)
		for _, p := range []granular.Points{
			granular.FullRange,
			{Start: 0.5, End: 0.5 + granular.PointEpsilon, Loop: 0.5},
			{Start: 1 - granular.PointEpsilon, End: 1, Loop: 1 - granular.PointEpsilon},
			{Start: 0, End: granular.PointEpsilon, Loop: 0},
		} {
			smp.SetPoints(p)
			s, l, e := smp.StartFrame(), smp.LoopFrame(), smp.EndFrame()
			if !(0 <= s && s <= l && l <= e && e <= size && s < e) {
				t.Fatalf("size %d, points %+v: invalid frames start %d loop %d end %d", size, p, s, l, e)
			}
			if smp.ReleaseFrame() != e {
				t.Fatalf("release frame should mirror the end frame")
			}
		}
	}
	smp := granular.NewSample(make(granular.AudioBuffer, 1000), granular.DefaultSampleRate)
	smp.SetPoints(granular.Points{Start: 0.25, End: 0.75, Loop: 0.5})
	if smp.StartFrame() != 250 || smp.LoopFrame() != 500 || smp.EndFrame() != 750 {
		t.Fatalf("unexpected frames %d %d %d", smp.StartFrame(), smp.LoopFrame(), smp.EndFrame())
	}
}

func TestSampleFrame(t *testing.T) {
	smp := granular.NewSample(granular.AudioBuffer{{1, 2}, {3, 4}, {5, 6}}, 0)
	if smp.SampleRate() != granular.DefaultSampleRate {
		t.Fatalf("invalid sample rate should default to %d", granular.DefaultSampleRate)
	}
	if smp.Frame(0) != [2]float32{1, 2} || smp.Frame(3) != [2]float32{} || smp.Frame(-1) != [2]float32{} {
		t.Fatalf("unexpected frames")
	}
	smp.SetReversed(true)
	if smp.Frame(0) != [2]float32{5, 6} || smp.Frame(2) != [2]float32{1, 2} {
		t.Fatalf("reversed sample should be read from the end")
	}
	if !granular.EmptySample().Empty() {
		t.Fatalf("EmptySample should be empty")
	}
}
