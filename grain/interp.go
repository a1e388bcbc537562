package grain

import (
	"math"

	"github.com/vsariola/granular"
)

const (
	sincTaps   = 8
	sincPhases = 64
)

// sincTable holds windowed sinc kernels for sincPhases+1 fractional
// positions between two frames. Tap k of phase p weights frame i-3+k when
// reading at i+p/sincPhases.
var sincTable [sincPhases + 1][sincTaps]float32

func init() {
	for p := range sincTable {
		t := float64(p) / sincPhases
		var sum float64
		var kernel [sincTaps]float64
		for k := range kernel {
			d := float64(k-sincTaps/2+1) - t
			x := (d + sincTaps/2) / sincTaps // window position 0..1
			w := 0.42 - 0.5*math.Cos(2*math.Pi*x) + 0.08*math.Cos(4*math.Pi*x)
			kernel[k] = sinc(d) * w
			sum += kernel[k]
		}
		for k := range kernel {
			sincTable[p][k] = float32(kernel[k] / sum)
		}
	}
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// read returns the sample at fractional frame x.
func read(smp *granular.Sample, x float64, interp granular.Interpolation) [2]float32 {
	switch interp {
	case granular.InterpolationNearest:
		return smp.Frame(int(math.Floor(x + 0.5)))
	case granular.InterpolationSinc:
		i := math.Floor(x)
		kernel := &sincTable[int((x-i)*sincPhases+0.5)]
		first := int(i) - sincTaps/2 + 1
		var ret [2]float32
		for k, w := range kernel {
			f := smp.Frame(first + k)
			ret[0] += f[0] * w
			ret[1] += f[1] * w
		}
		return ret
	default:
		i := math.Floor(x)
		t := float32(x - i)
		a, b := smp.Frame(int(i)), smp.Frame(int(i)+1)
		return [2]float32{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t}
	}
}
