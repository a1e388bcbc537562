package granular

import (
	"fmt"
	"math"
	"sync/atomic"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type (
	// LoopMode tells what happens when playback reaches the end point.
	LoopMode int

	// Interpolation selects how the sample is read between frames.
	Interpolation int

	// Params is a snapshot of every automatable control of a granular
	// instrument. The instrument reads one snapshot per render call.
	Params struct {
		Amplify       float64       // linear gain, 1 is unity
		GrainSize     float64       // grain length, in seconds
		GrainPosition float64       // where new grains start, 0..1 between the start and end points
		Spread        float64       // width of the random start window, 0..1 of the start-end range
		Grains        int           // number of simultaneous grains, 1..MaxGrains
		Start         float64       // start point, 0..1
		End           float64       // end point, 0..1
		Loop          float64       // loop point, 0..1
		Reverse       bool          `yaml:",omitempty"`
		LoopMode      LoopMode      `yaml:"loopmode"`
		Stutter       bool          `yaml:",omitempty"`
		Interpolation Interpolation `yaml:"interpolation"`
	}

	// ParamSource provides parameter snapshots to the audio thread.
	ParamSource interface {
		Snapshot() Params
	}

	// ParamStore is a ParamSource that can be updated from another goroutine.
	// Each Store replaces the whole snapshot, so readers never see a mix of
	// old and new values.
	ParamStore struct {
		p atomic.Pointer[Params]
	}

	// StaticParams is a ParamSource that always returns the same snapshot.
	StaticParams Params

	// ParamInfo documents one parameter.
	ParamInfo struct {
		Key     string // key in preset files
		Name    string // human readable name
		Min     float64
		Max     float64
		Default float64
	}
)

const (
	LoopOff LoopMode = iota
	LoopOn
	LoopPingPong
)

const (
	InterpolationNearest Interpolation = iota
	InterpolationLinear
	InterpolationSinc
)

const (
	// MaxGrains is the maximum number of simultaneous grains of one note.
	MaxGrains = 16

	MaxAmplify   = 5.0
	MinGrainSize = 0.001
	MaxGrainSize = 2.0
)

var loopModeNames = [...]string{"off", "loop", "pingpong"}
var interpolationNames = [...]string{"nearest", "linear", "sinc"}

// DefaultParams returns the parameters of a freshly created instrument.
func DefaultParams() Params {
	return Params{
		Amplify:       1,
		GrainSize:     0.1,
		GrainPosition: 0,
		Spread:        0,
		Grains:        4,
		Start:         FullRange.Start,
		End:           FullRange.End,
		Loop:          FullRange.Loop,
		LoopMode:      LoopOff,
		Interpolation: InterpolationLinear,
	}
}

// Points returns the start, end and loop points of the snapshot.
func (p Params) Points() Points {
	return Points{Start: p.Start, End: p.End, Loop: p.Loop}
}

// SetPoints copies the start, end and loop points into the snapshot.
func (p *Params) SetPoints(pts Points) {
	p.Start, p.End, p.Loop = pts.Start, pts.End, pts.Loop
}

// Clamped returns a copy of the parameters with every value forced into its
// range. Degenerate values that automation can reach (a zero grain size, a
// zero spread, a grain count of zero) are not errors; they are clamped here.
func (p Params) Clamped() Params {
	p.Amplify = clampFinite(p.Amplify, 0, MaxAmplify, 1)
	p.GrainSize = clampFinite(p.GrainSize, 0, MaxGrainSize, DefaultParams().GrainSize)
	p.GrainPosition = clamp01(p.GrainPosition)
	p.Spread = clamp01(p.Spread)
	p.Grains = clamp(p.Grains, 1, MaxGrains)
	p.Start, p.End, p.Loop = clamp01(p.Start), clamp01(p.End), clamp01(p.Loop)
	if p.LoopMode < LoopOff || p.LoopMode > LoopPingPong {
		p.LoopMode = LoopOff
	}
	if p.Interpolation < InterpolationNearest || p.Interpolation > InterpolationSinc {
		p.Interpolation = InterpolationLinear
	}
	return p
}

// Validate returns an error describing the first parameter that is out of
// range. It is meant for values read from files; the audio thread uses
// Clamped instead.
func (p Params) Validate() error {
	check := func(name string, v, lo, hi float64) error {
		if math.IsNaN(v) || v < lo || v > hi {
			return fmt.Errorf("%s should be in range [%v, %v], got %v", name, lo, hi, v)
		}
		return nil
	}
	for _, c := range []struct {
		name      string
		v, lo, hi float64
	}{
		{"amplify", p.Amplify, 0, MaxAmplify},
		{"grainsize", p.GrainSize, 0, MaxGrainSize},
		{"grainposition", p.GrainPosition, 0, 1},
		{"spread", p.Spread, 0, 1},
		{"grains", float64(p.Grains), 1, MaxGrains},
		{"start", p.Start, 0, 1},
		{"end", p.End, 0, 1},
		{"loop", p.Loop, 0, 1},
	} {
		if err := check(c.name, c.v, c.lo, c.hi); err != nil {
			return err
		}
	}
	if !p.Points().Valid(1e-9) {
		return fmt.Errorf("points should satisfy start <= loop <= end, got start %v loop %v end %v", p.Start, p.Loop, p.End)
	}
	return nil
}

// ParamInfos lists the numeric parameters in the order they are usually
// displayed.
func ParamInfos() []ParamInfo {
	d := DefaultParams()
	title := cases.Title(language.English)
	infos := []ParamInfo{
		{Key: "amplify", Name: "amplify", Min: 0, Max: MaxAmplify, Default: d.Amplify},
		{Key: "grainsize", Name: "grain size", Min: MinGrainSize, Max: MaxGrainSize, Default: d.GrainSize},
		{Key: "grainposition", Name: "grain position", Min: 0, Max: 1, Default: d.GrainPosition},
		{Key: "spread", Name: "spread", Min: 0, Max: 1, Default: d.Spread},
		{Key: "grains", Name: "grain count", Min: 1, Max: MaxGrains, Default: float64(d.Grains)},
		{Key: "start", Name: "start point", Min: 0, Max: 1, Default: d.Start},
		{Key: "end", Name: "end point", Min: 0, Max: 1, Default: d.End},
		{Key: "loop", Name: "loop point", Min: 0, Max: 1, Default: d.Loop},
	}
	for i := range infos {
		infos[i].Name = title.String(infos[i].Name)
	}
	return infos
}

func (m LoopMode) String() string {
	if m < 0 || int(m) >= len(loopModeNames) {
		return fmt.Sprintf("LoopMode(%d)", int(m))
	}
	return loopModeNames[m]
}

func (m LoopMode) MarshalText() ([]byte, error) {
	if m < 0 || int(m) >= len(loopModeNames) {
		return nil, fmt.Errorf("invalid loop mode %d", int(m))
	}
	return []byte(loopModeNames[m]), nil
}

func (m *LoopMode) UnmarshalText(text []byte) error {
	for i, n := range loopModeNames {
		if n == string(text) {
			*m = LoopMode(i)
			return nil
		}
	}
	return fmt.Errorf("unknown loop mode %q", text)
}

func (i Interpolation) String() string {
	if i < 0 || int(i) >= len(interpolationNames) {
		return fmt.Sprintf("Interpolation(%d)", int(i))
	}
	return interpolationNames[i]
}

func (i Interpolation) MarshalText() ([]byte, error) {
	if i < 0 || int(i) >= len(interpolationNames) {
		return nil, fmt.Errorf("invalid interpolation %d", int(i))
	}
	return []byte(interpolationNames[i]), nil
}

func (i *Interpolation) UnmarshalText(text []byte) error {
	for j, n := range interpolationNames {
		if n == string(text) {
			*i = Interpolation(j)
			return nil
		}
	}
	return fmt.Errorf("unknown interpolation %q", text)
}

// NewParamStore returns a store holding p.
func NewParamStore(p Params) *ParamStore {
	s := &ParamStore{}
	s.Store(p)
	return s
}

// Store replaces the current snapshot.
func (s *ParamStore) Store(p Params) {
	s.p.Store(&p)
}

// Snapshot returns the current snapshot, or the defaults if nothing has been
// stored yet.
func (s *ParamStore) Snapshot() Params {
	if p := s.p.Load(); p != nil {
		return *p
	}
	return DefaultParams()
}

func (p StaticParams) Snapshot() Params { return Params(p) }

func clampFinite(v, lo, hi, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return clamp(v, lo, hi)
}
