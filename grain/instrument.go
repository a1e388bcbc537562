package grain

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/vsariola/granular"
)

// Instrument is a granular sampler. It plays its sample as a cloud of short
// overlapping grains, pitched by the note frequency. It implements
// granular.Instrument.
//
// All methods except New must be called from one goroutine, normally the
// audio thread. Parameters are read from a ParamSource once per render call,
// so they can be changed from elsewhere through a granular.ParamStore.
type Instrument struct {
	config granular.Config
	sample *granular.Sample
	params granular.ParamSource

	snapshot  granular.Params // taken at the start of each render call
	rawPoints granular.Points // the points as last seen in the snapshot
	points    granular.Points // the points after the ordering rules

	// where the next note starts in stutter mode
	nextStart     int
	nextBackwards bool

	// toggling these moves the stutter position back to the start
	reverse, stutter bool

	rng    *rand.Rand
	slots  [granular.MaxGrains]granular.AudioBuffer
	voices []Voice
}

// New creates an instrument playing smp. The instrument takes ownership of
// smp: it moves the markers and sets the reversal and amplification of the
// sample according to the parameters. A nil smp plays silence.
func New(smp *granular.Sample, params granular.ParamSource, config granular.Config) (*Instrument, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if params == nil {
		params = granular.StaticParams(granular.DefaultParams())
	}
	in := &Instrument{
		config: config,
		params: params,
		rng:    rand.New(rand.NewSource(config.Seed)),
		voices: make([]Voice, config.MaxVoices),
	}
	for i := range in.slots {
		in.slots[i] = make(granular.AudioBuffer, config.MaxQuantum)
	}
	in.snapshot = params.Snapshot().Clamped()
	in.rawPoints = in.snapshot.Points()
	in.points = in.rawPoints.Normalized()
	in.reverse, in.stutter = in.snapshot.Reverse, in.snapshot.Stutter
	in.SetSample(smp)
	return in, nil
}

// SetSample replaces the sample. The current points are applied to it and
// the stutter position returns to the start. Notes that are playing continue
// with the new sample.
func (in *Instrument) SetSample(smp *granular.Sample) {
	if smp == nil {
		smp = granular.EmptySample()
	}
	in.sample = smp
	in.applyPoints(in.points)
	in.sample.SetReversed(in.snapshot.Reverse)
	in.sample.SetAmplification(float32(in.snapshot.Amplify))
}

// Sample returns the sample being played.
func (in *Instrument) Sample() *granular.Sample { return in.sample }

// Points returns the start, end and loop points in effect.
func (in *Instrument) Points() granular.Points { return in.points }

// StutterPosition returns the frame and direction where the next note starts
// when stutter is on.
func (in *Instrument) StutterPosition() (frame int, backwards bool) {
	return in.nextStart, in.nextBackwards
}

// NoteOn takes a voice from the pool. The voice starts on its first render,
// so that it picks up the parameters in effect at that moment.
func (in *Instrument) NoteOn(frequency float64) (granular.Note, bool) {
	for i := range in.voices {
		if !in.voices[i].inUse {
			in.voices[i] = Voice{frequency: frequency, inUse: true}
			return &in.voices[i], true
		}
	}
	return nil, false
}

// RenderNote renders the next len(out) frames of note n. Requests longer
// than the config's MaxQuantum are rendered in several pieces. If the sample
// cannot be read, the failing pieces are silent and RenderNote returns
// false.
func (in *Instrument) RenderNote(n granular.Note, out granular.AudioBuffer) bool {
	v, ok := n.(*Voice)
	if !ok || !v.inUse {
		out.Clear()
		return false
	}
	in.refresh()
	if !v.started {
		in.startVoice(v)
	}
	if v.finished {
		out.Clear()
		return true
	}
	v.ratio = in.ratio(v.frequency)
	ret := true
	for len(out) > 0 {
		chunk := out[:min(len(out), in.config.MaxQuantum)]
		if !in.renderChunk(v, chunk) {
			ret = false
		}
		out = out[len(chunk):]
	}
	if in.snapshot.Stutter {
		v.stutter = true
		in.saveStutter(v)
	}
	return ret
}

// ReleaseNote fades the note out over releaseFrames frames, after which it
// is finished.
func (in *Instrument) ReleaseNote(n granular.Note, releaseFrames int) {
	v, ok := n.(*Voice)
	if !ok || !v.inUse || v.released {
		return
	}
	v.released = true
	v.releaseFrames = max(releaseFrames, 0)
	v.releasePos = 0
	if v.releaseFrames == 0 {
		v.finished = true
	}
}

// TeardownNote returns the voice to the pool. If stutter was on during the
// note, the next note continues from where the first grain of this one
// stopped.
func (in *Instrument) TeardownNote(n granular.Note) {
	v, ok := n.(*Voice)
	if !ok || !v.inUse {
		return
	}
	if v.stutter && !v.silent && v.started {
		in.saveStutter(v)
	}
	v.inUse = false
}

// BeatLength returns how many output frames a note plays before reaching the
// end marker. It is 0 if the note loops, i.e. plays until released.
func (in *Instrument) BeatLength(n granular.Note) int {
	v, ok := n.(*Voice)
	if !ok {
		return 0
	}
	p := in.params.Snapshot().Clamped()
	if p.LoopMode != granular.LoopOff || v.frequency <= 0 {
		return 0
	}
	if p.Stutter && v.frequency < granular.ResetFrequency {
		return 0
	}
	end := in.sample.EndFrame()
	start := in.sample.StartFrame()
	if p.Stutter && in.nextStart < end {
		start = in.nextStart
	}
	frames := float64(end-start) * in.config.BaseFrequency / v.frequency *
		float64(in.config.SampleRate) / float64(in.sample.SampleRate())
	return max(0, int(math.Floor(frames)))
}

// refresh takes a new parameter snapshot and applies the parts that belong
// to the sample. Editing a point, or toggling Reverse or Stutter, resets the
// stutter position.
func (in *Instrument) refresh() {
	in.snapshot = in.params.Snapshot().Clamped()
	if raw := in.snapshot.Points(); raw != in.rawPoints {
		pts := in.points
		if raw.Start != in.rawPoints.Start {
			pts = pts.WithStart(raw.Start)
		}
		if raw.End != in.rawPoints.End {
			pts = pts.WithEnd(raw.End)
		}
		if raw.Loop != in.rawPoints.Loop {
			pts = pts.WithLoop(raw.Loop)
		}
		in.rawPoints = raw
		in.applyPoints(pts)
	}
	in.sample.SetReversed(in.snapshot.Reverse)
	in.sample.SetAmplification(float32(in.snapshot.Amplify))
	if in.snapshot.Reverse != in.reverse || in.snapshot.Stutter != in.stutter {
		in.reverse, in.stutter = in.snapshot.Reverse, in.snapshot.Stutter
		in.resetStutter()
	}
}

func (in *Instrument) applyPoints(p granular.Points) {
	in.points = p
	in.sample.SetPoints(p)
	in.resetStutter()
}

func (in *Instrument) resetStutter() {
	in.nextStart = in.sample.StartFrame()
	in.nextBackwards = false
}

func (in *Instrument) saveStutter(v *Voice) {
	in.nextStart = int(v.cursors[0].Frame)
	in.nextBackwards = v.cursors[0].Backwards
}

// startVoice initializes the grains of a note on its first render. In
// stutter mode, a note below ResetFrequency does not sound; it only moves the
// stutter position back to the start.
func (in *Instrument) startVoice(v *Voice) {
	p := &in.snapshot
	v.started = true
	v.grains = p.Grains
	if p.Stutter && v.frequency < granular.ResetFrequency {
		in.resetStutter()
		v.silent = true
		v.finished = true
		return
	}
	if p.Stutter {
		if in.nextStart >= in.sample.EndFrame() && p.LoopMode == granular.LoopOff {
			in.resetStutter()
		}
		v.backwards = in.nextBackwards
	}
	for g := 0; g < v.grains; g++ {
		in.restart(v, &v.cursors[g])
	}
	if p.Stutter {
		v.cursors[0].Frame = float64(in.nextStart)
	}
}

// restart moves a grain cursor to a new start position.
func (in *Instrument) restart(v *Voice, c *Cursor) {
	c.Frame = float64(in.grainStart())
	c.Backwards = v.backwards
}

// grainStart returns a random start frame around the grain position. The
// jitter is uniform in [-spread/2, spread/2), where spread is the Spread
// parameter times the distance between the start and end markers.
func (in *Instrument) grainStart() int {
	start, end := in.sample.StartFrame(), in.sample.EndFrame()
	width := end - start
	center := start + int(in.snapshot.GrainPosition*float64(width))
	spread := int(in.snapshot.Spread * float64(width))
	jitter := 0
	if spread > 0 {
		jitter = in.rng.Intn(spread) - spread/2
	}
	return min(max(center+jitter, start), end)
}

// grainSize returns the grain length S for the current snapshot and sample.
func (in *Instrument) grainSize() int64 {
	return grainFrames(in.snapshot.GrainSize, in.sample.SampleRate())
}

// ratio returns the number of sample frames played per output frame.
func (in *Instrument) ratio(frequency float64) float64 {
	return frequency / in.config.BaseFrequency *
		float64(in.sample.SampleRate()) / float64(in.config.SampleRate)
}

// renderChunk renders at most MaxQuantum frames: every grain slot into its
// scratch buffer, then their average into out. If any slot fails, the whole
// chunk is silent.
func (in *Instrument) renderChunk(v *Voice, out granular.AudioBuffer) bool {
	size := in.grainSize()
	slots := in.slots[:v.grains]
	ok := true
	for g := range slots {
		slots[g] = slots[g][:len(out)]
		since := v.framesPlayed + grainOffset(g, v.grains, size)
		if !in.renderGrain(v, g, slots[g], since, size) {
			ok = false
			break
		}
	}
	v.framesPlayed += int64(len(out))
	if ok {
		mix(out, slots)
	} else {
		out.Clear()
	}
	if v.released {
		v.releasePos = fadeOut(out, v.releasePos, v.releaseFrames)
		if v.releasePos >= v.releaseFrames {
			v.finished = true
		}
	}
	return ok
}
