package granular

import "errors"

// DefaultSampleRate is the sample rate assumed when nothing else is known.
const DefaultSampleRate = 44100

// ErrEmptySample is returned when a sample without any frames is decoded or
// played.
var ErrEmptySample = errors.New("sample has no frames")

// Sample is a decoded stereo recording with four frame markers. The frames are
// never modified after construction; loading a different recording replaces
// the whole Sample. The markers, amplification and reversal are mutable and
// always satisfy 0 <= start <= loop <= end <= Len(), with start < end unless
// the sample is empty.
//
// The release marker mirrors the end marker; it exists so that hosts can ask
// where the tail of a note should stop reading.
type Sample struct {
	frames     AudioBuffer
	sampleRate int

	startFrame   int
	endFrame     int
	loopFrame    int
	releaseFrame int

	amplification float32
	reversed      bool
}

// NewSample wraps decoded frames recorded at sampleRate. The markers cover the
// whole sample.
func NewSample(frames AudioBuffer, sampleRate int) *Sample {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	s := &Sample{frames: frames, sampleRate: sampleRate, amplification: 1}
	s.SetPoints(FullRange)
	return s
}

// EmptySample returns a sample that plays silence. It is what an instrument
// holds when its recording could not be loaded.
func EmptySample() *Sample {
	return NewSample(nil, DefaultSampleRate)
}

// Clone returns a sample sharing the frame data but with its own markers.
func (s *Sample) Clone() *Sample {
	c := *s
	return &c
}

func (s *Sample) Len() int          { return len(s.frames) }
func (s *Sample) Empty() bool       { return len(s.frames) == 0 }
func (s *Sample) SampleRate() int   { return s.sampleRate }
func (s *Sample) StartFrame() int   { return s.startFrame }
func (s *Sample) EndFrame() int     { return s.endFrame }
func (s *Sample) LoopFrame() int    { return s.loopFrame }
func (s *Sample) ReleaseFrame() int { return s.releaseFrame }
func (s *Sample) Reversed() bool    { return s.reversed }

// Frames returns the decoded frames in recording order, ignoring reversal.
func (s *Sample) Frames() AudioBuffer { return s.frames }

// Duration returns the length of the recording in seconds.
func (s *Sample) Duration() float64 {
	return float64(len(s.frames)) / float64(s.sampleRate)
}

func (s *Sample) Amplification() float32 { return s.amplification }

func (s *Sample) SetAmplification(a float32) {
	if a < 0 {
		a = 0
	}
	s.amplification = a
}

// SetReversed makes the sample play backwards. The markers keep their
// positions, so they address the reversed recording.
func (s *Sample) SetReversed(r bool) { s.reversed = r }

// Frame returns frame i of the sample as it plays, i.e. counted from the end
// when the sample is reversed. Frames outside the recording are silent.
func (s *Sample) Frame(i int) [2]float32 {
	if i < 0 || i >= len(s.frames) {
		return [2]float32{}
	}
	if s.reversed {
		return s.frames[len(s.frames)-1-i]
	}
	return s.frames[i]
}

// SetPoints recomputes the frame markers from normalized points.
func (s *Sample) SetPoints(p Points) {
	size := len(s.frames)
	s.startFrame = clamp(int(p.Start*float64(size)), 0, size)
	s.endFrame = clamp(int(p.End*float64(size)), 0, size)
	s.loopFrame = clamp(int(p.Loop*float64(size)), 0, size)
	if size > 0 && s.endFrame <= s.startFrame {
		// tiny samples can round both points onto the same frame
		s.endFrame = min(s.startFrame+1, size)
		s.startFrame = s.endFrame - 1
	}
	s.loopFrame = clamp(s.loopFrame, s.startFrame, s.endFrame)
	s.releaseFrame = s.endFrame
}
