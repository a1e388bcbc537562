package granular

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"gopkg.in/yaml.v3"
)

type (
	// NoteEvent triggers or releases a note. Frame is counted from the
	// start of whatever the event belongs to: a Sequence, or the buffer
	// currently being processed.
	NoteEvent struct {
		Frame    int
		On       bool `yaml:",omitempty"`
		Key      byte
		Velocity byte `yaml:",omitempty"`
	}

	// Sequence is a list of note events to be rendered, ordered by Frame.
	// Length is the total number of frames to render; if zero, rendering
	// stops one second after the last event.
	Sequence struct {
		Length int         `yaml:",omitempty"`
		Events []NoteEvent `yaml:",flow"`
	}
)

// ResetFrequency is the frequency below which a note-on in stutter mode is
// not sounded but resets the stutter position. Keys 0 to 15 are below it.
const ResetFrequency = 20.0

// KeyFrequency returns the 12-TET frequency of a key, with key 69 = 440 Hz.
func KeyFrequency(key byte) float64 {
	return 440 * math.Pow(2, (float64(key)-69)/12)
}

// Frequency returns the frequency of the event's key.
func (e NoteEvent) Frequency() float64 {
	return KeyFrequency(e.Key)
}

// Validate checks that the events are in order and inside the sequence.
func (s *Sequence) Validate() error {
	if s.Length < 0 {
		return errors.New("sequence length should be >= 0")
	}
	prev := 0
	for i, e := range s.Events {
		if e.Frame < prev {
			return fmt.Errorf("event %d at frame %d comes before the previous event at frame %d", i, e.Frame, prev)
		}
		if s.Length > 0 && e.Frame > s.Length {
			return fmt.Errorf("event %d at frame %d is past the sequence length %d", i, e.Frame, s.Length)
		}
		if e.Key > 127 {
			return fmt.Errorf("event %d has key %d, should be <= 127", i, e.Key)
		}
		prev = e.Frame
	}
	return nil
}

// TotalFrames returns the number of frames the sequence renders to.
func (s *Sequence) TotalFrames(sampleRate int) int {
	if s.Length > 0 {
		return s.Length
	}
	last := 0
	if n := len(s.Events); n > 0 {
		last = s.Events[n-1].Frame
	}
	return last + sampleRate
}

// ReadSequence parses a sequence from JSON or YAML and validates it.
func ReadSequence(r io.Reader) (Sequence, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Sequence{}, fmt.Errorf("could not read sequence: %w", err)
	}
	var s Sequence
	if errJSON := json.Unmarshal(b, &s); errJSON != nil {
		s = Sequence{}
		if errYaml := yaml.Unmarshal(b, &s); errYaml != nil {
			return Sequence{}, fmt.Errorf("the sequence could not be parsed as .json (%v) or .yml (%v)", errJSON, errYaml)
		}
	}
	if err := s.Validate(); err != nil {
		return Sequence{}, fmt.Errorf("invalid sequence: %w", err)
	}
	return s, nil
}

// SingleNote returns a sequence that holds key for length frames and then
// releases it, rendering tail more frames.
func SingleNote(key byte, length, tail int) Sequence {
	return Sequence{
		Length: length + tail,
		Events: []NoteEvent{
			{Frame: 0, On: true, Key: key, Velocity: 100},
			{Frame: length, On: false, Key: key},
		},
	}
}
