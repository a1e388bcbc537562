package granular_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/vsariola/granular"
)

func TestReadSequence(t *testing.T) {
	input := `
length: 1000
events:
  - {frame: 0, on: true, key: 60, velocity: 100}
  - {frame: 500, key: 60}
`
	s, err := granular.ReadSequence(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadSequence failed: %v", err)
	}
	if s.Length != 1000 || len(s.Events) != 2 || !s.Events[0].On || s.Events[1].On || s.Events[1].Frame != 500 {
		t.Fatalf("unexpected sequence %+v", s)
	}
	if s.TotalFrames(44100) != 1000 {
		t.Fatalf("explicit length should be used")
	}
}

func TestSequenceValidate(t *testing.T) {
	for _, s := range []granular.Sequence{
		{Events: []granular.NoteEvent{{Frame: 10}, {Frame: 5}}},
		{Length: 100, Events: []granular.NoteEvent{{Frame: 101}}},
		{Events: []granular.NoteEvent{{Frame: 0, Key: 128}}},
		{Length: -1},
	} {
		if err := s.Validate(); err == nil {
			t.Fatalf("expected %+v to be invalid", s)
		}
	}
	single := granular.SingleNote(60, 100, 0)
	if err := single.Validate(); err != nil {
		t.Fatalf("single note should be valid: %v", err)
	}
	if n := (&granular.Sequence{Events: []granular.NoteEvent{{Frame: 100}}}).TotalFrames(1000); n != 1100 {
		t.Fatalf("sequence without length should end a second after the last event, got %d", n)
	}
}

func TestKeyFrequency(t *testing.T) {
	if f := granular.KeyFrequency(69); f != 440 {
		t.Fatalf("key 69 should be 440 Hz, got %v", f)
	}
	if f := granular.KeyFrequency(81); math.Abs(f-880) > 1e-9 {
		t.Fatalf("key 81 should be 880 Hz, got %v", f)
	}
	for key := byte(0); key < 16; key++ {
		if granular.KeyFrequency(key) >= granular.ResetFrequency {
			t.Fatalf("key %d should be below the reset frequency", key)
		}
	}
	if granular.KeyFrequency(16) < granular.ResetFrequency {
		t.Fatalf("key 16 should be above the reset frequency")
	}
}

func TestWavHeader(t *testing.T) {
	buf := granular.AudioBuffer{{0.5, -0.5}, {1, -1}}
	for _, pcm16 := range []bool{false, true} {
		data, err := buf.Wav(22050, pcm16)
		if err != nil {
			t.Fatalf("Wav failed: %v", err)
		}
		if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
			t.Fatalf("missing RIFF header")
		}
		if rate := binary.LittleEndian.Uint32(data[24:28]); rate != 22050 {
			t.Fatalf("sample rate in header: got %d, want 22050", rate)
		}
		if size := binary.LittleEndian.Uint32(data[4:8]); int(size) != len(data)-8 {
			t.Fatalf("RIFF chunk size %d does not match the file size %d", size, len(data))
		}
		bits, dataAt := uint16(32), 50
		if pcm16 {
			bits, dataAt = 16, 36
		} else if string(data[38:42]) != "fact" || binary.LittleEndian.Uint32(data[46:50]) != 2 {
			t.Fatalf("float wav should have a fact chunk with the frame count")
		}
		if got := binary.LittleEndian.Uint16(data[34:36]); got != bits {
			t.Fatalf("bits per sample: got %d, want %d", got, bits)
		}
		if string(data[dataAt:dataAt+4]) != "data" {
			t.Fatalf("data chunk should start at byte %d", dataAt)
		}
		raw, _ := buf.Raw(pcm16)
		if !bytes.HasSuffix(data, raw) {
			t.Fatalf("wav data should end with the raw samples")
		}
	}
}
