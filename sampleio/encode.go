package sampleio

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/vsariola/granular"
)

// Encode writes the frames of the sample as a 16-bit stereo .wav file.
// Markers, reversal and amplification are not stored.
func Encode(w io.WriteSeeker, smp *granular.Sample) error {
	frames := smp.Frames()
	enc := wav.NewEncoder(w, smp.SampleRate(), 16, 2, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: smp.SampleRate()},
		Data:           make([]int, 2*len(frames)),
		SourceBitDepth: 16,
	}
	for i, v := range frames.Floats() {
		buf.Data[i] = int(math.Max(-1, math.Min(1, float64(v))) * math.MaxInt16)
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("cannot write .wav data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("cannot finish .wav file: %w", err)
	}
	return nil
}

// EncodeBytes returns the sample as a .wav file, e.g. to embed it in a
// preset.
func EncodeBytes(smp *granular.Sample) ([]byte, error) {
	var b memFile
	if err := Encode(&b, smp); err != nil {
		return nil, err
	}
	return b.data, nil
}

// memFile is an in-memory file; the wav encoder seeks back to patch the
// header sizes.
type memFile struct {
	data []byte
	pos  int
}

func (m *memFile) Read(p []byte) (int, error) {
	if m.pos >= len(m.data) {
		return 0, io.EOF
	}
	n := copy(p, m.data[m.pos:])
	m.pos += n
	return n, nil
}

func (m *memFile) Write(p []byte) (int, error) {
	if end := m.pos + len(p); end > len(m.data) {
		m.data = append(m.data, make([]byte, end-len(m.data))...)
	}
	copy(m.data[m.pos:], p)
	m.pos += len(p)
	return len(p), nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(m.pos) + offset
	case io.SeekEnd:
		pos = int64(len(m.data)) + offset
	default:
		return 0, errors.New("invalid whence")
	}
	if pos < 0 {
		return 0, errors.New("negative position")
	}
	m.pos = int(pos)
	return pos, nil
}
