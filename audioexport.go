package granular

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Wav converts the buffer into a stereo .wav file at the given sample rate.
// If pcm16 is true, the samples are stored as 16-bit signed integers;
// otherwise as 32-bit IEEE floats.
func (buffer AudioBuffer) Wav(sampleRate int, pcm16 bool) ([]byte, error) {
	buf := new(bytes.Buffer)
	wavHeader(len(buffer), sampleRate, pcm16, buf)
	if err := encodeSamples(buffer.Floats(), pcm16, buf); err != nil {
		return nil, fmt.Errorf("cannot export .wav: %w", err)
	}
	return buf.Bytes(), nil
}

// Raw converts the buffer into interleaved little-endian samples without any
// header.
func (buffer AudioBuffer) Raw(pcm16 bool) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := encodeSamples(buffer.Floats(), pcm16, buf); err != nil {
		return nil, fmt.Errorf("cannot export .raw: %w", err)
	}
	return buf.Bytes(), nil
}

// encodeSamples appends interleaved samples to buf in the sample format of
// the .wav/.raw export.
func encodeSamples(samples []float32, pcm16 bool, buf *bytes.Buffer) error {
	var data any = samples
	if pcm16 {
		ints := make([]int16, len(samples))
		for i, v := range samples {
			ints[i] = int16(clamp(int(v*math.MaxInt16), math.MinInt16, math.MaxInt16))
		}
		data = ints
	}
	if err := binary.Write(buf, binary.LittleEndian, data); err != nil {
		return fmt.Errorf("cannot encode samples: %w", err)
	}
	return nil
}

// fmtChunk is the body of the "fmt " chunk of a .wav file.
type fmtChunk struct {
	Format        uint16 // 1 = integer PCM, 3 = IEEE float
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// wavHeader writes the header of a stereo .wav file holding frames frames.
// Float files get the extended fmt chunk and the fact chunk that
// non-PCM formats require.
func wavHeader(frames, sampleRate int, pcm16 bool, buf *bytes.Buffer) {
	const channels = 2
	f := fmtChunk{Format: 3, Channels: channels, SampleRate: uint32(sampleRate), BitsPerSample: 32}
	if pcm16 {
		f.Format, f.BitsPerSample = 1, 16
	}
	f.BlockAlign = channels * f.BitsPerSample / 8
	f.ByteRate = uint32(sampleRate) * uint32(f.BlockAlign)
	dataSize := uint32(frames) * uint32(f.BlockAlign)
	fmtSize := uint32(binary.Size(f))
	if !pcm16 {
		fmtSize += 2 // cbSize
	}
	riffSize := 4 + (8 + fmtSize) + (8 + dataSize)
	if !pcm16 {
		riffSize += 12 // fact chunk
	}
	le := binary.LittleEndian
	buf.WriteString("RIFF")
	binary.Write(buf, le, riffSize)
	buf.WriteString("WAVEfmt ")
	binary.Write(buf, le, fmtSize)
	binary.Write(buf, le, f)
	if !pcm16 {
		binary.Write(buf, le, uint16(0))
		buf.WriteString("fact")
		binary.Write(buf, le, [2]uint32{4, uint32(frames)})
	}
	buf.WriteString("data")
	binary.Write(buf, le, dataSize)
}

func clamp[T int | float64](value, min, max T) T {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
