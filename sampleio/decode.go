package sampleio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/vsariola/granular"
)

// ErrUnknownFormat is returned when the data is neither a .wav nor an .mp3
// file.
var ErrUnknownFormat = errors.New("unknown audio file format")

const wavFormatFloat = 3

// Decode reads a .wav or .mp3 file into a sample. The format is chosen by the
// extension of name, or by looking at the data if the extension is not
// known.
func Decode(r io.ReadSeeker, name string) (*granular.Sample, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav", ".wave":
		return decodeWav(r)
	case ".mp3":
		return decodeMp3(r)
	}
	var magic [4]byte
	n, _ := io.ReadFull(r, magic[:])
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("cannot rewind: %w", err)
	}
	switch {
	case n == 4 && string(magic[:]) == "RIFF":
		return decodeWav(r)
	case n >= 3 && string(magic[:3]) == "ID3", n >= 2 && magic[0] == 0xFF && magic[1]&0xE0 == 0xE0:
		return decodeMp3(r)
	}
	return nil, ErrUnknownFormat
}

// DecodeBytes decodes an embedded file.
func DecodeBytes(data []byte) (*granular.Sample, error) {
	return Decode(bytes.NewReader(data), "")
}

func decodeWav(r io.ReadSeeker) (*granular.Sample, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, errors.New("invalid .wav file")
	}
	if err := decoder.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("cannot find .wav data: %w", err)
	}
	format := decoder.Format()
	bitDepth := int(decoder.SampleBitDepth())
	if bitDepth == 0 || format.NumChannels < 1 {
		return nil, fmt.Errorf("unsupported .wav format: %d channels, %d bits", format.NumChannels, bitDepth)
	}
	bytesPerSample := (bitDepth-1)/8 + 1
	nsamples := int(decoder.PCMLen()) / bytesPerSample
	buf := &audio.IntBuffer{
		Format:         format,
		Data:           make([]int, nsamples),
		SourceBitDepth: bitDepth,
	}
	n, err := decoder.PCMBuffer(buf)
	if err != nil {
		return nil, fmt.Errorf("cannot decode .wav data: %w", err)
	}
	var convert func(int) float32
	switch {
	case decoder.WavAudioFormat == wavFormatFloat && bitDepth == 32:
		convert = func(v int) float32 { return math.Float32frombits(uint32(int32(v))) }
	case bitDepth == 8:
		// 8-bit .wav data is unsigned
		convert = func(v int) float32 { return float32(v-128) / 128 }
	default:
		factor := float32(math.Pow(2, float64(bitDepth-1)))
		convert = func(v int) float32 { return float32(v) / factor }
	}
	frames := toFrames(buf.Data[:n], format.NumChannels, convert)
	if len(frames) == 0 {
		return nil, granular.ErrEmptySample
	}
	return granular.NewSample(frames, format.SampleRate), nil
}

func decodeMp3(r io.Reader) (*granular.Sample, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("invalid .mp3 file: %w", err)
	}
	data, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("cannot decode .mp3 data: %w", err)
	}
	// go-mp3 always outputs 16-bit little-endian stereo
	samples := make([]int, len(data)/2)
	for i := range samples {
		samples[i] = int(int16(uint16(data[2*i]) | uint16(data[2*i+1])<<8))
	}
	frames := toFrames(samples, 2, func(v int) float32 { return float32(v) / 32768 })
	if len(frames) == 0 {
		return nil, granular.ErrEmptySample
	}
	return granular.NewSample(frames, decoder.SampleRate()), nil
}

// toFrames converts interleaved samples into stereo frames. Mono is copied
// to both channels; channels after the second are dropped.
func toFrames(data []int, channels int, convert func(int) float32) granular.AudioBuffer {
	frames := make(granular.AudioBuffer, len(data)/channels)
	for i := range frames {
		l := convert(data[i*channels])
		r := l
		if channels > 1 {
			r = convert(data[i*channels+1])
		}
		frames[i] = [2]float32{l, r}
	}
	return frames
}
