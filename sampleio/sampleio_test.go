package sampleio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/vsariola/granular"
)

func testFrames() granular.AudioBuffer {
	return granular.AudioBuffer{{0, 0}, {0.5, -0.5}, {-0.25, 0.25}, {0.999, -1}}
}

func checkFrames(t *testing.T, got, want granular.AudioBuffer, tolerance float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d frames, got %d", len(want), len(got))
	}
	for i := range want {
		for c := 0; c < 2; c++ {
			if math.Abs(float64(got[i][c]-want[i][c])) > tolerance {
				t.Fatalf("frame %d channel %d: got %v, want %v", i, c, got[i][c], want[i][c])
			}
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	smp := granular.NewSample(testFrames(), 22050)
	data, err := EncodeBytes(smp)
	if err != nil {
		t.Fatalf("EncodeBytes failed: %v", err)
	}
	dec, err := DecodeBytes(data)
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	if dec.SampleRate() != 22050 {
		t.Fatalf("sample rate: got %d, want 22050", dec.SampleRate())
	}
	checkFrames(t, dec.Frames(), testFrames(), 1e-3)
	if dec.StartFrame() != 0 || dec.EndFrame() != dec.Len() {
		t.Fatalf("decoded sample should cover the whole recording")
	}
}

func TestDecodeExportedWav(t *testing.T) {
	data, err := testFrames().Wav(48000, true)
	if err != nil {
		t.Fatalf("Wav failed: %v", err)
	}
	dec, err := Decode(&memFile{data: data}, "render.wav")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if dec.SampleRate() != 48000 {
		t.Fatalf("sample rate: got %d, want 48000", dec.SampleRate())
	}
	checkFrames(t, dec.Frames(), testFrames(), 1e-3)
}

func TestDecodeMono(t *testing.T) {
	var f memFile
	enc := wav.NewEncoder(&f, 8000, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 8000},
		Data:           []int{0, 16384, -16384},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	dec, err := DecodeBytes(f.data)
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	checkFrames(t, dec.Frames(), granular.AudioBuffer{{0, 0}, {0.5, 0.5}, {-0.5, -0.5}}, 1e-6)
}

func TestDecodeUnknownFormat(t *testing.T) {
	if _, err := DecodeBytes([]byte("this is not audio")); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func writeTestWav(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("cannot create %v: %v", path, err)
	}
	defer f.Close()
	if err := Encode(f, granular.NewSample(testFrames(), 44100)); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	writeTestWav(t, filepath.Join(dir, "drum.wav"))
	t.Setenv("GRANULAR_TEST_SAMPLES", dir)
	for _, tt := range []struct {
		path, baseDir string
	}{
		{"drum", dir},
		{"drum.wav", dir},
		{filepath.Join(dir, "drum"), ""},
		{"$GRANULAR_TEST_SAMPLES/drum", ""},
	} {
		got, err := Resolve(tt.path, tt.baseDir)
		if err != nil {
			t.Fatalf("Resolve(%q, %q) failed: %v", tt.path, tt.baseDir, err)
		}
		if want := filepath.Join(dir, "drum.wav"); got != want {
			t.Fatalf("Resolve(%q, %q): got %v, want %v", tt.path, tt.baseDir, got, want)
		}
	}
	if _, err := Resolve("snare", dir); err == nil {
		t.Fatalf("missing sample should fail")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeTestWav(t, filepath.Join(dir, "drum.wav"))
	smp, warning := Load(granular.SampleRef{Path: "drum"}, dir)
	if warning != nil {
		t.Fatalf("unexpected warning: %v", warning)
	}
	checkFrames(t, smp.Frames(), testFrames(), 1e-3)

	smp, warning = Load(granular.SampleRef{Path: "missing"}, dir)
	if warning == nil || smp == nil || !smp.Empty() {
		t.Fatalf("missing sample should give an empty sample and a warning")
	}

	smp, warning = Load(granular.SampleRef{Data: []byte("garbage")}, dir)
	if warning == nil || !smp.Empty() {
		t.Fatalf("broken embedded sample should give an empty sample and a warning")
	}

	smp, warning = Load(granular.SampleRef{}, dir)
	if warning != nil || !smp.Empty() {
		t.Fatalf("no sample should be empty without a warning")
	}
}
