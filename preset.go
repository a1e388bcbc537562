package granular

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type (
	// Preset is the persisted state of a granular instrument: the parameters
	// and a reference to the sample.
	Preset struct {
		Params Params
		Sample SampleRef `yaml:",omitempty"`
	}

	// SampleRef points to the recording used by a preset. Either Path names a
	// file, or Data holds an encoded file (e.g. a .wav) embedded in the
	// preset. Data takes precedence when both are given.
	SampleRef struct {
		Path string `yaml:",omitempty"`
		Data Blob   `yaml:",omitempty"`
	}

	// Blob is binary data that is stored as base64 text in both JSON and
	// YAML.
	Blob []byte
)

// interpolationUnset marks a preset that did not specify the interpolation,
// so that it can be told apart from an explicit "nearest".
const interpolationUnset Interpolation = -1

// DefaultPreset returns a preset with default parameters and no sample.
func DefaultPreset() Preset {
	return Preset{Params: DefaultParams()}
}

// IsZero reports whether the reference points to nothing.
func (r SampleRef) IsZero() bool {
	return r.Path == "" && len(r.Data) == 0
}

// ReadPreset parses a preset from JSON or YAML. Values missing from the file
// get their defaults, except that a missing loop point defaults to the start
// point and a missing interpolation defaults to linear, which is how presets
// written before these parameters existed sounded.
func ReadPreset(r io.Reader) (Preset, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Preset{}, fmt.Errorf("could not read preset: %w", err)
	}
	p, errJSON := decodePreset(b, json.Unmarshal)
	if errJSON != nil {
		var errYaml error
		if p, errYaml = decodePreset(b, yaml.Unmarshal); errYaml != nil {
			return Preset{}, fmt.Errorf("the preset could not be parsed as .json (%v) or .yml (%v)", errJSON, errYaml)
		}
	}
	if err := p.Params.Validate(); err != nil {
		return Preset{}, fmt.Errorf("invalid preset: %w", err)
	}
	return p, nil
}

// LoadPresetFile reads a preset from a file. A relative sample path in the
// preset is made relative to the directory of the preset file.
func LoadPresetFile(path string) (Preset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Preset{}, fmt.Errorf("could not open preset: %w", err)
	}
	defer f.Close()
	p, err := ReadPreset(f)
	if err != nil {
		return Preset{}, fmt.Errorf("%v: %w", path, err)
	}
	if p.Sample.Path != "" && !filepath.IsAbs(p.Sample.Path) && p.Sample.Path[0] != '~' && p.Sample.Path[0] != '$' {
		p.Sample.Path = filepath.Join(filepath.Dir(path), p.Sample.Path)
	}
	return p, nil
}

// WritePreset encodes the preset as JSON if the extension is ".json" and as
// YAML otherwise.
func WritePreset(w io.Writer, p Preset, extension string) error {
	var contents []byte
	var err error
	if extension == ".json" {
		contents, err = json.MarshalIndent(p, "", "  ")
	} else {
		contents, err = yaml.Marshal(p)
	}
	if err != nil {
		return fmt.Errorf("could not marshal preset: %w", err)
	}
	if _, err := w.Write(contents); err != nil {
		return fmt.Errorf("could not write preset: %w", err)
	}
	return nil
}

func (b Blob) MarshalText() ([]byte, error) {
	ret := make([]byte, base64.StdEncoding.EncodedLen(len(b)))
	base64.StdEncoding.Encode(ret, b)
	return ret, nil
}

func (b *Blob) UnmarshalText(text []byte) error {
	ret := make([]byte, base64.StdEncoding.DecodedLen(len(text)))
	n, err := base64.StdEncoding.Decode(ret, text)
	if err != nil {
		return fmt.Errorf("invalid base64 data: %w", err)
	}
	*b = ret[:n]
	return nil
}

func decodePreset(b []byte, unmarshal func([]byte, any) error) (Preset, error) {
	p := DefaultPreset()
	p.Params.Loop = math.NaN()
	p.Params.Interpolation = interpolationUnset
	if err := unmarshal(b, &p); err != nil {
		return Preset{}, err
	}
	if math.IsNaN(p.Params.Loop) {
		p.Params.Loop = p.Params.Start
	}
	if p.Params.Interpolation == interpolationUnset {
		p.Params.Interpolation = InterpolationLinear
	}
	p.Params.SetPoints(p.Params.Points().Normalized())
	return p, nil
}
