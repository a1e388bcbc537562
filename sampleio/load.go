package sampleio

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/vsariola/granular"
)

// Extensions are the file extensions that Resolve tries, in order.
var Extensions = []string{".wav", ".mp3"}

// Resolve expands ~ and environment variables in path and finds the file it
// refers to. A path without one of the known extensions is also tried with
// each of them appended. Relative paths are relative to baseDir.
func Resolve(path, baseDir string) (string, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("cannot expand %v: %w", path, err)
	}
	p = os.ExpandEnv(p)
	if !filepath.IsAbs(p) && baseDir != "" {
		p = filepath.Join(baseDir, p)
	}
	for _, ext := range Extensions {
		if filepath.Ext(p) == ext && fileExists(p) {
			return p, nil
		}
		if withExt := p + ext; fileExists(withExt) {
			return withExt, nil
		}
	}
	if fileExists(p) {
		return p, nil
	}
	return "", fmt.Errorf("sample not found: %v", path)
}

// LoadFile resolves and decodes a sample file.
func LoadFile(path, baseDir string) (*granular.Sample, error) {
	p, err := Resolve(path, baseDir)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("cannot open sample: %w", err)
	}
	defer f.Close()
	smp, err := Decode(f, p)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", p, err)
	}
	return smp, nil
}

// Load loads the sample a preset refers to. It never fails: if the sample
// cannot be loaded, it returns an empty sample, which plays silence, and the
// reason as a warning. An embedded sample is preferred over a path.
func Load(ref granular.SampleRef, baseDir string) (smp *granular.Sample, warning error) {
	switch {
	case len(ref.Data) > 0:
		smp, warning = DecodeBytes(ref.Data)
		if warning != nil {
			warning = fmt.Errorf("cannot decode embedded sample: %w", warning)
		}
	case ref.Path != "":
		smp, warning = LoadFile(ref.Path, baseDir)
	default:
		return granular.EmptySample(), nil
	}
	if warning != nil {
		return granular.EmptySample(), warning
	}
	return smp, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
