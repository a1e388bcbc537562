package granular

import "fmt"

// Config holds the settings of an instrument that cannot change while it
// plays.
type Config struct {
	// SampleRate is the output sample rate, in Hz.
	SampleRate int
	// MaxQuantum is the longest block rendered in one go. Scratch buffers are
	// allocated for this many frames up front; longer requests are split.
	MaxQuantum int
	// MaxVoices is the number of notes that can sound at the same time.
	MaxVoices int
	// BaseFrequency is the frequency at which the sample plays at its
	// recorded pitch.
	BaseFrequency float64
	// Seed seeds the random grain start positions.
	Seed int64
}

const (
	DefaultMaxQuantum    = 1024
	DefaultMaxVoices     = 32
	DefaultBaseFrequency = 440
)

// DefaultConfig returns a Config for 44.1 kHz output.
func DefaultConfig() Config {
	return Config{
		SampleRate:    DefaultSampleRate,
		MaxQuantum:    DefaultMaxQuantum,
		MaxVoices:     DefaultMaxVoices,
		BaseFrequency: DefaultBaseFrequency,
		Seed:          1,
	}
}

// Validate checks that the config can be used to build an instrument.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate should be > 0, got %d", c.SampleRate)
	}
	if c.MaxQuantum <= 0 {
		return fmt.Errorf("max quantum should be > 0, got %d", c.MaxQuantum)
	}
	if c.MaxVoices <= 0 {
		return fmt.Errorf("max voices should be > 0, got %d", c.MaxVoices)
	}
	if c.BaseFrequency <= 0 {
		return fmt.Errorf("base frequency should be > 0, got %v", c.BaseFrequency)
	}
	return nil
}
