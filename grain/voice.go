package grain

import "github.com/vsariola/granular"

// Voice is the state of one note of an Instrument. It implements
// granular.Note. Voices live in a pool owned by the instrument and are reused
// after TeardownNote.
type Voice struct {
	frequency float64
	ratio     float64 // sample frames per output frame

	// grains is captured when the note starts; changing the grain count
	// only affects the following notes.
	grains       int
	cursors      [granular.MaxGrains]Cursor
	backwards    bool // direction of new grains
	framesPlayed int64

	started  bool
	silent   bool // a stutter reset, not a sounding note
	stutter  bool // stutter was on during some render of the note
	released bool
	finished bool
	inUse    bool

	releasePos    int
	releaseFrames int
}

func (v *Voice) Frequency() float64 { return v.frequency }
func (v *Voice) Released() bool     { return v.released }
func (v *Voice) Finished() bool     { return v.finished }

// FramesPlayed returns the number of frames rendered since the note started.
func (v *Voice) FramesPlayed() int64 { return v.framesPlayed }

// Cursor returns the current cursor of grain slot g.
func (v *Voice) Cursor(g int) Cursor { return v.cursors[g] }

// Grains returns the number of grains the note plays.
func (v *Voice) Grains() int { return v.grains }
