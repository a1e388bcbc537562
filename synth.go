package granular

type (
	// Note is a host-side handle for one sounding note of an Instrument. It is
	// only valid until the note is torn down.
	Note interface {
		Frequency() float64
		// Released reports whether the host has released the note.
		Released() bool
		// Finished reports whether the note has nothing more to play, e.g. its
		// release tail is over. The host should tear it down after the
		// current render.
		Finished() bool
	}

	// Instrument is the contract between a host and a note-playing
	// instrument. Hosts call NoteOn when a note starts, RenderNote once per
	// processing quantum for every sounding note, ReleaseNote when the key
	// is lifted, and TeardownNote once the note is finished. All calls happen
	// from the audio thread, one at a time.
	Instrument interface {
		// NoteOn starts a note. ok is false if the instrument has no free
		// voices left.
		NoteOn(frequency float64) (n Note, ok bool)
		// RenderNote overwrites out with the next len(out) frames of the note.
		// It returns false if the sample could not be read; out is silent in
		// that case.
		RenderNote(n Note, out AudioBuffer) bool
		// ReleaseNote starts the note's release; the note fades out over
		// releaseFrames frames.
		ReleaseNote(n Note, releaseFrames int)
		// TeardownNote frees the note. n must not be used afterwards.
		TeardownNote(n Note)
		// BeatLength returns how many frames the note plays before running
		// out of sample, or 0 if it plays indefinitely.
		BeatLength(n Note) int
	}
)
