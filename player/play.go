package player

import (
	"fmt"
	"sync/atomic"

	"github.com/vsariola/granular"
)

// SequenceContext feeds the events of a sequence to Process, one buffer at a
// time. Call Begin with the length of each buffer before processing it.
type SequenceContext struct {
	seq    granular.Sequence
	total  int
	loop   bool
	events []granular.NoteEvent
	offset int // frame of the sequence where the current buffer starts
	length int // length of the current buffer
	done   atomic.Bool
}

// NewSequenceContext plays seq, which lasts total frames. If loop is true,
// the sequence starts over after total frames.
func NewSequenceContext(seq granular.Sequence, total int, loop bool) *SequenceContext {
	return &SequenceContext{seq: seq, total: total, loop: loop, events: seq.Events}
}

// Begin tells the context how long the next processed buffer is.
func (c *SequenceContext) Begin(length int) {
	c.length = length
}

func (c *SequenceContext) NextEvent(frame int) (granular.NoteEvent, bool) {
	if len(c.events) == 0 {
		return granular.NoteEvent{}, false
	}
	e := c.events[0]
	e.Frame -= c.offset
	if e.Frame >= c.length {
		return granular.NoteEvent{}, false
	}
	c.events = c.events[1:]
	return e, true
}

func (c *SequenceContext) FinishBlock(frame int) {
	c.offset += frame
	if c.offset < c.total {
		return
	}
	if !c.loop {
		c.done.Store(true)
		return
	}
	c.offset -= c.total
	// events exactly at the end of the sequence still need to be played
	events := make([]granular.NoteEvent, 0, len(c.events)+len(c.seq.Events))
	for _, e := range c.events {
		e.Frame -= c.total
		events = append(events, e)
	}
	c.events = append(events, c.seq.Events...)
}

// Done reports whether a sequence that does not loop has been played to the
// end. It can be called from any goroutine.
func (c *SequenceContext) Done() bool {
	return c.done.Load()
}

// Play renders a sequence with an instrument, processing it in blocks of
// config.MaxQuantum frames like an audio device would. Alerts raised while
// rendering are sent to broker, which may be nil if nobody listens.
func Play(broker *Broker, instrument granular.Instrument, seq granular.Sequence, config granular.Config) (granular.AudioBuffer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := seq.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sequence: %w", err)
	}
	if broker == nil {
		broker = NewBroker()
	}
	p := NewPlayer(broker, instrument, config)
	buffer := make(granular.AudioBuffer, seq.TotalFrames(config.SampleRate))
	context := NewSequenceContext(seq, len(buffer), false)
	for pos := 0; pos < len(buffer); {
		n := min(config.MaxQuantum, len(buffer)-pos)
		context.Begin(n)
		p.Process(buffer[pos:pos+n], context)
		pos += n
	}
	p.panic()
	return buffer, nil
}
