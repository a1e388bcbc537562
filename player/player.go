package player

import (
	"fmt"

	"github.com/viterin/vek/vek32"
	"github.com/vsariola/granular"
)

type (
	// Player runs an instrument on the audio thread. It turns note events into
	// calls to the instrument, mixes the sounding notes and reports problems
	// to the model through the broker.
	Player struct {
		instrument    granular.Instrument
		broker        *Broker
		voices        []voice
		buffer        granular.AudioBuffer // one voice worth of audio
		releaseFrames int
	}

	// ProcessContext tells the player which note events happen during the
	// buffer being processed. The frames of the events are relative to the
	// start of the buffer.
	ProcessContext interface {
		NextEvent(frame int) (event granular.NoteEvent, ok bool)
		FinishBlock(frame int)
	}

	// SampleSetter is implemented by instruments whose sample can be
	// replaced while playing. Sending a *granular.Sample to the player
	// replaces the sample of such an instrument.
	SampleSetter interface {
		SetSample(*granular.Sample)
	}
)

type voice struct {
	note             granular.Note
	key              byte
	gain             float32
	sustain          bool
	failed           bool
	framesSinceEvent int
}

// DefaultReleaseTime is how long a released note fades out, in seconds.
const DefaultReleaseTime = 0.01

func NewPlayer(broker *Broker, instrument granular.Instrument, config granular.Config) *Player {
	return &Player{
		instrument:    instrument,
		broker:        broker,
		voices:        make([]voice, config.MaxVoices),
		buffer:        make(granular.AudioBuffer, config.MaxQuantum),
		releaseFrames: int(DefaultReleaseTime * float64(config.SampleRate)),
	}
}

// Process fills buffer with audio. The buffer is split at the frames of the
// note events given by context, so that notes start and stop exactly on the
// frame of their events.
func (p *Player) Process(buffer granular.AudioBuffer, context ProcessContext) {
	p.processMessages()
	frame := 0
	event, ok := context.NextEvent(frame)
	for len(buffer) > 0 {
		for ok && frame >= event.Frame {
			p.handleEvent(event)
			event, ok = context.NextEvent(frame)
		}
		n := len(buffer)
		if delta := event.Frame - frame; ok && delta < n {
			n = delta
		}
		p.render(buffer[:n])
		buffer = buffer[n:]
		frame += n
	}
	context.FinishBlock(frame)
}

// Voices returns the number of notes currently sounding.
func (p *Player) Voices() int {
	ret := 0
	for i := range p.voices {
		if p.voices[i].note != nil {
			ret++
		}
	}
	return ret
}

func (p *Player) SendAlert(name, message string, priority AlertPriority) {
	TrySend(p.broker.ToModel, MsgToModel{
		Voices: p.Voices(),
		Data:   Alert{Name: name, Priority: priority, Message: message},
	})
}

func (p *Player) render(out granular.AudioBuffer) {
	out.Clear()
	for len(out) > 0 {
		chunk := out[:min(len(out), len(p.buffer))]
		for i := range p.voices {
			v := &p.voices[i]
			if v.note == nil {
				continue
			}
			buf := p.buffer[:len(chunk)]
			if !p.instrument.RenderNote(v.note, buf) && !v.failed {
				// report once per note, the instrument keeps failing until the sample changes
				v.failed = true
				p.SendAlert("SilentQuantum", fmt.Sprintf("note %d could not read its sample and is silent", v.key), Warning)
			}
			b := buf.Floats()
			vek32.MulNumber_Inplace(b, v.gain)
			vek32.Add_Inplace(chunk.Floats(), b)
			v.framesSinceEvent += len(chunk)
			if v.note.Finished() {
				p.instrument.TeardownNote(v.note)
				*v = voice{}
			}
		}
		out = out[len(chunk):]
	}
}

func (p *Player) handleEvent(e granular.NoteEvent) {
	if e.On && e.Velocity > 0 {
		p.trigger(e.Key, e.Velocity)
	} else {
		p.release(e.Key)
	}
}

func (p *Player) trigger(key, velocity byte) {
	p.release(key)
	age := 0
	oldestReleased := false
	oldest := -1
	for i := range p.voices {
		v := &p.voices[i]
		if v.note == nil {
			oldest = i
			break
		}
		// prefer voices that have been released, and among those the oldest
		if (!v.sustain && !oldestReleased) || (!v.sustain == oldestReleased && v.framesSinceEvent >= age) {
			oldest = i
			oldestReleased = !v.sustain
			age = v.framesSinceEvent
		}
	}
	if oldest < 0 {
		return
	}
	if v := &p.voices[oldest]; v.note != nil {
		p.instrument.TeardownNote(v.note)
		*v = voice{}
	}
	note, ok := p.instrument.NoteOn(granular.KeyFrequency(key))
	if !ok {
		p.SendAlert("NoVoices", fmt.Sprintf("the instrument has no free voice for note %d", key), Warning)
		return
	}
	p.voices[oldest] = voice{note: note, key: key, gain: float32(velocity) / 127, sustain: true}
}

func (p *Player) release(key byte) {
	for i := range p.voices {
		v := &p.voices[i]
		if v.note != nil && v.key == key && v.sustain {
			v.sustain = false
			v.framesSinceEvent = 0
			p.instrument.ReleaseNote(v.note, p.releaseFrames)
			return
		}
	}
}

func (p *Player) panic() {
	for i := range p.voices {
		if v := &p.voices[i]; v.note != nil {
			p.instrument.TeardownNote(v.note)
			*v = voice{}
		}
	}
}

func (p *Player) processMessages() {
loop:
	for {
		select {
		case msg := <-p.broker.ToPlayer:
			switch m := msg.(type) {
			case PanicMsg:
				p.panic()
			case granular.NoteEvent:
				p.handleEvent(m)
			case *granular.Sample:
				if s, ok := p.instrument.(SampleSetter); ok {
					s.SetSample(m)
					for i := range p.voices {
						p.voices[i].failed = false
					}
				} else {
					p.SendAlert("SampleNotReplaced", "the instrument does not support replacing its sample", Error)
				}
			case func():
				m()
			default:
				// ignore unknown messages
			}
		default:
			break loop
		}
	}
}
