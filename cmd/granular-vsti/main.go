//go:build plugin

package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vsariola/granular"
	"github.com/vsariola/granular/grain"
	"github.com/vsariola/granular/player"
	"github.com/vsariola/granular/sampleio"
	"pipelined.dev/audio/vst2"
)

const (
	PLUGIN_ID   = int32('G'<<24 | 'r'<<16 | 'a'<<8 | 'n')
	PLUGIN_NAME = "Granular"
)

// PresetEnv names an environment variable with the path of a preset that is
// loaded when the plugin starts.
const PresetEnv = "GRANULAR_VSTI_PRESET"

type VSTIProcessContext struct {
	events     []vst2.MIDIEvent
	eventIndex int
}

func (c *VSTIProcessContext) NextEvent(frame int) (event granular.NoteEvent, ok bool) {
	for c.eventIndex < len(c.events) {
		ev := c.events[c.eventIndex]
		c.eventIndex++
		switch {
		case ev.Data[0] >= 0x80 && ev.Data[0] < 0x90:
			return granular.NoteEvent{Frame: int(ev.DeltaFrames), On: false, Key: ev.Data[1]}, true
		case ev.Data[0] >= 0x90 && ev.Data[0] < 0xA0:
			// note on with zero velocity is a note off
			return granular.NoteEvent{Frame: int(ev.DeltaFrames), On: ev.Data[2] > 0, Key: ev.Data[1], Velocity: ev.Data[2]}, true
		default:
			// ignore all other MIDI messages
		}
	}
	return granular.NoteEvent{}, false
}

func (c *VSTIProcessContext) FinishBlock(frame int) {
	c.events = c.events[:0] // reset buffer, but keep the allocated memory
	c.eventIndex = 0
}

// plugin holds the state shared by the host callbacks. The player and the
// instrument are only touched from the audio thread, or while the host has
// suspended processing.
type plugin struct {
	config     granular.Config
	broker     *player.Broker
	store      *granular.ParamStore
	sampleData granular.Blob // the sample, encoded for GetChunk
	sample     *granular.Sample
	player     *player.Player
}

func newPlugin() *plugin {
	p := &plugin{
		config: granular.DefaultConfig(),
		broker: player.NewBroker(),
		store:  granular.NewParamStore(granular.DefaultParams()),
		sample: granular.EmptySample(),
	}
	if path := os.Getenv(PresetEnv); path != "" {
		if preset, err := granular.LoadPresetFile(path); err == nil {
			p.load(preset, filepath.Dir(path))
		} else {
			slog.Warn("cannot load preset", "path", path, "error", err)
		}
	}
	p.rebuild()
	return p
}

// rebuild creates a new instrument and player, e.g. after the sample rate
// changes.
func (p *plugin) rebuild() {
	instrument, err := grain.New(p.sample, p.store, p.config)
	if err != nil {
		slog.Error("cannot create instrument", "error", err)
		return
	}
	p.player = player.NewPlayer(p.broker, instrument, p.config)
}

func (p *plugin) load(preset granular.Preset, baseDir string) {
	p.store.Store(preset.Params)
	smp, warning := sampleio.Load(preset.Sample, baseDir)
	if warning != nil {
		slog.Warn("playing silence", "error", warning)
	}
	p.sample = smp
	p.sampleData = nil
	if !smp.Empty() {
		if data, err := sampleio.EncodeBytes(smp); err == nil {
			p.sampleData = data
		}
	}
	if p.player != nil {
		player.TrySend(p.broker.ToPlayer, any(smp))
	}
}

func (p *plugin) chunk() []byte {
	preset := granular.Preset{Params: p.store.Snapshot(), Sample: granular.SampleRef{Data: p.sampleData}}
	var buf bytes.Buffer
	if err := granular.WritePreset(&buf, preset, ".yml"); err != nil {
		slog.Error("cannot save preset", "error", err)
		return nil
	}
	return buf.Bytes()
}

func (p *plugin) setChunk(data []byte) {
	preset, err := granular.ReadPreset(bytes.NewReader(data))
	if err != nil {
		slog.Error("cannot restore preset", "error", err)
		return
	}
	p.load(preset, "")
}

func logAlerts(broker *player.Broker) {
	for msg := range broker.ToModel {
		if alert, ok := msg.Data.(player.Alert); ok {
			level := slog.LevelInfo
			switch alert.Priority {
			case player.Warning:
				level = slog.LevelWarn
			case player.Error:
				level = slog.LevelError
			}
			slog.Log(context.Background(), level, alert.Message, "alert", alert.Name)
		}
	}
}

func init() {
	var (
		version = int32(100)
	)
	vst2.PluginAllocator = func(h vst2.Host) (vst2.Plugin, vst2.Dispatcher) {
		p := newPlugin()
		go logAlerts(p.broker)
		context := VSTIProcessContext{}
		buf := make(granular.AudioBuffer, p.config.MaxQuantum)
		return vst2.Plugin{
				UniqueID:       PLUGIN_ID,
				Version:        version,
				InputChannels:  0,
				OutputChannels: 2,
				Name:           PLUGIN_NAME,
				Vendor:         "vsariola/granular",
				Category:       vst2.PluginCategorySynth,
				Flags:          vst2.PluginIsSynth,
				ProcessFloatFunc: func(in, out vst2.FloatBuffer) {
					left := out.Channel(0)
					right := out.Channel(1)
					if len(buf) < out.Frames {
						buf = append(buf, make(granular.AudioBuffer, out.Frames-len(buf))...)
					}
					buf = buf[:out.Frames]
					if p.player == nil {
						buf.Clear()
						context.FinishBlock(out.Frames)
					} else {
						p.player.Process(buf, &context)
					}
					for i := 0; i < out.Frames; i++ {
						left[i], right[i] = buf[i][0], buf[i][1]
					}
				},
			}, vst2.Dispatcher{
				CanDoFunc: func(pcds vst2.PluginCanDoString) vst2.CanDoResponse {
					switch pcds {
					case vst2.PluginCanReceiveEvents, vst2.PluginCanReceiveMIDIEvent:
						return vst2.YesCanDo
					}
					return vst2.NoCanDo
				},
				ProcessEventsFunc: func(ev *vst2.EventsPtr) {
					for i := 0; i < ev.NumEvents(); i++ {
						a := ev.Event(i)
						switch v := a.(type) {
						case *vst2.MIDIEvent:
							context.events = append(context.events, *v)
						}
					}
				},
				SetSampleRateFunc: func(rate float32) {
					if int(rate) > 0 && int(rate) != p.config.SampleRate {
						p.config.SampleRate = int(rate)
						p.rebuild()
					}
				},
				GetChunkFunc: func(isPreset bool) []byte {
					return p.chunk()
				},
				SetChunkFunc: func(data []byte, isPreset bool) {
					p.setChunk(data)
				},
			}
	}
}

func main() {}
