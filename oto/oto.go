package oto

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/vsariola/granular"
)

type (
	// Context is an audio device opened for stereo float32 output.
	Context struct {
		ctx        *oto.Context
		sampleRate int
	}

	// Output pulls audio from a function whenever the device needs more. The
	// function runs on oto's audio goroutine.
	Output struct {
		player  *oto.Player
		mu      sync.Mutex
		process func(granular.AudioBuffer)
		buffer  granular.AudioBuffer
	}
)

// bufferSize is the size of the device buffer, in bytes; 1024 frames of
// stereo float32.
const bufferSize = 1024 * 8

// NewContext opens the default audio device. It blocks until the device is
// ready.
func NewContext(sampleRate int) (*Context, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &Context{ctx: ctx, sampleRate: sampleRate}, nil
}

func (c *Context) SampleRate() int { return c.sampleRate }

// Play starts playing audio rendered by process. process gets a buffer to
// fill completely; it is called from the device's goroutine.
func (c *Context) Play(process func(granular.AudioBuffer)) *Output {
	o := &Output{process: process}
	o.player = c.ctx.NewPlayer(o)
	o.player.SetBufferSize(bufferSize)
	o.player.Play()
	return o
}

// Close suspends the device. Outputs stop pulling audio.
func (c *Context) Close() error {
	if err := c.ctx.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

// Read implements io.Reader for oto.Player.
func (o *Output) Read(p []byte) (int, error) {
	frames := len(p) / 8
	o.mu.Lock()
	defer o.mu.Unlock()
	if cap(o.buffer) < frames {
		o.buffer = make(granular.AudioBuffer, frames)
	}
	buf := o.buffer[:frames]
	if o.process == nil {
		buf.Clear()
	} else {
		o.process(buf)
	}
	return FloatBufferToLE(buf.Floats(), p), nil
}

// Close stops the output. The process function is not called after Close
// returns.
func (o *Output) Close() error {
	o.player.Pause()
	o.mu.Lock()
	o.process = nil
	o.mu.Unlock()
	if err := o.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}
