package score

import (
	"errors"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// ErrAudioContextClosed is returned by operations on a closed context and by
// a second Close.
var ErrAudioContextClosed = errors.New("audio context already closed")

const defaultSampleRate = beep.SampleRate(44100)

// AudioContext owns the mixer for one pipeline run. Exactly one context is
// live per (document, width) pair; the controller closes it on teardown and
// a closed context is never reused.
type AudioContext struct {
	mu      sync.Mutex
	rate    beep.SampleRate
	mixer   *beep.Mixer
	ctrls   []*beep.Ctrl
	closed  bool
	playing bool
}

func NewAudioContext() *AudioContext {
	return &AudioContext{
		rate:  defaultSampleRate,
		mixer: &beep.Mixer{},
	}
}

// SampleRate returns the context's sample rate.
func (c *AudioContext) SampleRate() beep.SampleRate {
	return c.rate
}

// StartPlayback binds the mixer to the speaker. Offline use (export only)
// never calls this.
func (c *AudioContext) StartPlayback() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrAudioContextClosed
	}
	if c.playing {
		return nil
	}

	if err := speaker.Init(c.rate, c.rate.N(time.Millisecond*100)); err != nil {
		return err
	}
	speaker.Play(c.mixer)
	c.playing = true
	return nil
}

// play adds a streamer to the mixer behind a pause control.
func (c *AudioContext) play(s beep.Streamer) (*beep.Ctrl, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrAudioContextClosed
	}

	ctrl := &beep.Ctrl{Streamer: s}
	c.ctrls = append(c.ctrls, ctrl)
	if c.playing {
		speaker.Lock()
		c.mixer.Add(ctrl)
		speaker.Unlock()
	} else {
		c.mixer.Add(ctrl)
	}
	return ctrl, nil
}

// Close pauses all streamers and clears the mixer. The second call returns
// ErrAudioContextClosed.
func (c *AudioContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrAudioContextClosed
	}

	for _, ctrl := range c.ctrls {
		ctrl.Paused = true
	}
	c.mixer.Clear()
	c.ctrls = nil
	c.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (c *AudioContext) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
