package score

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// Synthesizer turns a visual score's note events into audio. Setup is two
// explicit steps: Init binds the score and audio context, Prime renders the
// sample buffer. Only a primed synthesizer can play or export.
type Synthesizer struct {
	mu     sync.Mutex
	voice  VoicePreset
	visual *VisualScore
	audio  *AudioContext
	buf    [][2]float64
	inited bool
	primed bool
}

func NewSynthesizer(voice VoicePreset) *Synthesizer {
	return &Synthesizer{voice: voice}
}

// Init binds the synthesizer to a visual score and audio context.
func (s *Synthesizer) Init(ctx context.Context, visual *VisualScore, audio *AudioContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if visual == nil {
		return fmt.Errorf("no visual score to synthesize")
	}
	if audio == nil {
		return fmt.Errorf("no audio context")
	}
	if audio.Closed() {
		return ErrAudioContextClosed
	}
	if visual.TempoQPM <= 0 {
		return fmt.Errorf("score has no playable tempo")
	}

	s.visual = visual
	s.audio = audio
	s.inited = true
	s.primed = false
	return nil
}

// Prime renders the full sample buffer so playback and export are instant.
func (s *Synthesizer) Prime(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inited {
		return fmt.Errorf("synthesizer not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rate := s.audio.SampleRate()
	secPerBeat := 60.0 / float64(s.visual.TempoQPM)
	totalSec := s.visual.TotalBeats() * secPerBeat
	total := rate.N(time.Duration(totalSec * float64(time.Second)))
	if total <= 0 {
		return fmt.Errorf("score has no playable events")
	}
	// release tail past the final event
	total += rate.N(time.Duration(s.voice.Release * float64(time.Second)))

	buf := make([][2]float64, total)
	for _, ev := range s.visual.Events {
		if ev.Rest {
			continue
		}
		s.renderEvent(buf, ev, rate, secPerBeat)
	}

	s.buf = buf
	s.primed = true
	return nil
}

// renderEvent mixes one note into the buffer using the voice's oscillator
// and an attack/release envelope.
func (s *Synthesizer) renderEvent(buf [][2]float64, ev NoteEvent, rate beep.SampleRate, secPerBeat float64) {
	freq := 440.0 * math.Pow(2, float64(ev.MIDI-69)/12.0)
	start := rate.N(time.Duration(ev.StartBeats * secPerBeat * float64(time.Second)))
	length := rate.N(time.Duration(ev.DurationBeats * secPerBeat * float64(time.Second)))
	attack := rate.N(time.Duration(s.voice.Attack * float64(time.Second)))
	release := rate.N(time.Duration(s.voice.Release * float64(time.Second)))
	if release > length {
		release = length
	}

	phase := 0.0
	for i := 0; i < length; i++ {
		pos := start + i
		if pos >= len(buf) {
			break
		}

		var val float64
		switch s.voice.Wave {
		case "square":
			if phase < 0.5 {
				val = 1.0
			} else {
				val = -1.0
			}
		case "saw":
			val = 2.0 * (phase - 0.5)
		case "noise":
			val = rand.Float64()*2 - 1
		default:
			val = math.Sin(2 * math.Pi * phase)
		}

		env := 1.0
		if attack > 0 && i < attack {
			env = float64(i) / float64(attack)
		} else if release > 0 && i >= length-release {
			env = float64(length-i) / float64(release)
		}

		sample := val * env * s.voice.Gain
		buf[pos][0] += sample
		buf[pos][1] += sample

		phase += freq / float64(rate)
		phase -= math.Floor(phase)
	}
}

// Primed reports whether the sample buffer is ready.
func (s *Synthesizer) Primed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.primed
}

// Duration returns the rendered length of the piece.
func (s *Synthesizer) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.primed {
		return 0
	}
	return s.audio.SampleRate().D(len(s.buf))
}

// Play queues the primed buffer on the audio context's mixer and returns a
// pause control.
func (s *Synthesizer) Play() (*beep.Ctrl, error) {
	s.mu.Lock()
	if !s.primed {
		s.mu.Unlock()
		return nil, fmt.Errorf("synthesizer not primed")
	}
	streamer := &bufferStreamer{buf: s.buf}
	audio := s.audio
	s.mu.Unlock()

	return audio.play(streamer)
}

// GetAudioBytes encodes the primed buffer as a WAV file in memory.
func (s *Synthesizer) GetAudioBytes(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.primed {
		return nil, fmt.Errorf("synthesizer not primed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format := beep.Format{
		SampleRate:  s.audio.SampleRate(),
		NumChannels: 2,
		Precision:   2,
	}
	var out memWriteSeeker
	if err := wav.Encode(&out, &bufferStreamer{buf: s.buf}, format); err != nil {
		return nil, fmt.Errorf("encoding wav: %w", err)
	}
	return out.Bytes(), nil
}

// bufferStreamer streams a pre-rendered sample buffer once.
type bufferStreamer struct {
	buf [][2]float64
	pos int
}

func (b *bufferStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if b.pos >= len(b.buf) {
		return 0, false
	}
	n = copy(samples, b.buf[b.pos:])
	b.pos += n
	return n, true
}

func (b *bufferStreamer) Err() error { return nil }

// memWriteSeeker is an in-memory io.WriteSeeker for the wav encoder, which
// seeks back to patch the header after writing sample data.
type memWriteSeeker struct {
	data []byte
	pos  int
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	if need := m.pos + len(p); need > len(m.data) {
		grown := make([]byte, need)
		copy(grown, m.data)
		m.data = grown
	}
	copy(m.data[m.pos:], p)
	m.pos += len(p)
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = int64(m.pos) + offset
	case io.SeekEnd:
		next = int64(len(m.data)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("negative seek position")
	}
	m.pos = int(next)
	return next, nil
}

func (m *memWriteSeeker) Bytes() []byte {
	return bytes.Clone(m.data)
}
