package score

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/scoreforge/scoreforge-api/internal/metrics"
	"github.com/scoreforge/scoreforge-api/internal/notation"
)

// State is the render pipeline state for one (document, width) pair.
type State string

const (
	StateIdle            State = "idle"
	StateRenderingVisual State = "rendering-visual"
	StatePrimingAudio    State = "priming-audio"
	StateReady           State = "ready"
	StateVisualError     State = "visual-error"
	StateAudioError      State = "audio-error"
)

// Surface reports the width available for rendering. Resize may return nil
// when the surface never changes size.
type Surface interface {
	Width() int
	Resize() <-chan int
}

// StaticSurface is a fixed-width Surface for request-scoped rendering.
type StaticSurface int

func (s StaticSurface) Width() int         { return int(s) }
func (s StaticSurface) Resize() <-chan int { return nil }

// widthMargin is subtracted from the surface width before rendering.
const widthMargin = 40

// Snapshot is a point-in-time view of the controller.
type Snapshot struct {
	State   State
	Width   int
	Visuals []*VisualScore
	Err     error
}

// Controller drives the document-to-playback pipeline: visual render first,
// then audio priming, with the visual result surviving audio failures. A new
// document or width tears down the previous run's artifacts and restarts.
type Controller struct {
	engine  Engine
	surface Surface
	sentry  *metrics.SentryMetrics
	cw      *metrics.Client

	mu      sync.Mutex
	runID   uint64
	state   State
	doc     notation.Document
	hasDoc  bool
	visuals []*VisualScore
	synth   *Synthesizer
	audio   *AudioContext
	err     error

	stopOnce sync.Once
	stop     chan struct{}
}

// NewController checks engine availability once and begins watching the
// surface for resize events.
func NewController(engine Engine, surface Surface, cw *metrics.Client) (*Controller, error) {
	if engine == nil {
		return nil, ErrEngineUnavailable
	}

	c := &Controller{
		engine:  engine,
		surface: surface,
		sentry:  metrics.NewSentryMetrics(),
		cw:      cw,
		state:   StateIdle,
		stop:    make(chan struct{}),
	}

	if resize := surface.Resize(); resize != nil {
		go c.watchResize(resize)
	}
	return c, nil
}

func (c *Controller) watchResize(resize <-chan int) {
	for {
		select {
		case <-c.stop:
			return
		case _, ok := <-resize:
			if !ok {
				return
			}
			c.mu.Lock()
			hasDoc := c.hasDoc
			doc := c.doc
			c.mu.Unlock()
			if hasDoc {
				c.SetDocument(context.Background(), doc)
			}
		}
	}
}

// SetDocument tears down the current run and drives the pipeline for doc at
// the surface's current width. The call runs the pipeline to completion;
// a newer call supersedes any still-committing older one.
func (c *Controller) SetDocument(ctx context.Context, doc notation.Document) {
	id := atomic.AddUint64(&c.runID, 1)
	c.run(ctx, id, doc)
}

// run drives one pipeline run. Every state mutation, the initial teardown
// included, is guarded by the run ID so a stale run can never touch state
// committed by a newer one.
func (c *Controller) run(ctx context.Context, id uint64, doc notation.Document) {
	c.mu.Lock()
	if atomic.LoadUint64(&c.runID) != id {
		c.mu.Unlock()
		return
	}
	c.teardownLocked()
	c.doc = doc
	c.hasDoc = true
	c.state = StateRenderingVisual
	c.mu.Unlock()

	width := c.surface.Width() - widthMargin
	if width < 100 {
		width = 100
	}

	start := time.Now()
	visuals := c.engine.RenderScore(doc, RenderOptions{StaffWidth: width})
	if len(visuals) == 0 {
		c.commit(id, func() {
			c.state = StateVisualError
			c.err = &VisualRenderError{}
		})
		c.recordPipeline(ctx, string(StateVisualError), width, time.Since(start))
		return
	}

	if !c.commit(id, func() {
		c.visuals = visuals
		c.state = StatePrimingAudio
	}) {
		return
	}

	audio := NewAudioContext()
	synth := c.engine.NewSynthesizer()

	if err := synth.Init(ctx, visuals[0], audio); err != nil {
		_ = audio.Close()
		c.commit(id, func() {
			c.state = StateAudioError
			c.err = &AudioPrimeError{Stage: "init", Err: err}
		})
		c.recordPipeline(ctx, string(StateAudioError), width, time.Since(start))
		return
	}

	if err := synth.Prime(ctx); err != nil {
		_ = audio.Close()
		c.commit(id, func() {
			c.state = StateAudioError
			c.err = &AudioPrimeError{Stage: "prime", Err: err}
		})
		c.recordPipeline(ctx, string(StateAudioError), width, time.Since(start))
		return
	}

	if !c.commit(id, func() {
		c.audio = audio
		c.synth = synth
		c.state = StateReady
	}) {
		// a newer run superseded this one; release our context
		_ = audio.Close()
		return
	}
	c.recordPipeline(ctx, string(StateReady), width, time.Since(start))
	log.Printf("✅ Score pipeline ready (width: %d, events: %d)", width, len(visuals[0].Events))
}

// commit applies fn only if this run is still the newest one.
func (c *Controller) commit(id uint64, fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if atomic.LoadUint64(&c.runID) != id {
		return false
	}
	fn()
	return true
}

// teardownLocked releases the previous run's artifacts. The audio context is
// closed exactly once; Close errors on an already-closed context are
// impossible here because the reference is dropped after closing.
func (c *Controller) teardownLocked() {
	if c.audio != nil {
		if err := c.audio.Close(); err != nil {
			log.Printf("⚠️ Closing audio context: %v", err)
		}
		c.audio = nil
	}
	c.synth = nil
	c.visuals = nil
	c.err = nil
	c.state = StateIdle
}

// Snapshot returns the current pipeline state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:   c.state,
		Width:   c.surface.Width(),
		Visuals: c.visuals,
		Err:     c.err,
	}
}

// Synth returns the primed synthesizer once the pipeline is Ready.
func (c *Controller) Synth() (*Synthesizer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateReady || c.synth == nil {
		return nil, false
	}
	return c.synth, true
}

// Visuals returns the rendered scores, which survive audio failures.
func (c *Controller) Visuals() []*VisualScore {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visuals
}

// StartPlayback binds the current run's audio context to the speaker so a
// subsequent Synthesizer.Play is audible. Only valid once Ready.
func (c *Controller) StartPlayback() error {
	c.mu.Lock()
	audio := c.audio
	state := c.state
	c.mu.Unlock()

	if state != StateReady || audio == nil {
		return fmt.Errorf("pipeline not ready for playback")
	}
	return audio.StartPlayback()
}

// Close stops the resize watcher and releases the current run's artifacts.
func (c *Controller) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
	atomic.AddUint64(&c.runID, 1)
	c.mu.Lock()
	c.teardownLocked()
	c.hasDoc = false
	c.mu.Unlock()
}

func (c *Controller) recordPipeline(ctx context.Context, state string, width int, duration time.Duration) {
	c.sentry.RecordRenderPipeline(ctx, state, width, duration)
	if c.cw != nil {
		c.cw.RecordRenderPipeline(state, duration)
	}
}
