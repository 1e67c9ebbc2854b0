package score

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoreforge/scoreforge-api/internal/notation"
)

// fakeEngine returns canned visuals and counts synthesizer construction.
type fakeEngine struct {
	mu         sync.Mutex
	visuals    []*VisualScore
	synthCalls int
	lastOpts   RenderOptions
}

func (f *fakeEngine) RenderScore(doc notation.Document, opts RenderOptions) []*VisualScore {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastOpts = opts
	return f.visuals
}

func (f *fakeEngine) NewSynthesizer() *Synthesizer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.synthCalls++
	return NewSynthesizer(VoicePreset{Name: "test", Wave: "sine", Gain: 0.5, Attack: 0.001, Release: 0.001})
}

func (f *fakeEngine) synthesizerCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.synthCalls
}

type fakeSurface struct {
	mu     sync.Mutex
	width  int
	resize chan int
}

func newFakeSurface(width int) *fakeSurface {
	return &fakeSurface{width: width, resize: make(chan int, 1)}
}

func (s *fakeSurface) Width() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width
}

func (s *fakeSurface) Resize() <-chan int { return s.resize }

func (s *fakeSurface) setWidth(w int) {
	s.mu.Lock()
	s.width = w
	s.mu.Unlock()
	s.resize <- w
}

func playableVisual() *VisualScore {
	return &VisualScore{
		Title:    "Test Piece",
		Width:    760,
		TempoQPM: 120,
		Events: []NoteEvent{
			{MIDI: 60, StartBeats: 0, DurationBeats: 1},
			{MIDI: 64, StartBeats: 1, DurationBeats: 1},
		},
	}
}

func testDocument() notation.Document {
	return notation.Normalize("T:Test Piece\nK:C\nC D E F | G4 |]")
}

func TestControllerRequiresEngine(t *testing.T) {
	_, err := NewController(nil, StaticSurface(800), nil)
	assert.ErrorIs(t, err, ErrEngineUnavailable)
}

func TestControllerVisualErrorSkipsAudio(t *testing.T) {
	engine := &fakeEngine{visuals: nil}
	c, err := NewController(engine, StaticSurface(800), nil)
	require.NoError(t, err)
	defer c.Close()

	c.SetDocument(context.Background(), testDocument())

	snap := c.Snapshot()
	assert.Equal(t, StateVisualError, snap.State)
	assert.Empty(t, snap.Visuals)

	var visErr *VisualRenderError
	require.ErrorAs(t, snap.Err, &visErr)

	assert.Equal(t, 0, engine.synthesizerCalls(), "audio priming must not be attempted after a visual failure")
}

func TestControllerAudioErrorPreservesVisuals(t *testing.T) {
	// A visual with no events makes priming fail after init succeeds.
	silent := &VisualScore{Title: "Silent", Width: 760, TempoQPM: 120}
	engine := &fakeEngine{visuals: []*VisualScore{silent}}
	c, err := NewController(engine, StaticSurface(800), nil)
	require.NoError(t, err)
	defer c.Close()

	c.SetDocument(context.Background(), testDocument())

	snap := c.Snapshot()
	assert.Equal(t, StateAudioError, snap.State)

	var audioErr *AudioPrimeError
	require.ErrorAs(t, snap.Err, &audioErr)
	assert.Equal(t, "prime", audioErr.Stage)

	require.Len(t, snap.Visuals, 1)
	assert.Equal(t, "Silent", snap.Visuals[0].Title)

	_, ok := c.Synth()
	assert.False(t, ok)
}

func TestControllerReachesReady(t *testing.T) {
	engine := &fakeEngine{visuals: []*VisualScore{playableVisual()}}
	c, err := NewController(engine, StaticSurface(800), nil)
	require.NoError(t, err)
	defer c.Close()

	c.SetDocument(context.Background(), testDocument())

	snap := c.Snapshot()
	require.Equal(t, StateReady, snap.State)
	assert.NoError(t, snap.Err)

	synth, ok := c.Synth()
	require.True(t, ok)
	assert.True(t, synth.Primed())
	assert.Greater(t, synth.Duration(), time.Duration(0))

	assert.Equal(t, 1, engine.synthesizerCalls())
}

func TestControllerWidthMargin(t *testing.T) {
	engine := &fakeEngine{visuals: []*VisualScore{playableVisual()}}
	c, err := NewController(engine, StaticSurface(800), nil)
	require.NoError(t, err)
	defer c.Close()

	c.SetDocument(context.Background(), testDocument())

	assert.Equal(t, 800-widthMargin, engine.lastOpts.StaffWidth)
}

func TestControllerResizeRestartsPipeline(t *testing.T) {
	engine := &fakeEngine{visuals: []*VisualScore{playableVisual()}}
	surface := newFakeSurface(800)
	c, err := NewController(engine, surface, nil)
	require.NoError(t, err)
	defer c.Close()

	c.SetDocument(context.Background(), testDocument())
	require.Equal(t, StateReady, c.Snapshot().State)

	first, ok := c.Synth()
	require.True(t, ok)

	surface.setWidth(500)

	require.Eventually(t, func() bool {
		engine.mu.Lock()
		width := engine.lastOpts.StaffWidth
		engine.mu.Unlock()
		return width == 500-widthMargin && c.Snapshot().State == StateReady
	}, 5*time.Second, 10*time.Millisecond, "resize must restart the pipeline at the new width")

	// The previous run's audio context must have been closed.
	_, err = first.Play()
	assert.ErrorIs(t, err, ErrAudioContextClosed)

	second, ok := c.Synth()
	require.True(t, ok)
	assert.NotSame(t, first, second)
}

// gateEngine blocks its first synthesizer construction until released, so a
// test can overlap two pipeline runs deterministically.
type gateEngine struct {
	mu      sync.Mutex
	visuals []*VisualScore
	synths  []*Synthesizer
	calls   int
	entered chan struct{}
	release chan struct{}
}

func (g *gateEngine) RenderScore(doc notation.Document, opts RenderOptions) []*VisualScore {
	return g.visuals
}

func (g *gateEngine) NewSynthesizer() *Synthesizer {
	g.mu.Lock()
	g.calls++
	idx := g.calls
	g.mu.Unlock()

	if idx == 1 {
		close(g.entered)
		<-g.release
	}

	s := NewSynthesizer(VoicePreset{Name: "test", Wave: "sine", Gain: 0.5, Attack: 0.001, Release: 0.001})
	g.mu.Lock()
	for len(g.synths) < idx {
		g.synths = append(g.synths, nil)
	}
	g.synths[idx-1] = s
	g.mu.Unlock()
	return s
}

func TestControllerStaleRunCannotDisturbNewerState(t *testing.T) {
	engine := &fakeEngine{visuals: []*VisualScore{playableVisual()}}
	c, err := NewController(engine, StaticSurface(800), nil)
	require.NoError(t, err)
	defer c.Close()

	c.SetDocument(context.Background(), testDocument())
	require.Equal(t, StateReady, c.Snapshot().State)

	synth, ok := c.Synth()
	require.True(t, ok)

	// A run whose ID was superseded before it touched any state must return
	// without tearing down the newer run's artifacts.
	c.run(context.Background(), 0, testDocument())

	snap := c.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	require.Len(t, snap.Visuals, 1)

	current, ok := c.Synth()
	require.True(t, ok)
	assert.Same(t, synth, current)

	_, err = current.Play()
	assert.NoError(t, err, "the newer run's audio context must remain open")
}

func TestControllerOverlappingRunsNewestWins(t *testing.T) {
	engine := &gateEngine{
		visuals: []*VisualScore{playableVisual()},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	c, err := NewController(engine, StaticSurface(800), nil)
	require.NoError(t, err)
	defer c.Close()

	done := make(chan struct{})
	go func() {
		c.SetDocument(context.Background(), testDocument())
		close(done)
	}()
	<-engine.entered

	// The second run starts while the first is still mid-pipeline and runs
	// to completion.
	c.SetDocument(context.Background(), testDocument())
	require.Equal(t, StateReady, c.Snapshot().State)

	newest, ok := c.Synth()
	require.True(t, ok)

	close(engine.release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("superseded run did not finish")
	}

	snap := c.Snapshot()
	assert.Equal(t, StateReady, snap.State, "superseded run must not overwrite the newest run's state")
	require.Len(t, snap.Visuals, 1)

	current, ok := c.Synth()
	require.True(t, ok)
	assert.Same(t, newest, current)

	_, err = newest.Play()
	assert.NoError(t, err, "the newest run's audio context must remain open")

	stale := engine.synths[0]
	require.NotNil(t, stale)
	_, err = stale.Play()
	assert.ErrorIs(t, err, ErrAudioContextClosed, "the superseded run must close its own audio context")
}

func TestControllerNewDocumentClearsError(t *testing.T) {
	engine := &fakeEngine{visuals: nil}
	c, err := NewController(engine, StaticSurface(800), nil)
	require.NoError(t, err)
	defer c.Close()

	c.SetDocument(context.Background(), testDocument())
	require.Equal(t, StateVisualError, c.Snapshot().State)

	engine.mu.Lock()
	engine.visuals = []*VisualScore{playableVisual()}
	engine.mu.Unlock()

	c.SetDocument(context.Background(), testDocument())
	snap := c.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.NoError(t, snap.Err)
}

func TestAudioContextCloseTwice(t *testing.T) {
	ctx := NewAudioContext()
	require.NoError(t, ctx.Close())
	assert.ErrorIs(t, ctx.Close(), ErrAudioContextClosed)
}
