package score

import (
	"context"
	"strings"
	"testing"

	"github.com/egonelbre/lilypond/abc2ly/abc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoreforge/scoreforge-api/internal/notation"
)

func abcNote(pitch string, octave int, accidentals string) abc.Note {
	return abc.Note{Pitch: pitch, Octave: octave, Accidentals: accidentals}
}

func TestABCEngineRendersNormalizedDocument(t *testing.T) {
	engine, err := NewABCEngine()
	require.NoError(t, err)

	doc := notation.Normalize("T:Morning Round\nK:C\nC D E F | G A B c | c4 |]")
	scores := engine.RenderScore(doc, RenderOptions{StaffWidth: 700})
	require.NotEmpty(t, scores)

	vs := scores[0]
	assert.Equal(t, "Morning Round", vs.Title)
	assert.Equal(t, 700, vs.Width)
	assert.Equal(t, 120, vs.TempoQPM)
	assert.NotEmpty(t, vs.Events)
	assert.Greater(t, vs.TotalBeats(), 0.0)
}

func TestABCEngineSVGOutput(t *testing.T) {
	engine, err := NewABCEngine()
	require.NoError(t, err)

	doc := notation.Normalize("T:Lines\nK:C\nC2 E2 | G4 |]")
	scores := engine.RenderScore(doc, RenderOptions{StaffWidth: 600})
	require.NotEmpty(t, scores)

	svg := string(scores[0].SVG())
	assert.True(t, strings.HasPrefix(svg, "<svg "))
	assert.Contains(t, svg, "</svg>")
	assert.Contains(t, svg, "Lines")
	assert.Contains(t, svg, "<ellipse")
}

func TestABCEngineNormalizedInputIsSingleTune(t *testing.T) {
	engine, err := NewABCEngine()
	require.NoError(t, err)

	// Raw output containing two tunes collapses to one during normalization
	// (blank separators and extra index lines are removed), so nothing is
	// silently dropped downstream.
	raw := "X:1\nT:First\nK:C\nC D E F |]\n\nX:2\nT:Second\nK:G\nG A B c |]"
	doc := notation.Normalize(raw)
	scores := engine.RenderScore(doc, RenderOptions{StaffWidth: 600})

	require.Len(t, scores, 1)
	assert.Equal(t, "First", scores[0].Title)

	both := scores[0].Events
	assert.GreaterOrEqual(t, len(both), 8, "events from both input sections must survive in the single tune")
}

func TestABCEngineEmptyOnUnparsableInput(t *testing.T) {
	engine, err := NewABCEngine()
	require.NoError(t, err)

	// Raw garbage that never went through normalization has no tune header.
	scores := engine.RenderScore(notation.Document{Title: "x", Body: []string{"not notation at all"}}, RenderOptions{StaffWidth: 600})
	assert.Empty(t, scores)
}

func TestABCEngineVoiceSelection(t *testing.T) {
	engine, err := NewABCEngineWithVoice("reed")
	require.NoError(t, err)

	synth := engine.NewSynthesizer()
	assert.Equal(t, "reed", synth.voice.Name)
	assert.Equal(t, "saw", synth.voice.Wave)

	fallback, err := NewABCEngineWithVoice("no-such-voice")
	require.NoError(t, err)
	assert.Equal(t, "lead", fallback.NewSynthesizer().voice.Name)
}

func TestSynthesizerLifecycle(t *testing.T) {
	engine, err := NewABCEngine()
	require.NoError(t, err)

	doc := notation.Normalize("T:Tone\nK:C\nC4 |]")
	scores := engine.RenderScore(doc, RenderOptions{StaffWidth: 600})
	require.NotEmpty(t, scores)

	synth := engine.NewSynthesizer()
	audio := NewAudioContext()
	defer audio.Close()

	ctx := context.Background()

	_, getErr := synth.GetAudioBytes(ctx)
	assert.Error(t, getErr, "export before priming must fail")

	require.NoError(t, synth.Init(ctx, scores[0], audio))
	require.NoError(t, synth.Prime(ctx))
	assert.True(t, synth.Primed())

	data, err := synth.GetAudioBytes(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, "RIFF", string(data[:4]), "audio bytes must be a wav file")
}

func TestSynthesizerInitRejectsClosedContext(t *testing.T) {
	engine, err := NewABCEngine()
	require.NoError(t, err)

	doc := notation.Normalize("T:Tone\nK:C\nC4 |]")
	scores := engine.RenderScore(doc, RenderOptions{StaffWidth: 600})
	require.NotEmpty(t, scores)

	audio := NewAudioContext()
	require.NoError(t, audio.Close())

	synth := engine.NewSynthesizer()
	err = synth.Init(context.Background(), scores[0], audio)
	assert.ErrorIs(t, err, ErrAudioContextClosed)
}

func TestParseTempoValue(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
		ok    bool
	}{
		{"quarter note unit", "1/4=120", 120, true},
		{"eighth note unit", "1/8=120", 60, true},
		{"half note unit", "1/2=60", 120, true},
		{"bare number", "96", 96, true},
		{"garbage", "allegro", 0, false},
		{"zero bpm", "1/4=0", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseTempoValue(tt.value)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestMidiPitchRange(t *testing.T) {
	assert.Equal(t, 69, midiPitch(abcNote("a", 0, "")))
	assert.Equal(t, 60, midiPitch(abcNote("c", 0, "")))
	assert.Equal(t, 72, midiPitch(abcNote("c", 1, "")))
}

func TestVoiceBankDefaults(t *testing.T) {
	bank, err := LoadVoiceBank()
	require.NoError(t, err)
	assert.Equal(t, "lead", bank.Default().Name)
	assert.Equal(t, "saw", bank.ByName("reed").Wave)
	assert.Equal(t, bank.Default(), bank.ByName("does-not-exist"))
}
