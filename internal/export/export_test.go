package export

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoreforge/scoreforge-api/internal/notation"
	"github.com/scoreforge/scoreforge-api/internal/score"
)

func primedSynth(t *testing.T) (*score.Synthesizer, []*score.VisualScore) {
	t.Helper()

	engine, err := score.NewABCEngine()
	require.NoError(t, err)

	doc := notation.Normalize("T:Export Me\nK:C\nC D E F | G4 |]")
	visuals := engine.RenderScore(doc, score.RenderOptions{StaffWidth: 600})
	require.NotEmpty(t, visuals)

	audio := score.NewAudioContext()
	t.Cleanup(func() { _ = audio.Close() })

	synth := engine.NewSynthesizer()
	require.NoError(t, synth.Init(context.Background(), visuals[0], audio))
	require.NoError(t, synth.Prime(context.Background()))
	return synth, visuals
}

func TestAudioRequiresPrimedSynth(t *testing.T) {
	_, err := Audio(context.Background(), "Anything", nil)
	require.Error(t, err)

	var exportErr *ExportError
	require.ErrorAs(t, err, &exportErr)
	assert.Equal(t, "not-ready", exportErr.Reason)
}

func TestAudioExport(t *testing.T) {
	synth, _ := primedSynth(t)

	file, err := Audio(context.Background(), "Export Me", synth)
	require.NoError(t, err)

	assert.Equal(t, "Export_Me.wav", file.Name)
	assert.Equal(t, "audio/wav", file.MIME)
	require.NotEmpty(t, file.Data)
	assert.Equal(t, "RIFF", string(file.Data[:4]))

	// Repeated exports against the same Ready state are idempotent.
	again, err := Audio(context.Background(), "Export Me", synth)
	require.NoError(t, err)
	assert.Equal(t, file.Data, again.Data)
}

func TestVectorRequiresVisuals(t *testing.T) {
	_, err := Vector("Anything", nil)
	require.Error(t, err)

	var exportErr *ExportError
	require.ErrorAs(t, err, &exportErr)
	assert.Equal(t, "no-visual-content", exportErr.Reason)
}

func TestVectorExport(t *testing.T) {
	_, visuals := primedSynth(t)

	file, err := Vector("Export Me", visuals)
	require.NoError(t, err)

	assert.Equal(t, "Export_Me.svg", file.Name)
	assert.Equal(t, "image/svg+xml", file.MIME)
	assert.True(t, strings.HasPrefix(string(file.Data), "<svg "))
}

func TestFilename(t *testing.T) {
	tests := []struct {
		title string
		ext   string
		want  string
	}{
		{"Evening Air", "wav", "Evening_Air.wav"},
		{"  spaced  ", "svg", "spaced.svg"},
		{"slash/colon:title", "wav", "slashcolontitle.wav"},
		{"", "wav", "untitled.wav"},
		{"!!!", "svg", "untitled.svg"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Filename(tt.title, tt.ext))
	}
}
