package export

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/scoreforge/scoreforge-api/internal/score"
)

// ExportError reports a failed export. Reason is a stable tag: "not-ready"
// when no primed synthesizer exists, "no-visual-content" when nothing was
// rendered, "encoding" when serialization itself failed.
type ExportError struct {
	Reason string
	Err    error
}

func (e *ExportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("export failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("export failed (%s)", e.Reason)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// File is a downloadable artifact.
type File struct {
	Name string
	MIME string
	Data []byte
}

// Audio extracts a WAV file from a primed synthesizer. It never mutates the
// synthesizer and may be called repeatedly against the same Ready pipeline.
func Audio(ctx context.Context, title string, synth *score.Synthesizer) (*File, error) {
	if synth == nil || !synth.Primed() {
		return nil, &ExportError{Reason: "not-ready"}
	}

	data, err := synth.GetAudioBytes(ctx)
	if err != nil {
		return nil, &ExportError{Reason: "encoding", Err: err}
	}

	return &File{
		Name: Filename(title, "wav"),
		MIME: "audio/wav",
		Data: data,
	}, nil
}

// Vector serializes the rendered score to a standalone SVG file. A
// normalized document always parses as a single tune (normalization removes
// blank tune separators and extra index lines), so visuals holds at most one
// entry and only the first is serialized.
func Vector(title string, visuals []*score.VisualScore) (*File, error) {
	if len(visuals) == 0 {
		return nil, &ExportError{Reason: "no-visual-content"}
	}

	return &File{
		Name: Filename(title, "svg"),
		MIME: "image/svg+xml",
		Data: visuals[0].SVG(),
	}, nil
}

// Filename derives a safe download name from a title, falling back to
// "untitled".
func Filename(title, ext string) string {
	var sb strings.Builder
	for _, r := range strings.TrimSpace(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			sb.WriteRune(r)
		case unicode.IsSpace(r):
			sb.WriteRune('_')
		}
	}
	name := sb.String()
	if name == "" {
		name = "untitled"
	}
	return name + "." + ext
}
