package score

import (
	"log"
	"math/big"
	"strconv"
	"strings"

	"github.com/egonelbre/lilypond/abc2ly/abc"

	"github.com/scoreforge/scoreforge-api/internal/notation"
)

// RenderOptions controls layout of the visual result.
type RenderOptions struct {
	// StaffWidth is the horizontal space available for notation, in pixels.
	StaffWidth int
}

// Engine converts notation documents into visual scores and constructs
// synthesizers for them. RenderScore returns an empty slice when the
// document cannot be parsed into any tune.
type Engine interface {
	RenderScore(doc notation.Document, opts RenderOptions) []*VisualScore
	NewSynthesizer() *Synthesizer
}

// ABCEngine renders ABC notation via the abc2ly parser and synthesizes
// playback with the preset voice bank.
type ABCEngine struct {
	voices *VoiceBank
	voice  VoicePreset
}

// NewABCEngine constructs the engine with the default melody voice. A preset
// load failure wraps ErrEngineUnavailable so callers can refuse to start the
// pipeline.
func NewABCEngine() (*ABCEngine, error) {
	return NewABCEngineWithVoice("")
}

// NewABCEngineWithVoice constructs the engine using the named voice preset.
// Unknown names fall back to the default voice.
func NewABCEngineWithVoice(voiceName string) (*ABCEngine, error) {
	bank, err := LoadVoiceBank()
	if err != nil {
		log.Printf("❌ Notation engine unavailable: %v", err)
		return nil, ErrEngineUnavailable
	}
	voice := bank.Default()
	if voiceName != "" {
		voice = bank.ByName(voiceName)
	}
	return &ABCEngine{voices: bank, voice: voice}, nil
}

// RenderScore parses the document and lays out one VisualScore per tune.
// Parse warnings are logged; a document with no tunes yields an empty slice.
func (e *ABCEngine) RenderScore(doc notation.Document, opts RenderOptions) []*VisualScore {
	text := doc.Serialize()
	book, warnings := abc.Parse(text)
	for _, w := range warnings {
		log.Printf("⚠️ Notation warning: %s", w.Message)
	}
	if len(book.Tunes) == 0 {
		return nil
	}

	width := opts.StaffWidth
	if width <= 0 {
		width = 800
	}
	tempo := tempoFromDocument(doc)

	var scores []*VisualScore
	for _, tune := range book.Tunes {
		vs := e.renderTune(tune, width, tempo)
		if vs.Title == "" {
			vs.Title = doc.Title
		}
		scores = append(scores, vs)
	}
	return scores
}

// NewSynthesizer constructs an unprimed synthesizer using the engine's voice.
func (e *ABCEngine) NewSynthesizer() *Synthesizer {
	return NewSynthesizer(e.voice)
}

func (e *ABCEngine) renderTune(tune *abc.Tune, width, tempo int) *VisualScore {
	vs := &VisualScore{
		Title:    tune.Title,
		Width:    width,
		TempoQPM: tempo,
	}

	unitLength := *big.NewRat(1, 8)
	if f, ok := tune.Fields.ByTag(abc.FieldUnitNoteLength.Tag); ok {
		unitLength = abc.ParseNoteLength(f.Value)
	}

	cursor := 0.0
	for _, stave := range tune.Body.Staves {
		var lastSym abc.Symbol
		for _, sym := range stave.Symbols {
			switch sym.Kind {
			case abc.KindNote:
				beats := symbolBeats(&unitLength, &sym, &lastSym)
				for _, note := range sym.Notes {
					vs.Events = append(vs.Events, NoteEvent{
						MIDI:          midiPitch(note),
						StartBeats:    cursor,
						DurationBeats: beats,
					})
				}
				if len(sym.Notes) > 0 {
					vs.glyphs = append(vs.glyphs, glyph{kind: glyphNote, midi: midiPitch(sym.Notes[0]), beats: beats})
				}
				cursor += beats
				lastSym = sym
			case abc.KindRest:
				beats := symbolBeats(&unitLength, &sym, &lastSym)
				vs.Events = append(vs.Events, NoteEvent{
					Rest:          true,
					StartBeats:    cursor,
					DurationBeats: beats,
				})
				vs.glyphs = append(vs.glyphs, glyph{kind: glyphRest, beats: beats})
				cursor += beats
				lastSym = sym
			case abc.KindBar:
				vs.glyphs = append(vs.glyphs, glyph{kind: glyphBar})
				lastSym = abc.Symbol{}
			}
		}
	}

	// Height is finalized during SVG layout; seed with a single system.
	vs.Height = staffTopOffset + systemHeight
	return vs
}

// symbolBeats converts a symbol duration to quarter-note beats, honoring
// broken-rhythm markers the same way on both sides of the pair.
func symbolBeats(unitLength *big.Rat, sym, lastSym *abc.Symbol) float64 {
	dur := *unitLength
	dur.Mul(&dur, &sym.Duration)

	for i := 0; i < sym.Syncopation; i++ {
		dur.Mul(&dur, big.NewRat(3, 2))
	}
	for i := 0; i < -lastSym.Syncopation; i++ {
		dur.Mul(&dur, big.NewRat(3, 2))
	}
	for i := 0; i < -sym.Syncopation; i++ {
		dur.Mul(&dur, big.NewRat(1, 2))
	}
	for i := 0; i < lastSym.Syncopation; i++ {
		dur.Mul(&dur, big.NewRat(1, 2))
	}

	whole, _ := dur.Float64()
	return whole * 4
}

// pitchOffsets maps note letters to semitones above C.
var pitchOffsets = map[string]int{
	"c": 0, "d": 2, "e": 4, "f": 5, "g": 7, "a": 9, "b": 11,
}

// midiPitch converts a parsed note to a MIDI number. Octave 0 is the middle
// C octave.
func midiPitch(note abc.Note) int {
	offset := pitchOffsets[strings.ToLower(note.Pitch)]
	midi := 60 + note.Octave*12 + offset
	for _, acc := range note.Accidentals {
		switch acc {
		case abc.AccidentalSharp:
			midi++
		case abc.AccidentalFlat:
			midi--
		}
	}
	if midi < 0 {
		midi = 0
	}
	if midi > 127 {
		midi = 127
	}
	return midi
}

// tempoFromDocument reads the tempo line and converts it to quarter notes
// per minute. "Q:1/4=120" means 120 quarter notes per minute; other units
// are scaled accordingly. Defaults to 120 when absent or malformed.
func tempoFromDocument(doc notation.Document) int {
	for _, line := range doc.Body {
		if !strings.HasPrefix(line, notation.TagTempo) {
			continue
		}
		value := strings.TrimSpace(strings.TrimPrefix(line, notation.TagTempo))
		if qpm, ok := parseTempoValue(value); ok {
			return qpm
		}
	}
	return 120
}

func parseTempoValue(value string) (int, bool) {
	unit, bpmPart, found := strings.Cut(value, "=")
	if !found {
		// A bare number means beats per minute in quarter notes.
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n > 0 {
			return n, true
		}
		return 0, false
	}

	bpm, err := strconv.Atoi(strings.TrimSpace(bpmPart))
	if err != nil || bpm <= 0 {
		return 0, false
	}

	num, den, found := strings.Cut(strings.TrimSpace(unit), "/")
	if !found {
		return bpm, true
	}
	n, err1 := strconv.Atoi(strings.TrimSpace(num))
	d, err2 := strconv.Atoi(strings.TrimSpace(den))
	if err1 != nil || err2 != nil || n <= 0 || d <= 0 {
		return 0, false
	}

	// Scale to quarter-note beats: unit n/d wholes versus 1/4 whole.
	qpm := int(float64(bpm) * (float64(n) / float64(d)) * 4)
	if qpm <= 0 {
		return 0, false
	}
	return qpm, true
}
