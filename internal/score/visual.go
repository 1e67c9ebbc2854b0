package score

import (
	"fmt"
	"strings"
)

// NoteEvent is one playable event in beat space. Beats are quarter notes;
// StartBeats is the offset from the beginning of the piece.
type NoteEvent struct {
	MIDI          int
	Rest          bool
	StartBeats    float64
	DurationBeats float64
}

type glyphKind int

const (
	glyphNote glyphKind = iota
	glyphRest
	glyphBar
)

// glyph is one drawable element in reading order.
type glyph struct {
	kind  glyphKind
	midi  int
	beats float64
}

// VisualScore is the engine's in-memory representation of one rendered tune.
// Playback events and the on-screen vector graphic both derive from it.
type VisualScore struct {
	Title  string
	Width  int
	Height int
	// TempoQPM is the playback tempo in quarter notes per minute.
	TempoQPM int
	Events   []NoteEvent

	glyphs []glyph
}

// Layout geometry. One system is five staff lines; pitches sit on line/space
// positions relative to the bottom line (E4 in treble clef).
const (
	staffLineGap   = 10
	systemHeight   = 90
	staffTopOffset = 25
	marginX        = 20
	quarterPx      = 44.0
	minGlyphPx     = 16.0
	barPx          = 10.0
)

// bottom staff line is E4
const bottomLineMIDI = 64

// diatonicSteps maps a pitch class to its letter step above C.
var diatonicSteps = [12]int{0, 0, 1, 1, 2, 3, 3, 4, 4, 5, 5, 6}

// staffSteps returns the diatonic distance of a MIDI pitch above the bottom
// staff line.
func staffSteps(midi int) int {
	octave := midi/12 - 1
	step := octave*7 + diatonicSteps[midi%12]
	base := bottomLineMIDI/12 - 1
	baseStep := base*7 + diatonicSteps[bottomLineMIDI%12]
	return step - baseStep
}

func glyphWidth(g glyph) float64 {
	if g.kind == glyphBar {
		return barPx
	}
	w := g.beats * quarterPx
	if w < minGlyphPx {
		w = minGlyphPx
	}
	return w
}

// SVG serializes the score to a standalone vector document laid out for the
// score's width. Systems wrap when a glyph would exceed the right margin.
func (v *VisualScore) SVG() []byte {
	usable := float64(v.Width - 2*marginX)
	if usable < quarterPx {
		usable = quarterPx
	}

	// Assign glyphs to systems first so the total height is known.
	type placed struct {
		g      glyph
		x      float64
		system int
	}
	var placements []placed
	x := 0.0
	system := 0
	for _, g := range v.glyphs {
		w := glyphWidth(g)
		if x+w > usable && x > 0 {
			system++
			x = 0
		}
		placements = append(placements, placed{g: g, x: x, system: system})
		x += w
	}

	height := staffTopOffset + (system+1)*systemHeight
	v.Height = height

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		v.Width, height, v.Width, height)
	fmt.Fprintf(&sb, `<title>%s</title>`+"\n", escapeXML(v.Title))
	fmt.Fprintf(&sb, `<text x="%d" y="16" font-family="serif" font-size="14">%s</text>`+"\n",
		marginX, escapeXML(v.Title))

	for s := 0; s <= system; s++ {
		top := staffTopOffset + s*systemHeight
		for line := 0; line < 5; line++ {
			y := top + line*staffLineGap
			fmt.Fprintf(&sb, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="black" stroke-width="1"/>`+"\n",
				marginX, y, v.Width-marginX, y)
		}
	}

	for _, p := range placements {
		top := staffTopOffset + p.system*systemHeight
		bottomY := top + 4*staffLineGap
		cx := float64(marginX) + p.x + glyphWidth(p.g)/2

		switch p.g.kind {
		case glyphBar:
			fmt.Fprintf(&sb, `<line x1="%.1f" y1="%d" x2="%.1f" y2="%d" stroke="black" stroke-width="1.5"/>`+"\n",
				cx, top, cx, bottomY)
		case glyphRest:
			fmt.Fprintf(&sb, `<rect x="%.1f" y="%d" width="8" height="4" fill="black"/>`+"\n",
				cx-4, top+staffLineGap+3)
		case glyphNote:
			steps := staffSteps(p.g.midi)
			cy := float64(bottomY) - float64(steps)*float64(staffLineGap)/2
			fill := "black"
			if p.g.beats >= 2 {
				fill = "none"
			}
			fmt.Fprintf(&sb, `<ellipse cx="%.1f" cy="%.1f" rx="5" ry="3.8" fill="%s" stroke="black" stroke-width="1.2"/>`+"\n",
				cx, cy, fill)
			if p.g.beats < 4 {
				fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="black" stroke-width="1"/>`+"\n",
					cx+5, cy, cx+5, cy-28)
			}
			// ledger lines below or above the staff
			for s := steps; s < 0; s += 2 {
				if s%2 == 0 {
					y := float64(bottomY) - float64(s)*float64(staffLineGap)/2
					fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="black" stroke-width="1"/>`+"\n",
						cx-8, y, cx+8, y)
				}
			}
			for s := 10; s <= steps; s += 2 {
				y := float64(bottomY) - float64(s)*float64(staffLineGap)/2
				fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="black" stroke-width="1"/>`+"\n",
					cx-8, y, cx+8, y)
			}
		}
	}

	sb.WriteString("</svg>\n")
	return []byte(sb.String())
}

// TotalBeats returns the length of the piece in quarter-note beats.
func (v *VisualScore) TotalBeats() float64 {
	total := 0.0
	for _, ev := range v.Events {
		if end := ev.StartBeats + ev.DurationBeats; end > total {
			total = end
		}
	}
	return total
}

func escapeXML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
