package notation

import "strings"

// Header field prefixes used by the ABC format.
const (
	TagIndex = "X:"
	TagTitle = "T:"
	TagKey   = "K:"
	TagMeter = "M:"
	TagTempo = "Q:"
)

// Defaults injected by the normalizer when the model output is missing
// structural header lines.
const (
	DefaultTitle     = "Untitled Composition"
	defaultIndexLine = "X:1"
	defaultKeyLine   = "K:C"
	defaultMeterLine = "M:4/4"
	defaultTempoLine = "Q:1/4=120"

	// placeholderBar keeps an otherwise contentless document renderable.
	placeholderBar = "C4 |]"
)

// Document is a normalized ABC notation document. It is constructed once by
// Normalize and treated as immutable afterwards.
type Document struct {
	Title string
	Body  []string
}

// Serialize joins the body lines back into ABC text.
func (d Document) Serialize() string {
	return strings.Join(d.Body, "\n") + "\n"
}

// isHeaderLine reports whether a line is an ABC header field (letter + colon).
func isHeaderLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 2 || trimmed[1] != ':' {
		return false
	}
	c := trimmed[0]
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// hasTag reports whether a line carries the given header prefix,
// ignoring leading whitespace.
func hasTag(line, tag string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), tag)
}

// tagValue returns the text after a header prefix, trimmed.
func tagValue(line, tag string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), tag))
}
