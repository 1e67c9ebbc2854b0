package notation

import "strings"

// Normalize repairs raw model output into a structurally valid ABC document.
// It is a total function: any input, including the empty string, yields a
// document with exactly one X:1 line, exactly one title line, at least one
// key/meter/tempo line each, and at least one bar separator or pitch token.
func Normalize(raw string) Document {
	text := stripFences(raw)

	var rest []string
	title := ""
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		switch {
		case hasTag(line, TagIndex):
			// Dropped; a single X:1 is re-issued below.
		case hasTag(line, TagTitle):
			// Only the first title line is authoritative.
			if title == "" {
				title = tagValue(line, TagTitle)
			}
		case strings.TrimSpace(line) == "":
			// Blank lines separate tunes in ABC; a repaired document is
			// always a single tune.
		default:
			rest = append(rest, line)
		}
	}

	if title == "" {
		title = DefaultTitle
	}

	header := []string{defaultIndexLine, TagTitle + title}
	if !containsTag(rest, TagKey) {
		header = append(header, defaultKeyLine)
	}
	if !containsTag(rest, TagMeter) {
		header = append(header, defaultMeterLine)
	}
	if !containsTag(rest, TagTempo) {
		header = append(header, defaultTempoLine)
	}

	body := append(header, rest...)
	if !hasMusicContent(rest) {
		body = append(body, placeholderBar)
	}

	return Document{Title: title, Body: body}
}

// stripFences removes Markdown code-fence wrapping (``` or ```abc) around the
// model output and trims surrounding whitespace.
func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		if idx := strings.IndexByte(text, '\n'); idx >= 0 {
			text = text[idx+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
	}
	if strings.HasSuffix(text, "```") {
		text = strings.TrimSuffix(text, "```")
	}
	return strings.TrimSpace(text)
}

func containsTag(lines []string, tag string) bool {
	for _, line := range lines {
		if hasTag(line, tag) {
			return true
		}
	}
	return false
}

// hasMusicContent reports whether any non-header line contains a bar
// separator or a pitch letter. Header lines are skipped so that K:C does not
// count as a pitch.
func hasMusicContent(lines []string) bool {
	for _, line := range lines {
		if isHeaderLine(line) || strings.HasPrefix(strings.TrimSpace(line), "%") {
			continue
		}
		for _, r := range line {
			if r == '|' || (r >= 'A' && r <= 'G') || (r >= 'a' && r <= 'g') {
				return true
			}
		}
	}
	return false
}
