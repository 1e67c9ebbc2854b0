package prompt

import (
	"fmt"
	"strings"
)

// MinimumDurationSeconds is passed to the model as a textual hint only; it is
// not enforced programmatically.
const MinimumDurationSeconds = 150

// Builder assembles the composer instruction from embedded assets
type Builder struct {
	loader *Loader
}

// NewPromptBuilder creates a new prompt builder
func NewPromptBuilder() *Builder {
	return &Builder{loader: NewPromptLoader()}
}

// BuildComposerInstruction builds the system instruction for a composition
// request: role framing, the minimum-duration hint, and the output-format
// constraints.
func (b *Builder) BuildComposerInstruction() string {
	var sb strings.Builder
	sb.WriteString(b.loader.GetSystemPrompt())
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("The piece should last at least %d seconds when played at the written tempo.", MinimumDurationSeconds))
	sb.WriteString("\n\n")
	sb.WriteString(b.loader.GetOutputFormatInstructions())
	return sb.String()
}
