package prompt

import (
	"strings"

	"github.com/scoreforge/scoreforge-api/pkg/embedded"
)

type Loader struct{}

func NewPromptLoader() *Loader {
	return &Loader{}
}

// GetSystemPrompt loads the composer role framing
func (l *Loader) GetSystemPrompt() string {
	return strings.TrimSpace(string(embedded.SystemPromptTxt))
}

// GetOutputFormatInstructions loads the ABC output format constraints
func (l *Loader) GetOutputFormatInstructions() string {
	return strings.TrimSpace(string(embedded.OutputFormatInstructionsTxt))
}
