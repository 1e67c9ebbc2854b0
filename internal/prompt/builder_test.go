package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildComposerInstruction(t *testing.T) {
	builder := NewPromptBuilder()
	instruction := builder.BuildComposerInstruction()

	t.Run("includes role framing", func(t *testing.T) {
		assert.Contains(t, instruction, "composer")
	})

	t.Run("includes output format constraints", func(t *testing.T) {
		assert.Contains(t, instruction, "X:1")
		assert.Contains(t, instruction, "ABC")
	})

	t.Run("includes minimum duration hint", func(t *testing.T) {
		assert.Contains(t, instruction, "150 seconds")
	})

	t.Run("is deterministic", func(t *testing.T) {
		assert.Equal(t, instruction, builder.BuildComposerInstruction())
	})

	t.Run("has no leading or trailing whitespace", func(t *testing.T) {
		assert.Equal(t, strings.TrimSpace(instruction), instruction)
	})
}
