package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderFactory_ModelRouting(t *testing.T) {
	factory := NewProviderFactory("gemini-key", "openai-key")

	tests := []struct {
		model    string
		provider string
	}{
		{model: "gpt-5-mini", provider: "openai"},
		{model: "gpt-5-nano", provider: "openai"},
		{model: "gemini-2.5-flash", provider: "gemini"},
		{model: "gemini-2.5-pro", provider: "gemini"},
		{model: "something-else", provider: "gemini"},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			p, err := factory.GetProvider(context.Background(), tt.model)
			require.NoError(t, err)
			assert.Equal(t, tt.provider, p.Name())
		})
	}
}

func TestProviderFactory_MissingKeys(t *testing.T) {
	factory := NewProviderFactory("", "")

	_, err := factory.GetProvider(context.Background(), "gemini-2.5-flash")
	assert.Error(t, err)

	_, err = factory.GetProvider(context.Background(), "gpt-5-mini")
	assert.Error(t, err)
}
