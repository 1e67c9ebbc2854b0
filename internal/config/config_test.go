package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("PORT", "")
	t.Setenv("ENVIRONMENT", "")

	cfg := Load()

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "gemini-2.5-flash", cfg.DefaultModel)
	assert.False(t, cfg.LangfuseEnabled)
}

func TestValidate_MissingGeminiKey(t *testing.T) {
	cfg := &Config{}

	err := cfg.Validate()
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "GEMINI_API_KEY", cfgErr.Missing)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestValidate_OK(t *testing.T) {
	cfg := &Config{GeminiAPIKey: "test-key"}
	assert.NoError(t, cfg.Validate())
}
