package config

import "os"

// Config holds the application configuration.
// Auth is intentionally absent: the API runs as an open collaborator behind
// the caller's own gateway.
type Config struct {
	// Environment
	Environment string
	Port        string

	// LLM API Keys
	GeminiAPIKey string // Google Gemini API key (required)
	OpenAIAPIKey string // OpenAI API key (optional secondary provider)

	// Generation defaults
	DefaultModel string

	// Persistence (optional; composition history is disabled when unset)
	DatabaseURL string

	// Observability
	SentryDSN         string // Sentry DSN for error tracking
	LangfusePublicKey string // Langfuse public key
	LangfuseSecretKey string // Langfuse secret key
	LangfuseHost      string // Langfuse host URL (cloud or self-hosted)
	LangfuseEnabled   bool   // Feature flag for Langfuse
}

func Load() *Config {
	return &Config{
		Environment:       getEnv("ENVIRONMENT", "development"),
		Port:              getEnv("PORT", "8080"),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		DefaultModel:      getEnv("DEFAULT_MODEL", "gemini-2.5-flash"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		LangfusePublicKey: getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey: getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:      getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:   getEnv("LANGFUSE_ENABLED", "false") == "true",
	}
}

// Validate checks startup preconditions. The Gemini credential is the one
// hard requirement: without it no composition request can proceed, so the
// process must fail immediately rather than degrade.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return &ConfigurationError{Missing: "GEMINI_API_KEY"}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

// ConfigurationError reports a missing required credential. It is fatal at
// startup and never recoverable at request time.
type ConfigurationError struct {
	Missing string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: required environment variable " + e.Missing + " is not set"
}
