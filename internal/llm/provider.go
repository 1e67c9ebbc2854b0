package llm

import "context"

// Provider defines the interface for LLM providers.
// Providers return the model's raw text output; notation repair happens
// downstream, so no structured-output support is required here.
type Provider interface {
	// Generate produces raw ABC notation text for a composition request
	Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error)

	// Name returns the provider name (e.g., "gemini", "openai")
	Name() string
}

// GenerationRequest contains all parameters needed for generation
type GenerationRequest struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
}

// GenerationResponse contains the result from the LLM
type GenerationResponse struct {
	RawOutput    string `json:"raw_output"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	TotalTokens  int    `json:"total_tokens"`
}
