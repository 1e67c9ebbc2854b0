package composer

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/scoreforge/scoreforge-api/internal/llm"
	"github.com/scoreforge/scoreforge-api/internal/metrics"
	"github.com/scoreforge/scoreforge-api/internal/notation"
	"github.com/scoreforge/scoreforge-api/internal/observability"
	"github.com/scoreforge/scoreforge-api/internal/prompt"
)

// GenerationError reports a failed composition attempt. Reason is a stable
// machine-readable tag ("empty-response", "provider-error").
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("generation failed (%s)", e.Reason)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// GeneratedMusic is the result of a successful composition request: a title
// and normalized ABC notation ready for rendering.
type GeneratedMusic struct {
	Title       string `json:"title"`
	ABCNotation string `json:"abc_notation"`
	Model       string `json:"model"`
	TotalTokens int    `json:"total_tokens,omitempty"`
}

// ProviderResolver selects an LLM provider for a model name.
type ProviderResolver interface {
	GetProvider(ctx context.Context, model string) (llm.Provider, error)
}

// Service turns free-text prompts into normalized ABC documents via a single
// LLM call. No retries: a failed or empty response surfaces as a
// GenerationError for the caller to handle.
type Service struct {
	providers    ProviderResolver
	builder      *prompt.Builder
	defaultModel string
	sentry       *metrics.SentryMetrics
	cloudwatch   *metrics.Client
}

func NewService(providers ProviderResolver, defaultModel string, cw *metrics.Client) *Service {
	return &Service{
		providers:    providers,
		builder:      prompt.NewPromptBuilder(),
		defaultModel: defaultModel,
		sentry:       metrics.NewSentryMetrics(),
		cloudwatch:   cw,
	}
}

// Generate runs one composition request. model may be empty, in which case
// the service default is used.
func (s *Service) Generate(ctx context.Context, userPrompt, model string) (*GeneratedMusic, error) {
	if model == "" {
		model = s.defaultModel
	}

	provider, err := s.providers.GetProvider(ctx, model)
	if err != nil {
		return nil, &GenerationError{Reason: "provider-error", Err: err}
	}

	systemPrompt := s.builder.BuildComposerInstruction()

	trace := observability.GetClient().StartTrace(ctx, "composition", map[string]interface{}{
		"model":    model,
		"provider": provider.Name(),
	})
	defer trace.Finish()
	generation := trace.Generation("compose", map[string]interface{}{"model": model})
	defer generation.Finish()

	log.Printf("🎵 Composing with %s (model: %s)", provider.Name(), model)
	start := time.Now()

	resp, err := provider.Generate(ctx, &llm.GenerationRequest{
		Model:        model,
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
	})
	duration := time.Since(start)

	if err != nil {
		generation.SetLevel("ERROR")
		if s.cloudwatch != nil {
			s.cloudwatch.RecordGenerationDuration(duration, false)
		}
		return nil, &GenerationError{Reason: "provider-error", Err: err}
	}

	generation.LogModelCall(model, systemPrompt, userPrompt, resp.RawOutput, resp.InputTokens, resp.OutputTokens)

	if strings.TrimSpace(resp.RawOutput) == "" {
		log.Printf("⚠️ Model returned an empty response (model: %s)", model)
		generation.SetLevel("WARNING")
		if s.cloudwatch != nil {
			s.cloudwatch.RecordGenerationDuration(duration, false)
		}
		return nil, &GenerationError{Reason: "empty-response"}
	}

	doc := notation.Normalize(resp.RawOutput)

	s.sentry.RecordTokenUsage(ctx, model, resp.TotalTokens, resp.InputTokens, resp.OutputTokens)
	if s.cloudwatch != nil {
		s.cloudwatch.RecordTokenUsage(model, resp.TotalTokens, resp.InputTokens, resp.OutputTokens)
		s.cloudwatch.RecordGenerationDuration(duration, true)
	}
	log.Printf("✅ Composition %q ready in %.2fs (%d tokens)", doc.Title, duration.Seconds(), resp.TotalTokens)

	return &GeneratedMusic{
		Title:       doc.Title,
		ABCNotation: doc.Serialize(),
		Model:       model,
		TotalTokens: resp.TotalTokens,
	}, nil
}
