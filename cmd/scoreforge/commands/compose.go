package commands

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/scoreforge/scoreforge-api/internal/composer"
	"github.com/scoreforge/scoreforge-api/internal/config"
	"github.com/scoreforge/scoreforge-api/internal/llm"
	"github.com/scoreforge/scoreforge-api/internal/notation"
	"github.com/scoreforge/scoreforge-api/internal/observability"
)

var (
	composePrompt string
	composeModel  string
	composeWidth  int
	composeVoice  string
	composeSVG    string
	composeWAV    string
	composePlay   bool
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Generate a new piece from a text prompt",
	Long: `Generate a new piece of music from a natural-language description.

The generated ABC notation is printed to stdout. Use --svg or --wav to also
write rendered artifacts, and --play to hear the result.

Requires GEMINI_API_KEY (or OPENAI_API_KEY for gpt- models) in the
environment or a .env file.`,
	RunE: runCompose,
}

func init() {
	composeCmd.Flags().StringVarP(&composePrompt, "prompt", "p", "", "Music description (required)")
	composeCmd.Flags().StringVarP(&composeModel, "model", "m", "", "Model to use (default from config)")
	composeCmd.Flags().IntVarP(&composeWidth, "width", "w", 800, "Staff width in pixels")
	composeCmd.Flags().StringVar(&composeVoice, "voice", "", "Synthesizer voice preset (lead, reed, organ)")
	composeCmd.Flags().StringVar(&composeSVG, "svg", "", "Write rendered score to this SVG file")
	composeCmd.Flags().StringVar(&composeWAV, "wav", "", "Write synthesized audio to this WAV file")
	composeCmd.Flags().BoolVar(&composePlay, "play", false, "Play the piece after generating")
	_ = composeCmd.MarkFlagRequired("prompt")
	rootCmd.AddCommand(composeCmd)
}

func runCompose(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	observability.InitializeLangfuse(ctx, cfg)

	providers := llm.NewProviderFactory(cfg.GeminiAPIKey, cfg.OpenAIAPIKey)
	service := composer.NewService(providers, cfg.DefaultModel, nil)

	color.Cyan("Composing...")
	music, err := service.Generate(ctx, composePrompt, composeModel)
	if err != nil {
		return err
	}

	color.Green("✓ %s (model: %s, tokens: %d)", music.Title, music.Model, music.TotalTokens)
	fmt.Println(music.ABCNotation)

	doc := notation.Normalize(music.ABCNotation)
	return runScorePipeline(ctx, doc, composeWidth, composeVoice, composeSVG, composeWAV, composePlay)
}
