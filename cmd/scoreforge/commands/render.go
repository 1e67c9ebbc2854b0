package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/scoreforge/scoreforge-api/internal/notation"
)

var (
	renderFile  string
	renderWidth int
	renderVoice string
	renderSVG   string
	renderWAV   string
	renderPlay  bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render existing ABC notation",
	Long: `Render an ABC notation file (or stdin) without calling the generative
model. The input is repaired into a valid document first, so partial or
fenced notation is accepted.`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderFile, "file", "f", "", "ABC notation file (defaults to stdin)")
	renderCmd.Flags().IntVarP(&renderWidth, "width", "w", 800, "Staff width in pixels")
	renderCmd.Flags().StringVar(&renderVoice, "voice", "", "Synthesizer voice preset (lead, reed, organ)")
	renderCmd.Flags().StringVar(&renderSVG, "svg", "", "Write rendered score to this SVG file")
	renderCmd.Flags().StringVar(&renderWAV, "wav", "", "Write synthesized audio to this WAV file")
	renderCmd.Flags().BoolVar(&renderPlay, "play", false, "Play the piece after rendering")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	var raw []byte
	var err error
	if renderFile != "" {
		raw, err = os.ReadFile(renderFile)
		if err != nil {
			return fmt.Errorf("reading %s: %w", renderFile, err)
		}
	} else {
		raw, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
	}

	doc := notation.Normalize(string(raw))
	return runScorePipeline(context.Background(), doc, renderWidth, renderVoice, renderSVG, renderWAV, renderPlay)
}
