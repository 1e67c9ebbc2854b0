package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/scoreforge/scoreforge-api/internal/export"
	"github.com/scoreforge/scoreforge-api/internal/notation"
	"github.com/scoreforge/scoreforge-api/internal/score"
)

// runScorePipeline renders a document, then handles the export and playback
// flags shared by the compose and render commands.
func runScorePipeline(ctx context.Context, doc notation.Document, width int, voice, svgPath, wavPath string, play bool) error {
	engine, err := score.NewABCEngineWithVoice(voice)
	if err != nil {
		return err
	}

	controller, err := score.NewController(engine, score.StaticSurface(width), nil)
	if err != nil {
		return err
	}
	defer controller.Close()

	controller.SetDocument(ctx, doc)
	snap := controller.Snapshot()

	switch snap.State {
	case score.StateVisualError:
		return snap.Err
	case score.StateAudioError:
		color.Yellow("Audio unavailable: %v", snap.Err)
		color.Green("Rendered %q", doc.Title)
	case score.StateReady:
		color.Green("Rendered %q", doc.Title)
	}

	if svgPath != "" {
		file, err := export.Vector(doc.Title, snap.Visuals)
		if err != nil {
			return err
		}
		if err := os.WriteFile(svgPath, file.Data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", svgPath, err)
		}
		fmt.Printf("Wrote %s (%d bytes)\n", svgPath, len(file.Data))
	}

	if wavPath != "" {
		synth, ok := controller.Synth()
		if !ok {
			return fmt.Errorf("audio export unavailable: pipeline did not reach ready state")
		}
		file, err := export.Audio(ctx, doc.Title, synth)
		if err != nil {
			return err
		}
		if err := os.WriteFile(wavPath, file.Data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", wavPath, err)
		}
		fmt.Printf("Wrote %s (%d bytes)\n", wavPath, len(file.Data))
	}

	if play {
		synth, ok := controller.Synth()
		if !ok {
			return fmt.Errorf("playback unavailable: pipeline did not reach ready state")
		}
		if err := controller.StartPlayback(); err != nil {
			return err
		}
		if _, err := synth.Play(); err != nil {
			return err
		}
		fmt.Printf("Playing %q (%.1fs)...\n", doc.Title, synth.Duration().Seconds())
		time.Sleep(synth.Duration())
	}

	return nil
}
