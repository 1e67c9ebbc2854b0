package score

import (
	"errors"
	"fmt"
)

// ErrEngineUnavailable is returned when the notation engine cannot be
// constructed. The controller refuses to start rather than silently no-op.
var ErrEngineUnavailable = errors.New("notation engine unavailable")

// VisualRenderError means the engine produced no visual output for a
// document. Recoverable only by generating a new composition.
type VisualRenderError struct {
	Detail string
}

func (e *VisualRenderError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("notation could not be rendered: %s", e.Detail)
	}
	return "notation could not be rendered: content is invalid or incomplete"
}

// AudioPrimeError means synthesizer setup failed after a successful visual
// render. Stage is "init" or "prime". The visual score stays usable.
type AudioPrimeError struct {
	Stage string
	Err   error
}

func (e *AudioPrimeError) Error() string {
	return fmt.Sprintf("audio %s failed: %v", e.Stage, e.Err)
}

func (e *AudioPrimeError) Unwrap() error {
	return e.Err
}
