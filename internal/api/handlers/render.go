package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scoreforge/scoreforge-api/internal/notation"
	"github.com/scoreforge/scoreforge-api/internal/score"
)

const (
	defaultRenderWidth = 800
	maxRenderWidth     = 4000
)

type RenderHandler struct {
	engine score.Engine
}

func NewRenderHandler(engine score.Engine) *RenderHandler {
	return &RenderHandler{engine: engine}
}

type RenderRequest struct {
	ABCNotation string `json:"abc_notation" binding:"required"`
	Width       int    `json:"width"`
}

type RenderResponse struct {
	Title    string `json:"title"`
	State    string `json:"state"`
	SVG      string `json:"svg,omitempty"`
	Width    int    `json:"width"`
	Height   int    `json:"height,omitempty"`
	TempoQPM int    `json:"tempo_qpm,omitempty"`
	Events   int    `json:"events,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Render runs the full pipeline for a notation document at a fixed width and
// reports the resulting state. An audio failure still returns the rendered
// score.
func (h *RenderHandler) Render(c *gin.Context) {
	var req RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	width := req.Width
	if width <= 0 {
		width = defaultRenderWidth
	}
	if width > maxRenderWidth {
		width = maxRenderWidth
	}

	doc := notation.Normalize(req.ABCNotation)

	controller, err := score.NewController(h.engine, score.StaticSurface(width), nil)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Notation engine unavailable"})
		return
	}
	defer controller.Close()

	controller.SetDocument(c.Request.Context(), doc)
	snap := controller.Snapshot()

	resp := RenderResponse{
		Title: doc.Title,
		State: string(snap.State),
		Width: width,
	}

	if len(snap.Visuals) > 0 {
		// Normalization collapses the input to a single tune, so the first
		// visual is the whole rendered document.
		vs := snap.Visuals[0]
		resp.SVG = string(vs.SVG())
		resp.Height = vs.Height
		resp.TempoQPM = vs.TempoQPM
		resp.Events = len(vs.Events)
	}
	if snap.Err != nil {
		resp.Error = snap.Err.Error()
	}

	if snap.State == score.StateVisualError {
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
