package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scoreforge/scoreforge-api/internal/export"
	"github.com/scoreforge/scoreforge-api/internal/notation"
	"github.com/scoreforge/scoreforge-api/internal/score"
)

type ExportHandler struct {
	engine score.Engine
}

func NewExportHandler(engine score.Engine) *ExportHandler {
	return &ExportHandler{engine: engine}
}

type ExportRequest struct {
	ABCNotation string `json:"abc_notation" binding:"required"`
	Width       int    `json:"width"`
}

// ExportAudio renders and primes the document, then streams the WAV file.
func (h *ExportHandler) ExportAudio(c *gin.Context) {
	controller, ok := h.runPipeline(c)
	if !ok {
		return
	}
	defer controller.Close()

	snap := controller.Snapshot()
	synth, ready := controller.Synth()
	if !ready {
		status := http.StatusConflict
		reason := "not-ready"
		if snap.State == score.StateVisualError {
			status = http.StatusUnprocessableEntity
			reason = "no-visual-content"
		}
		detail := ""
		if snap.Err != nil {
			detail = snap.Err.Error()
		}
		c.JSON(status, gin.H{"error": "Audio export unavailable", "reason": reason, "detail": detail})
		return
	}

	title := titleOf(snap)
	file, err := export.Audio(c.Request.Context(), title, synth)
	if err != nil {
		writeExportError(c, err)
		return
	}
	serveFile(c, file)
}

// ExportVector renders the document and streams the SVG file. Audio priming
// failures do not block vector export.
func (h *ExportHandler) ExportVector(c *gin.Context) {
	controller, ok := h.runPipeline(c)
	if !ok {
		return
	}
	defer controller.Close()

	snap := controller.Snapshot()
	file, err := export.Vector(titleOf(snap), snap.Visuals)
	if err != nil {
		writeExportError(c, err)
		return
	}
	serveFile(c, file)
}

func (h *ExportHandler) runPipeline(c *gin.Context) (*score.Controller, bool) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	width := req.Width
	if width <= 0 {
		width = defaultRenderWidth
	}
	if width > maxRenderWidth {
		width = maxRenderWidth
	}

	controller, err := score.NewController(h.engine, score.StaticSurface(width), nil)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Notation engine unavailable"})
		return nil, false
	}

	doc := notation.Normalize(req.ABCNotation)
	controller.SetDocument(c.Request.Context(), doc)
	return controller, true
}

func titleOf(snap score.Snapshot) string {
	if len(snap.Visuals) > 0 {
		return snap.Visuals[0].Title
	}
	return ""
}

func writeExportError(c *gin.Context, err error) {
	var exportErr *export.ExportError
	if errors.As(err, &exportErr) {
		status := http.StatusConflict
		if exportErr.Reason == "no-visual-content" {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": "Export failed", "reason": exportErr.Reason})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func serveFile(c *gin.Context, file *export.File) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	c.Data(http.StatusOK, file.MIME, file.Data)
}
