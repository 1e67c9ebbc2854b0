package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/scoreforge/scoreforge-api/internal/composer"
	"github.com/scoreforge/scoreforge-api/internal/logger"
	"github.com/scoreforge/scoreforge-api/internal/models"
	"github.com/scoreforge/scoreforge-api/internal/store"
)

const (
	defaultModel = "gemini-2.5-flash"
)

// allowedModels lists the models the compose endpoint accepts.
var allowedModels = map[string]bool{
	"gemini-2.5-flash": true,
	"gemini-2.5-pro":   true,
	"gpt-5-mini":       true,
	"gpt-5-nano":       true,
}

type ComposeHandler struct {
	service *composer.Service
	store   *store.CompositionStore
}

// NewComposeHandler creates the compose handler. store may be nil when no
// database is configured.
func NewComposeHandler(service *composer.Service, compositions *store.CompositionStore) *ComposeHandler {
	return &ComposeHandler{service: service, store: compositions}
}

type ComposeRequest struct {
	Prompt string `json:"prompt" binding:"required"`
	Model  string `json:"model"`
}

type ComposeResponse struct {
	RequestID   string `json:"request_id"`
	Title       string `json:"title"`
	ABCNotation string `json:"abc_notation"`
	Model       string `json:"model"`
	TotalTokens int    `json:"total_tokens,omitempty"`
}

// Compose generates a new piece from a text prompt.
func (h *ComposeHandler) Compose(c *gin.Context) {
	var req ComposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prompt must not be empty"})
		return
	}

	model := req.Model
	if model == "" {
		model = defaultModel
	}
	if !allowedModels[model] {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid model. Allowed: gemini-2.5-flash, gemini-2.5-pro, gpt-5-mini, gpt-5-nano",
		})
		return
	}

	requestID := c.GetString("request_id")
	if requestID == "" {
		requestID = uuid.New().String()
	}

	music, err := h.service.Generate(c.Request.Context(), prompt, model)
	if err != nil {
		var genErr *composer.GenerationError
		if errors.As(err, &genErr) {
			fields := logger.WithContext(c)
			fields["reason"] = genErr.Reason
			logger.Warn("Generation failed", fields)
			c.JSON(http.StatusBadGateway, gin.H{
				"error":      "Music generation failed. Please try again.",
				"reason":     genErr.Reason,
				"request_id": requestID,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "request_id": requestID})
		return
	}

	if h.store != nil {
		record := &models.Composition{
			RequestID:   requestID,
			Prompt:      prompt,
			Title:       music.Title,
			Model:       music.Model,
			ABCNotation: music.ABCNotation,
			TotalTokens: music.TotalTokens,
		}
		if err := h.store.Save(c.Request.Context(), record); err != nil {
			// History is best-effort; the composition still returns.
			logger.Error("Failed to save composition", err, logger.WithContext(c))
		}
	}

	c.JSON(http.StatusOK, ComposeResponse{
		RequestID:   requestID,
		Title:       music.Title,
		ABCNotation: music.ABCNotation,
		Model:       music.Model,
		TotalTokens: music.TotalTokens,
	})
}
