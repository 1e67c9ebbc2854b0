package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/scoreforge/scoreforge-api/internal/store"
)

type HistoryHandler struct {
	store *store.CompositionStore
}

func NewHistoryHandler(compositions *store.CompositionStore) *HistoryHandler {
	return &HistoryHandler{store: compositions}
}

// List returns recent compositions, newest first.
func (h *HistoryHandler) List(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Composition history is not configured"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	compositions, err := h.store.List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load compositions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"compositions": compositions, "count": len(compositions)})
}

// Get returns one composition by its request ID.
func (h *HistoryHandler) Get(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Composition history is not configured"})
		return
	}

	composition, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Composition not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load composition"})
		return
	}

	c.JSON(http.StatusOK, composition)
}
