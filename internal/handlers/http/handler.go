package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Nazarious-ucu/weather-screen/internal/view"
)

const timeoutDuration = 5 * time.Second

type screen interface {
	State() view.State
	SetCity(ctx context.Context, city string) error
	Refresh(ctx context.Context) error
}

type Handler struct {
	screen screen
}

func NewHandler(s screen) *Handler {
	return &Handler{screen: s}
}

type setCityRequest struct {
	City string `json:"city" binding:"required"`
}

// GetWeather returns the current screen snapshot.
func (h *Handler) GetWeather(c *gin.Context) {
	c.JSON(http.StatusOK, h.screen.State().Snapshot())
}

// SetCity switches the screen to another city.
func (h *Handler) SetCity(c *gin.Context) {
	var req setCityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "city is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
	defer cancel()

	if err := h.screen.SetCity(ctx, req.City); err != nil {
		h.writeCommandError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"city": req.City})
}

// Refresh re-fetches weather for the current city.
func (h *Handler) Refresh(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
	defer cancel()

	if err := h.screen.Refresh(ctx); err != nil {
		h.writeCommandError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "refreshing"})
}

func (h *Handler) writeCommandError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, view.ErrEmptyCity):
		c.JSON(http.StatusBadRequest, gin.H{"error": "city is required"})
	case errors.Is(err, view.ErrScreenStopped):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
