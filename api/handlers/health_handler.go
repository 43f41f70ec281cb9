package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/vidgrab-go/internal/app"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	reaper  *app.Reaper
	backend string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(reaper *app.Reaper, backend string) *HealthHandler {
	return &HealthHandler{
		reaper:  reaper,
		backend: backend,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"backend":   h.backend,
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.reaper.IsRunning() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "reaper not running",
		})
		return
	}

	response := gin.H{"status": "ready"}
	if last := h.reaper.LastSweep(); !last.IsZero() {
		response["last_sweep"] = last.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, response)
}
