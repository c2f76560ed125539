package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	env     string
	started time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(env string) *HealthHandler {
	return &HealthHandler{
		env:     env,
		started: time.Now(),
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"env":    h.env,
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}
