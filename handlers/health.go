package handlers

import (
	"net/http"
	"time"

	"audionav/services"

	"github.com/gin-gonic/gin"
)

// Version is reported by the health endpoints.
const Version = "1.0.0"

// HealthHandler handles health check endpoints
type HealthHandler struct {
	sessions    *services.SessionManager
	storageRoot string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(sessions *services.SessionManager, storageRoot string) *HealthHandler {
	return &HealthHandler{sessions: sessions, storageRoot: storageRoot}
}

// HealthCheck returns the health status of the service
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "audionav",
		"version":   Version,
		"timestamp": time.Now().Unix(),
	})
}

// APIStatus returns the status of the API
func (h *HealthHandler) APIStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":      "audionav API is running",
		"storage_root": h.storageRoot,
		"sessions":     len(h.sessions.List()),
	})
}
