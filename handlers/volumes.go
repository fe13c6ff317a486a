package handlers

import (
	"context"
	"net/http"

	"audionav/types"

	"github.com/gin-gonic/gin"
)

// VolumeProber runs volume discovery and reports each probe's outcome.
type VolumeProber interface {
	Probe(ctx context.Context) types.DiscoveryReport
}

// VolumeHandler exposes volume discovery.
type VolumeHandler struct {
	prober VolumeProber
}

// NewVolumeHandler creates a new volume handler
func NewVolumeHandler(prober VolumeProber) *VolumeHandler {
	return &VolumeHandler{prober: prober}
}

// ListVolumes runs discovery and returns the volumes with the per-probe report.
func (h *VolumeHandler) ListVolumes(c *gin.Context) {
	report := h.prober.Probe(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"volumes": report.Volumes,
		"count":   len(report.Volumes),
		"report":  report,
	})
}
