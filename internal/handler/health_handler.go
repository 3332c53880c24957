package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	providers []string
	extractor string
	storage   bool
}

// NewHealthHandler creates a new HealthHandler reporting the configured
// provider chain, extractor engine and whether object storage is enabled.
func NewHealthHandler(providers []string, extractor string, storage bool) *HealthHandler {
	return &HealthHandler{providers: providers, extractor: extractor, storage: storage}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz
func (h *HealthHandler) Readiness(c *gin.Context) {
	if len(h.providers) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "no completion provider configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"providers": h.providers,
		"extractor": h.extractor,
		"storage":   h.storage,
	})
}
