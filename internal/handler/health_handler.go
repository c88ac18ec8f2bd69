package handler

import (
	"net/http"
	"os/exec"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	pdftotext string
	pdftoppm  string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(pdftotext, pdftoppm string) *HealthHandler {
	return &HealthHandler{pdftotext: pdftotext, pdftoppm: pdftoppm}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz. The service cannot process PDFs without the
// poppler binaries on PATH, so their absence fails readiness.
func (h *HealthHandler) Readiness(c *gin.Context) {
	for _, bin := range []string{h.pdftotext, h.pdftoppm} {
		if _, err := exec.LookPath(bin); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": bin + " not found on PATH"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
