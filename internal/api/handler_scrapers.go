package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListScrapers returns the diagnostics snapshot of every registered source.
func (h *Handler) ListScrapers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"scrapers": h.registry.List()})
}

type disableRequest struct {
	Reason string `json:"reason"`
}

// DisableScraper flips a source to disabled so Lookup rejects it until it is
// enabled again.
func (h *Handler) DisableScraper(c *gin.Context) {
	sourceID := c.Param("source_id")
	if _, ok := h.registry.Metadata(sourceID); !ok {
		abortError(c, http.StatusNotFound, "SCRAPER_NOT_FOUND", "unknown scraper")
		return
	}

	var req disableRequest
	_ = c.ShouldBindJSON(&req) // reason is optional
	if req.Reason == "" {
		req.Reason = "disabled by operator"
	}

	h.registry.Disable(sourceID, req.Reason)
	meta, _ := h.registry.Metadata(sourceID)
	c.JSON(http.StatusOK, gin.H{"source_id": sourceID, "metadata": meta})
}

// EnableScraper flips a disabled source back to active.
func (h *Handler) EnableScraper(c *gin.Context) {
	sourceID := c.Param("source_id")
	if _, ok := h.registry.Metadata(sourceID); !ok {
		abortError(c, http.StatusNotFound, "SCRAPER_NOT_FOUND", "unknown scraper")
		return
	}

	h.registry.Enable(sourceID)
	meta, _ := h.registry.Metadata(sourceID)
	c.JSON(http.StatusOK, gin.H{"source_id": sourceID, "metadata": meta})
}
