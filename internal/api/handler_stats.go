package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const statsDateLayout = "2006-01-02"

// GetProviderStats handles GET /api/stats/provider-calls. The range defaults
// to the last 30 days; "from" is inclusive, "to" exclusive at day precision.
func (h *Handler) GetProviderStats(c *gin.Context) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30).Truncate(24 * time.Hour)
	to := now.AddDate(0, 0, 1).Truncate(24 * time.Hour)

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(statsDateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'from' date, expected YYYY-MM-DD"})
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(statsDateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'to' date, expected YYYY-MM-DD"})
			return
		}
		to = parsed.AddDate(0, 0, 1)
	}

	stats, err := h.store.CallStatsRange(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to aggregate provider calls"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
