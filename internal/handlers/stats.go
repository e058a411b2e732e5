package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h HandlerSet) Stats(c *gin.Context) {
	if h.stats == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "stats_disabled"})
		return
	}

	counters, err := h.stats.All(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("read stats failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats_unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"counters": counters,
	})
}
