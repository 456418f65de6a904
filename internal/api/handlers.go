package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const agentName = "FitSymphony AI"

// GET /health
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"agent":  agentName,
	})
}

// GET /status
func statusHandler(queue QueueMetrics, breakers []BreakerStats) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := make([]map[string]interface{}, 0, len(breakers))
		for _, b := range breakers {
			stats = append(stats, b.Stats())
		}
		resp := gin.H{
			"status":   "ok",
			"breakers": stats,
		}
		if queue != nil {
			resp["llm"] = queue.GetMetrics()
		}
		c.JSON(http.StatusOK, resp)
	}
}

func errorJSON(message string) gin.H {
	return gin.H{"error": gin.H{"message": message}}
}
