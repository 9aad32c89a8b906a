package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loadwire/loadwire/fetch"
	"github.com/loadwire/loadwire/models"
)

// Health returns a handler for GET /health.
//
// Reports pool utilisation and degrades status when more than 80% of the
// slots are checked out.
func Health(pool fetch.SlotPool, startTime time.Time, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := pool.Stats()

		status := "healthy"
		busy := stats.Total - stats.Available
		if stats.Total > 0 && busy > int(float64(stats.Total)*0.8) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:      status,
			Uptime:      time.Since(startTime).Round(time.Second).String(),
			BrowserPool: stats,
			Version:     version,
		})
	}
}
