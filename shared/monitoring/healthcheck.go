package monitoring

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler answers 200 while the last scheduled run succeeded and 503
// after a critical failure.
func HealthHandler(m *Monitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.IsHealthy() {
			c.String(http.StatusOK, "OK - %s", m.GetStatusSummary())
			return
		}
		c.String(http.StatusServiceUnavailable, "Service unhealthy - %s", m.GetStatusSummary())
	}
}

func StatusHandler(m *Monitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, m.Status())
	}
}
