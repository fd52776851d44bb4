package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/sms-webhook-inbox/internal/metrics"
	"github.com/PratikDhanave/sms-webhook-inbox/internal/models"
)

const exposition = "text/plain; version=0.0.4; charset=utf-8"

// RegisterMetricRoutes registers GET /metrics (plaintext exposition).
func RegisterMetricRoutes(r gin.IRoutes, rec metrics.Recorder) {
	r.GET("/metrics", func(c *gin.Context) {
		out, err := rec.Render()
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Internal Server Error"})
			return
		}
		c.Data(http.StatusOK, exposition, []byte(out))
	})
}
