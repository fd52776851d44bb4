package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/sms-webhook-inbox/internal/middleware"
	"github.com/PratikDhanave/sms-webhook-inbox/internal/models"
	"github.com/PratikDhanave/sms-webhook-inbox/internal/store"
)

// RegisterStatsRoutes registers GET /stats.
func RegisterStatsRoutes(r gin.IRoutes, st store.MessageStore, logger *slog.Logger) {
	r.GET("/stats", func(c *gin.Context) {
		stats, err := st.Stats(c.Request.Context())
		if err != nil {
			logger.Error("stats failed", "request_id", middleware.RequestID(c), "error", err)
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Internal Server Error"})
			return
		}
		c.JSON(http.StatusOK, stats)
	})
}
