package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/sms-webhook-inbox/internal/models"
	"github.com/PratikDhanave/sms-webhook-inbox/internal/store"
)

// RegisterHealthRoutes registers liveness and readiness probes.
func RegisterHealthRoutes(r gin.IRoutes, secret string, st store.MessageStore) {
	// Liveness: confirms the process is running.
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: the secret is configured and the DB is reachable.
	r.GET("/health/ready", func(c *gin.Context) {
		if strings.TrimSpace(secret) == "" {
			c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Detail: "secret not set"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Detail: "database not ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
