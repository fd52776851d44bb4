package httpserver

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/sms-webhook-inbox/internal/config"
	"github.com/PratikDhanave/sms-webhook-inbox/internal/handlers"
	"github.com/PratikDhanave/sms-webhook-inbox/internal/ingest"
	"github.com/PratikDhanave/sms-webhook-inbox/internal/metrics"
	"github.com/PratikDhanave/sms-webhook-inbox/internal/middleware"
	"github.com/PratikDhanave/sms-webhook-inbox/internal/store"
)

// NewRouter wires every endpoint behind the request logger.
// Signed: POST /webhook
// Open: /messages, /stats, /health/live, /health/ready, /metrics
func NewRouter(cfg config.Config, st store.MessageStore, rec metrics.Recorder, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	// The logger sits outside recovery so panics are still counted and logged as 500s.
	r.Use(middleware.RequestLogger(logger, rec), middleware.Recovery(logger))

	in := ingest.NewIngestor(cfg.WebhookSecret, st, rec)

	handlers.RegisterWebhookRoutes(r, in, logger)
	handlers.RegisterMessageRoutes(r, st, logger)
	handlers.RegisterStatsRoutes(r, st, logger)
	handlers.RegisterHealthRoutes(r, cfg.WebhookSecret, st)
	handlers.RegisterMetricRoutes(r, rec)

	return r
}
