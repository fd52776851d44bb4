package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/sms-webhook-inbox/internal/auth"
	"github.com/PratikDhanave/sms-webhook-inbox/internal/ingest"
	"github.com/PratikDhanave/sms-webhook-inbox/internal/middleware"
	"github.com/PratikDhanave/sms-webhook-inbox/internal/models"
	"github.com/PratikDhanave/sms-webhook-inbox/internal/validation"
)

// RegisterWebhookRoutes registers the ingestion-path endpoint.
//
// POST /webhook
// - Requires X-Signature: hex HMAC-SHA256 of the raw body
// - Durable: returns success only after DB write completes
// - Idempotent: duplicates detected via message_id uniqueness, answered 200
func RegisterWebhookRoutes(r gin.IRoutes, in *ingest.Ingestor, logger *slog.Logger) {
	r.POST("/webhook", func(c *gin.Context) {
		// The signature covers these exact bytes, so read them before any decoding.
		body, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "could not read request body"})
			return
		}

		res, err := in.Ingest(c.Request.Context(), body, c.GetHeader(auth.SignatureHeader))
		if err != nil {
			logger.Error("webhook persistence failed",
				"request_id", middleware.RequestID(c),
				"message_id", res.MessageID,
				"error", err,
			)
			middleware.AddLogFields(c, "message_id", res.MessageID, "result", "error")
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Internal Server Error"})
			return
		}

		middleware.AddLogFields(c, "result", string(res.Outcome))

		switch res.Outcome {
		case ingest.OutcomeInvalidSignature:
			c.JSON(res.StatusCode, models.ErrorResponse{Detail: "invalid signature"})
		case ingest.OutcomeValidationError:
			c.JSON(res.StatusCode, models.ErrorResponse{Detail: validation.ToDetail(res.Violations)})
		default:
			middleware.AddLogFields(c, "message_id", res.MessageID, "dup", res.Duplicate())
			c.JSON(res.StatusCode, models.WebhookResponse{Status: "ok"})
		}
	})
}
