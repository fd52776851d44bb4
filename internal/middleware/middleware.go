package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/PratikDhanave/sms-webhook-inbox/internal/metrics"
	"github.com/PratikDhanave/sms-webhook-inbox/internal/models"
)

const (
	requestIDKey = "request_id"
	logFieldsKey = "log_fields"

	// RequestIDHeader echoes the generated request id to the caller.
	RequestIDHeader = "X-Request-ID"

	unmatchedPath = "unmatched"
)

// RequestLogger wraps every route: it assigns a request id, times the
// request, records http_requests_total and the latency histogram, and writes
// one structured log line when the request finishes. Handlers add fields to
// that line with AddLogFields.
func RequestLogger(logger *slog.Logger, rec metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := uuid.New().String()
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)

		c.Next()

		latencyMS := float64(time.Since(start).Microseconds()) / 1000
		status := c.Writer.Status()

		// Route templates keep label cardinality bounded; unknown paths share one label.
		path := c.FullPath()
		if path == "" {
			path = unmatchedPath
		}

		rec.IncHTTPRequest(path, status)
		rec.ObserveLatency(latencyMS)

		attrs := []any{
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", math.Round(latencyMS*1000) / 1000,
		}
		if extra, ok := c.Get(logFieldsKey); ok {
			attrs = append(attrs, extra.([]any)...)
		}
		logger.Info("request finished", attrs...)
	}
}

// Recovery turns a panic into a bare 500 so no stack trace reaches the caller.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("unhandled panic", "request_id", RequestID(c), "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Internal Server Error"})
	})
}

// RequestID returns the id assigned by RequestLogger, or "".
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// AddLogFields appends key/value pairs to the request's log line.
func AddLogFields(c *gin.Context, kv ...any) {
	var fields []any
	if v, ok := c.Get(logFieldsKey); ok {
		fields = v.([]any)
	}
	c.Set(logFieldsKey, append(fields, kv...))
}
