package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/sms-webhook-inbox/internal/middleware"
	"github.com/PratikDhanave/sms-webhook-inbox/internal/models"
	"github.com/PratikDhanave/sms-webhook-inbox/internal/store"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// RegisterMessageRoutes registers the serving-path endpoint.
//
// GET /messages?limit=&offset=&from=&since=&q=
// - limit 1..100 (default 50), offset >= 0 (default 0)
// - ordered by ts, then message_id
func RegisterMessageRoutes(r gin.IRoutes, st store.MessageStore, logger *slog.Logger) {
	r.GET("/messages", func(c *gin.Context) {
		var violations []models.Violation

		limit, v := intParam(c, "limit", defaultLimit, 1, maxLimit)
		violations = append(violations, v...)
		offset, v := intParam(c, "offset", 0, 0, -1)
		violations = append(violations, v...)

		if len(violations) > 0 {
			c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Detail: violations})
			return
		}

		items, total, err := st.Query(c.Request.Context(), store.QueryFilter{
			Limit:    limit,
			Offset:   offset,
			From:     c.Query("from"),
			Since:    c.Query("since"),
			Contains: c.Query("q"),
		})
		if err != nil {
			logger.Error("list messages failed", "request_id", middleware.RequestID(c), "error", err)
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Internal Server Error"})
			return
		}

		c.JSON(http.StatusOK, models.MessageListResponse{
			Data:   items,
			Total:  total,
			Limit:  limit,
			Offset: offset,
		})
	})
}

// intParam reads an optional integer query parameter bounded by [lo, hi];
// hi < 0 means unbounded.
func intParam(c *gin.Context, name string, def, lo, hi int) (int, []models.Violation) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return def, nil
	}

	loc := []string{"query", name}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, []models.Violation{{Loc: loc, Msg: "must be an integer"}}
	}
	if n < lo {
		return 0, []models.Violation{{Loc: loc, Msg: "must be >= " + strconv.Itoa(lo)}}
	}
	if hi >= 0 && n > hi {
		return 0, []models.Violation{{Loc: loc, Msg: "must be <= " + strconv.Itoa(hi)}}
	}
	return n, nil
}
