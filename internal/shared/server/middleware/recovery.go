package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"loangate-backend/internal/shared/metrics"
	"loangate-backend/internal/shared/server/respond"
	"loangate-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into the standard 500 envelope. Nothing is
// written when the handler already started the response.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			metrics.HTTPPanicsTotal.WithLabelValues(route).Inc()
			telemetry.Error("http.panic", map[string]any{
				"request_id":     RequestIDFromContext(c),
				"application_id": c.GetString(ApplicationIDKey),
				"route":          route,
				"method":         c.Request.Method,
				"panic":          fmt.Sprint(rec),
				"stack":          string(debug.Stack()),
			})
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal_error", "Unexpected server error", nil)
		}()
		c.Next()
	}
}
