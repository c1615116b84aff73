package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"loangate-backend/internal/shared/telemetry"
)

// ErrorResponse is the standardized error envelope.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	ErrorWithCause(c, status, code, message, details, nil)
}

// ErrorWithCause is Error plus a server-side cause that is logged but never
// sent to the client. Client errors log at warn level.
func ErrorWithCause(c *gin.Context, status int, code, message string, details interface{}, cause error) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if cause != nil {
		fields["error"] = cause
	}
	if appID := c.GetString("applicationId"); appID != "" {
		fields["application_id"] = appID
	}
	if status >= http.StatusInternalServerError {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Success: false,
		Code:    code,
		Message: message,
		Details: details,
	})
}
