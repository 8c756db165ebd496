package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"grc-backend/internal/shared/telemetry"
)

// Context keys handlers set so the request log can correlate imports.
const (
	ImportSchemaKey = "importSchema"
	ImportFileKey   = "importFile"
	RecordCountKey  = "recordCount"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		userID, _ := c.Get(userIDKey)
		isGuest, _ := c.Get(isGuestKey)
		schema, _ := c.Get(ImportSchemaKey)
		fileName, _ := c.Get(ImportFileKey)
		records, _ := c.Get(RecordCountKey)

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"user_id":     userID,
			"is_guest":    isGuest,
			"schema":      schema,
			"file_name":   fileName,
			"records":     records,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}
		telemetry.Info("request.complete", fields)
	}
}
