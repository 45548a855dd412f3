package middleware

import (
	"log/slog"
	"strings"
	"time"

	"chatassist.app/api/common/id"
	"chatassist.app/api/common/logger"
	"github.com/gin-gonic/gin"
)

// Logger writes one record per request. Event-stream responses are logged when
// the stream closes, with their lifetime as latency. Routes addressing a
// conversation by path carry its id as a log field.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		if convID, err := id.Parse(c.Param("id")); err == nil && strings.Contains(c.FullPath(), "conversation") {
			ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{ConversationID: &convID})
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()

		status := c.Writer.Status()
		ctx := c.Request.Context()
		streamed := strings.HasPrefix(c.Writer.Header().Get("Content-Type"), "text/event-stream")

		attrs := []any{
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"bytes", c.Writer.Size(),
			"client_ip", c.ClientIP(),
		}
		if streamed {
			attrs = append(attrs, "stream", true)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			slog.ErrorContext(ctx, "request failed", attrs...)
		case status >= 400:
			slog.WarnContext(ctx, "request rejected", attrs...)
		case streamed:
			slog.InfoContext(ctx, "stream closed", attrs...)
		default:
			slog.InfoContext(ctx, "request", attrs...)
		}
	}
}
