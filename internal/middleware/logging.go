package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"anoa.com/devconnector/pkg/response"
	"github.com/gin-gonic/gin"
)

// RequestLogger logs one structured line per request through slog. Paths in
// skip are not logged.
func RequestLogger(skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		if _, ok := skipped[path]; ok {
			return
		}

		status := c.Writer.Status()
		fields := []any{
			slog.Int("status", status),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("ip", c.ClientIP()),
			slog.Duration("latency", time.Since(start)),
			slog.String("user_agent", c.Request.UserAgent()),
		}
		if userID, ok := c.Get(response.ContextUserID); ok {
			fields = append(fields, slog.Any("user_id", userID))
		}

		ctx := c.Request.Context()
		if status >= http.StatusInternalServerError {
			slog.ErrorContext(ctx, "request failed", fields...)
			return
		}
		slog.InfoContext(ctx, "request processed", fields...)
	}
}

// Recovery turns a panic into a JSON 500 and logs it through slog.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		slog.Error("panic recovered",
			"path", c.Request.URL.Path,
			"panic", recovered,
			"stack", string(debug.Stack()),
		)
		response.Msg(c, http.StatusInternalServerError, "Server error")
		c.Abort()
	})
}
