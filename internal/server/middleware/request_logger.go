package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TrueSelph/jvserve/internal/logger"
	"github.com/TrueSelph/jvserve/internal/utils"
)

// RequestLogger tags every request with a generated ID and logs its outcome.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := utils.GenerateRequestID()
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		event := logger.Logger.Info()
		if c.Writer.Status() >= 500 {
			event = logger.Logger.Error()
		}
		event.
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request completed")
	}
}
