package observability

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RequestLogger logs one line per request. A websocket upgrade is logged as
// a stream session: its duration is the session lifetime, not a latency.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := logger.Info()
		if status >= 500 {
			event = logger.Error()
		} else if status >= 400 {
			event = logger.Warn()
		}

		msg := "http_request"
		if status == http.StatusSwitchingProtocols {
			msg = "stream_session"
		}
		event.
			Str("method", c.Request.Method).
			Str("path", requestPath(c)).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg(msg)
	}
}

// RequestMetricsMiddleware feeds the HTTP counters. Upgraded connections are
// counted separately and kept out of the latency histogram, where a session
// lifetime would swamp the buckets.
func RequestMetricsMiddleware(app string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if status == http.StatusSwitchingProtocols {
			RecordStreamUpgrade(app, requestPath(c))
			return
		}
		RecordHTTPRequest(app, c.Request.Method, requestPath(c), status, time.Since(start))
	}
}

func requestPath(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return path
	}
	return c.Request.URL.Path
}
