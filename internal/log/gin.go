package log

import (
	"time"

	"github.com/gin-gonic/gin"
)

// ContextKeyHijacked marks a request whose connection was taken over by a
// WebSocket upgrade.
const ContextKeyHijacked = "connection_hijacked"

// MarkHijacked must be called before upgrading the connection so that
// middleware stops touching c.Writer afterwards.
func MarkHijacked(c *gin.Context) {
	c.Set(ContextKeyHijacked, true)
}

// IsHijacked reports whether MarkHijacked was called for c.
func IsHijacked(c *gin.Context) bool {
	hijacked, exists := c.Get(ContextKeyHijacked)
	if !exists {
		return false
	}
	v, ok := hijacked.(bool)
	return ok && v
}

// GinLogger returns a Gin middleware that logs requests using zerolog
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		// Reading c.Writer.Status() on a hijacked connection makes gin write
		// headers to it.
		if IsHijacked(c) {
			return
		}

		status := c.Writer.Status()
		if raw != "" {
			path = path + "?" + raw
		}

		event := Info()
		if status >= 500 {
			event = Error()
		} else if status >= 400 {
			event = Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP())

		if errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String(); errorMessage != "" {
			event.Str("error", errorMessage)
		}

		event.Msg("request")
	}
}
