package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abelbrown/marketpulse/internal/logging"
	"github.com/abelbrown/marketpulse/internal/otel"
)

// requestLogger records every request as an http.request event.
func requestLogger(events *otel.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := otel.LevelDebug
		if status >= 500 {
			level = otel.LevelError
		} else if status >= 400 {
			level = otel.LevelWarn
		}

		events.Emit(otel.Event{
			Level:  level,
			Kind:   otel.KindHTTPRequest,
			Comp:   "http",
			Status: status,
			Dur:    time.Since(start),
			Msg:    c.Request.Method + " " + c.Request.URL.Path,
			Extra:  map[string]any{"ip": c.ClientIP()},
		})
		logging.Debug("request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", status, "dur", time.Since(start))
	}
}
