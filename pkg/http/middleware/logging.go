package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	applogger "TraderGenie/pkg/logger"
)

// RequestLogging logs one line per request at INFO, or WARN for 4xx.
// 5xx lines are left to Metrics, which logs them at ERROR.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	if l == nil {
		l = applogger.Nop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			fields := []applogger.Field{
				applogger.String("method", c.Request().Method),
				applogger.String("path", c.Request().URL.Path),
				applogger.String("route", c.Path()),
				applogger.Int("status", status),
				applogger.Duration("latency_ms", time.Since(start)),
				applogger.String("remote_ip", c.RealIP()),
			}
			switch {
			case status >= 500:
			case status >= 400:
				l.Warn("http request", fields...)
			default:
				l.Info("http request", fields...)
			}
			return nil
		}
	}
}
