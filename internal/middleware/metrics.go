package middleware

import (
	"strconv"
	"time"

	"adaptiveCreative/pkg/metrics"

	"github.com/labstack/echo/v4"
)

// RequestMetrics observes request latency labelled by route template, so
// /brands/a and /brands/b share one series.
func RequestMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = StatusFor(err)
			}
			metrics.HTTPRequestDuration.
				WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}
