package middleware

import (
	"adaptiveCreative/pkg/trace"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TraceID propagates X-Request-ID into the request context, generating one
// when the caller sent none.
func TraceID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)

			req := c.Request()
			c.SetRequest(req.WithContext(trace.WithTraceID(req.Context(), id)))
			return next(c)
		}
	}
}
