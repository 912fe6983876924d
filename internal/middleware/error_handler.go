package middleware

import (
	"errors"
	"net/http"

	"adaptiveCreative/domain"
	"adaptiveCreative/internal/rest"
	"adaptiveCreative/pkg/logger"
	"adaptiveCreative/pkg/trace"

	"github.com/labstack/echo/v4"
)

// StatusFor maps an error returned by a handler to its HTTP status.
func StatusFor(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotMatured),
		errors.Is(err, domain.ErrAlreadyTransferred),
		errors.Is(err, domain.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPreconditionFailed):
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler renders every error as a rest.ResponseError body.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := StatusFor(err)
	msg := err.Error()

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(he.Code)
		}
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request_failed",
			"trace_id", trace.TraceIDFromContext(c.Request().Context()),
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err,
		)
		msg = http.StatusText(status)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, rest.ResponseError{Message: msg})
	}
	if writeErr != nil {
		logger.Warn("error_response_write_failed", "error", writeErr)
	}
}
