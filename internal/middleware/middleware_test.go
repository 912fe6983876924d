//go:build !integration

package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"adaptiveCreative/domain"
	"adaptiveCreative/pkg/trace"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("load: %w", domain.ErrNotFound), http.StatusNotFound},
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{domain.ErrNotMatured, http.StatusConflict},
		{domain.ErrAlreadyTransferred, http.StatusConflict},
		{domain.ErrRunInProgress, http.StatusConflict},
		{domain.ErrPreconditionFailed, http.StatusPreconditionFailed},
		{echo.NewHTTPError(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed},
		{errors.New("database is down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, StatusFor(tc.err), tc.err.Error())
	}
}

func TestErrorHandlerHidesInternalErrors(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	e.GET("/boom", func(c echo.Context) error { return errors.New("pq: password leaked") })
	e.GET("/missing", func(c echo.Context) error { return fmt.Errorf("%w: ad 7", domain.ErrNotFound) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "password")

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"message":"not found: ad 7"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTraceIDPropagates(t *testing.T) {
	e := echo.New()
	e.Use(TraceID())

	var seen string
	e.GET("/", func(c echo.Context) error {
		seen = trace.TraceIDFromContext(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-42")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, "req-42", seen)
	require.Equal(t, "req-42", rec.Header().Get(echo.HeaderXRequestID))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	require.NotEqual(t, "req-42", seen)
	require.Equal(t, seen, rec.Header().Get(echo.HeaderXRequestID))
}
