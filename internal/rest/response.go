package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// ResponseError represent the response error struct
type ResponseError struct {
	Message string `json:"message"`
}

const defaultTimeout = 10 * time.Second

func badRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
}

func brandParam(c echo.Context) (string, error) {
	brandID := c.Param("brand_id")
	if brandID == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "brand_id is required")
	}
	return brandID, nil
}

// queryInt reads an optional non-negative integer query parameter.
func queryInt(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return v, nil
}
