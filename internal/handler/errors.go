package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/soundhive/soundhive-backend/internal/auth"
)

// writeError maps the auth error taxonomy onto HTTP status codes. Raw
// internal errors never reach the client; only the taxonomy messages do.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, auth.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": auth.UserMessage(err)})
	case errors.Is(err, auth.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": auth.UserMessage(err)})
	case errors.Is(err, auth.ErrNotOwner):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, auth.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": auth.UserMessage(err)})
	case errors.Is(err, auth.ErrDependency):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": auth.UserMessage(err)})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
