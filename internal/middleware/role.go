package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/soundhive/soundhive-backend/internal/model"
)

// RequireRole enforces that the authenticated identity has one of the
// given roles. It assumes Authenticate ran earlier in the chain; a
// request without an identity is rejected the same way as one with a
// disallowed role.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := CurrentIdentity(c)
			if !ok || !allowed[p.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
