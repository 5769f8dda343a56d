package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/soundhive/soundhive-backend/internal/middleware"
)

// UserHandler serves the authenticated principal's own profile.
type UserHandler struct {
	Svc AuthService
}

func NewUserHandler(svc AuthService) *UserHandler { return &UserHandler{Svc: svc} }

type updateProfileReq struct {
	Name      *string `json:"name"`
	Email     *string `json:"email"`
	BirthDate *string `json:"birth_date"`
}
type changePasswordReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Me returns the resolved identity attached by the auth middleware. No
// store round trip; the middleware already did the hydration.
func (h *UserHandler) Me(c echo.Context) error {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	return c.JSON(http.StatusOK, ident)
}

// UpdateMe applies a partial profile update and returns the fresh
// projection.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	proj, err := h.Svc.UpdateProfile(ctx, ident.ID, req.Name, req.Email, req.BirthDate)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, proj)
}

// ChangePassword swaps the credential and revokes the session, so the
// client must sign in again.
func (h *UserHandler) ChangePassword(c echo.Context) error {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Svc.ChangePassword(ctx, ident.ID, req.OldPassword, req.NewPassword); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password changed, sign in again"})
}
