package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/soundhive/soundhive-backend/internal/auth"
	"github.com/soundhive/soundhive-backend/internal/middleware"
	"github.com/soundhive/soundhive-backend/internal/model"
)

// dbTimeout bounds every handler-initiated operation against the store.
const dbTimeout = 5 * time.Second

// AuthService is the slice of the auth service the HTTP layer consumes.
type AuthService interface {
	SignUp(ctx context.Context, name, email, password, birthDate string) (auth.Session, error)
	SignIn(ctx context.Context, identifier, password string) (auth.Session, error)
	Refresh(ctx context.Context, rawRefresh string) (auth.Session, error)
	SignOut(ctx context.Context, principalID string) error
	CheckEmail(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, principalID string, name, email, birthDate *string) (model.Projection, error)
	ChangePassword(ctx context.Context, principalID, oldPassword, newPassword string) error
	PromoteToArtist(ctx context.Context, principalID, genre, bio string) (model.ArtistProfile, error)
	UpdateArtistDetails(ctx context.Context, principalID, profileID string, genre, bio *string) (model.ArtistProfile, error)
}

// AuthHandler bundles dependencies for the session endpoints.
type AuthHandler struct {
	Svc          AuthService
	CookieSecure bool
}

func NewAuthHandler(svc AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{Svc: svc, CookieSecure: cookieSecure}
}

// ----- DTOs -----

type signupReq struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	BirthDate string `json:"birth_date"` // YYYY-MM-DD
}
type signinReq struct {
	Identifier string `json:"identifier"` // email or handle
	Email      string `json:"email"`
	Password   string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type checkEmailReq struct {
	Email string `json:"email"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type sessionResp struct {
	User    model.Projection `json:"user"`
	Access  tokenPart        `json:"access"`
	Refresh tokenPart        `json:"refresh"`
}

func sessionResponse(sess auth.Session) sessionResp {
	return sessionResp{
		User:    sess.Identity,
		Access:  tokenPart{Token: sess.AccessToken, Expires: sess.AccessExpires},
		Refresh: tokenPart{Token: sess.RefreshToken, Expires: sess.RefreshExpires},
	}
}

// ----- cookie helpers -----

func (h *AuthHandler) setAuthCookies(c echo.Context, sess auth.Session) {
	c.SetCookie(&http.Cookie{
		Name: middleware.AccessCookieName, Value: sess.AccessToken,
		Path: "/", Expires: sess.AccessExpires,
		HttpOnly: true, Secure: h.CookieSecure, SameSite: http.SameSiteLaxMode,
	})
	c.SetCookie(&http.Cookie{
		Name: middleware.RefreshCookieName, Value: sess.RefreshToken,
		Path: "/", Expires: sess.RefreshExpires,
		HttpOnly: true, Secure: h.CookieSecure, SameSite: http.SameSiteLaxMode,
	})
}

// ClearAuthCookies expires both token cookies. Also used by the artist
// promotion endpoint, which must force re-authentication.
func ClearAuthCookies(c echo.Context, secure bool) {
	for _, name := range []string{middleware.AccessCookieName, middleware.RefreshCookieName} {
		c.SetCookie(&http.Cookie{
			Name: name, Value: "",
			Path: "/", MaxAge: -1,
			HttpOnly: true, Secure: secure, SameSite: http.SameSiteLaxMode,
		})
	}
}

// ----- endpoints -----

// SignUp creates an account and opens the first session.
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	sess, err := h.Svc.SignUp(ctx, req.Name, req.Email, req.Password, req.BirthDate)
	if err != nil {
		return writeError(c, err)
	}
	h.setAuthCookies(c, sess)
	return c.JSON(http.StatusCreated, sessionResponse(sess))
}

// SignIn verifies credentials and returns a new token pair.
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signinReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	identifier := req.Identifier
	if identifier == "" {
		identifier = req.Email
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	sess, err := h.Svc.SignIn(ctx, identifier, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	h.setAuthCookies(c, sess)
	return c.JSON(http.StatusOK, sessionResponse(sess))
}

// Refresh rotates the refresh token. The token comes from the cookie
// for browser clients or the body for API clients.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := ""
	if ck, err := c.Cookie(middleware.RefreshCookieName); err == nil {
		raw = ck.Value
	}
	if raw == "" {
		var req refreshReq
		_ = c.Bind(&req)
		raw = strings.TrimSpace(req.RefreshToken)
	}
	if raw == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	sess, err := h.Svc.Refresh(ctx, raw)
	if err != nil {
		return writeError(c, err)
	}
	h.setAuthCookies(c, sess)
	return c.JSON(http.StatusOK, sessionResponse(sess))
}

// SignOut revokes the current session and clears both cookies.
// Requires authentication.
func (h *AuthHandler) SignOut(c echo.Context) error {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Svc.SignOut(ctx, ident.ID); err != nil {
		return writeError(c, err)
	}
	ClearAuthCookies(c, h.CookieSecure)
	return c.JSON(http.StatusOK, echo.Map{"message": "signed out"})
}

// CheckEmail reports whether an account with the given email exists.
func (h *AuthHandler) CheckEmail(c echo.Context) error {
	var req checkEmailReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	exists, err := h.Svc.CheckEmail(ctx, req.Email)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"email_exists": exists})
}
