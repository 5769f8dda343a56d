package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/soundhive/soundhive-backend/internal/auth"
	"github.com/soundhive/soundhive-backend/internal/model"
)

// identityKey is the echo.Context key under which the resolved
// projection is stored.
const identityKey = "identity"

// Authenticator is the slice of the auth service the middleware needs.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (model.Projection, error)
}

// AccessCookieName and RefreshCookieName are the httpOnly cookies that
// carry the token pair for browser clients. API clients use the
// Authorization header instead.
const (
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"
)

// resolveTimeout bounds identity resolution: on a cache miss the
// resolver falls through to the store, and that read must not hold the
// request open indefinitely.
const resolveTimeout = 5 * time.Second

// ExtractAccessToken pulls the raw bearer token from the Authorization
// header, falling back to the access cookie. Empty string when absent.
func ExtractAccessToken(c echo.Context) string {
	if h := c.Request().Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if ck, err := c.Cookie(AccessCookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	return ""
}

// Authenticate returns an Echo middleware that resolves the bearer
// token into an identity projection and attaches it both to the echo
// context and to the request's context.Context. Requests without a
// resolvable identity are rejected with 401; a store outage on the
// resolution path surfaces as 503, never as 401.
func Authenticate(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := ExtractAccessToken(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), resolveTimeout)
			proj, err := a.Authenticate(ctx, raw)
			cancel()
			if err != nil {
				if errors.Is(err, auth.ErrDependency) {
					return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": auth.UserMessage(err)})
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set(identityKey, proj)
			req := c.Request()
			c.SetRequest(req.WithContext(auth.ContextWithIdentity(req.Context(), proj)))
			return next(c)
		}
	}
}

// CurrentIdentity returns the projection attached by Authenticate.
func CurrentIdentity(c echo.Context) (model.Projection, bool) {
	p, ok := c.Get(identityKey).(model.Projection)
	return p, ok
}
