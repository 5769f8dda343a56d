package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/soundhive/soundhive-backend/internal/auth"
	"github.com/soundhive/soundhive-backend/internal/model"
)

type stubAuthenticator struct {
	proj        model.Projection
	err         error
	raw         string // records the token it was handed
	hadDeadline bool   // records whether the resolution context was bounded
}

func (s *stubAuthenticator) Authenticate(ctx context.Context, raw string) (model.Projection, error) {
	s.raw = raw
	_, s.hadDeadline = ctx.Deadline()
	if s.err != nil {
		return model.Projection{}, s.err
	}
	return s.proj, nil
}

func runAuthenticated(t *testing.T, a Authenticator, mutate func(*http.Request)) (*httptest.ResponseRecorder, model.Projection, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()

	var got model.Projection
	var attached bool
	h := Authenticate(a)(func(c echo.Context) error {
		got, attached = CurrentIdentity(c)
		if p, ok := auth.IdentityFromContext(c.Request().Context()); !ok || p.ID != got.ID {
			t.Error("identity missing from request context")
		}
		return c.NoContent(http.StatusOK)
	})
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	return rec, got, attached
}

func TestAuthenticateMissingToken(t *testing.T) {
	rec, _, attached := runAuthenticated(t, &stubAuthenticator{}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if attached {
		t.Fatal("no identity must be attached on rejection")
	}
}

func TestAuthenticateBearerHeader(t *testing.T) {
	stub := &stubAuthenticator{proj: model.Projection{ID: "u1", Role: model.RoleRegular}}
	rec, got, attached := runAuthenticated(t, stub, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer raw-token")
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !attached || got.ID != "u1" {
		t.Fatalf("identity not attached: %+v", got)
	}
	if stub.raw != "raw-token" {
		t.Errorf("extracted token = %q, want raw-token", stub.raw)
	}
}

func TestAuthenticateBoundsResolution(t *testing.T) {
	stub := &stubAuthenticator{proj: model.Projection{ID: "u1"}}
	_, _, _ = runAuthenticated(t, stub, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer raw-token")
	})
	if !stub.hadDeadline {
		t.Fatal("resolution must run under a deadline-bearing context")
	}
}

func TestAuthenticateCookieFallback(t *testing.T) {
	stub := &stubAuthenticator{proj: model.Projection{ID: "u2", Role: model.RoleArtist}}
	rec, got, _ := runAuthenticated(t, stub, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: AccessCookieName, Value: "cookie-token"})
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if stub.raw != "cookie-token" || got.ID != "u2" {
		t.Errorf("cookie token not used: raw=%q got=%+v", stub.raw, got)
	}
}

func TestAuthenticateInvalidToken(t *testing.T) {
	rec, _, _ := runAuthenticated(t, &stubAuthenticator{err: auth.ErrUnauthenticated}, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer bad")
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthenticateStoreOutageIs503(t *testing.T) {
	rec, _, _ := runAuthenticated(t, &stubAuthenticator{err: auth.ErrDependency}, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer fine")
	})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 (outage must not read as unauthenticated)", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	cases := []struct {
		name    string
		role    model.Role
		allowed []model.Role
		want    int
	}{
		{"artist allowed", model.RoleArtist, []model.Role{model.RoleArtist, model.RoleAdmin}, http.StatusOK},
		{"regular forbidden", model.RoleRegular, []model.Role{model.RoleArtist}, http.StatusForbidden},
		{"admin allowed", model.RoleAdmin, []model.Role{model.RoleArtist, model.RoleAdmin}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/artists", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.Set(identityKey, model.Projection{ID: "u1", Role: tc.role})

			if err := RequireRole(tc.allowed...)(handler)(c); err != nil {
				t.Fatalf("handler: %v", err)
			}
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}

	// No identity at all.
	req := httptest.NewRequest(http.MethodPost, "/v1/artists", nil)
	rec := httptest.NewRecorder()
	if err := RequireRole(model.RoleArtist)(handler)(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}
