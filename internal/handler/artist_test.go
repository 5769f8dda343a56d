package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/soundhive/soundhive-backend/internal/auth"
	"github.com/soundhive/soundhive-backend/internal/middleware"
	"github.com/soundhive/soundhive-backend/internal/model"
	"github.com/soundhive/soundhive-backend/internal/repository"
)

type stubArtistReader struct {
	profile model.ArtistProfile
	list    []model.ArtistProfile
	err     error
}

func (s *stubArtistReader) GetByID(_ context.Context, _ string) (model.ArtistProfile, error) {
	return s.profile, s.err
}
func (s *stubArtistReader) List(_ context.Context) ([]model.ArtistProfile, error) {
	return s.list, s.err
}

func testProfile() model.ArtistProfile {
	return model.ArtistProfile{
		ID: "ap1", UserID: "u1", Genre: model.GenreJazz, Bio: "plays",
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
}

func TestPromoteClearsCookiesAndReturns201(t *testing.T) {
	stub := &stubService{profile: testProfile()}
	h := NewArtistHandler(stub, &stubArtistReader{}, false)

	rec := doJSON(t, h.Promote, http.MethodPost, "/v1/artists",
		`{"genre":"jazz","bio":"plays"}`, func(c echo.Context) {
			c.Set("identity", model.Projection{ID: "u1", Role: model.RoleRegular})
		})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if stub.gotPrincipal != "u1" {
		t.Errorf("principal = %q", stub.gotPrincipal)
	}
	// The old regular-shaped session must not survive promotion.
	for _, name := range []string{middleware.AccessCookieName, middleware.RefreshCookieName} {
		cleared := false
		for _, ck := range rec.Result().Cookies() {
			if ck.Name == name && ck.Value == "" && ck.MaxAge < 0 {
				cleared = true
			}
		}
		if !cleared {
			t.Errorf("cookie %s not cleared after promotion", name)
		}
	}
}

func TestPromoteInvalidGenre(t *testing.T) {
	stub := &stubService{err: auth.ErrValidation}
	h := NewArtistHandler(stub, &stubArtistReader{}, false)

	rec := doJSON(t, h.Promote, http.MethodPost, "/v1/artists",
		`{"genre":"polka","bio":"plays"}`, func(c echo.Context) {
			c.Set("identity", model.Projection{ID: "u1"})
		})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPromoteUnauthenticated(t *testing.T) {
	h := NewArtistHandler(&stubService{}, &stubArtistReader{}, false)
	rec := doJSON(t, h.Promote, http.MethodPost, "/v1/artists",
		`{"genre":"jazz","bio":"plays"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestUpdateArtistNotOwner(t *testing.T) {
	stub := &stubService{err: auth.ErrNotOwner}
	h := NewArtistHandler(stub, &stubArtistReader{}, false)

	rec := doJSON(t, h.Update, http.MethodPut, "/v1/artists/ap2",
		`{"bio":"new"}`, func(c echo.Context) {
			c.Set("identity", model.Projection{ID: "u1", Role: model.RoleArtist})
			c.SetParamNames("id")
			c.SetParamValues("ap2")
		})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestUpdateArtistDelegatesProfileID(t *testing.T) {
	stub := &stubService{profile: testProfile()}
	h := NewArtistHandler(stub, &stubArtistReader{}, false)

	rec := doJSON(t, h.Update, http.MethodPut, "/v1/artists/ap1",
		`{"genre":"rock"}`, func(c echo.Context) {
			c.Set("identity", model.Projection{ID: "u1", Role: model.RoleArtist})
			c.SetParamNames("id")
			c.SetParamValues("ap1")
		})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if stub.gotProfileID != "ap1" || stub.gotPrincipal != "u1" {
		t.Errorf("delegation: profile=%q principal=%q", stub.gotProfileID, stub.gotPrincipal)
	}
}

func TestGetArtistNotFound(t *testing.T) {
	h := NewArtistHandler(&stubService{}, &stubArtistReader{err: repository.ErrNotFound}, false)
	rec := doJSON(t, h.Get, http.MethodGet, "/v1/artists/nope", ``, func(c echo.Context) {
		c.SetParamNames("id")
		c.SetParamValues("nope")
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestListArtists(t *testing.T) {
	h := NewArtistHandler(&stubService{}, &stubArtistReader{
		list: []model.ArtistProfile{testProfile()},
	}, false)
	rec := doJSON(t, h.List, http.MethodGet, "/v1/artists", ``, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Artists []artistResp `json:"artists"`
		Count   int          `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 1 || body.Artists[0].Genre != "jazz" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestMeReturnsAttachedIdentity(t *testing.T) {
	h := NewUserHandler(&stubService{})
	rec := doJSON(t, h.Me, http.MethodGet, "/v1/me", ``, func(c echo.Context) {
		c.Set("identity", model.Projection{ID: "u1", Role: model.RoleArtist, Genre: model.GenreRap})
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var p model.Projection
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.ID != "u1" || p.Genre != model.GenreRap {
		t.Errorf("unexpected projection: %+v", p)
	}
}

func TestChangePasswordWrongOldIs400(t *testing.T) {
	stub := &stubService{err: auth.ErrValidation}
	h := NewUserHandler(stub)
	rec := doJSON(t, h.ChangePassword, http.MethodPut, "/v1/me/password",
		`{"old_password":"bad","new_password":"new"}`, func(c echo.Context) {
			c.Set("identity", model.Projection{ID: "u1"})
		})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
