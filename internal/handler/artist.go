package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/soundhive/soundhive-backend/internal/middleware"
	"github.com/soundhive/soundhive-backend/internal/model"
	"github.com/soundhive/soundhive-backend/internal/repository"
)

// ArtistReader covers the read-only artist queries that bypass the auth
// service. *repository.ArtistRepo satisfies it.
type ArtistReader interface {
	GetByID(ctx context.Context, id string) (model.ArtistProfile, error)
	List(ctx context.Context) ([]model.ArtistProfile, error)
}

// ArtistHandler serves artist promotion and profile endpoints.
type ArtistHandler struct {
	Svc          AuthService
	Artists      ArtistReader
	CookieSecure bool
}

func NewArtistHandler(svc AuthService, artists ArtistReader, cookieSecure bool) *ArtistHandler {
	return &ArtistHandler{Svc: svc, Artists: artists, CookieSecure: cookieSecure}
}

type promoteReq struct {
	Genre string `json:"genre"`
	Bio   string `json:"bio"`
}
type updateArtistReq struct {
	Genre *string `json:"genre"`
	Bio   *string `json:"bio"`
}

// artistResp is the wire shape of a profile.
type artistResp struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Genre     string    `json:"genre"`
	Bio       string    `json:"bio"`
	LikeCount uint64    `json:"like_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func artistResponse(a model.ArtistProfile) artistResp {
	return artistResp{
		ID:        a.ID,
		UserID:    a.UserID,
		Genre:     a.Genre.String(),
		Bio:       a.Bio,
		LikeCount: a.LikeCount,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// Promote turns the calling regular principal into an artist. The
// session is revoked server-side as part of the transition, so both
// token cookies are cleared and the client has to sign in again to get
// an artist-shaped identity.
func (h *ArtistHandler) Promote(c echo.Context) error {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	var req promoteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	profile, err := h.Svc.PromoteToArtist(ctx, ident.ID, req.Genre, req.Bio)
	if err != nil {
		return writeError(c, err)
	}
	ClearAuthCookies(c, h.CookieSecure)
	return c.JSON(http.StatusCreated, echo.Map{
		"artist":  artistResponse(profile),
		"message": "promoted to artist, sign in again",
	})
}

// Update edits the caller's own artist profile.
func (h *ArtistHandler) Update(c echo.Context) error {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	var req updateArtistReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	profile, err := h.Svc.UpdateArtistDetails(ctx, ident.ID, c.Param("id"), req.Genre, req.Bio)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, artistResponse(profile))
}

// Get returns one artist profile by id. Public.
func (h *ArtistHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	profile, err := h.Artists.GetByID(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "artist not found"})
	}
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "service unavailable"})
	}
	return c.JSON(http.StatusOK, artistResponse(profile))
}

// List returns all artist profiles. Public.
func (h *ArtistHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	profiles, err := h.Artists.List(ctx)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "service unavailable"})
	}
	out := make([]artistResp, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, artistResponse(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"artists": out, "count": len(out)})
}
