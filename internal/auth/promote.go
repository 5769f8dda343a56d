package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/soundhive/soundhive-backend/internal/model"
	"github.com/soundhive/soundhive-backend/internal/repository"
)

// PromoteToArtist performs the one-way regular -> artist transition.
// The two-record write (role flip + profile upsert) runs as a single
// transaction in the store; on success the cached identity is dropped
// and the caller must force the client to re-authenticate, because the
// projection shape changes structurally.
//
// Re-promoting an existing artist is an idempotent no-op on the role
// and a last-write-wins update of genre/bio. Admins cannot demote
// themselves into artists.
func (s *Service) PromoteToArtist(ctx context.Context, principalID, genreRaw, bio string) (model.ArtistProfile, error) {
	genre, err := model.ParseGenre(genreRaw)
	if err != nil {
		return model.ArtistProfile{}, validationf("invalid genre")
	}
	bio = strings.TrimSpace(bio)
	if bio == "" {
		return model.ArtistProfile{}, validationf("bio is required")
	}

	u, err := s.Users.GetByID(ctx, principalID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.ArtistProfile{}, ErrUnauthenticated
	}
	if err != nil {
		return model.ArtistProfile{}, dependency("load user", err)
	}
	if !u.Role.CanPromoteTo(model.RoleArtist) && u.Role != model.RoleArtist {
		return model.ArtistProfile{}, validationf("role %s cannot become artist", u.Role)
	}

	profile, err := s.Artists.Promote(ctx, principalID, genre, bio)
	if err != nil {
		return model.ArtistProfile{}, dependency("promote", err)
	}

	// The store committed; the cached regular-shaped projection must
	// not survive it.
	s.Cache.Invalidate(ctx, principalID)
	s.Log.Info("promoted to artist", "principal", principalID, "genre", genre)

	if s.Events != nil {
		proj, err := s.resolveFromStore(ctx, principalID)
		if err == nil {
			s.Events.ArtistPromoted(ctx, proj)
		}
	}
	return profile, nil
}

// ErrNotOwner marks an attempt to edit a profile owned by someone else.
var ErrNotOwner = errors.New("not profile owner")

// UpdateArtistDetails lets an artist change their own genre and/or bio.
// The owning principal's cached projection is refreshed so the merged
// identity never goes stale past the commit.
func (s *Service) UpdateArtistDetails(ctx context.Context, principalID, profileID string, genreRaw, bio *string) (model.ArtistProfile, error) {
	if genreRaw == nil && bio == nil {
		return model.ArtistProfile{}, validationf("at least one of genre or bio is required")
	}
	var genre *model.Genre
	if genreRaw != nil {
		g, err := model.ParseGenre(*genreRaw)
		if err != nil {
			return model.ArtistProfile{}, validationf("invalid genre")
		}
		genre = &g
	}
	if bio != nil {
		trimmed := strings.TrimSpace(*bio)
		if trimmed == "" {
			return model.ArtistProfile{}, validationf("bio cannot be empty")
		}
		bio = &trimmed
	}

	profile, err := s.Artists.GetByID(ctx, profileID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.ArtistProfile{}, validationf("artist not found")
	}
	if err != nil {
		return model.ArtistProfile{}, dependency("load artist profile", err)
	}
	if profile.UserID != principalID {
		return model.ArtistProfile{}, ErrNotOwner
	}

	if err := s.Artists.UpdateDetails(ctx, profileID, genre, bio); err != nil {
		return model.ArtistProfile{}, dependency("update artist profile", err)
	}

	s.Cache.Invalidate(ctx, principalID)
	if proj, err := s.resolveFromStore(ctx, principalID); err == nil {
		s.Cache.Put(ctx, proj)
	}

	updated, err := s.Artists.GetByID(ctx, profileID)
	if err != nil {
		return model.ArtistProfile{}, dependency("load artist profile", err)
	}
	return updated, nil
}
