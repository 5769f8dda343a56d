package model

import "time"

// PublicUser is the secretless subset of User that is safe to expose to
// clients and to cache. PasswordHash and CurrentRefreshHash are not
// fields of this type, so they can never leak through a projection.
type PublicUser struct {
	ID        string
	Name      string
	Handle    string
	Email     string
	Role      Role
	AvatarURL string
	BirthDate time.Time
}

// ArtistDetails is the role-specific part of a resolved artist identity.
type ArtistDetails struct {
	ProfileID string
	Genre     Genre
	Bio       string
	LikeCount uint64
}

// Identity is the tagged variant produced by role hydration: every
// principal has the base User part, and exactly the artists carry the
// ArtistDetails part. Keeping the two halves separate here makes the
// merge into the flat external view explicit and auditable.
type Identity struct {
	User   PublicUser
	Artist *ArtistDetails // non-nil iff User.Role == RoleArtist
}

// NewIdentity builds an Identity from store records, stripping secret
// fields. profile must be non-nil for artists and nil otherwise; the
// resolver enforces that before calling.
func NewIdentity(u User, profile *ArtistProfile) Identity {
	id := Identity{User: PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Handle:    u.Handle,
		Email:     u.Email,
		Role:      u.Role,
		AvatarURL: u.AvatarURL,
		BirthDate: u.BirthDate,
	}}
	if profile != nil {
		id.Artist = &ArtistDetails{
			ProfileID: profile.ID,
			Genre:     profile.Genre,
			Bio:       profile.Bio,
			LikeCount: profile.LikeCount,
		}
	}
	return id
}

// Projection is the flattened, single-namespace view of an Identity.
// It is what gets written to the identity cache and attached to the
// request context, so downstream handlers never need to know that
// artists span two records. Artist fields are omitted from JSON for
// regular and admin principals.
type Projection struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Handle    string    `json:"handle"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	BirthDate time.Time `json:"birth_date"`

	ArtistID  string `json:"artist_id,omitempty"`
	Genre     Genre  `json:"genre,omitempty"`
	Bio       string `json:"bio,omitempty"`
	LikeCount uint64 `json:"like_count,omitempty"`
}

// Project flattens the identity into its external view.
func (i Identity) Project() Projection {
	p := Projection{
		ID:        i.User.ID,
		Name:      i.User.Name,
		Handle:    i.User.Handle,
		Email:     i.User.Email,
		Role:      i.User.Role,
		AvatarURL: i.User.AvatarURL,
		BirthDate: i.User.BirthDate,
	}
	if i.Artist != nil {
		p.ArtistID = i.Artist.ProfileID
		p.Genre = i.Artist.Genre
		p.Bio = i.Artist.Bio
		p.LikeCount = i.Artist.LikeCount
	}
	return p
}

// IsArtist reports whether the projection carries artist fields.
func (p Projection) IsArtist() bool { return p.Role == RoleArtist }
