package model

import (
	"fmt"
	"strings"
	"time"
)

// Genre is the closed set of artist genres accepted at promotion time.
type Genre string

const (
	GenreRock  Genre = "rock"
	GenrePop   Genre = "pop"
	GenreRap   Genre = "rap"
	GenreJazz  Genre = "jazz"
	GenreBlues Genre = "blues"
)

// ParseGenre lowercases and validates a raw genre string.
func ParseGenre(s string) (Genre, error) {
	g := Genre(strings.ToLower(strings.TrimSpace(s)))
	switch g {
	case GenreRock, GenrePop, GenreRap, GenreJazz, GenreBlues:
		return g, nil
	}
	return "", fmt.Errorf("unknown genre %q", s)
}

func (g Genre) String() string { return string(g) }

// ArtistProfile is the role-specific extension record in the
// `artist_profiles` table, 1:1 with a User once the artist role is
// assumed. UserID carries a unique constraint, which is the
// serialization point for concurrent promotions.
type ArtistProfile struct {
	ID        string    // artist_profiles.id
	UserID    string    // artist_profiles.user_id (unique)
	Genre     Genre     // artist_profiles.genre
	Bio       string    // artist_profiles.bio
	LikeCount uint64    // artist_profiles.like_count
	CreatedAt time.Time // artist_profiles.created_at
	UpdatedAt time.Time // artist_profiles.updated_at
}
