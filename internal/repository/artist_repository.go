package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/soundhive/soundhive-backend/internal/model"
)

const artistColumns = "id,user_id,genre,bio,like_count,created_at,updated_at"

// ArtistRepo reads and writes artist profiles, including the two-table
// promotion transaction.
type ArtistRepo struct{ DB *sql.DB }

func NewArtistRepo(db *sql.DB) *ArtistRepo { return &ArtistRepo{DB: db} }

// GetByUserID fetches the profile belonging to a principal.
func (r *ArtistRepo) GetByUserID(ctx context.Context, userID string) (model.ArtistProfile, error) {
	return r.getWhere(ctx, "user_id=?", userID)
}

// GetByID fetches a profile by its own id.
func (r *ArtistRepo) GetByID(ctx context.Context, id string) (model.ArtistProfile, error) {
	return r.getWhere(ctx, "id=?", id)
}

func (r *ArtistRepo) getWhere(ctx context.Context, cond string, arg any) (model.ArtistProfile, error) {
	var (
		a     model.ArtistProfile
		genre string
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+artistColumns+" FROM artist_profiles WHERE "+cond+" LIMIT 1", arg).
		Scan(&a.ID, &a.UserID, &genre, &a.Bio, &a.LikeCount, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.ArtistProfile{}, ErrNotFound
	}
	if err != nil {
		return model.ArtistProfile{}, err
	}
	a.Genre = model.Genre(genre)
	return a, nil
}

// List returns all artist profiles.
func (r *ArtistRepo) List(ctx context.Context) ([]model.ArtistProfile, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+artistColumns+" FROM artist_profiles ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ArtistProfile
	for rows.Next() {
		var (
			a     model.ArtistProfile
			genre string
		)
		if err := rows.Scan(&a.ID, &a.UserID, &genre, &a.Bio, &a.LikeCount, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		a.Genre = model.Genre(genre)
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateDetails changes genre and/or bio of an existing profile.
// Callers must invalidate the owning principal's cache entry.
func (r *ArtistRepo) UpdateDetails(ctx context.Context, id string, genre *model.Genre, bio *string) error {
	switch {
	case genre != nil && bio != nil:
		_, err := r.DB.ExecContext(ctx,
			"UPDATE artist_profiles SET genre=?, bio=? WHERE id=?", genre.String(), *bio, id)
		return err
	case genre != nil:
		_, err := r.DB.ExecContext(ctx,
			"UPDATE artist_profiles SET genre=? WHERE id=?", genre.String(), id)
		return err
	case bio != nil:
		_, err := r.DB.ExecContext(ctx,
			"UPDATE artist_profiles SET bio=? WHERE id=?", *bio, id)
		return err
	}
	return nil
}

// Promote executes the role transition as one transaction spanning both
// tables: flip users.role to artist and clear the refresh hash (forcing
// re-auth), then upsert the profile row. The unique key on user_id
// makes the upsert idempotent under retry and the serialization point
// for concurrent promotions: the loser's insert turns into an update of
// the winner's row instead of a second profile. A failure of either
// statement rolls the whole transition back, so a principal can never
// be observed as artist without a profile or vice versa.
func (r *ArtistRepo) Promote(ctx context.Context, userID string, genre model.Genre, bio string) (model.ArtistProfile, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.ArtistProfile{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET role=?, current_refresh_hash=NULL WHERE id=?",
		model.RoleArtist, userID); err != nil {
		return model.ArtistProfile{}, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO artist_profiles (id, user_id, genre, bio, like_count)
		 VALUES (?,?,?,?,0)
		 ON DUPLICATE KEY UPDATE genre=VALUES(genre), bio=VALUES(bio)`,
		uuid.NewString(), userID, genre.String(), bio); err != nil {
		return model.ArtistProfile{}, err
	}

	var (
		a        model.ArtistProfile
		genreRaw string
	)
	if err := tx.QueryRowContext(ctx,
		"SELECT "+artistColumns+" FROM artist_profiles WHERE user_id=? LIMIT 1", userID).
		Scan(&a.ID, &a.UserID, &genreRaw, &a.Bio, &a.LikeCount, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return model.ArtistProfile{}, err
	}
	a.Genre = model.Genre(genreRaw)

	if err := tx.Commit(); err != nil {
		return model.ArtistProfile{}, err
	}
	return a, nil
}
