package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/soundhive/soundhive-backend/internal/model"
	"github.com/soundhive/soundhive-backend/internal/utils"
)

const userColumns = "id,name,handle,email,password_hash,role,avatar_url,avatar_ref,birth_date,current_refresh_hash,created_at,updated_at"

// UserRepo reads and writes principal records in the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create hashes the password, assigns a UUID and inserts the principal
// with role=regular. Returns the new id.
func (r *UserRepo) Create(ctx context.Context, name, handle, email, password string, birthDate time.Time, avatarURL, avatarRef string, cost int) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users (id, name, handle, email, password_hash, role, avatar_url, avatar_ref, birth_date) VALUES (?,?,?,?,?,?,?,?,?)",
		id, name, handle, email, hash, model.RoleRegular, avatarURL, avatarRef, birthDate)
	if err != nil {
		return "", translateDuplicate(err)
	}
	return id, nil
}

// GetByEmail fetches a principal by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getWhere(ctx, "email=?", email)
}

// GetByHandle fetches a principal by handle.
func (r *UserRepo) GetByHandle(ctx context.Context, handle string) (model.User, error) {
	return r.getWhere(ctx, "handle=?", handle)
}

// GetByID fetches a principal by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.getWhere(ctx, "id=?", id)
}

func (r *UserRepo) getWhere(ctx context.Context, cond string, arg any) (model.User, error) {
	var (
		u           model.User
		role        string
		refreshHash sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+cond+" LIMIT 1", arg).
		Scan(&u.ID, &u.Name, &u.Handle, &u.Email, &u.PasswordHash, &role,
			&u.AvatarURL, &u.AvatarRef, &u.BirthDate, &refreshHash, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	// The column is free text to the driver; reject rows that do not
	// carry one of the known roles instead of propagating them.
	u.Role, err = model.ParseRole(role)
	if err != nil {
		return model.User{}, fmt.Errorf("user %s: %w", u.ID, err)
	}
	if refreshHash.Valid {
		u.CurrentRefreshHash = &refreshHash.String
	}
	return u, nil
}

// EmailExists reports whether a principal with the given email exists.
func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM users WHERE email=? LIMIT 1", email).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetRefreshHash stores the hash of a freshly issued refresh token,
// overwriting whatever was current. Used on signin and signup.
func (r *UserRepo) SetRefreshHash(ctx context.Context, id, hash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET current_refresh_hash=? WHERE id=?", hash, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// RotateRefreshHash atomically replaces the current refresh hash, but
// only if it still equals oldHash. The conditional update is the
// per-principal serialization point for rotation: of two concurrent
// rotations presenting the same token, exactly one matches. Returns
// false when the stored hash differed (reuse or lost race).
func (r *UserRepo) RotateRefreshHash(ctx context.Context, id, oldHash, newHash string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET current_refresh_hash=? WHERE id=? AND current_refresh_hash=?",
		newHash, id, oldHash)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ClearRefreshHash revokes the principal's session (sign-out, reuse
// detection, forced re-auth).
func (r *UserRepo) ClearRefreshHash(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET current_refresh_hash=NULL WHERE id=?", id)
	return err
}

// UpdateProfile applies a partial update of name/email/birth date.
// Callers must invalidate the identity cache afterwards.
func (r *UserRepo) UpdateProfile(ctx context.Context, id string, name, email *string, birthDate *time.Time) error {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if name != nil {
		sets = append(sets, "name=?")
		args = append(args, *name)
	}
	if email != nil {
		sets = append(sets, "email=?")
		args = append(args, strings.ToLower(strings.TrimSpace(*email)))
	}
	if birthDate != nil {
		sets = append(sets, "birth_date=?")
		args = append(args, *birthDate)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	// No affected-row check: MySQL reports 0 for value-identical
	// updates, which is not an error here.
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	if err != nil {
		return translateDuplicate(err)
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", passwordHash, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// requireRow maps "no row touched" onto ErrNotFound. MySQL reports
// zero affected rows for no-op updates too, so this is only used on
// statements that always change a column value.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// translateDuplicate maps MySQL duplicate-key errors (1062) onto the
// sentinel for whichever unique index was violated.
func translateDuplicate(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		msg := strings.ToLower(me.Message)
		if strings.Contains(msg, "handle") {
			return ErrHandleExists
		}
		return ErrEmailExists
	}
	return err
}
