package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/soundhive/soundhive-backend/internal/model"
	"github.com/soundhive/soundhive-backend/internal/repository"
	"github.com/soundhive/soundhive-backend/internal/token"
	"github.com/soundhive/soundhive-backend/internal/utils"
)

// UserStore is the slice of the user repository the auth layer needs.
type UserStore interface {
	Create(ctx context.Context, name, handle, email, password string, birthDate time.Time, avatarURL, avatarRef string, cost int) (string, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByHandle(ctx context.Context, handle string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	SetRefreshHash(ctx context.Context, id, hash string) error
	RotateRefreshHash(ctx context.Context, id, oldHash, newHash string) (bool, error)
	ClearRefreshHash(ctx context.Context, id string) error
	UpdateProfile(ctx context.Context, id string, name, email *string, birthDate *time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// ArtistStore is the slice of the artist repository the auth layer needs.
type ArtistStore interface {
	GetByUserID(ctx context.Context, userID string) (model.ArtistProfile, error)
	GetByID(ctx context.Context, id string) (model.ArtistProfile, error)
	UpdateDetails(ctx context.Context, id string, genre *model.Genre, bio *string) error
	Promote(ctx context.Context, userID string, genre model.Genre, bio string) (model.ArtistProfile, error)
}

// IdentityCache abstracts the Redis-backed projection cache. All
// methods are best-effort; a failing cache only costs store reads.
type IdentityCache interface {
	Get(ctx context.Context, principalID string) (model.Projection, bool)
	Put(ctx context.Context, p model.Projection)
	Invalidate(ctx context.Context, principalID string)
}

// EventPublisher emits domain events for downstream consumers. Publish
// failures never fail the triggering operation.
type EventPublisher interface {
	UserRegistered(ctx context.Context, p model.Projection)
	ArtistPromoted(ctx context.Context, p model.Projection)
}

// Service ties credential verification, token issuance/rotation,
// identity resolution and the role transition together. It holds no
// mutable state of its own; the store and cache are the only shared
// resources, so all methods are safe for concurrent use.
type Service struct {
	Users      UserStore
	Artists    ArtistStore
	Cache      IdentityCache
	Tokens     *token.Service
	Events     EventPublisher
	Log        *log.Logger
	BcryptCost int
}

// Session is what a successful signup, signin or refresh hands back to
// the transport layer.
type Session struct {
	Identity       model.Projection
	AccessToken    string
	AccessExpires  time.Time
	RefreshToken   string
	RefreshExpires time.Time
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// SignUp creates a principal and opens its first session.
func (s *Service) SignUp(ctx context.Context, name, email, password, birthDate string) (Session, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" || birthDate == "" {
		return Session{}, validationf("name, email, password and birth_date are required")
	}
	if !emailRe.MatchString(email) {
		return Session{}, validationf("invalid email")
	}
	born, err := time.Parse("2006-01-02", birthDate)
	if err != nil {
		return Session{}, validationf("invalid birth_date, want YYYY-MM-DD")
	}

	id, err := s.Users.Create(ctx, name, utils.HandleFromName(name), email, password, born, "", "", s.BcryptCost)
	if errors.Is(err, repository.ErrHandleExists) {
		// Random suffix collided; one retry with a fresh one.
		id, err = s.Users.Create(ctx, name, utils.HandleFromName(name), email, password, born, "", "", s.BcryptCost)
	}
	if errors.Is(err, repository.ErrEmailExists) {
		return Session{}, conflictf("email already exists")
	}
	if err != nil {
		return Session{}, dependency("create user", err)
	}
	s.Log.Info("user registered", "principal", id, "email", email)

	sess, err := s.openSession(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if s.Events != nil {
		s.Events.UserRegistered(ctx, sess.Identity)
	}
	return sess, nil
}

// SignIn verifies credentials (email or handle as identifier) and opens
// a session. Unknown identifiers and bad passwords are indistinguishable
// to the caller.
func (s *Service) SignIn(ctx context.Context, identifier, password string) (Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return Session{}, validationf("identifier and password are required")
	}

	var (
		u   model.User
		err error
	)
	if strings.Contains(identifier, "@") {
		u, err = s.Users.GetByEmail(ctx, identifier)
	} else {
		u, err = s.Users.GetByHandle(ctx, identifier)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, ErrUnauthenticated
	}
	if err != nil {
		return Session{}, dependency("load user", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return Session{}, ErrUnauthenticated
	}

	sess, err := s.openSession(ctx, u.ID)
	if err != nil {
		return Session{}, err
	}
	s.Log.Info("signin", "principal", u.ID, "role", sess.Identity.Role)
	return sess, nil
}

// openSession hydrates the identity, issues the token pair, persists
// the refresh hash (NoSession/Revoked -> Active) and write-throughs the
// projection into the cache.
func (s *Service) openSession(ctx context.Context, principalID string) (Session, error) {
	proj, err := s.resolveFromStore(ctx, principalID)
	if err != nil {
		return Session{}, err
	}

	access, accessExp, err := s.Tokens.IssueAccess(proj.ID, proj.Email, proj.Name)
	if err != nil {
		return Session{}, dependency("issue access token", err)
	}
	refresh, refreshExp, err := s.Tokens.IssueRefresh(proj.ID)
	if err != nil {
		return Session{}, dependency("issue refresh token", err)
	}
	if err := s.Users.SetRefreshHash(ctx, proj.ID, token.HashRefresh(refresh)); err != nil {
		return Session{}, dependency("persist refresh hash", err)
	}
	s.Cache.Put(ctx, proj)

	return Session{
		Identity:       proj,
		AccessToken:    access,
		AccessExpires:  accessExp,
		RefreshToken:   refresh,
		RefreshExpires: refreshExp,
	}, nil
}

// Authenticate resolves a raw access token into an identity projection:
// verify, cache lookup, store fallback with role hydration, best-effort
// cache write-back. The common path is a single cache read.
func (s *Service) Authenticate(ctx context.Context, raw string) (model.Projection, error) {
	if strings.TrimSpace(raw) == "" {
		return model.Projection{}, ErrUnauthenticated
	}
	claims, err := s.Tokens.VerifyAccess(raw)
	if err != nil {
		return model.Projection{}, ErrUnauthenticated
	}

	// An artist-shaped entry without its artist fields is a partial
	// identity and must never be served; treat it as a miss so the
	// store rewrites it.
	if proj, ok := s.Cache.Get(ctx, claims.PrincipalID); ok && (!proj.IsArtist() || proj.ArtistID != "") {
		return proj, nil
	}

	proj, err := s.resolveFromStore(ctx, claims.PrincipalID)
	if err != nil {
		return model.Projection{}, err
	}
	s.Cache.Put(ctx, proj)
	s.Log.Debug("identity resolved from store", "principal", proj.ID, "role", proj.Role)
	return proj, nil
}

// resolveFromStore reads the principal and, for artists, the role
// profile, and merges them into the flattened projection. A missing
// principal means the token references a deleted account; a missing
// artist profile means a corrupted promotion. Both reject rather than
// expose a partial identity. Store failures are dependency errors,
// never Unauthenticated.
func (s *Service) resolveFromStore(ctx context.Context, principalID string) (model.Projection, error) {
	u, err := s.Users.GetByID(ctx, principalID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Projection{}, ErrUnauthenticated
	}
	if err != nil {
		return model.Projection{}, dependency("load user", err)
	}

	var profile *model.ArtistProfile
	if u.Role == model.RoleArtist {
		p, err := s.Artists.GetByUserID(ctx, principalID)
		if errors.Is(err, repository.ErrNotFound) {
			s.Log.Error("artist without profile, rejecting identity", "principal", principalID)
			return model.Projection{}, ErrUnauthenticated
		}
		if err != nil {
			return model.Projection{}, dependency("load artist profile", err)
		}
		profile = &p
	}
	return model.NewIdentity(u, profile).Project(), nil
}

// Refresh rotates a refresh token: cryptographic verification, then an
// atomic compare-and-swap of the stored hash. A cryptographically valid
// token whose hash is no longer current is a reuse signal; the whole
// session is revoked (Active -> Revoked) before rejecting.
func (s *Service) Refresh(ctx context.Context, rawRefresh string) (Session, error) {
	rawRefresh = strings.TrimSpace(rawRefresh)
	if rawRefresh == "" {
		return Session{}, ErrUnauthenticated
	}
	claims, err := s.Tokens.VerifyRefresh(rawRefresh)
	if err != nil {
		return Session{}, ErrUnauthenticated
	}

	u, err := s.Users.GetByID(ctx, claims.PrincipalID)
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, ErrUnauthenticated
	}
	if err != nil {
		return Session{}, dependency("load user", err)
	}

	incomingHash := token.HashRefresh(rawRefresh)
	if u.CurrentRefreshHash == nil || *u.CurrentRefreshHash != incomingHash {
		// Superseded token replayed: possible theft. Kill the session.
		s.revoke(ctx, u.ID)
		s.Log.Warn("refresh token reuse detected", "principal", u.ID)
		return Session{}, ErrUnauthenticated
	}

	proj, err := s.resolveFromStore(ctx, u.ID)
	if err != nil {
		return Session{}, err
	}
	access, accessExp, err := s.Tokens.IssueAccess(proj.ID, proj.Email, proj.Name)
	if err != nil {
		return Session{}, dependency("issue access token", err)
	}
	refresh, refreshExp, err := s.Tokens.IssueRefresh(proj.ID)
	if err != nil {
		return Session{}, dependency("issue refresh token", err)
	}

	ok, err := s.Users.RotateRefreshHash(ctx, u.ID, incomingHash, token.HashRefresh(refresh))
	if err != nil {
		return Session{}, dependency("rotate refresh hash", err)
	}
	if !ok {
		// Lost a concurrent rotation between read and swap. Treat like
		// reuse: only one current token may exist per principal.
		s.revoke(ctx, u.ID)
		s.Log.Warn("refresh rotation race lost, session revoked", "principal", u.ID)
		return Session{}, ErrUnauthenticated
	}
	s.Cache.Put(ctx, proj)

	return Session{
		Identity:       proj,
		AccessToken:    access,
		AccessExpires:  accessExp,
		RefreshToken:   refresh,
		RefreshExpires: refreshExp,
	}, nil
}

// SignOut clears the current refresh token (Active -> Revoked) and
// drops the cached identity.
func (s *Service) SignOut(ctx context.Context, principalID string) error {
	if err := s.Users.ClearRefreshHash(ctx, principalID); err != nil {
		return dependency("clear refresh hash", err)
	}
	s.Cache.Invalidate(ctx, principalID)
	s.Log.Info("signout", "principal", principalID)
	return nil
}

// revoke is the reuse-signal path: best effort, the rejection stands
// either way.
func (s *Service) revoke(ctx context.Context, principalID string) {
	if err := s.Users.ClearRefreshHash(ctx, principalID); err != nil {
		s.Log.Error("revoke session", "principal", principalID, "err", err)
	}
	s.Cache.Invalidate(ctx, principalID)
}

// CheckEmail reports whether an account with this email exists.
func (s *Service) CheckEmail(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRe.MatchString(email) {
		return false, validationf("invalid email")
	}
	exists, err := s.Users.EmailExists(ctx, email)
	if err != nil {
		return false, dependency("check email", err)
	}
	return exists, nil
}

// UpdateProfile applies a partial profile mutation and keeps the cache
// coherent: invalidate first, then write the fresh projection through.
func (s *Service) UpdateProfile(ctx context.Context, principalID string, name, email, birthDate *string) (model.Projection, error) {
	if name == nil && email == nil && birthDate == nil {
		return model.Projection{}, validationf("at least one field is required")
	}
	if email != nil && !emailRe.MatchString(strings.ToLower(strings.TrimSpace(*email))) {
		return model.Projection{}, validationf("invalid email")
	}
	var born *time.Time
	if birthDate != nil {
		d, err := time.Parse("2006-01-02", *birthDate)
		if err != nil {
			return model.Projection{}, validationf("invalid birth_date, want YYYY-MM-DD")
		}
		born = &d
	}

	err := s.Users.UpdateProfile(ctx, principalID, name, email, born)
	if errors.Is(err, repository.ErrEmailExists) {
		return model.Projection{}, conflictf("email already exists")
	}
	if err != nil {
		return model.Projection{}, dependency("update profile", err)
	}

	s.Cache.Invalidate(ctx, principalID)
	proj, err := s.resolveFromStore(ctx, principalID)
	if err != nil {
		return model.Projection{}, err
	}
	s.Cache.Put(ctx, proj)
	return proj, nil
}

// ChangePassword verifies the old secret, stores the new hash and
// revokes the session so every device re-authenticates.
func (s *Service) ChangePassword(ctx context.Context, principalID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return validationf("old and new password are required")
	}
	u, err := s.Users.GetByID(ctx, principalID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUnauthenticated
	}
	if err != nil {
		return dependency("load user", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, oldPassword) {
		return validationf("old password is incorrect")
	}
	hash, err := utils.HashPassword(newPassword, s.BcryptCost)
	if err != nil {
		return dependency("hash password", err)
	}
	if err := s.Users.UpdatePassword(ctx, principalID, hash); err != nil {
		return dependency("update password", err)
	}
	s.revoke(ctx, principalID)
	s.Log.Info("password changed, session revoked", "principal", principalID)
	return nil
}
