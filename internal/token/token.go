// Package token issues and verifies the two bearer-token classes used
// by the auth layer: short-lived access tokens and long-lived refresh
// tokens. The two classes are signed with distinct HS256 secrets so a
// leaked access key cannot mint long-lived refresh tokens. The service
// is pure cryptographic computation: persisting the refresh hash for
// rotation is the caller's responsibility.
package token

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failures, collapsed into the three cases callers care
// about. Anything that is not expiry or a bad signature counts as
// malformed.
var (
	ErrExpired   = errors.New("token expired")
	ErrSignature = errors.New("token signature invalid")
	ErrMalformed = errors.New("token malformed")
)

// AccessClaims is the decoded payload of a verified access token.
type AccessClaims struct {
	PrincipalID string
	Email       string
	Name        string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// RefreshClaims is the decoded payload of a verified refresh token.
// Refresh tokens carry only the principal id; everything else is
// re-read from the store at rotation time.
type RefreshClaims struct {
	PrincipalID string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// Service signs and verifies both token classes.
type Service struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewService builds a Service from the two signing secrets and the
// configured lifetimes (minutes for access, days for refresh).
func NewService(accessSecret, refreshSecret string, accessTTLMin, refreshTTLDays int) *Service {
	return &Service{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     time.Duration(accessTTLMin) * time.Minute,
		refreshTTL:    time.Duration(refreshTTLDays) * 24 * time.Hour,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// IssueAccess signs an access token carrying the minimal claims the
// resolver needs: subject, email and display name.
func (s *Service) IssueAccess(principalID, email, name string) (string, time.Time, error) {
	iat := s.now()
	exp := iat.Add(s.accessTTL)
	claims := jwt.MapClaims{
		"sub":   principalID,
		"email": email,
		"name":  name,
		"iat":   iat.Unix(),
		"exp":   exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// IssueRefresh signs a refresh token carrying only the subject.
func (s *Service) IssueRefresh(principalID string) (string, time.Time, error) {
	iat := s.now()
	exp := iat.Add(s.refreshTTL)
	claims := jwt.MapClaims{
		"sub": principalID,
		"iat": iat.Unix(),
		"exp": exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.refreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// VerifyAccess checks signature and expiry with the access secret and
// decodes the claims.
func (s *Service) VerifyAccess(raw string) (AccessClaims, error) {
	claims, err := s.verify(raw, s.accessSecret)
	if err != nil {
		return AccessClaims{}, err
	}
	ac := AccessClaims{
		PrincipalID: stringClaim(claims, "sub"),
		Email:       stringClaim(claims, "email"),
		Name:        stringClaim(claims, "name"),
		IssuedAt:    unixClaim(claims, "iat"),
		ExpiresAt:   unixClaim(claims, "exp"),
	}
	if ac.PrincipalID == "" {
		return AccessClaims{}, ErrMalformed
	}
	return ac, nil
}

// VerifyRefresh checks signature and expiry with the refresh secret and
// decodes the claims.
func (s *Service) VerifyRefresh(raw string) (RefreshClaims, error) {
	claims, err := s.verify(raw, s.refreshSecret)
	if err != nil {
		return RefreshClaims{}, err
	}
	rc := RefreshClaims{
		PrincipalID: stringClaim(claims, "sub"),
		IssuedAt:    unixClaim(claims, "iat"),
		ExpiresAt:   unixClaim(claims, "exp"),
	}
	if rc.PrincipalID == "" {
		return RefreshClaims{}, ErrMalformed
	}
	return rc, nil
}

func (s *Service) verify(raw string, secret []byte) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject any non-HMAC algorithm before touching the secret.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrSignature
		}
		return secret, nil
	}, jwt.WithTimeFunc(s.now))
	switch {
	case err == nil && tok.Valid:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, ErrSignature
	default:
		return nil, ErrMalformed
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrMalformed
	}
	return claims, nil
}

// HashRefresh returns the SHA-256 hex digest of a raw refresh token.
// Only this hash is persisted (users.current_refresh_hash), so a stolen
// database row cannot be replayed as a refresh token, and comparing it
// against an incoming token's hash is the rotation-reuse check.
func HashRefresh(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func stringClaim(m jwt.MapClaims, key string) string {
	v, _ := m[key].(string)
	return v
}

func unixClaim(m jwt.MapClaims, key string) time.Time {
	if f, ok := m[key].(float64); ok {
		return time.Unix(int64(f), 0).UTC()
	}
	return time.Time{}
}
