package model

import "fmt"

// Role is the closed set of principal roles. Stored as a string enum in
// the `users.role` column.
type Role string

const (
	RoleRegular Role = "regular"
	RoleArtist  Role = "artist"
	RoleAdmin   Role = "admin"
)

// ParseRole validates a raw role string against the closed set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleRegular, RoleArtist, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// CanPromoteTo encodes the one-way transition rule: the only
// self-service transition is regular -> artist. Admin assignment is an
// operational action outside this rule.
func (r Role) CanPromoteTo(target Role) bool {
	return r == RoleRegular && target == RoleArtist
}

func (r Role) String() string { return string(r) }
