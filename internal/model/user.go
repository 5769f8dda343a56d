package model

import "time"

// User represents a principal record as stored in the `users` table.
// Each field corresponds to a column. The json tags are omitted here
// because these structs are used internally by the repository layer;
// handlers define separate response types with appropriate JSON tags.
//
// Fields:
//  ID                 – primary key, UUID string.
//  Name               – display name shown to other users.
//  Handle             – unique, URL-safe username.
//  Email              – unique email address, stored lowercased.
//  PasswordHash       – bcrypt hashed password.
//  Role               – regular, artist or admin.
//  AvatarURL          – public URL of the avatar image.
//  AvatarRef          – storage reference of the avatar (for deletion).
//  BirthDate          – date of birth.
//  CurrentRefreshHash – SHA-256 hex of the currently valid refresh token.
//                       Nil when the principal has no active session.
//                       Overwritten (never appended) on every rotation.
//  CreatedAt          – timestamp of creation.
//  UpdatedAt          – timestamp of last update.
type User struct {
	ID                 string    // users.id
	Name               string    // users.name
	Handle             string    // users.handle
	Email              string    // users.email
	PasswordHash       string    // users.password_hash
	Role               Role      // users.role
	AvatarURL          string    // users.avatar_url
	AvatarRef          string    // users.avatar_ref
	BirthDate          time.Time // users.birth_date
	CurrentRefreshHash *string   // users.current_refresh_hash (nullable)
	CreatedAt          time.Time // users.created_at
	UpdatedAt          time.Time // users.updated_at
}
