// Package queue holds the domain event shapes published to RabbitMQ and
// the background consumer that turns them into the audit log.
package queue

// Queue names double as routing keys on the default exchange.
const (
	UserRegisteredQueue = "identity.registered"
	ArtistPromotedQueue = "identity.promoted"
)

// UserRegisteredEvent is emitted after a successful signup.
type UserRegisteredEvent struct {
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	Handle       string `json:"handle"`
	Email        string `json:"email"`
	RegisteredAt string `json:"registered_at"`
}

// ArtistPromotedEvent is emitted after a committed role transition.
type ArtistPromotedEvent struct {
	UserID     string `json:"user_id"`
	Handle     string `json:"handle"`
	Genre      string `json:"genre"`
	PromotedAt string `json:"promoted_at"`
}
