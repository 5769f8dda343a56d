// Package router wires handlers, middleware and route groups onto the
// Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/soundhive/soundhive-backend/internal/config"
	"github.com/soundhive/soundhive-backend/internal/handler"
	"github.com/soundhive/soundhive-backend/internal/middleware"
	"github.com/soundhive/soundhive-backend/internal/model"
)

// Deps carries everything route registration needs.
type Deps struct {
	Auth      *handler.AuthHandler
	Users     *handler.UserHandler
	Artists   *handler.ArtistHandler
	Authn     middleware.Authenticator
	RateLimit config.RateLimitConfig
	Redis     *redis.Client
}

// Register mounts all routes. Credential endpoints live under /v1/auth
// behind the token-bucket limiter; everything identity-bound lives
// under /v1 behind the Authenticate middleware.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	limited := middleware.NewTokenBucket(d.RateLimit, d.Redis)
	authn := middleware.Authenticate(d.Authn)

	pub := e.Group("/v1/auth", limited)
	pub.POST("/signup", d.Auth.SignUp)
	pub.POST("/signin", d.Auth.SignIn)
	pub.POST("/refresh", d.Auth.Refresh)
	pub.POST("/check-email", d.Auth.CheckEmail)
	// Signout revokes the stored refresh hash, so it needs to know who
	// is calling.
	pub.POST("/signout", d.Auth.SignOut, authn)

	me := e.Group("/v1/me", authn)
	me.GET("", d.Users.Me)
	me.PUT("", d.Users.UpdateMe)
	me.PUT("/password", d.Users.ChangePassword)

	// Artist reads are public; promotion and edits are not.
	e.GET("/v1/artists", d.Artists.List)
	e.GET("/v1/artists/:id", d.Artists.Get)
	e.POST("/v1/artists", d.Artists.Promote, authn)
	e.PUT("/v1/artists/:id", d.Artists.Update, authn, middleware.RequireRole(model.RoleArtist))
}
