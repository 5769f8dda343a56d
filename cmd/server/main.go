package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/soundhive/soundhive-backend/internal/auth"
	"github.com/soundhive/soundhive-backend/internal/cache"
	"github.com/soundhive/soundhive-backend/internal/config"
	"github.com/soundhive/soundhive-backend/internal/database"
	"github.com/soundhive/soundhive-backend/internal/handler"
	"github.com/soundhive/soundhive-backend/internal/logger"
	"github.com/soundhive/soundhive-backend/internal/queue"
	"github.com/soundhive/soundhive-backend/internal/repository"
	"github.com/soundhive/soundhive-backend/internal/router"
	"github.com/soundhive/soundhive-backend/internal/service"
	"github.com/soundhive/soundhive-backend/internal/token"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	lg := logger.New(os.Stderr, cfg.Env)

	db, err := database.Open(database.Config{
		User: cfg.DBUser, Pass: cfg.DBPass,
		Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLife,
		PingTimeout:     cfg.DBPingTimeout,
	})
	if err != nil {
		lg.Fatal("mysql connect failed", "err", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		lg.Warn("redis unavailable, identity cache and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	artists := repository.NewArtistRepo(db)

	svc := &auth.Service{
		Users:      users,
		Artists:    artists,
		Cache:      cache.New(rdb, cfg.IdentityCacheTTL),
		Tokens:     token.NewService(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTLMin, cfg.RefreshTTLDays),
		Events:     service.NewQueuePublisher(logger.With(lg, "component", "events")),
		Log:        logger.With(lg, "component", "auth"),
		BcryptCost: cfg.BcryptCost,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())

	router.Register(e, router.Deps{
		Auth:      handler.NewAuthHandler(svc, cfg.CookieSecure),
		Users:     handler.NewUserHandler(svc),
		Artists:   handler.NewArtistHandler(svc, artists, cfg.CookieSecure),
		Authn:     svc,
		RateLimit: config.LoadRateLimitConfig(),
		Redis:     rdb,
	})

	go func() {
		if err := queue.StartAuditConsumer(logger.With(lg, "component", "audit")); err != nil {
			lg.Error("audit consumer stopped", "err", err)
		}
	}()

	addr := ":" + cfg.Port
	lg.Info("listening", "addr", addr, "env", cfg.Env)
	if err := e.Start(addr); err != nil {
		lg.Fatal("server stopped", "err", err)
	}
}
