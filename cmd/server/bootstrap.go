package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangang/projectdesk/internal/auth"
	"github.com/huangang/projectdesk/internal/config"
	"github.com/huangang/projectdesk/internal/middleware"
	"github.com/huangang/projectdesk/internal/models"
	"github.com/huangang/projectdesk/internal/services"
	"github.com/huangang/projectdesk/pkg/logger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// appServices holds everything the routes need.
type appServices struct {
	cfg *config.Config
	db  *gorm.DB

	hub         *services.SessionHub
	redisClient *redis.Client
	sessionBus  *services.RedisSessionBus

	sessions *services.SessionService
	profiles *services.ProfileService
	projects *services.ProjectService
	accounts *services.AccountService

	authLimiter *middleware.RateLimiter
	cookies     middleware.CookieOptions
}

func newAuthProvider(cfg *config.AuthConfig) (auth.Provider, error) {
	switch cfg.Provider {
	case config.AuthProviderGoTrue:
		return auth.NewGoTrueClient(*cfg, nil), nil
	case config.AuthProviderMemory:
		logger.Warn().Msg("Using the in-memory auth provider; accounts are lost on restart")
		return auth.NewMemoryProvider(cfg.JWTSecret, time.Duration(cfg.AccessTokenTTL)*time.Second), nil
	}
	return nil, fmt.Errorf("unsupported auth provider %q", cfg.Provider)
}

// bootstrap opens the database, picks the auth provider and wires the services.
func bootstrap(ctx context.Context, cfg *config.Config) (*appServices, error) {
	db, err := models.InitDB(&cfg.Database, cfg.Server.Mode == gin.DebugMode)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	provider, err := newAuthProvider(&cfg.Auth)
	if err != nil {
		return nil, err
	}

	app := &appServices{
		cfg:         cfg,
		db:          db,
		hub:         services.NewSessionHub(),
		profiles:    services.NewProfileService(db),
		projects:    services.NewProjectService(db),
		authLimiter: middleware.NewRateLimiter(cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst),
		cookies:     middleware.CookieOptions{Secure: cfg.Auth.CookieSecure, Domain: cfg.Auth.CookieDomain},
	}
	app.sessions = services.NewSessionService(provider, app.hub)
	app.accounts = services.NewAccountService(app.sessions, app.profiles)

	if cfg.Redis.Enabled {
		app.startSessionBus(ctx)
	}

	if cfg.Auth.Provider == config.AuthProviderMemory && cfg.Database.SeedDemo {
		if err := services.SeedDemoData(ctx, db, app.accounts, app.projects); err != nil {
			logger.Warn().Err(err).Msg("Failed to seed demo data")
		} else {
			logger.Info().Str("password", services.DemoPassword).Msg("Demo accounts: cliente@demo.local, pm@demo.local, disenio@demo.local")
		}
	}

	return app, nil
}

// startSessionBus bridges session events through Redis. Without Redis the
// hub keeps delivering in-process.
func (a *appServices) startSessionBus(ctx context.Context) {
	opts, err := a.cfg.Redis.Options()
	if err != nil {
		logger.Warn().Err(err).Msg("Invalid Redis settings, session events stay local")
		return
	}
	client := redis.NewClient(opts)
	bus := services.NewRedisSessionBus(client, a.cfg.Redis.Channel, a.hub)
	if err := bus.Start(ctx); err != nil {
		logger.Warn().Err(err).Str("addr", opts.Addr).Msg("Redis unavailable, session events stay local")
		_ = client.Close()
		return
	}
	a.redisClient = client
	a.sessionBus = bus
}

// shutdown releases what bootstrap opened.
func (a *appServices) shutdown() {
	a.authLimiter.Stop()
	if a.sessionBus != nil {
		_ = a.sessionBus.Close()
	}
	if a.redisClient != nil {
		_ = a.redisClient.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info().Msg("All services stopped")
}
