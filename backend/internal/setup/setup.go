package setup

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"

	"github.com/JJET88/dit205-midterm-fullstack/backend/internal/handler"
	"github.com/JJET88/dit205-midterm-fullstack/backend/internal/service"
	"github.com/JJET88/dit205-midterm-fullstack/backend/internal/storage/pg"
	"github.com/JJET88/dit205-midterm-fullstack/shared/audit"
	"github.com/JJET88/dit205-midterm-fullstack/shared/config"
	"github.com/JJET88/dit205-midterm-fullstack/shared/jwt"
	"github.com/JJET88/dit205-midterm-fullstack/shared/logger"
	"github.com/JJET88/dit205-midterm-fullstack/shared/middleware"
	"github.com/JJET88/dit205-midterm-fullstack/shared/middleware/ratelimiter"
	"github.com/JJET88/dit205-midterm-fullstack/shared/password"
	"github.com/JJET88/dit205-midterm-fullstack/shared/revocation"
)

// Limiters throttle the login endpoint.
type Limiters struct {
	PerIP    *ratelimiter.Limiter
	PerEmail *ratelimiter.Limiter
	Global   *ratelimiter.Limiter
}

func (l Limiters) Stop() {
	for _, rl := range []*ratelimiter.Limiter{l.PerIP, l.PerEmail, l.Global} {
		if rl != nil {
			rl.Stop()
		}
	}
}

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config         *config.Config
	Storage        *pg.Storage
	Handler        *handler.Handler
	AuthMiddleware *middleware.Auth
	Limiters       Limiters

	redis     *redis.Client
	publisher message.Publisher
}

// SetupDependencies initializes all dependencies required for the application.
// Without a Redis URL the denylist lives in memory and audit events go to an
// in-process channel.
func SetupDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	deps := &Dependencies{Config: cfg, Storage: storage}

	if cfg.Public.Pg.Migrate {
		if err := storage.Migrate(ctx); err != nil {
			deps.Close()
			return nil, err
		}
	}

	codec, err := jwt.New(jwt.Config{
		Key:    []byte(cfg.JwtKey()),
		TTL:    cfg.JwtTTL(),
		Issuer: cfg.Public.Session.Issuer,
	})
	if err != nil {
		deps.Close()
		return nil, err
	}

	var revocations revocation.Store
	if url := cfg.RedisURL(); url != "" {
		opts, err := redis.ParseURL(url)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		deps.redis = redis.NewClient(opts)
		if err := deps.redis.Ping(ctx).Err(); err != nil {
			deps.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		revocations = revocation.NewRedis(deps.redis, "")
		deps.publisher, err = audit.NewRedisStream(deps.redis)
		if err != nil {
			deps.Close()
			return nil, err
		}
		logger.Log.Info("using redis for revocations and audit events")
	} else {
		revocations = revocation.NewMemory()
		deps.publisher = audit.NewGoChannel()
		logger.Log.Info("using in-memory revocations and audit events")
	}
	events := audit.NewPublisher(deps.publisher, cfg.Public.Audit.Topic)

	verifier := password.New(cfg.Public.BcryptCost)
	auth := service.NewAuth(storage, verifier, codec, revocations, events, cfg.Public.StoreTimeout)

	cookies := middleware.CookiePolicy{Secure: cfg.Public.Session.SecureCookie}
	deps.AuthMiddleware = middleware.NewAuth(codec, revocations, cookies)
	deps.Handler = handler.New(auth, storage, cookies)
	deps.Limiters = Limiters{
		PerIP:    ratelimiter.LoginPerIP(),
		PerEmail: ratelimiter.LoginPerEmail(),
		Global:   ratelimiter.LoginGlobal(),
	}

	return deps, nil
}

// Close releases every resource SetupDependencies opened.
func (d *Dependencies) Close() error {
	d.Limiters.Stop()

	var errs []error
	if d.publisher != nil {
		errs = append(errs, d.publisher.Close())
	}
	if d.redis != nil {
		errs = append(errs, d.redis.Close())
	}
	if d.Storage != nil {
		errs = append(errs, d.Storage.Cleanup())
	}
	return errors.Join(errs...)
}
