package handler

import (
	"context"
	"time"

	"github.com/JJET88/dit205-midterm-fullstack/backend/internal/service"
	"github.com/JJET88/dit205-midterm-fullstack/shared/middleware"
)

// HealthChecker is implemented by the credential store.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	auth    service.AuthService
	health  HealthChecker
	cookies middleware.CookiePolicy
	now     func() time.Time
}

func New(auth service.AuthService, health HealthChecker, cookies middleware.CookiePolicy) *Handler {
	return &Handler{
		auth:    auth,
		health:  health,
		cookies: cookies,
		now:     time.Now,
	}
}
