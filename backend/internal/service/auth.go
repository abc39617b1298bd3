package service

import (
	"context"
	"errors"
	"time"

	"github.com/JJET88/dit205-midterm-fullstack/shared/audit"
	"github.com/JJET88/dit205-midterm-fullstack/shared/domain"
	internal_errors "github.com/JJET88/dit205-midterm-fullstack/shared/errors"
	"github.com/JJET88/dit205-midterm-fullstack/shared/logger"
	"github.com/JJET88/dit205-midterm-fullstack/shared/middleware/metrics"
)

const DefaultStoreTimeout = 3 * time.Second

type AuthService interface {
	Authenticate(ctx context.Context, email domain.Email, password domain.Password) (domain.Identity, error)
	Login(ctx context.Context, req domain.AuthRequest) (domain.Session, error)
	Logout(ctx context.Context, claims domain.SessionClaims) error
}

type CredentialStorage interface {
	CredentialByEmail(ctx context.Context, email domain.Email) (domain.Credential, error)
}

type PasswordVerifier interface {
	Verify(plaintext, storedHash string) bool
	Dummy(plaintext string)
}

type SessionIssuer interface {
	Issue(identity domain.Identity) (string, domain.SessionClaims, error)
}

type Revoker interface {
	Revoke(ctx context.Context, tokenId string, ttl time.Duration) error
}

type Auth struct {
	storage      CredentialStorage
	verifier     PasswordVerifier
	issuer       SessionIssuer
	revoker      Revoker
	events       audit.EventPublisher
	storeTimeout time.Duration
	now          func() time.Time
}

func NewAuth(storage CredentialStorage, verifier PasswordVerifier, issuer SessionIssuer, revoker Revoker, events audit.EventPublisher, storeTimeout time.Duration) *Auth {
	if storeTimeout <= 0 {
		storeTimeout = DefaultStoreTimeout
	}
	if events == nil {
		events = audit.Nop{}
	}
	return &Auth{
		storage:      storage,
		verifier:     verifier,
		issuer:       issuer,
		revoker:      revoker,
		events:       events,
		storeTimeout: storeTimeout,
		now:          time.Now,
	}
}

// Authenticate checks email and password against the credential store.
// Unknown emails and wrong passwords both cost one bcrypt comparison and
// both return ErrInvalidCredentials.
func (a *Auth) Authenticate(ctx context.Context, email domain.Email, password domain.Password) (domain.Identity, error) {
	if email == "" || password == "" {
		return domain.Identity{}, internal_errors.ErrMissingCredentials
	}

	lookupCtx, cancel := context.WithTimeout(ctx, a.storeTimeout)
	defer cancel()

	cred, err := a.storage.CredentialByEmail(lookupCtx, email)
	if errors.Is(err, internal_errors.ErrNotFound) {
		a.verifier.Dummy(password)
		return domain.Identity{}, internal_errors.ErrInvalidCredentials
	}
	if err != nil {
		logger.Component("auth").Error("credential lookup failed", "error", err)
		return domain.Identity{}, internal_errors.ErrStoreUnavailable
	}

	if !a.verifier.Verify(password, cred.PasswordHash) {
		return domain.Identity{}, internal_errors.ErrInvalidCredentials
	}

	return domain.IdentityFrom(cred), nil
}

// Login authenticates req and issues a session token for the identity.
func (a *Auth) Login(ctx context.Context, req domain.AuthRequest) (domain.Session, error) {
	log := logger.Component("auth")

	identity, err := a.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		a.loginFailed(ctx, err)
		return domain.Session{}, err
	}

	token, claims, err := a.issuer.Issue(identity)
	if err != nil {
		log.Error("failed to issue session token", "user_id", identity.Id, "error", err)
		a.loginFailed(ctx, internal_errors.ErrStoreUnavailable)
		return domain.Session{}, internal_errors.ErrStoreUnavailable
	}

	metrics.RecordLogin("success")
	log.Info("login succeeded", "user_id", identity.Id)
	a.publish(ctx, audit.Event{Type: audit.LoginSucceeded, UserId: identity.Id})

	return domain.Session{
		Token:     token,
		Identity:  identity,
		Claims:    claims,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

// Logout revokes the token behind claims until it would have expired anyway.
func (a *Auth) Logout(ctx context.Context, claims domain.SessionClaims) error {
	ttl := claims.ExpiresAt.Sub(a.now())
	if a.revoker != nil && claims.TokenId != "" && ttl > 0 {
		revokeCtx, cancel := context.WithTimeout(ctx, a.storeTimeout)
		defer cancel()
		if err := a.revoker.Revoke(revokeCtx, claims.TokenId, ttl); err != nil {
			logger.Component("auth").Error("failed to revoke session", "user_id", claims.UserId, "error", err)
			return internal_errors.ErrStoreUnavailable
		}
	}

	logger.Component("auth").Info("logout", "user_id", claims.UserId)
	a.publish(ctx, audit.Event{Type: audit.Logout, UserId: claims.UserId})
	return nil
}

func (a *Auth) loginFailed(ctx context.Context, err error) {
	kind := internal_errors.KindOf(err).String()
	metrics.RecordLogin(kind)
	logger.Component("auth").Info("login failed", "kind", kind)
	a.publish(ctx, audit.Event{Type: audit.LoginFailed, Reason: kind})
}

func (a *Auth) publish(ctx context.Context, event audit.Event) {
	if err := a.events.Publish(ctx, event); err != nil {
		logger.Component("auth").Warn("failed to publish audit event", "type", event.Type, "error", err)
	}
}
