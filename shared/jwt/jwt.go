package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/JJET88/dit205-midterm-fullstack/shared/domain"
	internal_errors "github.com/JJET88/dit205-midterm-fullstack/shared/errors"
	"github.com/JJET88/dit205-midterm-fullstack/shared/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const DefaultIssuer = "catalog-auth"

type Config struct {
	Key    []byte
	TTL    time.Duration
	Issuer string
}

// JwtService issues and decodes session tokens.
type JwtService interface {
	Issue(identity domain.Identity) (string, domain.SessionClaims, error)
	Decode(token string) (domain.SessionClaims, error)
}

type Jwt struct {
	key    []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
	newId  func() string
}

type Option func(*Jwt)

// WithClock replaces time.Now, used by tests to pin issue and expiry instants.
func WithClock(now func() time.Time) Option {
	return func(j *Jwt) { j.now = now }
}

func WithIdGenerator(gen func() string) Option {
	return func(j *Jwt) { j.newId = gen }
}

func New(cfg Config, opts ...Option) (*Jwt, error) {
	if len(cfg.Key) == 0 {
		return nil, errors.New("jwt: empty signing key")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("jwt: ttl must be positive, got %s", cfg.TTL)
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = DefaultIssuer
	}
	j := &Jwt{
		key:    append([]byte(nil), cfg.Key...),
		ttl:    cfg.TTL,
		issuer: issuer,
		now:    time.Now,
		newId:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

func (j *Jwt) TTL() time.Duration {
	return j.ttl
}

func (j *Jwt) Issue(identity domain.Identity) (string, domain.SessionClaims, error) {
	if identity.Id == "" {
		return "", domain.SessionClaims{}, errors.New("jwt: identity without id")
	}
	// NumericDate has second precision, so truncate before deriving exp.
	issuedAt := j.now().Truncate(time.Second)
	claims := domain.SessionClaims{
		UserId:    identity.Id,
		TokenId:   j.newId(),
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(j.ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   claims.UserId,
		ID:        claims.TokenId,
		Issuer:    j.issuer,
		IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
	})
	tokenString, err := token.SignedString(j.key)
	if err != nil {
		logger.Log.Error("failed to sign session token", "error", err)
		return "", domain.SessionClaims{}, fmt.Errorf("jwt: sign: %w", err)
	}

	return tokenString, claims, nil
}

// Decode verifies the signature, issuer and expiry of token.
// A token is accepted only while now < exp. Every failure is ErrSessionInvalid.
func (j *Jwt) Decode(tokenString string) (domain.SessionClaims, error) {
	if tokenString == "" {
		return domain.SessionClaims{}, internal_errors.ErrSessionInvalid
	}

	var rc jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &rc, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		logger.Log.Debug("session token rejected", "reason", err)
		return domain.SessionClaims{}, internal_errors.ErrSessionInvalid
	}
	if !token.Valid || rc.Subject == "" || rc.ID == "" || rc.ExpiresAt == nil {
		return domain.SessionClaims{}, internal_errors.ErrSessionInvalid
	}

	claims := domain.SessionClaims{
		UserId:    rc.Subject,
		TokenId:   rc.ID,
		ExpiresAt: rc.ExpiresAt.Time,
	}
	if rc.IssuedAt != nil {
		claims.IssuedAt = rc.IssuedAt.Time
	}
	return claims, nil
}
