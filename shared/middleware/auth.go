package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/JJET88/dit205-midterm-fullstack/shared/domain"
	internal_errors "github.com/JJET88/dit205-midterm-fullstack/shared/errors"
	"github.com/JJET88/dit205-midterm-fullstack/shared/logger"
	"github.com/JJET88/dit205-midterm-fullstack/shared/utils"
)

// TokenDecoder verifies a session token and returns its claims.
type TokenDecoder interface {
	Decode(token string) (domain.SessionClaims, error)
}

// Revocations reports logged-out tokens.
type Revocations interface {
	IsRevoked(ctx context.Context, tokenId string) (bool, error)
}

// Key to store the session claims in the request context
type key int

const (
	SessionClaimsKey key = iota
	sessionTokenKey
)

// Auth binds a verified session to incoming requests.
type Auth struct {
	decoder     TokenDecoder
	revocations Revocations
	cookies     CookiePolicy
}

// NewAuth creates a new Auth middleware instance. revocations may be nil.
func NewAuth(decoder TokenDecoder, revocations Revocations, cookies CookiePolicy) *Auth {
	return &Auth{
		decoder:     decoder,
		revocations: revocations,
		cookies:     cookies,
	}
}

func (a *Auth) Cookies() CookiePolicy {
	return a.cookies
}

// NeedAuth rejects requests without a valid session with 401 SessionInvalid
// and clears the session cookie.
func (a *Auth) NeedAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, token, err := a.extractSession(r)
			if err != nil {
				a.cookies.Clear(w)
				utils.WriteAuthError(w, err)
				return
			}
			next.ServeHTTP(w, withSession(r, claims, token))
		})
	}
}

// OptionalAuth populates the session if the token is valid; otherwise the
// request continues anonymously.
func (a *Auth) OptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, token, err := a.extractSession(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, withSession(r, claims, token))
		})
	}
}

func withSession(r *http.Request, claims *domain.SessionClaims, token string) *http.Request {
	ctx := context.WithValue(r.Context(), SessionClaimsKey, claims)
	ctx = context.WithValue(ctx, sessionTokenKey, token)
	return r.WithContext(ctx)
}

// ExtractToken reads the session token from the cookie, falling back to an
// Authorization bearer header.
func ExtractToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		return strings.TrimSpace(token)
	}
	return ""
}

// extractSession returns ErrSessionInvalid for missing, malformed, expired
// and revoked tokens alike. A denylist that cannot be read rejects the token.
func (a *Auth) extractSession(r *http.Request) (*domain.SessionClaims, string, error) {
	token := ExtractToken(r)
	if token == "" {
		return nil, "", internal_errors.ErrSessionInvalid
	}

	claims, err := a.decoder.Decode(token)
	if err != nil {
		return nil, "", internal_errors.ErrSessionInvalid
	}

	if a.revocations != nil {
		revoked, err := a.revocations.IsRevoked(r.Context(), claims.TokenId)
		if err != nil {
			logger.Log.Error("failed to check token revocation", "error", err)
			return nil, "", internal_errors.ErrSessionInvalid
		}
		if revoked {
			return nil, "", internal_errors.ErrSessionInvalid
		}
	}

	return &claims, token, nil
}

// GetSessionFromContext returns the bound session claims or nil for anonymous requests.
func GetSessionFromContext(r *http.Request) *domain.SessionClaims {
	claims, ok := r.Context().Value(SessionClaimsKey).(*domain.SessionClaims)
	if !ok {
		return nil
	}
	return claims
}

// GetTokenFromContext returns the raw token of the bound session.
func GetTokenFromContext(r *http.Request) string {
	token, _ := r.Context().Value(sessionTokenKey).(string)
	return token
}
