package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	internal_errors "github.com/JJET88/dit205-midterm-fullstack/shared/errors"
	"github.com/JJET88/dit205-midterm-fullstack/shared/logger"
	"github.com/JJET88/dit205-midterm-fullstack/shared/middleware/metrics"
	"github.com/JJET88/dit205-midterm-fullstack/shared/middleware/ratelimiter"
	"github.com/JJET88/dit205-midterm-fullstack/shared/utils"
)

// maxPeekBody bounds how much of a login body is buffered to find the email.
const maxPeekBody = 64 << 10

// ErrNoIdentity lets a request through unthrottled by this limiter. The
// handler rejects such requests on its own (missing email, bad json).
var ErrNoIdentity = errors.New("no rate limit identity")

var errTooManyAttempts = &internal_errors.ErrorWithStatusCode{
	Code:       "TooManyAttempts",
	Message:    "Too many attempts, try again later",
	StatusCode: http.StatusTooManyRequests,
}

func RateLimit(rl *ratelimiter.Limiter, getIdentity func(r *http.Request) (string, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := getIdentity(r)
			if errors.Is(err, ErrNoIdentity) {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				utils.WriteErrorAndStatusCode(w, err)
				return
			}
			if !rl.Allow(identity) {
				logger.Log.Warn("rate limit exceeded", "path", r.URL.Path)
				metrics.RecordThrottled()
				utils.WriteErrorAndStatusCode(w, errTooManyAttempts)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func GlobalRateLimit(rl *ratelimiter.Limiter) func(http.Handler) http.Handler {
	return RateLimit(rl, func(r *http.Request) (string, error) { return "global", nil })
}

// GetIP extracts the real client IP from RemoteAddr
// Does NOT trust X-Real-IP or X-Forwarded-For headers (no reverse proxy)
func GetIP(r *http.Request) (string, error) {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without port
		ip = r.RemoteAddr
	}

	if net.ParseIP(ip) == nil {
		return "", &internal_errors.ErrorWithStatusCode{
			Code:       "BadRequest",
			Message:    fmt.Sprintf("invalid IP address: %s", ip),
			StatusCode: http.StatusBadRequest,
		}
	}

	return ip, nil
}

// GetEmailFromBody extracts email from a JSON request body and restores the
// body so the handler can read it again.
func GetEmailFromBody(r *http.Request) (string, error) {
	if r.Body == nil {
		return "", ErrNoIdentity
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBody))
	if err != nil {
		return "", ErrNoIdentity
	}
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))

	var data struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &data); err != nil || data.Email == "" {
		return "", ErrNoIdentity
	}

	return data.Email, nil
}

// GetEmailKeyFromBody is GetEmailFromBody keyed by a fingerprint, so limiter
// buckets never hold addresses in clear.
func GetEmailKeyFromBody(r *http.Request) (string, error) {
	email, err := GetEmailFromBody(r)
	if err != nil {
		return "", err
	}
	return utils.Fingerprint(email), nil
}
