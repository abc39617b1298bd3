package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JJET88/dit205-midterm-fullstack/shared/middleware/ratelimiter"
	"github.com/JJET88/dit205-midterm-fullstack/shared/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimit(t *testing.T) {
	t.Run("allows request within rate limit", func(t *testing.T) {
		rl := ratelimiter.New(1, 1, time.Minute)
		defer rl.Stop()
		handler := RateLimit(rl, func(r *http.Request) (string, error) { return "k", nil })(okHandler())

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("POST", "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("error getting identity", func(t *testing.T) {
		rl := ratelimiter.New(1, 1, time.Minute)
		defer rl.Stop()
		handler := RateLimit(rl, func(r *http.Request) (string, error) { return "", errors.New("Test error") })(okHandler())

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("POST", "/", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("no identity passes through", func(t *testing.T) {
		rl := ratelimiter.New(0, 0, time.Minute)
		defer rl.Stop()
		handler := RateLimit(rl, func(r *http.Request) (string, error) { return "", ErrNoIdentity })(okHandler())

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("POST", "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("blocks request exceeding rate limit", func(t *testing.T) {
		rl := ratelimiter.New(1, 1, time.Minute)
		defer rl.Stop()
		handler := RateLimit(rl, func(r *http.Request) (string, error) { return "k", nil })(okHandler())

		w1 := httptest.NewRecorder()
		handler.ServeHTTP(w1, httptest.NewRequest("POST", "/", nil))
		assert.Equal(t, http.StatusOK, w1.Code)

		w2 := httptest.NewRecorder()
		handler.ServeHTTP(w2, httptest.NewRequest("POST", "/", nil))
		assert.Equal(t, http.StatusTooManyRequests, w2.Code)
		assert.Equal(t, "application/json", w2.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"error":"TooManyAttempts","message":"Too many attempts, try again later"}`, w2.Body.String())
	})

	t.Run("global limit shares one bucket", func(t *testing.T) {
		rl := ratelimiter.New(0, 2, time.Minute)
		defer rl.Stop()
		handler := GlobalRateLimit(rl)(okHandler())

		codes := []int{}
		for _, ip := range []string{"10.0.0.1:1", "10.0.0.2:1", "10.0.0.3:1"} {
			req := httptest.NewRequest("POST", "/", nil)
			req.RemoteAddr = ip
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			codes = append(codes, w.Code)
		}
		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	})

	t.Run("per email limit across addresses", func(t *testing.T) {
		rl := ratelimiter.New(0, 1, time.Minute)
		defer rl.Stop()
		var seen string
		handler := RateLimit(rl, GetEmailKeyFromBody)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			seen = string(body)
			w.WriteHeader(http.StatusOK)
		}))

		send := func(email string) int {
			req := httptest.NewRequest("POST", "/v1/auth/login", strings.NewReader(`{"email":"`+email+`","password":"p"}`))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			return w.Code
		}

		assert.Equal(t, http.StatusOK, send("a@x.io"))
		assert.Contains(t, seen, `"password":"p"`, "body must reach the handler intact")
		assert.Equal(t, http.StatusTooManyRequests, send("A@X.io "))
		assert.Equal(t, http.StatusOK, send("b@x.io"))
	})
}

func TestGetIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		want       string
		wantErr    bool
	}{
		{"ipv4 with port", "192.168.1.100:54321", "192.168.1.100", false},
		{"ipv6 with port", "[2001:db8::1]:8080", "2001:db8::1", false},
		{"localhost", "127.0.0.1:12345", "127.0.0.1", false},
		{"no port", "192.168.1.1", "192.168.1.1", false},
		{"invalid", "not-an-ip:1234", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/test", nil)
			req.RemoteAddr = tt.remoteAddr
			ip, err := GetIP(req)
			if tt.wantErr {
				assert.EqualError(t, err, "invalid IP address: not-an-ip")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ip)
		})
	}

	t.Run("ignores spoofed headers", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/test", nil)
		req.RemoteAddr = "203.0.113.50:12345"
		req.Header.Set("X-Real-IP", "10.0.0.1")
		req.Header.Set("X-Forwarded-For", "10.0.0.2, 10.0.0.3")

		ip, err := GetIP(req)
		require.NoError(t, err)
		assert.Equal(t, "203.0.113.50", ip)
	})
}

func TestGetEmailFromBody(t *testing.T) {
	t.Run("does not destroy body", func(t *testing.T) {
		bodyBytes, _ := json.Marshal(map[string]string{"email": "test@example.com", "password": "secretpass123"})
		req := httptest.NewRequest("POST", "/test", bytes.NewBuffer(bodyBytes))

		email, err := GetEmailFromBody(req)
		require.NoError(t, err)
		assert.Equal(t, "test@example.com", email)

		email2, err := GetEmailFromBody(req)
		require.NoError(t, err)
		assert.Equal(t, email, email2)

		var data map[string]string
		require.NoError(t, json.NewDecoder(req.Body).Decode(&data))
		assert.Equal(t, "secretpass123", data["password"])
	})

	t.Run("empty email", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/test", strings.NewReader(`{"email":"","password":"x"}`))
		_, err := GetEmailFromBody(req)
		assert.ErrorIs(t, err, ErrNoIdentity)
	})

	t.Run("invalid json", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/test", strings.NewReader("not valid json"))
		_, err := GetEmailFromBody(req)
		assert.ErrorIs(t, err, ErrNoIdentity)

		rest, _ := io.ReadAll(req.Body)
		assert.Equal(t, "not valid json", string(rest))
	})

	t.Run("fingerprint key", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/test", strings.NewReader(`{"email":"a@x.io"}`))
		key, err := GetEmailKeyFromBody(req)
		require.NoError(t, err)
		assert.Equal(t, utils.Fingerprint("a@x.io"), key)
		assert.NotContains(t, key, "a@x.io")
	})
}
