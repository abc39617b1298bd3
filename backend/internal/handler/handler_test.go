package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JJET88/dit205-midterm-fullstack/shared/domain"
	"github.com/JJET88/dit205-midterm-fullstack/shared/middleware"
)

// --- Mocks ---

type MockAuthService struct {
	AuthenticateFunc func(ctx context.Context, email domain.Email, password domain.Password) (domain.Identity, error)
	LoginFunc        func(ctx context.Context, req domain.AuthRequest) (domain.Session, error)
	LogoutFunc       func(ctx context.Context, claims domain.SessionClaims) error
}

func (m *MockAuthService) Authenticate(ctx context.Context, email domain.Email, password domain.Password) (domain.Identity, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, email, password)
	}
	return domain.Identity{}, nil
}

func (m *MockAuthService) Login(ctx context.Context, req domain.AuthRequest) (domain.Session, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, req)
	}
	return domain.Session{}, nil
}

func (m *MockAuthService) Logout(ctx context.Context, claims domain.SessionClaims) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, claims)
	}
	return nil
}

type MockHealthChecker struct {
	PingFunc func(ctx context.Context) error
}

func (m *MockHealthChecker) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// --- Helpers ---

var testNow = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func newTestHandler(auth *MockAuthService) *Handler {
	h := New(auth, &MockHealthChecker{}, middleware.CookiePolicy{})
	h.now = func() time.Time { return testNow }
	return h
}

func createRequest(t *testing.T, method, url string, body []byte, cookies ...*http.Cookie) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, url, bytes.NewBuffer(body))
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
