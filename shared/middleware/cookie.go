package middleware

import (
	"net/http"
	"time"
)

const SessionCookieName = "sessionToken"

// CookiePolicy describes the session cookie the API sets and clears.
type CookiePolicy struct {
	Secure bool
}

func (p CookiePolicy) Set(w http.ResponseWriter, token string, expiresAt time.Time, now time.Time) {
	maxAge := int(expiresAt.Sub(now).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     SessionCookieName,
		Value:    token,
		Expires:  expiresAt.UTC(),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (p CookiePolicy) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     SessionCookieName,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
