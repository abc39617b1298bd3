package domain

import "time"

// SessionClaims is the content of a session token.
type SessionClaims struct {
	UserId    string
	TokenId   TokenId
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Session is what a successful login hands back to the transport layer.
type Session struct {
	Token     string
	Identity  Identity
	Claims    SessionClaims
	ExpiresAt time.Time
}
