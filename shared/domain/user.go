package domain

import "strconv"

// Credential is a row of the users table as the auth core sees it.
// The core only reads credentials.
type Credential struct {
	UserId       UserId
	Name         string
	Email        Email
	PasswordHash string
}

// Identity is the authenticated principal. It is only built from a
// Credential whose hash matched the submitted password.
type Identity struct {
	Id    string `json:"id"`
	Name  string `json:"name"`
	Email Email  `json:"email"`
}

// IdentityFrom builds the public user summary of a verified credential.
func IdentityFrom(c Credential) Identity {
	return Identity{
		Id:    strconv.FormatInt(c.UserId, 10),
		Name:  c.Name,
		Email: c.Email,
	}
}

// AuthRequest is the login form payload. Password stays in memory only.
type AuthRequest struct {
	Email       Email
	Password    Password
	CallbackURL string
}
