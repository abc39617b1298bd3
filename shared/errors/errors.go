package errors

import (
	"errors"
	"net/http"
)

// ErrorWithStatusCode is a transport-level error (bad json, rate limit).
// Auth outcomes use AuthError instead. Code is the machine-matchable
// error name written next to Message.
type ErrorWithStatusCode struct {
	Code       string
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

// FailureKind is the closed set of outcomes the auth core reports to callers.
type FailureKind int

const (
	MissingCredentials FailureKind = iota + 1
	InvalidCredentials
	StoreUnavailable
	SessionInvalid
)

func (k FailureKind) String() string {
	switch k {
	case MissingCredentials:
		return "MissingCredentials"
	case InvalidCredentials:
		return "InvalidCredentials"
	case StoreUnavailable:
		return "StoreUnavailable"
	case SessionInvalid:
		return "SessionInvalid"
	default:
		return "StoreUnavailable"
	}
}

// AuthError carries a FailureKind across the authentication boundary.
type AuthError struct {
	Kind FailureKind
}

func (e *AuthError) Error() string {
	return e.Kind.String()
}

// Is lets errors.Is match any AuthError of the same kind.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind
}

// ErrNotFound is returned by stores for absent records. It never crosses
// the auth boundary; the authenticator turns it into InvalidCredentials.
var ErrNotFound = errors.New("not found")

var (
	ErrMissingCredentials = &AuthError{Kind: MissingCredentials}
	ErrInvalidCredentials = &AuthError{Kind: InvalidCredentials}
	ErrStoreUnavailable   = &AuthError{Kind: StoreUnavailable}
	ErrSessionInvalid     = &AuthError{Kind: SessionInvalid}
)

// KindOf reports the failure kind of err. Anything that is not an AuthError
// is an unexpected internal failure and is reported as StoreUnavailable.
func KindOf(err error) FailureKind {
	var ae *AuthError
	if errors.As(err, &ae) {
		switch ae.Kind {
		case MissingCredentials, InvalidCredentials, StoreUnavailable, SessionInvalid:
			return ae.Kind
		}
	}
	return StoreUnavailable
}

// Message maps a failure kind to the text shown on the login page.
func Message(kind FailureKind) string {
	switch kind {
	case MissingCredentials:
		return "Please enter both email and password"
	case InvalidCredentials:
		return "Invalid email or password"
	case SessionInvalid:
		return "Your session has expired, please sign in again"
	default:
		return "Something went wrong, please try again"
	}
}

func StatusCode(kind FailureKind) int {
	switch kind {
	case MissingCredentials:
		return http.StatusBadRequest
	case InvalidCredentials, SessionInvalid:
		return http.StatusUnauthorized
	default:
		return http.StatusServiceUnavailable
	}
}
