package handler

import (
	"net/http"
	"time"

	"github.com/JJET88/dit205-midterm-fullstack/shared/domain"
	internal_errors "github.com/JJET88/dit205-midterm-fullstack/shared/errors"
	"github.com/JJET88/dit205-midterm-fullstack/shared/middleware"
	"github.com/JJET88/dit205-midterm-fullstack/shared/utils"
)

// Fields are not marked required: absent ones surface as MissingCredentials.
type loginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	CallbackURL string `json:"callbackUrl"`
}

type loginResponse struct {
	Token       string          `json:"token"`
	User        domain.Identity `json:"user"`
	ExpiresAt   time.Time       `json:"expiresAt"`
	CallbackURL string          `json:"callbackUrl"`
}

type sessionUser struct {
	Id string `json:"id"`
}

type sessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *sessionUser `json:"user,omitempty"`
	ExpiresAt     *time.Time   `json:"expiresAt,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	// An unreadable body carries no usable credentials.
	if err := utils.Decode(r.Body, &body); err != nil {
		utils.WriteAuthError(w, internal_errors.ErrMissingCredentials)
		return
	}

	session, err := h.auth.Login(r.Context(), domain.AuthRequest{
		Email:       body.Email,
		Password:    body.Password,
		CallbackURL: body.CallbackURL,
	})
	if err != nil {
		utils.WriteAuthError(w, err)
		return
	}

	h.cookies.Set(w, session.Token, session.ExpiresAt, h.now())
	utils.WriteJSON(w, http.StatusOK, loginResponse{
		Token:       session.Token,
		User:        session.Identity,
		ExpiresAt:   session.ExpiresAt.UTC(),
		CallbackURL: utils.SanitizeCallbackURL(body.CallbackURL),
	})
}

// Logout revokes the presented session, if any, then clears the cookie.
// A failed revocation keeps the cookie so the client can retry.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if session := middleware.GetSessionFromContext(r); session != nil {
		if err := h.auth.Logout(r.Context(), *session); err != nil {
			utils.WriteAuthError(w, err)
			return
		}
	}

	h.cookies.Clear(w)
	utils.WriteJSON(w, http.StatusOK, messageResponse{Message: "Signed out"})
}

// Session reports who, if anyone, the request is bound to.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r)
	if session == nil {
		utils.WriteJSON(w, http.StatusOK, sessionResponse{Authenticated: false})
		return
	}

	expiresAt := session.ExpiresAt.UTC()
	utils.WriteJSON(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		User:          &sessionUser{Id: session.UserId},
		ExpiresAt:     &expiresAt,
	})
}
