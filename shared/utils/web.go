package utils

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/JJET88/dit205-midterm-fullstack/shared/errors"
	"github.com/JJET88/dit205-midterm-fullstack/shared/logger"
	"github.com/go-playground/validator/v10"
)

const DefaultCallbackURL = "/"

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrorResponse is the body of every auth failure.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error("failed to encode response", "error", err)
	}
}

// WriteAuthError renders err as {error, message} with the status of its kind.
// The underlying cause never reaches the client.
func WriteAuthError(w http.ResponseWriter, err error) {
	kind := errors.KindOf(err)
	WriteJSON(w, errors.StatusCode(kind), ErrorResponse{
		Error:   kind.String(),
		Message: errors.Message(kind),
	})
}

// WriteErrorAndStatusCode renders transport errors in the same {error, message}
// shape as auth failures.
func WriteErrorAndStatusCode(w http.ResponseWriter, err error) {
	if e, ok := err.(*errors.ErrorWithStatusCode); ok {
		code := e.Code
		if code == "" {
			code = "BadRequest"
		}
		WriteJSON(w, e.StatusCode, ErrorResponse{Error: code, Message: e.Message})
		return
	}
	// default error is 500
	WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "InternalError", Message: "Internal error"})
}

func DecodeValidate(r io.ReadCloser, body any) error {
	if err := json.NewDecoder(r).Decode(body); err != nil {
		logger.Log.Debug("invalid json body", "error", err)
		return &errors.ErrorWithStatusCode{Message: "Body is invalid json", StatusCode: 400}
	}
	if err := validate.Struct(body); err != nil {
		logger.Log.Debug("body validation failed", "error", err)
		return &errors.ErrorWithStatusCode{Message: "Required fields missing", StatusCode: 400}
	}
	return nil
}

func Decode(r io.ReadCloser, body any) error {
	if err := json.NewDecoder(r).Decode(body); err != nil {
		logger.Log.Debug("invalid json body", "error", err)
		return &errors.ErrorWithStatusCode{Message: "Body is invalid json", StatusCode: 400}
	}
	return nil
}

// SanitizeCallbackURL keeps same-site relative paths and replaces anything
// else (absolute URLs, protocol-relative "//host", oversized values) with "/".
func SanitizeCallbackURL(raw string) string {
	if raw == "" {
		return DefaultCallbackURL
	}
	if err := validate.Var(raw, "startswith=/,excludes=//,excludes=\\,printascii,max=2048"); err != nil {
		return DefaultCallbackURL
	}
	return raw
}
