package utils

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JJET88/dit205-midterm-fullstack/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeValidate(t *testing.T) {
	type TestStruct struct {
		Field1 string `json:"field1" validate:"required"`
		Field2 int    `json:"field2"`
	}

	tests := []struct {
		name        string
		requestBody string
		expectedErr *errors.ErrorWithStatusCode
	}{
		{
			name:        "Valid JSON and Validation",
			requestBody: `{"field1": "value", "field2": 123}`,
		},
		{
			name:        "Valid JSON and Validation [2]",
			requestBody: `{"field1": "value"}`,
		},
		{
			name:        "Invalid JSON",
			requestBody: `{"field1": "value", "field2": 123`,
			expectedErr: &errors.ErrorWithStatusCode{Message: "Body is invalid json", StatusCode: 400},
		},
		{
			name:        "Missing Required Field",
			requestBody: `{"field2": 123}`,
			expectedErr: &errors.ErrorWithStatusCode{Message: "Required fields missing", StatusCode: 400},
		},
		{
			name:        "Empty Body",
			requestBody: "",
			expectedErr: &errors.ErrorWithStatusCode{Message: "Body is invalid json", StatusCode: 400},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", bytes.NewReader([]byte(tt.requestBody)))

			err := DecodeValidate(req.Body, &TestStruct{})

			if tt.expectedErr == nil {
				assert.NoError(t, err, "Expected no error")
			} else {
				e, ok := err.(*errors.ErrorWithStatusCode)
				require.True(t, ok, "Error should be ErrorWithStatusCode")
				assert.Equal(t, tt.expectedErr.Message, e.Message, "Error message mismatch")
				assert.Equal(t, tt.expectedErr.StatusCode, e.StatusCode, "Status code mismatch")
			}
		})
	}
}

func TestDecode(t *testing.T) {
	var body struct {
		Email string `json:"email"`
	}
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@x.io"}`))
	require.NoError(t, Decode(req.Body, &body))
	assert.Equal(t, "a@x.io", body.Email)

	req = httptest.NewRequest("POST", "/", strings.NewReader(`nope`))
	assert.Error(t, Decode(req.Body, &body))
}

func TestWriteAuthError(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		code    string
		message string
	}{
		{errors.ErrMissingCredentials, http.StatusBadRequest, "MissingCredentials", "Please enter both email and password"},
		{errors.ErrInvalidCredentials, http.StatusUnauthorized, "InvalidCredentials", "Invalid email or password"},
		{fmt.Errorf("pq: connection refused"), http.StatusServiceUnavailable, "StoreUnavailable", "Something went wrong, please try again"},
		{errors.ErrSessionInvalid, http.StatusUnauthorized, "SessionInvalid", "Your session has expired, please sign in again"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			rr := httptest.NewRecorder()
			WriteAuthError(rr, tt.err)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Error)
			assert.Equal(t, tt.message, body.Message)
			assert.NotContains(t, rr.Body.String(), "pq:")
		})
	}
}

func TestWriteErrorAndStatusCode(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteErrorAndStatusCode(rr, &errors.ErrorWithStatusCode{Code: "TooManyAttempts", Message: "Too many attempts", StatusCode: http.StatusTooManyRequests})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"TooManyAttempts","message":"Too many attempts"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	WriteErrorAndStatusCode(rr, &errors.ErrorWithStatusCode{Message: "bad", StatusCode: http.StatusBadRequest})
	assert.JSONEq(t, `{"error":"BadRequest","message":"bad"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	WriteErrorAndStatusCode(rr, fmt.Errorf("secret internals"))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"InternalError","message":"Internal error"}`, rr.Body.String())
}

func TestSanitizeCallbackURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"/products", "/products"},
		{"/products?page=2#top", "/products?page=2#top"},
		{"https://evil.example/", "/"},
		{"//evil.example/path", "/"},
		{"/\\evil.example", "/"},
		{"javascript:alert(1)", "/"},
		{"products", "/"},
		{"/" + strings.Repeat("a", 2048), "/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeCallbackURL(tt.in), tt.in)
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("Alice@Example.com ")
	b := Fingerprint("alice@example.com")
	c := Fingerprint("bob@example.com")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
	assert.NotContains(t, a, "alice")
}

func TestGenerateKey(t *testing.T) {
	a, err := GenerateKey(32)
	require.NoError(t, err)
	b, err := GenerateKey(32)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
	assert.NotEqual(t, a, b)
}
