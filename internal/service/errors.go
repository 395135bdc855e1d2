package service

import (
	"errors"
	"strings"

	"github.com/iliyamo/recipe-backend/internal/repository"
)

var (
	// ErrEmailExists aliases the repository sentinel so callers only need
	// to import this package.
	ErrEmailExists = repository.ErrEmailExists
	// ErrUserNotFound aliases the repository sentinel.
	ErrUserNotFound = repository.ErrUserNotFound
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUpstream is returned when the language model call fails.
	ErrUpstream = errors.New("upstream request failed")
	// ErrMalformedUpstream is returned when the model answered but the text
	// is not a usable recipe.
	ErrMalformedUpstream = errors.New("malformed upstream response")
	// ErrTokenRevoked is returned by Authenticate for a logged-out token.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrRevocationUnavailable is returned by Logout when no revocation
	// store is configured.
	ErrRevocationUnavailable = errors.New("session revocation unavailable")
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`

	rule string // validator tag that failed, empty when set by hand
}

// ValidationError is returned before any store access when input is
// rejected.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// failed reports whether any field failed one of rules.
func (e *ValidationError) failed(rules ...string) bool {
	for _, f := range e.Fields {
		for _, r := range rules {
			if f.rule == r {
				return true
			}
		}
	}
	return false
}

// Message is the first field message, suitable for a one-line response.
func (e *ValidationError) Message() string {
	if len(e.Fields) == 0 {
		return "Invalid request"
	}
	return e.Fields[0].Message
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: msg}}}
}
