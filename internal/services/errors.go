package services

import (
	"errors"
	"fmt"
)

// Kind classifies client-visible failures.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindInvalidCredential
	KindValidation
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidCredential:
		return "invalid_credential"
	case KindValidation:
		return "validation_error"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error is a classified failure whose Message is safe to show to clients.
// Errors of any other type are server faults.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of a classified error, or 0 for server faults.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

const (
	msgUserNotFound       = "user not found"
	msgInvalidCredentials = "invalid credentials"
	msgInvalidCode        = "invalid code"
	msgExpiredCode        = "expired code"
	msgInvalidToken       = "invalid or expired token"
	msgEmailTaken         = "email already registered"
)
