package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// PermissionError is returned by the authorization gate when a principal
// attempts a mutation their role or ownership does not permit. It is always
// raised before the mutation reaches the store.
type PermissionError struct {
	Reason string
}

func NewPermissionError(reason string) error {
	return &PermissionError{Reason: reason}
}

func (err PermissionError) Error() string { return err.Reason }

func IsPermissionDenied(err error) bool {
	_, ok := errors.Cause(err).(*PermissionError)
	return ok
}

// NotProvisionedError indicates that a non-admin principal has no linked
// domain profile (sign-up succeeded but the profile row is missing).
// Callers render an empty/placeholder state, not an error banner.
type NotProvisionedError struct {
	Role string
}

func NewNotProvisionedError(role string) error {
	return &NotProvisionedError{Role: role}
}

func (err NotProvisionedError) Error() string {
	return err.Role + " account has no linked profile"
}

func IsNotProvisioned(err error) bool {
	_, ok := errors.Cause(err).(*NotProvisionedError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
