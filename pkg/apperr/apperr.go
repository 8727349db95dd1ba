// Package apperr defines the error taxonomy surfaced to users.
// Every failure crossing a command boundary is classified by one of
// the codes below so the gateway can map it to an HTTP status and the
// session can record a single user-visible message.
package apperr

import (
	"errors"
	"fmt"
)

// Error codes.
const (
	CodeValidation = "validation" // empty required field, blocked locally
	CodeAuth       = "auth"       // no session, blocked before any network call
	CodeNotFound   = "not_found"  // stale id referenced after concurrent deletion
	CodeNetwork    = "network"    // non-2xx or transport failure
	CodeIO         = "io"         // storage listing failure
)

// Error carries a classification code, a user-facing message and an
// optional wrapped cause.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports an empty or missing required field.
func Validation(message string) *Error {
	return &Error{Code: CodeValidation, Message: message}
}

// Auth reports a missing or expired session.
func Auth(message string) *Error {
	return &Error{Code: CodeAuth, Message: message}
}

// NotFound reports a reference to an entity that no longer exists.
func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

// Network reports an upstream request failure.
func Network(message string, cause error) *Error {
	return &Error{Code: CodeNetwork, Message: message, Err: cause}
}

// IO reports a storage listing failure.
func IO(message string, cause error) *Error {
	return &Error{Code: CodeIO, Message: message, Err: cause}
}

// CodeOf returns the classification code of err, or "" if err carries
// no *Error anywhere in its chain.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// MessageOf returns the user-facing message of err, falling back to
// err.Error() for unclassified errors.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// IsValidation reports whether err is classified as a validation error.
func IsValidation(err error) bool { return CodeOf(err) == CodeValidation }

// IsAuth reports whether err is classified as an auth error.
func IsAuth(err error) bool { return CodeOf(err) == CodeAuth }

// IsNotFound reports whether err is classified as a not-found error.
func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }
