// Package errors provides structured errors for hostkit components.
// Every error carries a code identifying its failure domain, a short
// message, and an optional suggestion for the operator.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors by failure domain.
const (
	// ErrConfig covers configuration loading and validation failures.
	ErrConfig = "CONFIG"
	// ErrLocal is a non-zero exit from a command run on the local machine.
	ErrLocal = "LOCAL"
	// ErrTransport is a failure to establish or complete the remote
	// session itself (the transport's reserved exit code), distinct from
	// the remote command's own failure.
	ErrTransport = "TRANSPORT"
	// ErrRemote is a remote command that ran but exited non-zero.
	ErrRemote = "REMOTE"
	// ErrMount is a failure of the mount command itself.
	ErrMount = "MOUNT"
	// ErrMountPoint is a mount point that exists but is not a directory.
	ErrMountPoint = "MOUNTPOINT"
	// ErrResolve means no usable (non-loopback) address was found.
	ErrResolve = "RESOLVE"
	// ErrSSH covers native SSH probe failures (doctor only).
	ErrSSH = "SSH"
)

// Error is a structured error with code, message, suggestion, and an
// optional cause. Formatted as:
//
//	✗ <what failed>
//
//	  <why it failed>
//
//	  <how to fix it>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrLocal code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrLocal,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var hkErr *Error
	if errors.As(err, &hkErr) {
		return hkErr.Code == code
	}
	return false
}
