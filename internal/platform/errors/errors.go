// Package errors provides error types and utilities for ReconDragon.
// It extends the standard errors package with additional context and wrapping
// capabilities, and defines the sentinel taxonomy shared by the planner, the
// execution gate, the retry policy and the module adapters.
package errors

import (
	"errors"
	"fmt"
)

// Plan-resolution errors. These are fatal for the whole job and are reported
// before the job ever transitions to running.
var (
	// ErrUnknownModule indicates a requested module name is not registered
	ErrUnknownModule = errors.New("unknown module")

	// ErrCyclicDependency indicates the requested module set contains a dependency cycle
	ErrCyclicDependency = errors.New("cyclic module dependency")
)

// Per-module failure errors. These terminate a single module, never the job.
var (
	// ErrTimeout indicates a module invocation exceeded its time limit
	ErrTimeout = errors.New("invocation timed out")

	// ErrToolNotAvailable indicates the external tool backing a module is not installed
	ErrToolNotAvailable = errors.New("tool not available")

	// ErrToolIO indicates a transient I/O failure while driving the external tool
	ErrToolIO = errors.New("tool i/o failure")

	// ErrInvalidConfig indicates the per-module configuration is invalid
	ErrInvalidConfig = errors.New("invalid module configuration")

	// ErrOutOfScope indicates the target does not match the job scope
	ErrOutOfScope = errors.New("target out of scope")

	// ErrNotAuthorized indicates the workspace authorization check failed
	ErrNotAuthorized = errors.New("not authorized")

	// ErrMalformedResult indicates a module returned a value that does not
	// satisfy the canonical result shape
	ErrMalformedResult = errors.New("malformed result")
)

// wrappedError wraps an error with additional context
type wrappedError struct {
	msg   string
	cause error
}

// Error implements the error interface
func (e *wrappedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

// Unwrap returns the underlying error
func (e *wrappedError) Unwrap() error {
	return e.cause
}

// Wrap wraps an error with additional context message.
// If err is nil, Wrap returns nil.
//
// Example:
//   err := someOperation()
//   if err != nil {
//       return errors.Wrap(err, "failed to perform operation")
//   }
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg:   msg,
		cause: err,
	}
}

// Wrapf wraps an error with a formatted context message.
// If err is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg:   fmt.Sprintf(format, args...),
		cause: err,
	}
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around errors.Is from the standard library.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type.
// This is a convenience wrapper around errors.As from the standard library.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// New creates a new error with the given message.
func New(msg string) error {
	return errors.New(msg)
}

// Errorf formats according to a format specifier and returns the string as a value that satisfies error.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// Join returns an error that wraps the given errors.
// Any nil error values are discarded.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// IsTimeout reports whether the error is a timeout error
func IsTimeout(err error) bool {
	return Is(err, ErrTimeout)
}

// IsToolNotAvailable reports whether the error indicates a missing external tool
func IsToolNotAvailable(err error) bool {
	return Is(err, ErrToolNotAvailable)
}

// IsInvalidConfig reports whether the error is a module configuration error
func IsInvalidConfig(err error) bool {
	return Is(err, ErrInvalidConfig)
}

// IsNotAuthorized reports whether the error is an authorization error
func IsNotAuthorized(err error) bool {
	return Is(err, ErrNotAuthorized)
}

// IsMalformedResult reports whether the error is a result validation error
func IsMalformedResult(err error) bool {
	return Is(err, ErrMalformedResult)
}

// Transient reports whether the error class is worth retrying.
// Timeouts and tool I/O hiccups are transient; configuration, authorization,
// scope and missing-tool errors are permanent. Unclassified errors are treated
// as transient so a flaky tool still gets its retry budget.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case Is(err, ErrInvalidConfig),
		Is(err, ErrNotAuthorized),
		Is(err, ErrOutOfScope),
		Is(err, ErrToolNotAvailable),
		Is(err, ErrMalformedResult):
		return false
	}
	return true
}
