package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindNotFound        ErrorKind = "NOT_FOUND"
	KindInvalidState    ErrorKind = "INVALID_STATE"
	KindInvalidArgument ErrorKind = "INVALID_ARGUMENT"
	KindConflict        ErrorKind = "CONFLICT"
	KindUnauthorized    ErrorKind = "UNAUTHORIZED"
	KindForbidden       ErrorKind = "FORBIDDEN"
	KindTooManyAttempts ErrorKind = "TOO_MANY_ATTEMPTS"
	KindInternal        ErrorKind = "INTERNAL"
)

// Sentinels for errors.Is checks. Every *Error matches the sentinel of its kind.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("invalid state")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrTooManyAttempts = errors.New("too many attempts")
)

// ErrConcurrencyConflict is returned by repositories when an optimistic
// version check fails.
var ErrConcurrencyConflict = &Error{Kind: KindConflict, Message: "rental was modified concurrently, retry the operation"}

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Expected reports whether the error rejects a request as opposed to a
// system failure.
func (e *Error) Expected() bool {
	return e.Kind != KindInternal
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrInvalidState:
		return e.Kind == KindInvalidState
	case ErrInvalidArgument:
		return e.Kind == KindInvalidArgument
	case ErrConflict:
		return e.Kind == KindConflict
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	case ErrForbidden:
		return e.Kind == KindForbidden
	case ErrTooManyAttempts:
		return e.Kind == KindTooManyAttempts
	}
	return false
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...any) error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func InvalidArgument(format string, args ...any) error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...any) error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func TooManyAttempts(format string, args ...any) error {
	return &Error{Kind: KindTooManyAttempts, Message: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of err, or KindInternal for errors that did not
// originate from this package.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
