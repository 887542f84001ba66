// Package apperr classifies errors by how they should be reported to a chat user.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the reporting class of an error.
type Kind int

const (
	// KindInternal is anything unexpected. It is logged and answered with a generic notice.
	KindInternal Kind = iota
	// KindInput covers malformed arguments and illegal moves.
	KindInput
	// KindForbidden covers privileged actions and foreign menus.
	KindForbidden
	// KindStale covers resolved, expired or superseded sessions.
	KindStale
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindForbidden:
		return "forbidden"
	case KindStale:
		return "stale"
	default:
		return "internal"
	}
}

// Error is an error with a user-facing message and a class.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

// Input returns a user input error.
func Input(msg string) *Error {
	return &Error{Kind: KindInput, Msg: msg}
}

// Inputf returns a formatted user input error.
func Inputf(format string, args ...any) *Error {
	return Input(fmt.Sprintf(format, args...))
}

// Forbidden returns an authorization error.
func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Msg: msg}
}

// Stale returns a stale-reference error.
func Stale(msg string) *Error {
	return &Error{Kind: KindStale, Msg: msg}
}

// KindOf reports the class of err. Unclassified errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the user-facing text of the first classified error in the chain.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return ""
}
