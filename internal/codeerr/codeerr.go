// Package codeerr defines the error kinds returned by the core components.
// Handlers never panic; every failure path returns one of these kinds so
// the request surface can render it as "Error: <message>" text.
package codeerr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can react without string matching.
type Kind string

const (
	NotFound       Kind = "NotFound"
	InvalidInput   Kind = "InvalidInput"
	Ambiguous      Kind = "Ambiguous"
	LoadFailed     Kind = "LoadFailed"
	ConflictFailed Kind = "ConflictFailed"
	AnalysisFailed Kind = "AnalysisFailed"
	TooLarge       Kind = "TooLarge"
)

// Error is the error value produced by every core operation.
type Error struct {
	Kind    Kind
	Message string
	Wrapped error
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Wrapped)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Wrapped }

// Is reports whether target is a *Error with the same Kind, so
// errors.Is(err, codeerr.New(codeerr.NotFound, "")) matches any NotFound
// error; the package-level Is(err, kind) is the shorter form.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}

	return false
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Wrapped: err}
}

// KindOf extracts the Kind carried by err, or "" if err is not one of ours.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
