package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so transports can pick a status code.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindConflict      ErrorKind = "conflict"
	KindNotFound      ErrorKind = "not_found"
	KindAlreadyClosed ErrorKind = "already_closed"
	KindUpstream      ErrorKind = "upstream"
	KindPersistence   ErrorKind = "persistence"
)

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func ValidationError(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func ConflictError(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func NotFoundError(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func AlreadyClosedError(format string, args ...any) error {
	return &Error{Kind: KindAlreadyClosed, Message: fmt.Sprintf(format, args...)}
}

func UpstreamError(message string, err error) error {
	return &Error{Kind: KindUpstream, Message: message, Err: err}
}

func PersistenceError(message string, err error) error {
	return &Error{Kind: KindPersistence, Message: message, Err: err}
}

// KindOf reports the kind of err. Unclassified errors are persistence failures.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindPersistence
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == kind
}

// MessageOf returns the user-facing message of a classified error.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return err.Error()
}
