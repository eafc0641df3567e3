package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a workflow failure so callers can decide how to surface it
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindAuthorization      Kind = "authorization"
	KindValidationRejected Kind = "validation_rejected"
	KindUpstreamFailure    Kind = "upstream_failure"
	KindConflict           Kind = "conflict"
)

// Error is the error type returned by every workflow operation
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports a missing booking, profile, shift or postcode
func NotFound(op, format string, args ...any) error {
	return &Error{Kind: KindNotFound, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Authorization reports an actor who is not allowed to perform op
func Authorization(op, format string, args ...any) error {
	return &Error{Kind: KindAuthorization, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Rejected reports input refused by validation or by the message gate
func Rejected(op, format string, args ...any) error {
	return &Error{Kind: KindValidationRejected, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Conflict reports an operation that does not fit the current record state
func Conflict(op, format string, args ...any) error {
	return &Error{Kind: KindConflict, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Upstream wraps a failed call to the store, the geocoder or any other collaborator
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	return &Error{Kind: KindUpstreamFailure, Op: op, Err: err}
}

// KindOf returns the kind of err, or KindUpstreamFailure for foreign errors
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUpstreamFailure
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// Message returns the user facing text of err without the operation prefix
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Msg != "" {
		return appErr.Msg
	}
	return err.Error()
}
