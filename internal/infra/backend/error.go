// Package backend defines the coded error returned by every remote collaborator
// (database, cache, object storage, callable functions).
package backend

import (
	"errors"
	"fmt"
)

// Reasons shared by all sources. The retry layer matches on these as code suffixes.
const (
	ReasonUnavailable       = "unavailable"
	ReasonDeadlineExceeded  = "deadline-exceeded"
	ReasonTimeout           = "timeout"
	ReasonCancelled         = "cancelled"
	ReasonPermissionDenied  = "permission-denied"
	ReasonNotFound          = "not-found"
	ReasonAlreadyExists     = "already-exists"
	ReasonInvalidArgument   = "invalid-argument"
	ReasonResourceExhausted = "resource-exhausted"
	ReasonInternal          = "internal"
)

// Error is a failure reported by a remote source, tagged with a machine-readable
// code of the form "<source>/<reason>", e.g. "postgres/unavailable".
type Error struct {
	Source  string
	Reason  string
	Message string
	Err     error
}

// New creates an Error without an underlying cause.
func New(source, reason, message string) *Error {
	return &Error{Source: source, Reason: reason, Message: message}
}

// Wrap tags err with a source and reason. A nil err yields nil.
func Wrap(source, reason string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Source: source, Reason: reason, Err: err}
}

// Code returns the "<source>/<reason>" code.
func (e *Error) Code() string {
	return e.Source + "/" + e.Reason
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code(), e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Code(), e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code(), e.Err)
	default:
		return e.Code()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ReasonOf returns the reason of the first *Error in err's chain, or "" if none.
func ReasonOf(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return be.Reason
	}
	return ""
}
