package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is against any error returned by
// this module.
var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrNetwork             = errors.New("network error")
	ErrExpiry              = errors.New("expired")
	ErrAuthorization       = errors.New("authorization error")
	ErrDerivationExhausted = errors.New("derivation exhausted")
	ErrCompensationFailure = errors.New("saga compensation failure")
)

var kinds = []error{
	ErrValidation,
	ErrNotFound,
	ErrNetwork,
	ErrExpiry,
	ErrAuthorization,
	ErrDerivationExhausted,
	ErrCompensationFailure,
}

// Error is a typed error carrying the operation that produced it and a
// human-readable reason.
type Error struct {
	Kind   error
	Op     string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Errorf builds an Error of the given kind with a formatted reason.
func Errorf(kind error, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Reason: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and operation to an underlying error.
func Wrap(kind error, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the first known kind in err's chain, or nil.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
