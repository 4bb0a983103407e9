// Package apperr attaches the §7 error-kind taxonomy to wrapped errors so
// handlers can map failures to response flags without string matching.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is one of the error categories spec.md §7 enumerates.
type Kind string

const (
	KindFraming  Kind = "framing"
	KindAuth     Kind = "auth"
	KindStore    Kind = "store"
	KindCamera   Kind = "camera"
	KindParser   Kind = "parser"
	KindSerial   Kind = "serial"
	KindConfig   Kind = "config"
	KindTLS      Kind = "tls"
	KindInternal Kind = "internal"
)

// Error pairs a Kind with an underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s [%s]", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap builds an *Error with the given kind and op, wrapping err.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the Kind from err, walking the unwrap chain. Returns
// KindInternal if err carries no apperr.Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
