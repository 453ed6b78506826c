// Package errcode classifies the failures a sync run can end with.
package errcode

import (
	"errors"
	"fmt"
)

// Code identifies a class of failure. Codes are strings so they read well in logs.
type Code string

const (
	// InvalidConfig covers missing or malformed inputs. Nothing remote has been called yet.
	InvalidConfig Code = "INVALID_CONFIGURATION"

	// Remote covers any non-success answer or transport failure from the document store.
	Remote Code = "REMOTE"

	// NotFound covers lookups that found nothing, e.g. an unknown parent slug.
	NotFound Code = "NOT_FOUND"

	// Content covers local file problems: unreadable files, titles that cannot be extracted.
	Content Code = "CONTENT"
)

// Error attaches a Code and the failing operation to an underlying error.
type Error struct {
	Code Code
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("[%s] %v", e.Code, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Code, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with code and op.
func New(code Code, op string, err error) *Error {
	return &Error{Code: code, Op: op, Err: err}
}

// Errorf builds an Error from a format string.
func Errorf(code Code, op string, format string, args ...interface{}) *Error {
	return &Error{Code: code, Op: op, Err: fmt.Errorf(format, args...)}
}

// Has reports whether any Error in err's chain carries code.
func Has(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Err
	}
	return false
}
