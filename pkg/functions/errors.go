package functions

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a call failed.
type ErrorKind int

const (
	// LookupError means the function name is not registered.
	LookupError ErrorKind = iota + 1
	// ArgumentError means wrong arity, an unknown keyword or a mistyped argument.
	ArgumentError
	// ParseError means malformed datetime, JSON, duration or timezone input.
	ParseError
	// RangeError means an index or empty-collection access.
	RangeError
)

func (k ErrorKind) String() string {
	switch k {
	case LookupError:
		return "lookup error"
	case ArgumentError:
		return "argument error"
	case ParseError:
		return "parse error"
	case RangeError:
		return "range error"
	}
	return "error"
}

// Sentinels for errors.Is. A *Error matches the sentinel of its Kind.
var (
	ErrLookup   = errors.New("lookup error")
	ErrArgument = errors.New("argument error")
	ErrParse    = errors.New("parse error")
	ErrRange    = errors.New("range error")
)

// Error is returned by every failed call.
type Error struct {
	Kind ErrorKind
	Func string
	Msg  string
	Err  error
}

func newError(kind ErrorKind, fn, format string, args ...any) *Error {
	return &Error{Kind: kind, Func: fn, Msg: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, fn string, err error, format string, args ...any) *Error {
	e := newError(kind, fn, format, args...)
	e.Err = err
	return e
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Func != "" {
		msg += " in " + e.Func
	}
	msg += ": " + e.Msg
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for e's kind, so errors.Is(err, ErrRange) works.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrLookup:
		return e.Kind == LookupError
	case ErrArgument:
		return e.Kind == ArgumentError
	case ErrParse:
		return e.Kind == ParseError
	case ErrRange:
		return e.Kind == RangeError
	}
	return false
}

// withFunc stamps the function name onto errors raised by shared helpers.
func withFunc(err error, fn string) error {
	var e *Error
	if errors.As(err, &e) && e.Func == "" {
		e.Func = fn
	}
	return err
}
