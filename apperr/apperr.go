package apperr

import (
	"errors"
	"sort"
	"strings"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindForbidden
	KindNotFound
	KindDependency
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindDependency:
		return "dependency"
	default:
		return "internal"
	}
}

// MsgNotFoundOrUnauthorized is returned for every failed ownership check so that
// callers cannot tell foreign content from missing content.
const MsgNotFoundOrUnauthorized = "Resource not found or unauthorized!"

type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if len(e.Fields) > 0 {
		names := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			names = append(names, k)
		}
		sort.Strings(names)
		msg += " (" + strings.Join(names, ", ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "Validation failed!", Fields: fields}
}

// MissingFields reports required fields that were absent or blank.
func MissingFields(names ...string) *Error {
	fields := make(map[string]string, len(names))
	for _, n := range names {
		fields[n] = n + " is required!"
	}
	return Validation(fields)
}

func Invalid(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// NotOwned is the opaque failure of an ownership chain walk.
func NotOwned() *Error {
	return NotFound(MsgNotFoundOrUnauthorized)
}

func Dependency(msg string, err error) *Error {
	return &Error{Kind: KindDependency, Message: msg, Err: err}
}

func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// As unwraps err into *Error when possible.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// Wrap passes *Error values through untouched and wraps anything else as Internal.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	return Internal(msg, err)
}
