// Package apperr classifies failures that reach a client. Services return
// *Error values; the HTTP layer maps the Kind to a status code and exposes
// only Message, while the wrapped cause is logged server-side.
package apperr

import (
	"errors"
	"net/http"
)

// Kind is the category of a client-visible failure.
type Kind int

const (
	// KindInternal is anything not otherwise classified.
	KindInternal Kind = iota
	// KindValidation means a required request field was missing or malformed.
	KindValidation
	// KindConflict means the value already exists (duplicate email).
	KindConflict
	// KindNotFound means an unknown supplier id or email.
	KindNotFound
	// KindUpstream means the language model call failed.
	KindUpstream
	// KindStorage means the supplier directory was unreachable or failed.
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream"
	case KindStorage:
		return "storage"
	default:
		return "internal"
	}
}

// Error is a classified failure.
type Error struct {
	Kind    Kind
	Message string // safe to show to clients
	Op      string // operation that failed (optional)
	Err     error  // underlying cause (optional)
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the kind to a response status. Conflicts answer 400, not
// 409, to stay compatible with existing clients.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WithOp sets the failing operation and returns e.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind around a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error { return New(KindValidation, message) }

func Conflict(message string) *Error { return New(KindConflict, message) }

func NotFound(message string) *Error { return New(KindNotFound, message) }

func Upstream(message string, err error) *Error { return Wrap(KindUpstream, message, err) }

func Storage(message string, err error) *Error { return Wrap(KindStorage, message, err) }

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal.
func KindOf(err error) Kind {
	if ae, ok := As(err); ok {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// StatusAndMessage returns the response status and client-safe message for
// err. Unclassified errors produce a 500 with the fallback message.
func StatusAndMessage(err error, fallback string) (int, string) {
	if ae, ok := As(err); ok {
		msg := ae.Message
		if msg == "" {
			msg = fallback
		}
		return ae.HTTPStatus(), msg
	}
	return http.StatusInternalServerError, fallback
}
