// Package serrors carries semantic error kinds through ordinary error chains.
// A kind says what went wrong in terms the callers act on (reject the request,
// retry the job, answer 404) while the wrapped cause keeps the details for logs.
package serrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a sentinel naming a category of failure. Only NewKind creates kinds.
type Kind interface {
	error
	isKind()
}

type kind struct{ s string }

func (k kind) Error() string { return k.s }
func (k kind) isKind()       {}

// NewKind creates a kind. The name is also its wire code in API error bodies.
func NewKind(name string) Kind { return kind{s: name} }

var (
	// ErrNotFound: the scan does not exist, was deleted or is no longer pending.
	ErrNotFound = NewKind("NOT_FOUND")
	// ErrUnauthorized: missing or invalid bearer token.
	ErrUnauthorized = NewKind("UNAUTHORIZED")
	// ErrForbidden: authenticated but not allowed.
	ErrForbidden = NewKind("FORBIDDEN")
	// ErrBadRequest: invalid URL, cursor, filter or configuration value.
	ErrBadRequest = NewKind("BAD_REQUEST")
	// ErrConflict: the resource is in a state that does not allow the change.
	ErrConflict = NewKind("CONFLICT")
	// ErrInternal is the kind of every error that carries none.
	ErrInternal = NewKind("INTERNAL")
	// ErrTimeout: the request or capture ran out of time.
	ErrTimeout = NewKind("TIMEOUT")
	// ErrUnavailable: the browser engine could not be started or used.
	ErrUnavailable = NewKind("UNAVAILABLE")
	// ErrRateLimited: the client sent too many requests.
	ErrRateLimited = NewKind("RATE_LIMITED")
)

// Error pairs a kind with an optional message and an optional cause.
// errors.Is and errors.As match both the kind and anything in the cause chain.
//
// Error() renders "msg: cause", "msg", "cause" or the kind name, in that
// order of preference.
type Error struct {
	kind Kind
	err  error
	msg  string
}

// With returns an error of kind k with a formatted message.
func With(k Kind, msgFmt string, args ...any) *Error {
	return &Error{kind: k, msg: fmt.Sprintf(msgFmt, args...)}
}

// Wrap returns an error of kind k that wraps err under a formatted message.
func Wrap(k Kind, err error, msgFmt string, args ...any) *Error {
	return &Error{kind: k, err: err, msg: fmt.Sprintf(msgFmt, args...)}
}

// KindOnly returns a bare error of kind k.
func KindOnly(k Kind) *Error { return &Error{kind: k} }

func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.msg != "" && e.err != nil:
		return e.msg + ": " + e.err.Error()
	case e.msg != "":
		return e.msg
	case e.err != nil:
		return e.err.Error()
	case e.kind != nil:
		return e.kind.Error()
	default:
		return "unknown error"
	}
}

func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the kind of e or matches its cause.
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return e == nil && target == nil
	}

	return (e.kind != nil && errors.Is(e.kind, target)) ||
		(e.err != nil && errors.Is(e.err, target))
}

// As assigns the kind or a matching error from the cause chain to target.
func (e *Error) As(target any) bool {
	if e == nil || target == nil {
		return false
	}

	return (e.kind != nil && errors.As(e.kind, target)) ||
		(e.err != nil && errors.As(e.err, target))
}

// Kind returns the kind of e.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the message of e without its cause. API responses show it
// to clients, so it must not leak internals.
func (e *Error) Message() string { return e.msg }

// Cause returns the wrapped error, if any.
func (e *Error) Cause() error { return e.err }

// KindOf returns the first kind found in err's chain, or ErrInternal.
func KindOf(err error) Kind {
	var k Kind
	if errors.As(err, &k) {
		return k
	}

	return ErrInternal
}

// Permanent reports whether retrying the operation that failed with err
// cannot succeed. Background jobs failing this way are canceled.
func Permanent(err error) bool {
	switch KindOf(err) {
	case ErrNotFound, ErrBadRequest, ErrForbidden, ErrConflict:
		return true
	default:
		return false
	}
}

// HTTPStatus maps the kind of err to a response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrBadRequest:
		return http.StatusBadRequest
	case ErrConflict:
		return http.StatusConflict
	case ErrTimeout:
		return http.StatusGatewayTimeout
	case ErrUnavailable:
		return http.StatusServiceUnavailable
	case ErrRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
