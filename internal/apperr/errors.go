package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so transports can map it without string matching.
type Kind string

const (
	NotFound          Kind = "NOT_FOUND"
	Forbidden         Kind = "FORBIDDEN"
	Unauthorized      Kind = "UNAUTHORIZED"
	InvalidState      Kind = "INVALID_STATE"
	Conflict          Kind = "CONFLICT"
	InsufficientStock Kind = "INSUFFICIENT_STOCK"
	InvalidQuantity   Kind = "INVALID_QUANTITY"
	EmptyCart         Kind = "EMPTY_CART"
	InvalidSignature  Kind = "INVALID_SIGNATURE"
	AlreadyPaid       Kind = "ALREADY_PAID"
	Required          Kind = "REQUIRED"
	Inactive          Kind = "INACTIVE"
	Invalid           Kind = "INVALID"
	Unavailable       Kind = "UNAVAILABLE"
	RateLimited       Kind = "RATE_LIMITED"
	Internal          Kind = "INTERNAL"
)

// Error is the structured outcome returned by services.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, apperr.E(apperr.NotFound, ""))
// style checks work alongside KindOf.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

func E(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns Internal for errors that did not originate here.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the human readable part of err, hiding internal causes.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != Internal {
		return appErr.Message
	}
	return "internal server error"
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case NotFound:
		return http.StatusNotFound
	case Forbidden:
		return http.StatusForbidden
	case Unauthorized:
		return http.StatusUnauthorized
	case InvalidState, Conflict, InsufficientStock, AlreadyPaid:
		return http.StatusConflict
	case InvalidQuantity, EmptyCart, InvalidSignature, Required, Inactive, Invalid:
		return http.StatusBadRequest
	case Unavailable:
		return http.StatusBadGateway
	case RateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
