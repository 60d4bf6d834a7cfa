package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindInvalidInput    Kind = "invalid_input"
	KindAlreadyExists   Kind = "already_exists"
	KindUnauthenticated Kind = "unauthenticated"
	KindPaymentRequired Kind = "payment_required"
	KindNotFound        Kind = "not_found"
	KindUpstreamTimeout Kind = "upstream_timeout"
	KindUpstreamFailed  Kind = "upstream_failed"
	KindStorage         Kind = "storage"
	KindConfig          Kind = "config"
	KindBootstrap       Kind = "bootstrap"
	KindTransport       Kind = "transport"
	KindUnknown         Kind = "unknown"
)

type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Wrap(kind Kind, op, message string, err error) *Error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		Cause:   err,
	}
}

func New(kind Kind, op, message string) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
	}
}

// IsKind checks whether any error in the chain matches the provided kind.
func IsKind(err error, kind Kind) bool {
	var target *Error
	for err != nil {
		if errors.As(err, &target) {
			return target.Kind == kind
		}
		err = errors.Unwrap(err)
	}
	return false
}

// Message returns the safe, client-facing message of the error. Internal
// causes are never included.
func Message(err error) string {
	var typed *Error
	if errors.As(err, &typed) && typed.Message != "" {
		return typed.Message
	}
	return "internal server error"
}

// HTTPStatus maps an error kind to the HTTP status used by the transport
// layer. Unrecognised errors map to 500.
func HTTPStatus(err error) int {
	var typed *Error
	if !errors.As(err, &typed) {
		return http.StatusInternalServerError
	}
	switch typed.Kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindAlreadyExists:
		return http.StatusConflict
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindPaymentRequired:
		return http.StatusPaymentRequired
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	case KindUpstreamFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
