package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "error with cause",
			err: Wrap(KindStorage, "load", "failed to load user store",
				errors.New("file not found")),
			contains: []string{"[storage:load]", "failed to load user store", "file not found"},
		},
		{
			name:     "error without cause",
			err:      New(KindInvalidInput, "signup", "email and password required"),
			contains: []string{"[invalid_input:signup]", "email and password required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()
			for _, substr := range tt.contains {
				if !strings.Contains(errStr, substr) {
					t.Errorf("error string %q does not contain %q", errStr, substr)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	wrappedErr := Wrap(KindStorage, "test", "wrapped", originalErr)

	if !errors.Is(wrappedErr, originalErr) {
		t.Error("Unwrap should return the original error")
	}
}

func TestIsKind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		kind     Kind
		expected bool
	}{
		{
			name:     "direct error kind match",
			err:      New(KindUnauthenticated, "test", "message"),
			kind:     KindUnauthenticated,
			expected: true,
		},
		{
			name:     "wrapped error kind match",
			err:      Wrap(KindUpstreamFailed, "test", "message", errors.New("cause")),
			kind:     KindUpstreamFailed,
			expected: true,
		},
		{
			name:     "error kind mismatch",
			err:      New(KindNotFound, "test", "message"),
			kind:     KindPaymentRequired,
			expected: false,
		},
		{
			name:     "non-typed error",
			err:      errors.New("plain error"),
			kind:     KindStorage,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsKind(tt.err, tt.kind)
			if result != tt.expected {
				t.Errorf("IsKind() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected int
	}{
		{KindInvalidInput, http.StatusBadRequest},
		{KindAlreadyExists, http.StatusConflict},
		{KindUnauthenticated, http.StatusUnauthorized},
		{KindPaymentRequired, http.StatusPaymentRequired},
		{KindNotFound, http.StatusNotFound},
		{KindUpstreamTimeout, http.StatusGatewayTimeout},
		{KindUpstreamFailed, http.StatusBadGateway},
		{KindStorage, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := New(tt.kind, "test", "message")
			if got := HTTPStatus(err); got != tt.expected {
				t.Errorf("HTTPStatus() = %d, expected %d", got, tt.expected)
			}
		})
	}

	if got := HTTPStatus(errors.New("plain")); got != http.StatusInternalServerError {
		t.Errorf("HTTPStatus(plain) = %d, expected 500", got)
	}
}

func TestMessage(t *testing.T) {
	err := New(KindPaymentRequired, "generate", "payment required")
	if got := Message(err); got != "payment required" {
		t.Errorf("Message() = %q", got)
	}

	wrapped := fmt.Errorf("handler: %w", err)
	if got := Message(wrapped); got != "payment required" {
		t.Errorf("Message(wrapped) = %q", got)
	}

	if got := Message(errors.New("sql: broken pipe")); got != "internal server error" {
		t.Errorf("Message(plain) = %q, internal details must not leak", got)
	}
}
