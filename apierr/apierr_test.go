package apierr

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"network passthrough", &NetworkError{Err: errors.New("x")}, "network"},
		{"wrapped validation", fmt.Errorf("op: %w", &ValidationError{Status: 422, Message: "bad"}), "validation"},
		{"deadline", context.DeadlineExceeded, "network"},
		{"canceled", context.Canceled, "cancelled"},
		{"refused", errors.New("dial tcp: connection refused"), "network"},
		{"unknown", errors.New("boom"), "http"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if kind(got) != tt.want {
				t.Errorf("Classify(%v) = %T, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"network", &NetworkError{Err: errors.New("reset")}, true},
		{"5xx", &HTTPError{Status: 502}, true},
		{"4xx http", &HTTPError{Status: 404}, false},
		{"validation", &ValidationError{Status: 400, Message: "x"}, false},
		{"auth", &AuthError{}, false},
		{"deadline", context.DeadlineExceeded, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Retryable(tt.err); got != tt.want {
				t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsAuth(t *testing.T) {
	if !IsAuth(fmt.Errorf("wrapped: %w", &AuthError{})) {
		t.Error("expected wrapped AuthError to be detected")
	}
	if IsAuth(&HTTPError{Status: 403}) {
		t.Error("403 is not an auth error")
	}
	if !IsCancelled(&CancelledError{Generation: 3}) {
		t.Error("expected CancelledError to be detected")
	}
}

func kind(err error) string {
	switch err.(type) {
	case nil:
		return ""
	case *NetworkError:
		return "network"
	case *HTTPError:
		return "http"
	case *AuthError:
		return "auth"
	case *ValidationError:
		return "validation"
	case *CancelledError:
		return "cancelled"
	}
	if errors.As(err, new(*ValidationError)) {
		return "validation"
	}
	return "other"
}
