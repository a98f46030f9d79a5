// Package apierr defines the error taxonomy shared by the REST collaborator,
// the cache and the mutation coordinator.
//
// Every failure that crosses the transport boundary is classified into exactly
// one of NetworkError, HTTPError, AuthError or ValidationError. CancelledError
// is internal to the cache and marks a response superseded by a newer fetch.
package apierr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// NetworkError means no response was received: dial failures, resets, timeouts.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("apierr: network error: %v", e.Err)
	}
	return fmt.Sprintf("apierr: network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError means the server responded but reported a failure.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("apierr: http %d", e.Status)
	}
	return fmt.Sprintf("apierr: http %d: %s", e.Status, e.Message)
}

// AuthError is a 401. It is handled once at the transport boundary by
// invalidating the session and is never stored in a cache entry.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "apierr: unauthorized"
	}
	return "apierr: unauthorized: " + e.Message
}

// ValidationError is a 4xx carrying a structured message from the server.
type ValidationError struct {
	Status  int
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("apierr: validation failed (%d): %s", e.Status, e.Message)
}

// CancelledError marks a fetch whose generation was superseded before it
// finished. It is never surfaced to subscribers.
type CancelledError struct {
	Generation uint64
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("apierr: fetch generation %d superseded", e.Generation)
}

// Classify maps err into the taxonomy. Errors already classified are returned
// unchanged; context deadlines and connection failures become NetworkError;
// anything else is wrapped as an HTTPError with status 0.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var (
		netErr  *NetworkError
		httpErr *HTTPError
		authErr *AuthError
		valErr  *ValidationError
		canErr  *CancelledError
	)
	switch {
	case errors.As(err, &netErr), errors.As(err, &httpErr), errors.As(err, &authErr),
		errors.As(err, &valErr), errors.As(err, &canErr):
		return err
	case errors.Is(err, context.Canceled):
		return &CancelledError{}
	case errors.Is(err, context.DeadlineExceeded):
		return &NetworkError{Op: "request", Err: err}
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return &NetworkError{Err: err}
	}
	if looksTransient(err) {
		return &NetworkError{Err: err}
	}
	return &HTTPError{Message: err.Error()}
}

// Retryable reports whether a fetch that failed with err may be attempted
// again: network failures and 5xx responses are, everything else is not.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return looksTransient(err)
}

// IsAuth reports whether err is (or wraps) an AuthError.
func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsCancelled reports whether err is (or wraps) a CancelledError.
func IsCancelled(err error) bool {
	var canErr *CancelledError
	return errors.As(err, &canErr)
}

var transientMessages = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"timeout",
	"network is unreachable",
	"no such host",
	"temporary failure",
}

func looksTransient(err error) bool {
	msg := err.Error()
	for _, s := range transientMessages {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
