package rest

import "fmt"

// Predefined errors
var (
	// ErrNilClient is returned by fetch adapters built without a client
	ErrNilClient = fmt.Errorf("rest: nil client")
)

// ErrInvalidConfig returns an error for invalid client configuration
func ErrInvalidConfig(reason string) error {
	return fmt.Errorf("rest: invalid config: %s", reason)
}

// ErrEncodeBody wraps a request body that could not be encoded
func ErrEncodeBody(err error) error {
	return fmt.Errorf("rest: failed to encode request body: %w", err)
}

// ErrDecode wraps a response payload that could not be decoded
func ErrDecode(what string, err error) error {
	return fmt.Errorf("rest: failed to decode %s: %w", what, err)
}

// ErrMissingPathParam is returned when a path placeholder has no parameter
func ErrMissingPathParam(path, name string) error {
	return fmt.Errorf("rest: path %s requires parameter %q", path, name)
}
