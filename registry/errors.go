package registry

import "fmt"

// Predefined errors
var (
	// ErrHandleClosed is returned by operations on a closed handle
	ErrHandleClosed = fmt.Errorf("registry: handle is closed")
	// ErrRegistryClosed is returned by Use after Close
	ErrRegistryClosed = fmt.Errorf("registry: registry is closed")
)

// ErrSubscribe wraps a failed store subscription
func ErrSubscribe(key string, err error) error {
	return fmt.Errorf("registry: failed to subscribe %s: %w", key, err)
}
