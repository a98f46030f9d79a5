package cache

import (
	"fmt"
	"time"
)

// Predefined errors
var (
	// ErrStoreClosed is returned when operations are attempted on a closed store
	ErrStoreClosed = fmt.Errorf("cache: store is closed")
	// ErrNilCallback is returned by Subscribe when no callback is given
	ErrNilCallback = fmt.Errorf("cache: nil callback")
)

// Error constructors

// ErrUnknownResource is returned for keys whose resource was never registered
func ErrUnknownResource(name string) error {
	return fmt.Errorf("cache: unknown resource %q", name)
}

// ErrInvalidResource returns an error for an incomplete resource definition
func ErrInvalidResource(name, reason string) error {
	return fmt.Errorf("cache: invalid resource %q: %s", name, reason)
}

// ErrDuplicateResource is returned when a resource name is registered twice
func ErrDuplicateResource(name string) error {
	return fmt.Errorf("cache: resource %q already registered", name)
}

// ErrInvalidStaleAfter returns an error for invalid stale_after
func ErrInvalidStaleAfter(d time.Duration) error {
	return fmt.Errorf("cache: invalid stale after: %v (must be >= 0)", d)
}

// ErrInvalidFetchTimeout returns an error for invalid fetch timeout
func ErrInvalidFetchTimeout(d time.Duration) error {
	return fmt.Errorf("cache: invalid fetch timeout: %v (must be > 0)", d)
}

// ErrInvalidMaxRetries returns an error for invalid max retries
func ErrInvalidMaxRetries(retries int) error {
	return fmt.Errorf("cache: invalid max retries: %d (must be >= 0)", retries)
}

// ErrInvalidBackoff returns an error for invalid retry backoff
func ErrInvalidBackoff(d time.Duration) error {
	return fmt.Errorf("cache: invalid retry backoff: %v (must be >= 0)", d)
}

// ErrInvalidEvictionGrace returns an error for invalid eviction grace
func ErrInvalidEvictionGrace(d time.Duration) error {
	return fmt.Errorf("cache: invalid eviction grace: %v (must be >= 0)", d)
}

// ErrInvalidQueueCapacity returns an error for invalid queue capacity
func ErrInvalidQueueCapacity(n int) error {
	return fmt.Errorf("cache: invalid queue capacity: %d (must be >= 1)", n)
}
