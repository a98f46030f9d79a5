package mutation

import "fmt"

// Predefined errors
var (
	// ErrNilMutation is returned when Mutate is called without a function
	ErrNilMutation = fmt.Errorf("mutation: nil mutation func")
)

// ErrInvalidSet returns an error for a declared invalidation set that cannot be applied
func ErrInvalidSet(name, reason string) error {
	return fmt.Errorf("mutation: invalid set %q: %s", name, reason)
}
