package dashboard

import "fmt"

// Predefined errors
var (
	// ErrNilClient is returned when the dashboard has no REST client
	ErrNilClient = fmt.Errorf("dashboard: rest client is nil")
	// ErrNilMutator is returned when the dashboard has no mutator
	ErrNilMutator = fmt.Errorf("dashboard: mutator is nil")
)

// ErrMissingID is returned when a write needs an identifier it was not given
func ErrMissingID(what string) error {
	return fmt.Errorf("dashboard: %s id is required", what)
}
