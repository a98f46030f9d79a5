package syncer

import "fmt"

// Predefined errors
var (
	// ErrAlreadyStarted is returned by a second Start
	ErrAlreadyStarted = fmt.Errorf("syncer: already started")
	// ErrClosed is returned after Close
	ErrClosed = fmt.Errorf("syncer: closed")
)

// ErrComponent wraps a component that failed to build or start
func ErrComponent(name string, err error) error {
	return fmt.Errorf("syncer: %s: %w", name, err)
}
