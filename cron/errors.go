package cron

import "fmt"

var (
	// ErrNoTasks is returned when attempting to add a chain job with no tasks
	ErrNoTasks = fmt.Errorf("cron: no tasks provided")

	// ErrInvalidSpec is returned when a cron spec string is invalid
	ErrInvalidSpec = fmt.Errorf("cron: invalid cron spec")

	// ErrCronClosed is returned when attempting to operate on a closed cron manager
	ErrCronClosed = fmt.Errorf("cron: cron manager is closed")
)

// ErrSpec wraps a spec the parser rejected
func ErrSpec(spec string, err error) error {
	return fmt.Errorf("%w %q: %v", ErrInvalidSpec, spec, err)
}

// ErrInvalidConfig returns an error for invalid maintenance configuration
func ErrInvalidConfig(reason string) error {
	return fmt.Errorf("cron: invalid config: %s", reason)
}

// ErrDuplicateChain is returned when a chain name is registered twice
func ErrDuplicateChain(name string) error {
	return fmt.Errorf("cron: chain %q already registered", name)
}

// ErrUnknownChain is returned by RunNow for an unregistered chain
func ErrUnknownChain(name string) error {
	return fmt.Errorf("cron: unknown chain %q", name)
}
