package metrics

import "fmt"

// ErrInvalidConfig returns a metrics configuration error
func ErrInvalidConfig(msg string) error {
	return fmt.Errorf("metrics: invalid config: %s", msg)
}

// ErrRegister wraps a collector registration failure
func ErrRegister(err error) error {
	return fmt.Errorf("metrics: register collectors: %w", err)
}
