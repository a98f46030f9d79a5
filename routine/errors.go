package routine

import "fmt"

// ErrPanicRecovered is returned when a panic is recovered in a goroutine
var ErrPanicRecovered = fmt.Errorf("routine: panic recovered")

// ErrPanic returns an error wrapping ErrPanicRecovered and the recovered value
func ErrPanic(recovered any) error {
	return fmt.Errorf("%w: %v", ErrPanicRecovered, recovered)
}
