package relay

import "fmt"

// Predefined errors
var (
	// ErrClosed is returned when the relay has been closed
	ErrClosed = fmt.Errorf("relay: closed")
	// ErrAlreadyStarted is returned by a second Start
	ErrAlreadyStarted = fmt.Errorf("relay: already started")
)

// ErrInvalidConfig returns an error for invalid relay configuration
func ErrInvalidConfig(reason string) error {
	return fmt.Errorf("relay: invalid config: %s", reason)
}

// ErrSubscribe wraps a failed channel subscription
func ErrSubscribe(channel string, err error) error {
	return fmt.Errorf("relay: failed to subscribe %s: %w", channel, err)
}

// ErrPublish wraps a failed publish
func ErrPublish(err error) error {
	return fmt.Errorf("relay: failed to publish: %w", err)
}

// ErrDecode wraps a message that could not be decoded
func ErrDecode(err error) error {
	return fmt.Errorf("relay: failed to decode message: %w", err)
}
