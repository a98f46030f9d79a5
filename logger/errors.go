package logger

import (
	"fmt"
	"strings"
)

// ErrBuildLogger wraps a zap build failure
func ErrBuildLogger(err error) error {
	return fmt.Errorf("logger: failed to build logger: %w", err)
}

// ErrInvalidLevel is returned for an unknown level
func ErrInvalidLevel(level string) error {
	return fmt.Errorf("logger: invalid level %q, must be one of: %s", level, strings.Join(validLevels, ", "))
}

// ErrInvalidEncoding is returned for an unknown encoding
func ErrInvalidEncoding(encoding string) error {
	return fmt.Errorf("logger: invalid encoding %q, must be one of: %s", encoding, strings.Join(validEncodings, ", "))
}
