package config

import "fmt"

// Predefined errors
var (
	// ErrNoPath is returned when Load is called without a path
	ErrNoPath = fmt.Errorf("config: no config path given")
)

// ErrRead wraps a config file that could not be read
func ErrRead(path string, err error) error {
	return fmt.Errorf("config: failed to read %s: %w", path, err)
}

// ErrParse wraps invalid YAML
func ErrParse(err error) error {
	return fmt.Errorf("config: failed to parse YAML: %w", err)
}

// ErrValidate wraps a failed validation of one section
func ErrValidate(section string, err error) error {
	return fmt.Errorf("config: invalid %s section: %w", section, err)
}
