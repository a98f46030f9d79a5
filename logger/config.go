package logger

import (
	"slices"
	"strings"
)

var (
	validLevels    = []string{"debug", "info", "warn", "error"}
	validEncodings = []string{"json", "console"}
)

// Config is the configuration for the logger
type Config struct {
	// Level is one of debug, info, warn, error
	// default: "info"
	Level string `mapstructure:"level" yaml:"level"`
	// Encoding is json or console; console also enables development mode
	// default: "json"
	Encoding string `mapstructure:"encoding" yaml:"encoding"`
	// Name is the root logger name; components log as "<name>.<component>"
	// default: "dashsync"
	Name string `mapstructure:"name" yaml:"name"`
	// Fields are attached to every entry, e.g. {"instance": "ops-laptop"}
	Fields map[string]string `mapstructure:"fields" yaml:"fields"`
	// OutputPaths
	// default: []string{"stdout"}
	OutputPaths []string `mapstructure:"output_paths" yaml:"output_paths"`
	// ErrorOutputPaths receive zap's internal errors
	// default: []string{"stderr"}
	ErrorOutputPaths []string `mapstructure:"error_output_paths" yaml:"error_output_paths"`
}

// DefaultConfig returns the default configuration for the logger
func DefaultConfig() *Config {
	return &Config{
		Level:            "info",
		Encoding:         "json",
		Name:             "dashsync",
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
}

// MergeDefaults fills zero fields with defaults and returns c
func (c *Config) MergeDefaults() *Config {
	def := DefaultConfig()
	if c.Level == "" {
		c.Level = def.Level
	}
	if c.Encoding == "" {
		c.Encoding = def.Encoding
	}
	if c.Name == "" {
		c.Name = def.Name
	}
	if len(c.OutputPaths) == 0 {
		c.OutputPaths = def.OutputPaths
	}
	if len(c.ErrorOutputPaths) == 0 {
		c.ErrorOutputPaths = def.ErrorOutputPaths
	}
	return c
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if !slices.Contains(validLevels, strings.ToLower(c.Level)) {
		return ErrInvalidLevel(c.Level)
	}
	if !slices.Contains(validEncodings, c.Encoding) {
		return ErrInvalidEncoding(c.Encoding)
	}
	return nil
}
