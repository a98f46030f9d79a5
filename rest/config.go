package rest

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the configuration for the REST client
type Config struct {
	// BaseURL is prepended to every resource path, e.g. "https://admin.example.com/api"
	// default: "http://localhost:8080/api"
	BaseURL string `mapstructure:"base_url" yaml:"base_url" validate:"required,url"`
	// Timeout bounds one request, connection included
	// default: 10s
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// MaxConnsPerHost limits concurrent connections to the API host
	// default: 64
	MaxConnsPerHost int `mapstructure:"max_conns_per_host" yaml:"max_conns_per_host"`
	// UserAgent is sent with every request
	// default: "dashsync"
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
}

// DefaultConfig returns the default configuration for the REST client
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         "http://localhost:8080/api",
		Timeout:         10 * time.Second,
		MaxConnsPerHost: 64,
		UserAgent:       "dashsync",
	}
}

// MergeDefaults fills zero fields from DefaultConfig.
func (c *Config) MergeDefaults() *Config {
	def := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = def.Timeout
	}
	if c.MaxConnsPerHost == 0 {
		c.MaxConnsPerHost = def.MaxConnsPerHost
	}
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
	return c
}

var validate = validator.New()

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return ErrInvalidConfig(err.Error())
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return ErrInvalidConfig("base_url must be an http(s) URL")
	}
	if c.Timeout <= 0 {
		return ErrInvalidConfig("timeout must be > 0")
	}
	if c.MaxConnsPerHost < 0 {
		return ErrInvalidConfig("max_conns_per_host must be >= 0")
	}
	return nil
}
