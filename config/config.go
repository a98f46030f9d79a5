// Package config loads the dashsync process configuration from YAML.
//
//	logger:
//	  level: info
//	  fields: {instance: ops-laptop}
//	cache:
//	  stale_after: 30s
//	  max_retries: 2
//	rest:
//	  base_url: https://admin.example.com/api
//	relay:
//	  enabled: true
//	  addr: redis:6379
//	maintenance:
//	  sweep_spec: "@every 30s"
//	  revalidate:
//	    - spec: "@every 1m"
//	      resources: [comments-stats]
//
// Sections left out keep their package defaults.
package config

import (
	"os"

	"github.com/dailyyoga/dashsync/cache"
	"github.com/dailyyoga/dashsync/cron"
	"github.com/dailyyoga/dashsync/logger"
	"github.com/dailyyoga/dashsync/metrics"
	"github.com/dailyyoga/dashsync/relay"
	"github.com/dailyyoga/dashsync/rest"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// SessionConfig holds the initial credential.
type SessionConfig struct {
	// Token is the bearer credential; usually supplied through TokenEnv instead
	Token string `yaml:"token"`
	// TokenEnv names an environment variable read when Token is empty
	// default: "DASHSYNC_TOKEN"
	TokenEnv string `yaml:"token_env"`
}

// Config is the aggregate process configuration.
type Config struct {
	Logger      *logger.Config  `yaml:"logger" validate:"required"`
	Cache       *cache.Config   `yaml:"cache" validate:"required"`
	REST        *rest.Config    `yaml:"rest" validate:"required"`
	Relay       *relay.Config   `yaml:"relay" validate:"required"`
	Metrics     *metrics.Config `yaml:"metrics" validate:"required"`
	Maintenance *cron.Config    `yaml:"maintenance" validate:"required"`
	Session     SessionConfig   `yaml:"session"`
}

// Default returns a configuration made of every package default.
func Default() *Config {
	return &Config{
		Logger:      logger.DefaultConfig(),
		Cache:       cache.DefaultConfig(),
		REST:        rest.DefaultConfig(),
		Relay:       relay.DefaultConfig(),
		Metrics:     metrics.DefaultConfig(),
		Maintenance: cron.DefaultConfig(),
		Session:     SessionConfig{TokenEnv: "DASHSYNC_TOKEN"},
	}
}

// Load reads, parses and validates the YAML file at path.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, ErrNoPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrRead(path, err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, ErrParse(err)
	}
	cfg.fill()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fill replaces sections explicitly set to null and merges zero fields.
func (c *Config) fill() {
	def := Default()
	if c.Logger == nil {
		c.Logger = def.Logger
	}
	if c.Cache == nil {
		c.Cache = def.Cache
	}
	if c.REST == nil {
		c.REST = def.REST
	}
	if c.Relay == nil {
		c.Relay = def.Relay
	}
	if c.Metrics == nil {
		c.Metrics = def.Metrics
	}
	if c.Maintenance == nil {
		c.Maintenance = def.Maintenance
	}
	c.Logger.MergeDefaults()
	c.Cache.MergeDefaults()
	c.REST.MergeDefaults()
	c.Relay.MergeDefaults()
	c.Maintenance.MergeDefaults()
	if c.Session.TokenEnv == "" {
		c.Session.TokenEnv = def.Session.TokenEnv
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags first, then each section's own rules. The
// relay section is only checked when the relay is enabled.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return ErrValidate("config", err)
	}
	checks := []struct {
		section string
		fn      func() error
	}{
		{"logger", c.Logger.Validate},
		{"cache", c.Cache.Validate},
		{"rest", c.REST.Validate},
		{"metrics", c.Metrics.Validate},
		{"maintenance", c.Maintenance.Validate},
	}
	if c.Relay.Enabled {
		checks = append(checks, struct {
			section string
			fn      func() error
		}{"relay", c.Relay.Validate})
	}
	for _, chk := range checks {
		if err := chk.fn(); err != nil {
			return ErrValidate(chk.section, err)
		}
	}
	return nil
}

// Token returns the configured credential, falling back to TokenEnv.
func (c *Config) Token() string {
	if c.Session.Token != "" {
		return c.Session.Token
	}
	if c.Session.TokenEnv == "" {
		return ""
	}
	return os.Getenv(c.Session.TokenEnv)
}
