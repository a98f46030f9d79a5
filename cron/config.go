package cron

import (
	"time"

	"github.com/robfig/cron/v3"
)

// RevalidateConfig schedules a periodic invalidation of whole resources.
type RevalidateConfig struct {
	// Spec is the schedule, e.g. "@every 1m"
	Spec string `mapstructure:"spec" yaml:"spec"`
	// Resources are invalidated by name
	Resources []string `mapstructure:"resources" yaml:"resources"`
}

// Config is the configuration for cache maintenance
type Config struct {
	// Enabled turns maintenance on
	// default: true
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// SweepSpec schedules idle-entry eviction
	// default: "@every 30s"
	SweepSpec string `mapstructure:"sweep_spec" yaml:"sweep_spec"`
	// TaskTimeout bounds one task run
	// default: 30s
	TaskTimeout time.Duration `mapstructure:"task_timeout" yaml:"task_timeout"`
	// Revalidate lists periodic invalidations
	Revalidate []RevalidateConfig `mapstructure:"revalidate" yaml:"revalidate"`
}

// DefaultConfig returns the default configuration for maintenance
func DefaultConfig() *Config {
	return &Config{
		Enabled:     true,
		SweepSpec:   "@every 30s",
		TaskTimeout: 30 * time.Second,
	}
}

// MergeDefaults fills zero schedule and timeout fields from DefaultConfig.
func (c *Config) MergeDefaults() *Config {
	def := DefaultConfig()
	if c.SweepSpec == "" {
		c.SweepSpec = def.SweepSpec
	}
	if c.TaskTimeout == 0 {
		c.TaskTimeout = def.TaskTimeout
	}
	return c
}

var specParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.TaskTimeout < 0 {
		return ErrInvalidConfig("task_timeout must be >= 0")
	}
	if _, err := specParser.Parse(c.SweepSpec); err != nil {
		return ErrSpec(c.SweepSpec, err)
	}
	for _, r := range c.Revalidate {
		if len(r.Resources) == 0 {
			return ErrInvalidConfig("revalidate entry without resources")
		}
		if _, err := specParser.Parse(r.Spec); err != nil {
			return ErrSpec(r.Spec, err)
		}
	}
	return nil
}
