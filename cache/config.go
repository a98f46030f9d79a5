package cache

import "time"

// Config holds configuration for Store
type Config struct {
	// StaleAfter is the default freshness budget of a resource
	// default: 30 * time.Second
	StaleAfter time.Duration `mapstructure:"stale_after" yaml:"stale_after"`
	// FetchTimeout bounds each fetch attempt
	// default: 30 * time.Second
	FetchTimeout time.Duration `mapstructure:"fetch_timeout" yaml:"fetch_timeout"`
	// MaxRetries is the default number of retries after a failed attempt
	// default: 0 (retry is opt-in per resource or per deployment)
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
	// RetryBackoff is the delay before the first retry, doubled on each further retry
	// default: 1 * time.Second
	RetryBackoff time.Duration `mapstructure:"retry_backoff" yaml:"retry_backoff"`
	// EvictionGrace is how long an entry without subscribers is kept before Sweep may evict it
	// default: 0 (eligible as soon as the last subscriber leaves)
	EvictionGrace time.Duration `mapstructure:"eviction_grace" yaml:"eviction_grace"`
	// QueueCapacity is the initial capacity of the notification queue
	// default: 64
	QueueCapacity int `mapstructure:"queue_capacity" yaml:"queue_capacity"`
}

// DefaultConfig returns the default configuration for Store
func DefaultConfig() *Config {
	return &Config{
		StaleAfter:    30 * time.Second,
		FetchTimeout:  30 * time.Second,
		MaxRetries:    0,
		RetryBackoff:  1 * time.Second,
		EvictionGrace: 0,
		QueueCapacity: 64,
	}
}

// MergeDefaults fills zero values from DefaultConfig and returns c
func (c *Config) MergeDefaults() *Config {
	defaults := DefaultConfig()
	if c.StaleAfter == 0 {
		c.StaleAfter = defaults.StaleAfter
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = defaults.FetchTimeout
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = defaults.RetryBackoff
	}
	if c.QueueCapacity == 0 {
		c.QueueCapacity = defaults.QueueCapacity
	}
	return c
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.StaleAfter < 0 {
		return ErrInvalidStaleAfter(c.StaleAfter)
	}
	if c.FetchTimeout <= 0 {
		return ErrInvalidFetchTimeout(c.FetchTimeout)
	}
	if c.MaxRetries < 0 {
		return ErrInvalidMaxRetries(c.MaxRetries)
	}
	if c.RetryBackoff < 0 {
		return ErrInvalidBackoff(c.RetryBackoff)
	}
	if c.EvictionGrace < 0 {
		return ErrInvalidEvictionGrace(c.EvictionGrace)
	}
	if c.QueueCapacity < 1 {
		return ErrInvalidQueueCapacity(c.QueueCapacity)
	}
	return nil
}

func (c *Config) retryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: c.MaxRetries, Backoff: c.RetryBackoff}
}
