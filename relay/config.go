package relay

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// Config is the configuration for the Redis invalidation relay
type Config struct {
	// Enabled turns the relay on
	// default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Addr is the Redis server address (host:port)
	// default: "localhost:6379"
	Addr string `mapstructure:"addr" yaml:"addr"`
	// Username for Redis 6+ ACL
	Username string `mapstructure:"username" yaml:"username"`
	// Password for authentication
	Password string `mapstructure:"password" yaml:"password"`
	// DB is the database index
	// default: 0
	DB int `mapstructure:"db" yaml:"db"`
	// PoolSize is the maximum number of connections
	// default: 4
	PoolSize int `mapstructure:"pool_size" yaml:"pool_size"`
	// DialTimeout is the timeout for establishing connections
	// default: 5s
	DialTimeout time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	// PublishTimeout bounds one publish
	// default: 2s
	PublishTimeout time.Duration `mapstructure:"publish_timeout" yaml:"publish_timeout"`
	// Channel is the pub/sub channel shared by every dashboard process
	// default: "dashsync:invalidate"
	Channel string `mapstructure:"channel" yaml:"channel"`
}

// DefaultConfig returns the default configuration for the relay
func DefaultConfig() *Config {
	return &Config{
		Addr:           "localhost:6379",
		PoolSize:       4,
		DialTimeout:    5 * time.Second,
		PublishTimeout: 2 * time.Second,
		Channel:        "dashsync:invalidate",
	}
}

// MergeDefaults fills zero fields from DefaultConfig.
func (c *Config) MergeDefaults() *Config {
	def := DefaultConfig()
	if c.Addr == "" {
		c.Addr = def.Addr
	}
	if c.PoolSize == 0 {
		c.PoolSize = def.PoolSize
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = def.DialTimeout
	}
	if c.PublishTimeout == 0 {
		c.PublishTimeout = def.PublishTimeout
	}
	if c.Channel == "" {
		c.Channel = def.Channel
	}
	return c
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Addr == "" {
		return ErrInvalidConfig("addr is required")
	}
	if c.DB < 0 {
		return ErrInvalidConfig("db must be >= 0")
	}
	if c.PoolSize < 0 {
		return ErrInvalidConfig("pool_size must be >= 0")
	}
	if c.DialTimeout < 0 || c.PublishTimeout < 0 {
		return ErrInvalidConfig("timeouts must be >= 0")
	}
	if c.Channel == "" {
		return ErrInvalidConfig("channel is required")
	}
	return nil
}

// Options converts the config to go-redis options.
func (c *Config) Options() *redis.Options {
	return &redis.Options{
		Addr:        c.Addr,
		Username:    c.Username,
		Password:    c.Password,
		DB:          c.DB,
		PoolSize:    c.PoolSize,
		DialTimeout: c.DialTimeout,
	}
}
