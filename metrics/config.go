package metrics

// Config is the configuration for the Prometheus recorder
type Config struct {
	// Enabled turns the Prometheus recorder on; when false a Nop recorder is used
	// default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Namespace prefixes every metric name
	// default: "dashsync"
	Namespace string `mapstructure:"namespace" yaml:"namespace"`
	// Subsystem is inserted between namespace and metric name
	// default: "cache"
	Subsystem string `mapstructure:"subsystem" yaml:"subsystem"`
	// Addr is the listen address for the /metrics endpoint, empty to not serve
	// default: ""
	Addr string `mapstructure:"addr" yaml:"addr"`
	// EnableGoMetrics registers the Go runtime and process collectors
	// default: false
	EnableGoMetrics bool `mapstructure:"enable_go_metrics" yaml:"enable_go_metrics"`
}

// DefaultConfig returns the default configuration for metrics
func DefaultConfig() *Config {
	return &Config{
		Namespace: "dashsync",
		Subsystem: "cache",
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Enabled && c.Namespace == "" {
		return ErrInvalidConfig("namespace is required when metrics are enabled")
	}
	return nil
}
