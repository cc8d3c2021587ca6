package optimistic

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Config holds the configuration for a Tracker. Cache is the only mandatory
// field; everything else has working defaults.
//
// Configuration can be built using the fluent builder pattern:
//
//	tracker, err := optimistic.NewTracker(
//	    optimistic.DefaultConfig(cache).
//	        WithCompressionThreshold(4 << 10).
//	        WithLogger(logger).
//	        WithMetrics(prometheus.DefaultRegisterer, ""),
//	)
type Config struct {
	// Cache is the persistent key-value collaborator. Required.
	Cache Cache

	// CompressionThreshold is the payload size in bytes above which values
	// are gzip-compressed before storage. Zero disables compression.
	// Default: 10 KiB.
	CompressionThreshold int

	// Logger receives structured logs for state transitions. Nil falls back
	// to the logrus standard logger.
	Logger *logrus.Logger

	// Registerer receives the tracker's Prometheus collectors. Nil disables
	// metrics.
	Registerer prometheus.Registerer

	// MetricsNamespace prefixes metric names. Defaults to
	// "ereceipts_optimistic".
	MetricsNamespace string
}

// DefaultConfig returns a Config for the given cache with compression
// enabled above 10 KiB and metrics disabled.
func DefaultConfig(cache Cache) *Config {
	return &Config{
		Cache:                cache,
		CompressionThreshold: 10 << 10,
	}
}

// WithCompressionThreshold sets the compression threshold in bytes. Zero or
// negative disables compression.
func (c *Config) WithCompressionThreshold(bytes int) *Config {
	c.CompressionThreshold = bytes
	return c
}

// WithLogger sets the logger used for state-transition logging.
func (c *Config) WithLogger(logger *logrus.Logger) *Config {
	c.Logger = logger
	return c
}

// WithMetrics enables Prometheus metrics on the given registerer. An empty
// namespace selects the default.
func (c *Config) WithMetrics(reg prometheus.Registerer, namespace string) *Config {
	c.Registerer = reg
	c.MetricsNamespace = namespace
	return c
}

// Validate checks the configuration and fills defaults for missing values.
// Called automatically by NewTracker.
func (c *Config) Validate() error {
	if c.Cache == nil {
		return ErrInvalidConfig
	}
	if c.CompressionThreshold < 0 {
		c.CompressionThreshold = 0
	}
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}
	return nil
}
