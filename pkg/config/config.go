// Package config provides the unified configuration system for tap-typo.
// It defines a BaseConfig structure holding the ambient settings every
// connector shares, which connector-specific configurations embed.
//
// The configuration is organized into logical sections:
//   - Timeouts: HTTP request and connection timeouts
//   - Reliability: Retry and rate limiting
//   - Observability: Logging, metrics and tracing
//   - Advanced: Transport and output compression
//
// Example usage:
//
//	cfg := config.NewBaseConfig("typo", "source")
//	cfg.Reliability.RetryAttempts = 3
//
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config

import (
	"fmt"
	"time"
)

// BaseConfig is the unified configuration structure that all connectors use.
// Connectors should embed this structure with the squash/inline tags.
type BaseConfig struct {
	// Name identifies the connector instance
	Name string `yaml:"name" json:"name" mapstructure:"name"`
	// Type specifies the connector type registered with the registry
	Type string `yaml:"type" json:"type" mapstructure:"type"`
	// Version indicates the configuration version
	Version string `yaml:"version" json:"version" mapstructure:"version"`

	// Timeouts define various timeout durations
	Timeouts TimeoutConfig `yaml:"timeouts" json:"timeouts" mapstructure:"timeouts"`

	// Reliability settings for error handling and resilience
	Reliability ReliabilityConfig `yaml:"reliability" json:"reliability" mapstructure:"reliability"`

	// Observability settings for monitoring and debugging
	Observability ObservabilityConfig `yaml:"observability" json:"observability" mapstructure:"observability"`

	// Advanced features
	Advanced AdvancedConfig `yaml:"advanced" json:"advanced" mapstructure:"advanced"`
}

// TimeoutConfig contains all timeout-related settings.
type TimeoutConfig struct {
	// Request timeout for a single HTTP attempt
	Request time.Duration `yaml:"request" json:"request" mapstructure:"request"`
	// Connection timeout for establishing connections
	Connection time.Duration `yaml:"connection" json:"connection" mapstructure:"connection"`
	// Idle timeout before closing inactive connections
	Idle time.Duration `yaml:"idle" json:"idle" mapstructure:"idle"`
}

// ReliabilityConfig contains retry and pacing settings.
type ReliabilityConfig struct {
	// RetryAttempts is the total number of attempts for a transient failure
	RetryAttempts int `yaml:"retry_attempts" json:"retry_attempts" mapstructure:"retry_attempts"`
	// RetryDelay is the delay before the second attempt
	RetryDelay time.Duration `yaml:"retry_delay" json:"retry_delay" mapstructure:"retry_delay"`
	// RetryMultiplier increases delay exponentially
	RetryMultiplier float64 `yaml:"retry_multiplier" json:"retry_multiplier" mapstructure:"retry_multiplier"`
	// MaxRetryDelay caps the maximum retry delay
	MaxRetryDelay time.Duration `yaml:"max_retry_delay" json:"max_retry_delay" mapstructure:"max_retry_delay"`
	// RetryJitter randomizes each delay by +/- this fraction (0 = deterministic)
	RetryJitter float64 `yaml:"retry_jitter" json:"retry_jitter" mapstructure:"retry_jitter"`
	// RateLimitPerSec limits requests per second (0 = unlimited)
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec" json:"rate_limit_per_sec" mapstructure:"rate_limit_per_sec"`
}

// ObservabilityConfig contains monitoring and observability settings.
type ObservabilityConfig struct {
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level" mapstructure:"log_level"`
	// LogEncoding selects json or console output
	LogEncoding string `yaml:"log_encoding" json:"log_encoding" mapstructure:"log_encoding"`
	// EnableTracing activates span export to stderr
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing" mapstructure:"enable_tracing"`
	// TracingSampleRate controls trace sampling (0.0-1.0)
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate" mapstructure:"tracing_sample_rate"`
	// MetricsFile receives a Prometheus text snapshot at exit when set
	MetricsFile string `yaml:"metrics_file" json:"metrics_file" mapstructure:"metrics_file"`
}

// AdvancedConfig contains optional advanced features.
type AdvancedConfig struct {
	// EnableHTTP2 configures the transport for HTTP/2
	EnableHTTP2 bool `yaml:"enable_http2" json:"enable_http2" mapstructure:"enable_http2"`
	// EnableCompression requests gzip-encoded responses
	EnableCompression bool `yaml:"enable_compression" json:"enable_compression" mapstructure:"enable_compression"`
	// CompressionAlgorithm selects output file compression (none, gzip, snappy, lz4, zstd, s2)
	CompressionAlgorithm string `yaml:"compression_algorithm" json:"compression_algorithm" mapstructure:"compression_algorithm"`
	// CompressionLevel sets compression ratio vs speed (1-9)
	CompressionLevel int `yaml:"compression_level" json:"compression_level" mapstructure:"compression_level"`
	// UserAgent overrides the default User-Agent header
	UserAgent string `yaml:"user_agent" json:"user_agent" mapstructure:"user_agent"`
}

// NewBaseConfig creates a new BaseConfig with defaults suited to a
// paginated REST source: 20s per request, 8 attempts, 3s doubling backoff.
func NewBaseConfig(name, connectorType string) *BaseConfig {
	return &BaseConfig{
		Name:    name,
		Type:    connectorType,
		Version: "1.0.0",
		Timeouts: TimeoutConfig{
			Request:    20 * time.Second,
			Connection: 10 * time.Second,
			Idle:       90 * time.Second,
		},
		Reliability: ReliabilityConfig{
			RetryAttempts:   8,
			RetryDelay:      3 * time.Second,
			RetryMultiplier: 2.0,
			MaxRetryDelay:   5 * time.Minute,
			RetryJitter:     0,
			RateLimitPerSec: 0,
		},
		Observability: ObservabilityConfig{
			LogLevel:          "info",
			LogEncoding:       "json",
			EnableTracing:     false,
			TracingSampleRate: 1.0,
		},
		Advanced: AdvancedConfig{
			EnableHTTP2:          true,
			EnableCompression:    true,
			CompressionAlgorithm: "none",
			CompressionLevel:     6,
		},
	}
}

// Validate validates the configuration for correctness.
func (bc *BaseConfig) Validate() error {
	if bc.Name == "" {
		return fmt.Errorf("name is required")
	}
	if bc.Type == "" {
		return fmt.Errorf("type is required")
	}
	if bc.Timeouts.Request <= 0 {
		return fmt.Errorf("timeouts.request must be positive")
	}
	if bc.Reliability.RetryAttempts < 1 {
		return fmt.Errorf("retry_attempts must be at least 1")
	}
	if bc.Reliability.RetryDelay < 0 {
		return fmt.Errorf("retry_delay cannot be negative")
	}
	if bc.Reliability.RetryMultiplier < 1 {
		return fmt.Errorf("retry_multiplier must be at least 1")
	}
	if bc.Reliability.RetryJitter < 0 || bc.Reliability.RetryJitter >= 1 {
		return fmt.Errorf("retry_jitter must be in [0, 1)")
	}
	if bc.Reliability.RateLimitPerSec < 0 {
		return fmt.Errorf("rate_limit_per_sec cannot be negative")
	}
	return nil
}

// IsRateLimited returns true if rate limiting is enabled
func (r *ReliabilityConfig) IsRateLimited() bool {
	return r.RateLimitPerSec > 0
}

// IsCompressionEnabled returns true if output compression should be used
func (a *AdvancedConfig) IsCompressionEnabled() bool {
	return a.CompressionAlgorithm != "" && a.CompressionAlgorithm != "none"
}

// Base returns the shared section of a connector configuration.
func (bc *BaseConfig) Base() *BaseConfig {
	return bc
}

// Source is implemented by every source connector configuration. Embedding
// BaseConfig provides Base; the connector supplies its own Validate.
type Source interface {
	Base() *BaseConfig
	Validate() error
}
