// Package config provides configuration loading
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides, e.g. TAP_TYPO_API_SECRET.
const EnvPrefix = "TAP_TYPO"

// Load reads a JSON or YAML configuration file, applies defaults and
// environment overrides, and validates the result.
func Load(filePath string) (*TypoSourceConfig, error) {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data, configType(filePath))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes configuration content of the given type (json, yaml).
func Parse(data []byte, format string) (*TypoSourceConfig, error) {
	v := newViper()
	v.SetConfigType(format)

	content := substituteEnvVars(string(data))
	if err := v.ReadConfig(bytes.NewBufferString(content)); err != nil {
		return nil, fmt.Errorf("failed to parse %s config: %w", format, err)
	}

	cfg := &TypoSourceConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default so AutomaticEnv can see it during Unmarshal.
	d := NewTypoSourceConfig()
	defaults := map[string]interface{}{
		"name":                              d.Name,
		"type":                              d.Type,
		"version":                           d.Version,
		"cluster_api_endpoint":              "",
		"api_key":                           "",
		"api_secret":                        "",
		"repository":                        "",
		"dataset":                           "",
		"audit_id":                          0,
		"records_per_page":                  d.RecordsPerPage,
		"record_limit":                      d.RecordLimit,
		"rfc3339_datetime":                  d.RFC3339Datetime,
		"timeouts.request":                  d.Timeouts.Request,
		"timeouts.connection":               d.Timeouts.Connection,
		"timeouts.idle":                     d.Timeouts.Idle,
		"reliability.retry_attempts":        d.Reliability.RetryAttempts,
		"reliability.retry_delay":           d.Reliability.RetryDelay,
		"reliability.retry_multiplier":      d.Reliability.RetryMultiplier,
		"reliability.max_retry_delay":       d.Reliability.MaxRetryDelay,
		"reliability.retry_jitter":          d.Reliability.RetryJitter,
		"reliability.rate_limit_per_sec":    d.Reliability.RateLimitPerSec,
		"observability.log_level":           d.Observability.LogLevel,
		"observability.log_encoding":        d.Observability.LogEncoding,
		"observability.enable_tracing":      d.Observability.EnableTracing,
		"observability.tracing_sample_rate": d.Observability.TracingSampleRate,
		"observability.metrics_file":        d.Observability.MetricsFile,
		"advanced.enable_http2":             d.Advanced.EnableHTTP2,
		"advanced.enable_compression":       d.Advanced.EnableCompression,
		"advanced.compression_algorithm":    d.Advanced.CompressionAlgorithm,
		"advanced.compression_level":        d.Advanced.CompressionLevel,
		"advanced.user_agent":               d.Advanced.UserAgent,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return v
}

// configType maps a file extension to a viper config type; JSON is the default.
func configType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
// A bare $ is left alone so secrets may contain it.
func substituteEnvVars(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		b.WriteString(content[:start])
		b.WriteString(os.Getenv(content[start+2 : end]))
		content = content[end+1:]
	}
	b.WriteString(content)
	return b.String()
}
