package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalJSON = `{
  "cluster_api_endpoint": "https://typo.example.com/api/",
  "api_key": "typo_key",
  "api_secret": "typo_secret",
  "repository": "mock_repository",
  "dataset": "mock_dataset",
  "audit_id": "123"
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeFile(t, "config.json", minimalJSON))
	require.NoError(t, err)

	assert.Equal(t, "https://typo.example.com/api", cfg.Endpoint())
	assert.Equal(t, int64(123), cfg.AuditID)
	assert.Equal(t, DefaultRecordsPerPage, cfg.RecordsPerPage)
	assert.Equal(t, UnlimitedRecords, cfg.RecordLimit)
	assert.False(t, cfg.Reliability.IsRateLimited())
	assert.False(t, cfg.Advanced.IsCompressionEnabled())
	assert.False(t, cfg.RFC3339Datetime)

	assert.Equal(t, 20*time.Second, cfg.Timeouts.Request)
	assert.Equal(t, 8, cfg.Reliability.RetryAttempts)
	assert.Equal(t, 3*time.Second, cfg.Reliability.RetryDelay)
	assert.Equal(t, "info", cfg.Observability.LogLevel)
}

func TestLoadYAMLWithSections(t *testing.T) {
	content := `
cluster_api_endpoint: http://localhost:8080
api_key: k
api_secret: s
repository: r
dataset: d
record_limit: 10
rfc3339_datetime: true
reliability:
  retry_attempts: 2
  retry_delay: 10ms
observability:
  log_level: debug
`
	cfg, err := Load(writeFile(t, "config.yml", content))
	require.NoError(t, err)

	assert.Equal(t, int64(0), cfg.AuditID)
	assert.Equal(t, 10, cfg.RecordLimit)
	assert.True(t, cfg.RFC3339Datetime)
	assert.Equal(t, 2, cfg.Reliability.RetryAttempts)
	assert.Equal(t, 10*time.Millisecond, cfg.Reliability.RetryDelay)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
}

func TestLoadSubstitutesAndOverridesFromEnv(t *testing.T) {
	t.Setenv("TYPO_TEST_SECRET", "from-substitution")
	t.Setenv("TAP_TYPO_DATASET", "env_dataset")
	t.Setenv("TAP_TYPO_RELIABILITY_RETRY_ATTEMPTS", "3")

	content := `{
  "cluster_api_endpoint": "https://typo.example.com",
  "api_key": "k",
  "api_secret": "${TYPO_TEST_SECRET}",
  "repository": "r",
  "dataset": "d"
}`
	cfg, err := Load(writeFile(t, "config.json", content))
	require.NoError(t, err)

	assert.Equal(t, "from-substitution", cfg.APISecret)
	assert.Equal(t, "env_dataset", cfg.Dataset)
	assert.Equal(t, 3, cfg.Reliability.RetryAttempts)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*TypoSourceConfig)
		wantErr string
	}{
		{
			name:   "valid",
			modify: func(*TypoSourceConfig) {},
		},
		{
			name: "missing credentials reported together",
			modify: func(c *TypoSourceConfig) {
				c.APIKey = ""
				c.APISecret = " "
			},
			wantErr: "config is missing required parameters: api_key, api_secret",
		},
		{
			name:    "endpoint scheme",
			modify:  func(c *TypoSourceConfig) { c.ClusterAPIEndpoint = "typo.example.com" },
			wantErr: "cluster_api_endpoint must be an http(s) URL",
		},
		{
			name:    "page size",
			modify:  func(c *TypoSourceConfig) { c.RecordsPerPage = 0 },
			wantErr: "records_per_page must be positive",
		},
		{
			name:    "retry attempts",
			modify:  func(c *TypoSourceConfig) { c.Reliability.RetryAttempts = 0 },
			wantErr: "retry_attempts must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewTypoSourceConfig()
			cfg.ClusterAPIEndpoint = "https://typo.example.com"
			cfg.APIKey = "k"
			cfg.APISecret = "s"
			cfg.Repository = "r"
			cfg.Dataset = "d"
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestOptionalFeatureToggles(t *testing.T) {
	tests := []struct {
		name        string
		rateLimit   float64
		compression string
		limited     bool
		compressed  bool
	}{
		{name: "defaults", compression: "none"},
		{name: "empty algorithm", compression: ""},
		{name: "rate limited", rateLimit: 2.5, compression: "none", limited: true},
		{name: "gzip output", compression: "gzip", compressed: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewBaseConfig("typo", "source")
			cfg.Reliability.RateLimitPerSec = tt.rateLimit
			cfg.Advanced.CompressionAlgorithm = tt.compression

			assert.Equal(t, tt.limited, cfg.Reliability.IsRateLimited())
			assert.Equal(t, tt.compressed, cfg.Advanced.IsCompressionEnabled())
		})
	}
}
