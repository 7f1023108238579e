// Package config provides connector-specific configurations that embed BaseConfig
package config

import (
	"fmt"
	"sort"
	"strings"
)

// Defaults for the Typo source.
const (
	DefaultRecordsPerPage = 100
	UnlimitedRecords      = -1
)

// TypoSourceConfig contains configuration for the Typo source connector
type TypoSourceConfig struct {
	BaseConfig `yaml:",inline" json:",inline" mapstructure:",squash"`

	// Typo API configuration
	ClusterAPIEndpoint string `yaml:"cluster_api_endpoint" json:"cluster_api_endpoint" mapstructure:"cluster_api_endpoint" required:"true"`
	APIKey             string `yaml:"api_key" json:"api_key" mapstructure:"api_key" required:"true"`
	APISecret          string `yaml:"api_secret" json:"api_secret" mapstructure:"api_secret" required:"true"`

	// Entity to sync when no catalog is given
	Repository string `yaml:"repository" json:"repository" mapstructure:"repository" required:"true"`
	Dataset    string `yaml:"dataset" json:"dataset" mapstructure:"dataset" required:"true"`
	AuditID    int64  `yaml:"audit_id" json:"audit_id" mapstructure:"audit_id"` // 0 = dataset

	// Sync behavior
	RecordsPerPage  int  `yaml:"records_per_page" json:"records_per_page" mapstructure:"records_per_page" default:"100"`
	RecordLimit     int  `yaml:"record_limit" json:"record_limit" mapstructure:"record_limit" default:"-1"` // <= 0 = no limit
	RFC3339Datetime bool `yaml:"rfc3339_datetime" json:"rfc3339_datetime" mapstructure:"rfc3339_datetime" default:"false"`
}

// NewTypoSourceConfig returns a configuration with defaults applied.
func NewTypoSourceConfig() *TypoSourceConfig {
	return &TypoSourceConfig{
		BaseConfig:     *NewBaseConfig("typo", "typo"),
		RecordsPerPage: DefaultRecordsPerPage,
		RecordLimit:    UnlimitedRecords,
	}
}

// Validate reports every missing required parameter at once.
func (c *TypoSourceConfig) Validate() error {
	var missing []string
	for key, value := range map[string]string{
		"cluster_api_endpoint": c.ClusterAPIEndpoint,
		"api_key":              c.APIKey,
		"api_secret":           c.APISecret,
		"repository":           c.Repository,
		"dataset":              c.Dataset,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("config is missing required parameters: %s", strings.Join(missing, ", "))
	}

	if !strings.HasPrefix(c.ClusterAPIEndpoint, "http://") && !strings.HasPrefix(c.ClusterAPIEndpoint, "https://") {
		return fmt.Errorf("cluster_api_endpoint must be an http(s) URL")
	}
	if c.AuditID < 0 {
		return fmt.Errorf("audit_id cannot be negative")
	}
	if c.RecordsPerPage <= 0 {
		return fmt.Errorf("records_per_page must be positive")
	}

	return c.BaseConfig.Validate()
}

// Endpoint returns the API base URL without a trailing slash.
func (c *TypoSourceConfig) Endpoint() string {
	return strings.TrimRight(c.ClusterAPIEndpoint, "/")
}
