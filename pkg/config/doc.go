// Package config provides configuration management for tap-typo.
//
// # Key Features
//
// - BaseConfig: ambient settings shared by connectors (timeouts, retries, observability)
// - TypoSourceConfig: Typo API credentials and sync options, embedding BaseConfig
// - JSON or YAML files, selected by extension
// - Environment variable substitution with ${VAR_NAME} syntax
// - Environment overrides with the TAP_TYPO_ prefix, e.g. TAP_TYPO_API_SECRET
//
// # Usage
//
//	cfg, err := config.Load("config.json")
//	if err != nil {
//		return err
//	}
//
// A minimal configuration file:
//
//	{
//	  "cluster_api_endpoint": "https://cluster.typo.ai/management/api/v1",
//	  "api_key": "typo_key",
//	  "api_secret": "${TYPO_SECRET}",
//	  "repository": "my_repository",
//	  "dataset": "my_dataset",
//	  "audit_id": 123,
//	  "records_per_page": 100
//	}
//
// Nested sections tune the ambient behavior:
//
//	reliability:
//	  retry_attempts: 8
//	  retry_delay: 3s
//	observability:
//	  log_level: debug
package config
