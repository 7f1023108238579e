package typo

import (
	"github.com/ajitpratap0/tap-typo/pkg/config"
	"github.com/ajitpratap0/tap-typo/pkg/connector/core"
	"github.com/ajitpratap0/tap-typo/pkg/connector/registry"
	"github.com/ajitpratap0/tap-typo/pkg/errors"
)

func init() {
	// Register Typo source connector in the global registry
	registry.RegisterSource(SourceName, func(cfg config.Source) (core.Source, error) {
		typoCfg, ok := cfg.(*config.TypoSourceConfig)
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeConfig, "typo source needs a typo configuration, got %T", cfg)
		}
		return NewTypoSource(typoCfg)
	})

	registry.RegisterConnectorInfo(&registry.ConnectorInfo{
		Name:         SourceName,
		Type:         string(core.ConnectorTypeSource),
		Description:  "Syncs Typo dataset and audit records",
		Version:      Version,
		Capabilities: []string{"discover", "catalog", "state", "record-limit", "rfc3339-datetime"},
	})
}
