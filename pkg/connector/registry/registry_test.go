package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tap-typo/pkg/config"
	"github.com/ajitpratap0/tap-typo/pkg/connector/core"
	"github.com/ajitpratap0/tap-typo/pkg/errors"
	"github.com/ajitpratap0/tap-typo/pkg/protocol"
)

type stubSource struct {
	name string
}

func (s *stubSource) Name() string { return s.name }
func (s *stubSource) Type() core.ConnectorType { return core.ConnectorTypeSource }
func (s *stubSource) Version() string { return "0.0.1" }
func (s *stubSource) Initialize(context.Context) error { return nil }
func (s *stubSource) Close(context.Context) error { return nil }
func (s *stubSource) Health(context.Context) error { return nil }
func (s *stubSource) Metrics() map[string]interface{} { return nil }
func (s *stubSource) Discover(context.Context) (*protocol.Catalog, error) {
	return &protocol.Catalog{}, nil
}
func (s *stubSource) Sync(_ context.Context, _ *protocol.Catalog, state *protocol.State, _ protocol.Writer) (*protocol.State, error) {
	return state, nil
}

func TestRegistrySources(t *testing.T) {
	r := NewRegistry()

	factory := func(cfg config.Source) (core.Source, error) {
		if err := cfg.Validate(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid config")
		}
		return &stubSource{name: cfg.Base().Name}, nil
	}

	require.NoError(t, r.RegisterSource("zeta", factory))
	require.NoError(t, r.RegisterSource("alpha", factory))

	err := r.RegisterSource("alpha", factory)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	assert.Equal(t, []string{"alpha", "zeta"}, r.ListSources())
	assert.True(t, r.HasSource("zeta"))
	assert.False(t, r.HasSource("missing"))

	source, err := r.CreateSource("alpha", config.NewBaseConfig("alpha-instance", "alpha"))
	require.NoError(t, err)
	assert.Equal(t, "alpha-instance", source.Name())

	_, err = r.CreateSource("missing", config.NewBaseConfig("x", "x"))
	require.Error(t, err)

	invalid := config.NewBaseConfig("", "alpha")
	_, err = r.CreateSource("alpha", invalid)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	r.Clear()
	assert.Empty(t, r.ListSources())
}

func TestRegistryConnectorInfo(t *testing.T) {
	r := NewRegistry()
	info := &ConnectorInfo{Name: "typo", Type: "source", Version: "1.0.0"}

	require.NoError(t, r.RegisterInfo(info))
	require.Error(t, r.RegisterInfo(info))

	got, err := r.Info("typo")
	require.NoError(t, err)
	assert.Same(t, info, got)

	_, err = r.Info("other")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}
