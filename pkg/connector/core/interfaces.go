package core

import (
	"context"

	"github.com/ajitpratap0/tap-typo/pkg/protocol"
)

// ConnectorType represents the type of connector
type ConnectorType string

const (
	ConnectorTypeSource ConnectorType = "source"
)

// Connector is the base interface for all connectors
type Connector interface {
	// Metadata
	Name() string
	Type() ConnectorType
	Version() string

	// Lifecycle
	Initialize(ctx context.Context) error
	Close(ctx context.Context) error

	// Health and monitoring
	Health(ctx context.Context) error
	Metrics() map[string]interface{}
}

// Source is the interface that all source connectors must implement.
type Source interface {
	Connector

	// Discover builds the catalog of streams the source can sync.
	Discover(ctx context.Context) (*protocol.Catalog, error)

	// Sync emits the selected streams of catalog to w, resuming from state.
	// A nil catalog means the stream is chosen from the source's own
	// configuration. The returned state holds the last bookmark of every
	// synced stream, including on error.
	Sync(ctx context.Context, catalog *protocol.Catalog, state *protocol.State, w protocol.Writer) (*protocol.State, error)
}
