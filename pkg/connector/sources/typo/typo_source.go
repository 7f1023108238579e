// Package typo implements the Typo source connector. It discovers the
// datasets and audits of a Typo account as a catalog of streams and syncs
// their records page by page, resuming after the last bookmarked record id.
package typo

import (
	"context"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-typo/pkg/auth"
	"github.com/ajitpratap0/tap-typo/pkg/clients"
	"github.com/ajitpratap0/tap-typo/pkg/config"
	"github.com/ajitpratap0/tap-typo/pkg/connector/base"
	"github.com/ajitpratap0/tap-typo/pkg/connector/core"
	"github.com/ajitpratap0/tap-typo/pkg/errors"
	"github.com/ajitpratap0/tap-typo/pkg/protocol"
)

const (
	// SourceName is the registry name of the connector.
	SourceName = "typo"
	// Version of the connector.
	Version = "1.0.0"
)

// TypoSource is the Typo source connector.
type TypoSource struct {
	*base.BaseConnector

	config      *config.TypoSourceConfig
	httpOptions []clients.Option

	httpClient *clients.HTTPClient
	session    *auth.Session
	api        *APIClient
}

// Option customizes a TypoSource.
type Option func(*TypoSource)

// WithHTTPOptions passes options to the underlying HTTP client. They are
// applied after the connector's own, so they take precedence.
func WithHTTPOptions(opts ...clients.Option) Option {
	return func(s *TypoSource) {
		s.httpOptions = append(s.httpOptions, opts...)
	}
}

// NewTypoSource creates a Typo source from a validated configuration.
func NewTypoSource(cfg *config.TypoSourceConfig, opts ...Option) (*TypoSource, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "typo source configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid typo source configuration")
	}

	s := &TypoSource{
		BaseConnector: base.NewBaseConnector(SourceName, core.ConnectorTypeSource, Version),
		config:        cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Initialize builds the HTTP client, the auth session and the API client.
func (s *TypoSource) Initialize(ctx context.Context) error {
	if err := s.BaseConnector.Initialize(ctx, &s.config.BaseConfig); err != nil {
		return err
	}

	logger := s.GetLogger()
	options := append([]clients.Option{clients.WithRetryPolicy(s.GetRetryPolicy())}, s.httpOptions...)
	s.httpClient = clients.NewHTTPClient(clients.HTTPConfigFromBase(&s.config.BaseConfig), logger, options...)
	s.session = auth.NewSession(s.config.Endpoint(), auth.Credentials{
		APIKey:    s.config.APIKey,
		APISecret: s.config.APISecret,
	}, s.httpClient, logger)
	s.api = NewAPIClient(s.session, logger)

	logger.Debug("typo source initialized",
		zap.String("endpoint", s.config.Endpoint()),
		zap.String("repository", s.config.Repository),
		zap.String("dataset", s.config.Dataset),
		zap.Int64("audit_id", s.config.AuditID))
	return nil
}

// Health obtains a token, which proves the endpoint and credentials work.
func (s *TypoSource) Health(ctx context.Context) error {
	if err := s.ensureInitialized(); err != nil {
		return err
	}
	_, err := s.session.Token(ctx)
	return err
}

// Discover builds the catalog of datasets and audits.
func (s *TypoSource) Discover(ctx context.Context) (*protocol.Catalog, error) {
	if err := s.ensureInitialized(); err != nil {
		return nil, err
	}

	var catalog *protocol.Catalog
	err := s.GetTracer().Trace(ctx, "discover", func(ctx context.Context) error {
		var err error
		catalog, err = NewCatalogBuilder(s.api, s.config.RFC3339Datetime, s.GetLogger()).Build(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

// Sync emits every selected stream, one after the other. With a nil catalog
// the stream addressed by the configuration is synced, if it exists.
func (s *TypoSource) Sync(ctx context.Context, catalog *protocol.Catalog, state *protocol.State, w protocol.Writer) (*protocol.State, error) {
	if err := s.ensureInitialized(); err != nil {
		return state, err
	}

	streams, err := s.resolveStreams(ctx, catalog)
	if err != nil {
		return state, err
	}

	syncer := NewSyncer(s.api, w, SyncOptions{
		RecordsPerPage: s.config.RecordsPerPage,
		RecordLimit:    s.config.RecordLimit,
		RFC3339:        s.config.RFC3339Datetime,
	}, s.GetLogger(),
		WithTracer(s.GetTracer()),
		WithProgress(s.NewProgressReporter))

	current := state.Clone()
	for _, stream := range streams {
		current, _, err = syncer.SyncStream(ctx, stream, current)
		if err != nil {
			return current, err
		}
	}
	return current, nil
}

// resolveStreams picks the streams to sync. In config mode the configured
// entity is described first so a missing dataset or audit fails the run.
func (s *TypoSource) resolveStreams(ctx context.Context, catalog *protocol.Catalog) ([]*protocol.Stream, error) {
	logger := s.GetLogger()

	if catalog != nil {
		selected := SelectedStreams(catalog)
		logger.Info("streams selected from catalog",
			zap.Int("available", len(catalog.Streams)),
			zap.Int("selected", len(selected)))
		return selected, nil
	}

	entity := Entity{
		Repository: s.config.Repository,
		Dataset:    s.config.Dataset,
		AuditID:    s.config.AuditID,
	}
	header, err := s.api.Describe(ctx, entity)
	if err != nil {
		return nil, err
	}
	logger.Info("configured entity found",
		zap.Int64("id", header.ID),
		zap.Bool("audit", entity.IsAudit()))

	discovered, err := s.Discover(ctx)
	if err != nil {
		return nil, err
	}

	stream, ok := ResolveConfiguredStream(discovered, entity.Repository, entity.Dataset, entity.AuditID)
	if !ok {
		logger.Warn("no discovered stream matches the configuration, nothing to sync",
			zap.String("stream", StreamID(entity.Repository, entity.Dataset, entity.AuditID)))
		return nil, nil
	}
	return []*protocol.Stream{stream}, nil
}

func (s *TypoSource) ensureInitialized() error {
	if s.api == nil {
		return errors.New(errors.ErrorTypeInternal, "typo source is not initialized")
	}
	return nil
}
