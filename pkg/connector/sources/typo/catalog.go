package typo

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-typo/pkg/errors"
	"github.com/ajitpratap0/tap-typo/pkg/protocol"
)

// Typo-specific metadata keys.
const (
	MetadataRepository     = "repository"
	MetadataDataset        = "dataset"
	MetadataAuditID        = "audit_id"
	MetadataDatetimeFormat = "datetime-format"
)

const streamIDPrefix = "tap-typo"

// StreamID derives the stable stream id of an entity:
// tap-typo-<repository>[-<dataset>][-audit-<audit id>].
func StreamID(repository, dataset string, auditID int64) string {
	var b strings.Builder
	b.WriteString(streamIDPrefix)
	b.WriteByte('-')
	b.WriteString(repository)
	if dataset != "" {
		b.WriteByte('-')
		b.WriteString(dataset)
	}
	if auditID > 0 {
		b.WriteString("-audit-")
		b.WriteString(strconv.FormatInt(auditID, 10))
	}
	return b.String()
}

// catalogEntry is a dataset or audit selected for the catalog.
type catalogEntry struct {
	entity   Entity
	schema   *FieldMap
	rowCount int64
}

// CatalogBuilder discovers the streams available to the configured account.
type CatalogBuilder struct {
	api     *APIClient
	rfc3339 bool
	logger  *zap.Logger
}

// NewCatalogBuilder creates a builder. rfc3339 controls whether date-time
// properties are announced with the date-time format.
func NewCatalogBuilder(api *APIClient, rfc3339 bool, logger *zap.Logger) *CatalogBuilder {
	return &CatalogBuilder{
		api:     api,
		rfc3339: rfc3339,
		logger:  logger.With(zap.String("component", "catalog_builder")),
	}
}

// Build lists datasets with models and completed audits, datasets first,
// and describes each as a stream.
func (b *CatalogBuilder) Build(ctx context.Context) (*protocol.Catalog, error) {
	datasets, err := b.api.ListDatasets(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.TypeOf(err), "failed to list datasets")
	}
	audits, err := b.api.ListAudits(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.TypeOf(err), "failed to list audits")
	}

	entries := make([]catalogEntry, 0, len(datasets)+len(audits))
	for _, d := range datasets {
		entries = append(entries, catalogEntry{
			entity:   Entity{Repository: d.Repository, Dataset: d.Dataset},
			schema:   d.Schema,
			rowCount: d.RowCount,
		})
	}
	for _, a := range audits {
		entries = append(entries, catalogEntry{
			entity:   Entity{Repository: a.Repository, Dataset: a.Dataset, AuditID: a.ID},
			schema:   a.Schema,
			rowCount: a.RowCount,
		})
	}

	catalog := &protocol.Catalog{Streams: make([]*protocol.Stream, 0, len(entries))}
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		stream := b.describe(entry)
		if _, dup := seen[stream.TapStreamID]; dup {
			b.logger.Warn("skipping duplicate stream", zap.String("stream", stream.TapStreamID))
			continue
		}
		seen[stream.TapStreamID] = struct{}{}
		catalog.Streams = append(catalog.Streams, stream)
	}

	b.logger.Info("catalog built",
		zap.Int("datasets", len(datasets)),
		zap.Int("audits", len(audits)),
		zap.Int("streams", len(catalog.Streams)))
	return catalog, nil
}

// describe runs schema inference for entry and assembles its metadata.
func (b *CatalogBuilder) describe(entry catalogEntry) *protocol.Stream {
	e := entry.entity
	streamID := StreamID(e.Repository, e.Dataset, e.AuditID)
	inferred := InferSchema(entry.schema, b.rfc3339)

	var auditID interface{}
	if e.IsAudit() {
		auditID = e.AuditID
	}

	metadata := []protocol.MetadataEntry{{
		Breadcrumb: []string{},
		Metadata: map[string]interface{}{
			protocol.MetadataTableKeyProperties:   inferred.KeyProperties,
			protocol.MetadataInclusion:            protocol.InclusionAvailable,
			protocol.MetadataSchemaName:           streamID,
			MetadataRepository:                    e.Repository,
			MetadataDataset:                       e.Dataset,
			MetadataAuditID:                       auditID,
			protocol.MetadataIsView:               e.IsAudit(),
			protocol.MetadataDatabaseName:         e.Repository,
			protocol.MetadataRowCount:             entry.rowCount,
			protocol.MetadataValidReplicationKeys: []string{RecordIDProperty},
			protocol.MetadataSelectedByDefault:    false,
		},
	}}

	for _, field := range inferred.Schema.PropertyNames() {
		md := map[string]interface{}{
			protocol.MetadataInclusion:         protocol.InclusionAvailable,
			protocol.MetadataSelectedByDefault: true,
		}
		if inferred.IsKeyProperty(field) {
			md[protocol.MetadataInclusion] = protocol.InclusionAutomatic
		}
		if sqlType, ok := inferred.SQLTypes[field]; ok {
			md[protocol.MetadataSQLDatatype] = sqlType
		}
		if format, ok := inferred.RemoteFormats[field]; ok {
			md[MetadataDatetimeFormat] = format
		}
		metadata = append(metadata, protocol.MetadataEntry{
			Breadcrumb: protocol.FieldBreadcrumb(field),
			Metadata:   md,
		})
	}

	return &protocol.Stream{
		Stream:             streamID,
		TapStreamID:        streamID,
		Schema:             inferred.Schema,
		Metadata:           metadata,
		KeyProperties:      inferred.KeyProperties,
		BookmarkProperties: []string{RecordIDProperty},
	}
}

// entityOf reads a stream's remote coordinates from its metadata.
func entityOf(stream *protocol.Stream) (Entity, error) {
	md := stream.StreamMetadata()
	repository, _ := protocol.MetadataString(md, MetadataRepository)
	dataset, _ := protocol.MetadataString(md, MetadataDataset)
	auditID, _ := protocol.MetadataInt64(md, MetadataAuditID)

	if repository == "" || dataset == "" {
		return Entity{}, errors.Newf(errors.ErrorTypeValidation,
			"stream %s has no repository/dataset metadata", stream.TapStreamID).
			WithDetail(errors.DetailStream, stream.TapStreamID)
	}
	return Entity{Repository: repository, Dataset: dataset, AuditID: auditID}, nil
}
