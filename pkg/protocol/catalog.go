package protocol

import (
	"os"
	"strconv"

	"github.com/ajitpratap0/tap-typo/pkg/errors"
	jsonpool "github.com/ajitpratap0/tap-typo/pkg/json"
)

// Standard metadata keys.
const (
	MetadataSelected             = "selected"
	MetadataSelectedByDefault    = "selected-by-default"
	MetadataInclusion            = "inclusion"
	MetadataTableKeyProperties   = "table-key-properties"
	MetadataValidReplicationKeys = "valid-replication-keys"
	MetadataSchemaName           = "schema-name"
	MetadataDatabaseName         = "database-name"
	MetadataIsView               = "is-view"
	MetadataRowCount             = "row-count"
	MetadataSQLDatatype          = "sql-datatype"

	InclusionAvailable = "available"
	InclusionAutomatic = "automatic"
)

// Catalog is the set of streams a tap can sync.
type Catalog struct {
	Streams []*Stream `json:"streams"`
}

// Stream describes one syncable entity.
type Stream struct {
	Stream             string          `json:"stream"`
	TapStreamID        string          `json:"tap_stream_id"`
	Schema             *Schema         `json:"schema"`
	Metadata           []MetadataEntry `json:"metadata"`
	KeyProperties      []string        `json:"key_properties"`
	BookmarkProperties []string        `json:"bookmark_properties,omitempty"`
}

// MetadataEntry annotates the stream (empty breadcrumb) or one of its
// fields (breadcrumb ["properties", name]).
type MetadataEntry struct {
	Breadcrumb []string               `json:"breadcrumb"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// FieldBreadcrumb returns the breadcrumb addressing field.
func FieldBreadcrumb(field string) []string {
	return []string{"properties", field}
}

// Find returns the stream with the given tap_stream_id.
func (c *Catalog) Find(streamID string) (*Stream, bool) {
	if c == nil {
		return nil, false
	}
	for _, s := range c.Streams {
		if s.TapStreamID == streamID {
			return s, true
		}
	}
	return nil, false
}

// StreamMetadata returns the stream-level metadata, or nil.
func (s *Stream) StreamMetadata() map[string]interface{} {
	for _, entry := range s.Metadata {
		if len(entry.Breadcrumb) == 0 {
			return entry.Metadata
		}
	}
	return nil
}

// FieldMetadata returns the metadata for field, or nil.
func (s *Stream) FieldMetadata(field string) map[string]interface{} {
	for _, entry := range s.Metadata {
		if len(entry.Breadcrumb) == 2 && entry.Breadcrumb[0] == "properties" && entry.Breadcrumb[1] == field {
			return entry.Metadata
		}
	}
	return nil
}

// MetadataBool returns md[key] when it is a bool.
func MetadataBool(md map[string]interface{}, key string) (value bool, ok bool) {
	value, ok = md[key].(bool)
	return value, ok
}

// MetadataString returns md[key] when it is a string.
func MetadataString(md map[string]interface{}, key string) (value string, ok bool) {
	value, ok = md[key].(string)
	return value, ok
}

// MetadataInt64 returns md[key] as an integer. Values read back from a
// catalog file may be numbers or numeric strings.
func MetadataInt64(md map[string]interface{}, key string) (int64, bool) {
	switch v := md[key].(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	case jsonpool.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// ReadCatalog loads a catalog file.
func ReadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read catalog file").
			WithDetail("path", path)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := jsonpool.UnmarshalNumber(data, &catalog); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode catalog")
	}
	for i, s := range catalog.Streams {
		if s == nil || s.TapStreamID == "" {
			return nil, errors.Newf(errors.ErrorTypeValidation, "catalog stream %d has no tap_stream_id", i)
		}
	}
	return &catalog, nil
}
