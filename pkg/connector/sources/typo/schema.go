package typo

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/ajitpratap0/tap-typo/pkg/protocol"
)

// Synthetic properties injected into every record.
const (
	ResultProperty   = "__typo_result"
	RecordIDProperty = "__typo_record_id"

	ResultOK    = "OK"
	ResultError = "Error"
)

// Remote type tags with special handling.
const (
	tagDateTime = "date-time"
)

// SQL type hints published in field metadata.
const (
	sqlFloat    = "float"
	sqlInt      = "int"
	sqlVarchar  = "varchar(255)"
	sqlDatetime = "datetime"
)

// FieldSpec is the remote type descriptor of one field.
type FieldSpec struct {
	// Type is the raw type tag; nil when the remote declares none.
	Type    *string `json:"type"`
	Format  string  `json:"format,omitempty"`
	Primary bool    `json:"primary,omitempty"`
}

// FieldMap holds field specs in remote declaration order.
type FieldMap = orderedmap.OrderedMap[string, FieldSpec]

// NewFieldMap returns an empty field map.
func NewFieldMap() *FieldMap {
	return orderedmap.New[string, FieldSpec]()
}

type typeMapping struct {
	schemaType string
	sqlType    string
}

// typeMappings is matched case-sensitively. Unknown tags fall back to
// defaultMapping.
var typeMappings = map[string]typeMapping{
	"float":     {protocol.TypeNumber, sqlFloat},
	"number":    {protocol.TypeNumber, sqlFloat},
	"integer":   {protocol.TypeInteger, sqlInt},
	"int":       {protocol.TypeInteger, sqlInt},
	"smallint":  {protocol.TypeInteger, sqlInt},
	"varchar":   {protocol.TypeString, sqlVarchar},
	"string":    {protocol.TypeString, sqlVarchar},
	tagDateTime: {protocol.TypeString, sqlDatetime},
}

var defaultMapping = typeMapping{protocol.TypeString, sqlVarchar}

// InferredSchema is the result of schema inference for one entity.
type InferredSchema struct {
	// KeyProperties starts with RecordIDProperty, followed by primary
	// fields in declaration order.
	KeyProperties []string
	Schema        *protocol.Schema
	// SQLTypes has an entry for every typed remote field and both
	// synthetic properties.
	SQLTypes map[string]string
	// RemoteFormats holds the remote strftime format of date-time fields.
	RemoteFormats map[string]string
	// DatetimeFormats holds the formats used to reformat values as RFC 3339;
	// it is empty unless RFC 3339 output is enabled.
	DatetimeFormats map[string]string
}

// InferSchema maps remote field specs onto a nullable JSON schema, a key
// property list and per-field SQL type and datetime hints. Two synthetic
// properties are appended after the remote fields.
func InferSchema(fields *FieldMap, rfc3339 bool) *InferredSchema {
	inferred := &InferredSchema{
		KeyProperties:   []string{RecordIDProperty},
		Schema:          protocol.NewSchema(),
		SQLTypes:        make(map[string]string),
		RemoteFormats:   make(map[string]string),
		DatetimeFormats: make(map[string]string),
	}

	if fields != nil {
		for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
			name, field := pair.Key, pair.Value
			if name == ResultProperty || name == RecordIDProperty {
				continue
			}

			if field.Primary {
				inferred.KeyProperties = append(inferred.KeyProperties, name)
			}

			if field.Type == nil {
				inferred.Schema.Properties.Set(name, protocol.Property{})
				continue
			}

			tag := *field.Type
			mapping, ok := typeMappings[tag]
			if !ok {
				mapping = defaultMapping
			}

			property := protocol.Nullable(mapping.schemaType)
			if tag == tagDateTime && field.Format != "" {
				inferred.RemoteFormats[name] = field.Format
				if rfc3339 {
					property.Format = protocol.FormatDateTime
					inferred.DatetimeFormats[name] = field.Format
				}
			}

			inferred.Schema.Properties.Set(name, property)
			inferred.SQLTypes[name] = mapping.sqlType
		}
	}

	inferred.Schema.Properties.Set(ResultProperty, protocol.Property{Type: []string{protocol.TypeString}})
	inferred.Schema.Properties.Set(RecordIDProperty, protocol.Property{Type: []string{protocol.TypeInteger}})
	inferred.SQLTypes[ResultProperty] = sqlVarchar
	inferred.SQLTypes[RecordIDProperty] = sqlInt

	return inferred
}

// IsKeyProperty reports whether name is one of the key properties.
func (s *InferredSchema) IsKeyProperty(name string) bool {
	for _, k := range s.KeyProperties {
		if k == name {
			return true
		}
	}
	return false
}
