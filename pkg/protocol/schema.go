package protocol

import (
	"bytes"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	jsonpool "github.com/ajitpratap0/tap-typo/pkg/json"
)

// JSON schema type names used by the tap.
const (
	TypeNull    = "null"
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeObject  = "object"

	FormatDateTime = "date-time"
)

// Properties keeps schema properties in declaration order.
type Properties = orderedmap.OrderedMap[string, Property]

// NewProperties returns an empty property set.
func NewProperties() *Properties {
	return orderedmap.New[string, Property]()
}

// Schema is the object schema announced for a stream.
type Schema struct {
	Type                 string      `json:"type"`
	AdditionalProperties bool        `json:"additionalProperties"`
	Properties           *Properties `json:"properties"`
}

// NewSchema returns an empty object schema that admits undeclared properties.
func NewSchema() *Schema {
	return &Schema{Type: TypeObject, AdditionalProperties: true, Properties: NewProperties()}
}

// Property returns the named property.
func (s *Schema) Property(name string) (Property, bool) {
	if s == nil || s.Properties == nil {
		return Property{}, false
	}
	return s.Properties.Get(name)
}

// PropertyNames lists property names in declaration order.
func (s *Schema) PropertyNames() []string {
	if s == nil || s.Properties == nil {
		return nil
	}
	names := make([]string, 0, s.Properties.Len())
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Property is a single field schema. A property without types is the empty
// schema {} and accepts any value.
type Property struct {
	Type   []string
	Format string
}

// Nullable returns a property accepting null or typ.
func Nullable(typ string) Property {
	return Property{Type: []string{TypeNull, typ}}
}

// Untyped reports whether p is the empty schema.
func (p Property) Untyped() bool {
	return len(p.Type) == 0 && p.Format == ""
}

type propertyJSON struct {
	Type   interface{} `json:"type,omitempty"`
	Format string      `json:"format,omitempty"`
}

// MarshalJSON writes a single type as a string and several as an array.
func (p Property) MarshalJSON() ([]byte, error) {
	out := propertyJSON{Format: p.Format}
	switch len(p.Type) {
	case 0:
	case 1:
		out.Type = p.Type[0]
	default:
		out.Type = p.Type
	}
	return jsonpool.Marshal(out)
}

// UnmarshalJSON accepts "type" as a string, an array of strings or absent.
func (p *Property) UnmarshalJSON(data []byte) error {
	var in struct {
		Type   jsonpool.RawMessage `json:"type"`
		Format string              `json:"format"`
	}
	if err := jsonpool.Unmarshal(data, &in); err != nil {
		return err
	}

	p.Format = in.Format
	p.Type = nil

	raw := bytes.TrimSpace(in.Type)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '[':
		if err := jsonpool.Unmarshal(raw, &p.Type); err != nil {
			return err
		}
	default:
		var single string
		if err := jsonpool.Unmarshal(raw, &single); err != nil {
			return err
		}
		p.Type = []string{single}
	}
	return nil
}
