package jsonschema

// Schema is a minimal JSON Schema representation used for export.
// Only the keywords a compiled document schema can produce are modelled.
type Schema struct {
	// Core
	Type    string `json:"type,omitempty"`
	Format  string `json:"format,omitempty"`
	Default any    `json:"default,omitempty"`
	Enum    []any  `json:"enum,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`

	// Array
	Items *Schema `json:"items,omitempty"`

	// String
	Pattern   string `json:"pattern,omitempty"`
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`

	// Number
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`
}

// Object returns an empty object schema.
func Object() *Schema { return &Schema{Type: "object", Properties: map[string]*Schema{}} }

// Property returns the property schema named name, creating an empty object
// schema when it does not exist yet.
func (s *Schema) Property(name string) *Schema {
	if s.Properties == nil {
		s.Properties = map[string]*Schema{}
	}
	p, ok := s.Properties[name]
	if !ok {
		p = Object()
		s.Properties[name] = p
	}
	return p
}

// Require appends name to the required list once.
func (s *Schema) Require(name string) {
	for _, r := range s.Required {
		if r == name {
			return
		}
	}
	s.Required = append(s.Required, name)
}
