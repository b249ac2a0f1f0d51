package docskema

import (
	"strings"

	"github.com/reoring/docskema/jsonschema"
)

// JSONSchema projects the compiled path table into a JSON Schema object.
// Mixed paths become {}, Embedded paths nested objects and arrays carry their
// element schema in items. UnknownStrict maps to additionalProperties false
// and UnknownPassthrough to true.
func (s *Schema) JSONSchema() *jsonschema.Schema {
	root := jsonschema.Object()
	s.applyAdditional(root)
	for _, name := range s.Nested() {
		parent, leaf := s.container(root, name)
		s.applyAdditional(parent.Property(leaf))
	}
	s.EachPath(func(name string, t *SchemaType) {
		parent, leaf := s.container(root, name)
		parent.Properties[leaf] = typeSchema(t)
		if t.required {
			parent.Require(leaf)
		}
	})
	return root
}

// container returns the object schema holding the last segment of name.
func (s *Schema) container(root *jsonschema.Schema, name string) (*jsonschema.Schema, string) {
	segs := strings.Split(name, ".")
	cur := root
	for _, seg := range segs[:len(segs)-1] {
		cur = cur.Property(seg)
	}
	if cur.Properties == nil {
		cur.Properties = map[string]*jsonschema.Schema{}
	}
	return cur, segs[len(segs)-1]
}

func (s *Schema) applyAdditional(js *jsonschema.Schema) {
	switch s.opts.Strict {
	case UnknownStrict:
		js.AdditionalProperties = false
	case UnknownPassthrough:
		js.AdditionalProperties = true
	}
}

func typeSchema(t *SchemaType) *jsonschema.Schema {
	var js *jsonschema.Schema
	switch t.instance {
	case InstanceString:
		js = &jsonschema.Schema{Type: "string"}
	case InstanceNumber:
		js = &jsonschema.Schema{Type: "number"}
	case InstanceBoolean:
		js = &jsonschema.Schema{Type: "boolean"}
	case InstanceDate:
		js = &jsonschema.Schema{Type: "string", Format: "date-time"}
	case InstanceObjectID:
		js = &jsonschema.Schema{Type: "string", Pattern: "^[0-9a-fA-F]{24}$"}
	case InstanceUUID:
		js = &jsonschema.Schema{Type: "string", Format: "uuid"}
	case InstanceEmbedded:
		return t.schema.JSONSchema()
	case InstanceArray:
		js = &jsonschema.Schema{Type: "array"}
		switch {
		case t.docArray:
			js.Items = t.schema.JSONSchema()
		case t.caster != nil:
			js.Items = typeSchema(t.caster)
		}
		return js
	default:
		return &jsonschema.Schema{}
	}
	for _, v := range t.validators {
		switch v.code {
		case CodeEnum:
			if vals, ok := v.params["enum"].([]any); ok {
				js.Enum = make([]any, len(vals))
				for i, e := range vals {
					js.Enum[i] = jsonValue(e)
				}
			}
		case CodeMin, CodeMax:
			if t.instance != InstanceNumber {
				continue
			}
			if n, ok := toFloat(v.params[v.code]); ok {
				if v.code == CodeMin {
					js.Minimum = &n
				} else {
					js.Maximum = &n
				}
			}
		case CodeMinLength, CodeMaxLength:
			if n, ok := v.params[v.code].(int); ok {
				if v.code == CodeMinLength {
					js.MinLength = &n
				} else {
					js.MaxLength = &n
				}
			}
		case CodeMatch:
			if p, ok := v.params["regexp"].(string); ok {
				js.Pattern = p
			}
		}
	}
	if raw, ok := t.options["default"]; ok {
		if _, isFunc := raw.(func() any); !isFunc {
			if dv, err := t.Cast(raw); err == nil {
				js.Default = jsonValue(dv)
			}
		}
	}
	return js
}
