package docskema_test

import (
	"reflect"
	"testing"

	docskema "github.com/reoring/docskema"
)

func TestSchema_JSONSchema(t *testing.T) {
	s := docskema.MustNewSchema(docskema.Definition{
		"name":  docskema.Definition{"type": docskema.String, "required": true, "minlength": 2, "match": "^[a-z]+$"},
		"age":   docskema.Definition{"type": docskema.Number, "min": 0, "max": 130, "default": 18},
		"role":  docskema.Definition{"type": docskema.String, "enum": []any{"admin", "user"}},
		"at":    docskema.Date,
		"key":   docskema.UUID,
		"meta":  docskema.Mixed,
		"box":   docskema.Definition{"inner": docskema.Boolean},
		"child": docskema.Definition{"type": docskema.Definition{"n": docskema.String}},
		"tags":  []any{docskema.String},
		"items": []any{docskema.Definition{"q": docskema.Number}},
	}, docskema.WithoutID(), docskema.WithTypePojoToMixed(false), docskema.WithStrict(docskema.UnknownStrict))

	js := s.JSONSchema()
	if js.Type != "object" || js.AdditionalProperties != false {
		t.Fatalf("root: %+v", js)
	}
	if !reflect.DeepEqual(js.Required, []string{"name"}) {
		t.Fatalf("required: %v", js.Required)
	}
	p := js.Properties
	if p["name"].Type != "string" || *p["name"].MinLength != 2 || p["name"].Pattern != "^[a-z]+$" {
		t.Fatalf("name: %+v", p["name"])
	}
	if *p["age"].Minimum != 0 || *p["age"].Maximum != 130 || p["age"].Default != float64(18) {
		t.Fatalf("age: %+v", p["age"])
	}
	if !reflect.DeepEqual(p["role"].Enum, []any{"admin", "user"}) {
		t.Fatalf("role: %+v", p["role"])
	}
	if p["at"].Format != "date-time" || p["key"].Format != "uuid" {
		t.Fatalf("formats: %+v %+v", p["at"], p["key"])
	}
	if p["meta"].Type != "" {
		t.Fatalf("Mixed should be unconstrained: %+v", p["meta"])
	}
	if p["box"].Type != "object" || p["box"].Properties["inner"].Type != "boolean" || p["box"].AdditionalProperties != false {
		t.Fatalf("box: %+v", p["box"])
	}
	if p["child"].Type != "object" || p["child"].Properties["n"].Type != "string" {
		t.Fatalf("child: %+v", p["child"])
	}
	if p["tags"].Type != "array" || p["tags"].Items.Type != "string" {
		t.Fatalf("tags: %+v", p["tags"])
	}
	if p["items"].Items.Type != "object" || p["items"].Items.Properties["q"].Type != "number" {
		t.Fatalf("items: %+v", p["items"])
	}
}
