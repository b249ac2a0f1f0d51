package docskema_test

import (
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	docskema "github.com/reoring/docskema"
)

func parentDef() docskema.Definition {
	return docskema.Definition{
		"name": docskema.String,
		"child": docskema.Definition{
			"type": docskema.Definition{"name": docskema.String},
		},
	}
}

func TestPojoUnderType_DefaultsToMixed(t *testing.T) {
	s := docskema.MustNewSchema(parentDef())
	if got := s.Path("child").Instance(); got != docskema.InstanceMixed {
		t.Fatalf("child instance: got %s want Mixed", got)
	}
	doc, err := docskema.NewDocument(s, map[string]any{
		"name":  "Swamp Guide",
		"child": map[string]any{"name": "Tingle", "mixedUp": "very"},
	})
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	child, ok := doc.ToObject()["child"].(map[string]any)
	if !ok {
		t.Fatalf("child snapshot: %#v", doc.ToObject()["child"])
	}
	if child["name"] != "Tingle" || child["mixedUp"] != "very" {
		t.Fatalf("mixed child should be kept verbatim, got %#v", child)
	}
}

func TestPojoUnderType_Embedded(t *testing.T) {
	s := docskema.MustNewSchema(parentDef(), docskema.WithTypePojoToMixed(false))
	ct := s.Path("child")
	if ct.Instance() != docskema.InstanceEmbedded {
		t.Fatalf("child instance: got %s want Embedded", ct.Instance())
	}
	if !ct.IsSingleNested() {
		t.Fatalf("child should be single nested")
	}
	if ct.Schema().Path("name").Instance() != docskema.InstanceString {
		t.Fatalf("sub-schema should declare name")
	}
	doc, err := docskema.NewDocument(s, map[string]any{
		"name":  "King Daphnes Nohansen Hyrule",
		"child": map[string]any{"name": "Princess Zelda", "mixedUp": "not"},
	})
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	child, ok := doc.Get("child").(*docskema.Document)
	if !ok {
		t.Fatalf("child should be a subdocument, got %T", doc.Get("child"))
	}
	obj := child.ToObject()
	if obj["name"] != "Princess Zelda" {
		t.Fatalf("name: got %#v", obj["name"])
	}
	if _, has := obj["mixedUp"]; has {
		t.Fatalf("undeclared key should be dropped, got %#v", obj)
	}
	if child.Parent() != doc {
		t.Fatalf("subdocument parent should be the owning document")
	}
}

func TestTypeAsPropertyName(t *testing.T) {
	def := func() docskema.Definition {
		return docskema.Definition{
			"name": docskema.String,
			"child": docskema.Definition{
				"name": docskema.String,
				"type": docskema.Definition{"type": docskema.String},
			},
		}
	}
	for _, pojoToMixed := range []bool{true, false} {
		s := docskema.MustNewSchema(def(), docskema.WithTypePojoToMixed(pojoToMixed))
		if s.Path("child") != nil {
			t.Fatalf("pojoToMixed=%v: child must not be a path", pojoToMixed)
		}
		if s.PathType("child") != docskema.PathNested {
			t.Fatalf("pojoToMixed=%v: child should be nested, got %s", pojoToMixed, s.PathType("child"))
		}
		for _, p := range []string{"child.name", "child.type"} {
			pt := s.Path(p)
			if pt == nil || pt.Instance() != docskema.InstanceString {
				t.Fatalf("pojoToMixed=%v: %s should be a String path", pojoToMixed, p)
			}
		}
	}
}

func TestTypeAsPropertyName_UndeclaredSiblingDropped(t *testing.T) {
	def := docskema.Definition{
		"name": docskema.String,
		"child": docskema.Definition{
			"name": docskema.String,
			"type": docskema.Definition{"type": docskema.String},
		},
	}
	cases := []struct {
		pojoToMixed bool
		name, typ   string
	}{
		{true, "Rito Chieftan", "Mother"},
		{false, "Prince Komali", "Medli"},
	}
	for _, tc := range cases {
		s := docskema.MustNewSchema(def, docskema.WithTypePojoToMixed(tc.pojoToMixed))
		doc, err := docskema.NewDocument(s, map[string]any{
			"name":  "Grandmother",
			"child": map[string]any{"name": tc.name, "type": tc.typ, "confidence": 10},
		})
		if err != nil {
			t.Fatalf("construct: %v", err)
		}
		if doc.Get("child.name") != tc.name || doc.Get("child.type") != tc.typ {
			t.Fatalf("child fields: got %v / %v", doc.Get("child.name"), doc.Get("child.type"))
		}
		if doc.Get("child.confidence") != nil {
			t.Fatalf("confidence should be dropped, got %v", doc.Get("child.confidence"))
		}
	}
}

func TestCompile_Idempotent(t *testing.T) {
	for _, pojoToMixed := range []bool{true, false} {
		a := docskema.MustNewSchema(parentDef(), docskema.WithTypePojoToMixed(pojoToMixed))
		b := docskema.MustNewSchema(parentDef(), docskema.WithTypePojoToMixed(pojoToMixed))
		pa, pb := a.Paths(), b.Paths()
		if len(pa) != len(pb) {
			t.Fatalf("path count differs: %v vs %v", pa, pb)
		}
		for i := range pa {
			if pa[i] != pb[i] || a.Path(pa[i]).Instance() != b.Path(pb[i]).Instance() {
				t.Fatalf("path %d differs: %s/%s vs %s/%s", i, pa[i], a.Path(pa[i]).Instance(), pb[i], b.Path(pb[i]).Instance())
			}
		}
	}
}

func TestMixed_KeepsConcreteTypes(t *testing.T) {
	s := docskema.MustNewSchema(docskema.Definition{
		"list":    docskema.Definition{"type": docskema.Definition{"x": docskema.String}},
		"labels":  docskema.Mixed,
		"ordered": docskema.Mixed,
	}, docskema.WithoutID())
	in := map[string]any{
		"list":    []string{"a", "b"},
		"labels":  map[string]string{"env": "prod"},
		"ordered": bson.D{{Key: "z", Value: 1}, {Key: "a", Value: bson.A{"x"}}},
	}
	doc, err := docskema.NewDocument(s, in)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	obj := doc.ToObject()
	for k, want := range in {
		if !reflect.DeepEqual(obj[k], want) {
			t.Fatalf("%s: got %#v (%T) want %#v (%T)", k, obj[k], obj[k], want, want)
		}
	}

	in["list"].([]string)[0] = "changed"
	if got := doc.Get("list").([]string); got[0] != "a" {
		t.Fatalf("Mixed values are copied on the way in: %v", got)
	}
}
