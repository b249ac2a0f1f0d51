package docskema_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	docskema "github.com/reoring/docskema"
)

// ---- Helpers ----

func heroDefinition() docskema.Definition {
	return docskema.Definition{
		"name":  docskema.Definition{"type": docskema.String, "required": true, "trim": true},
		"level": docskema.Definition{"type": docskema.Number, "min": 0, "max": 99, "default": 1},
		"meta":  docskema.Definition{"type": docskema.Definition{"note": docskema.String}},
		"tags":  []any{docskema.String},
		"items": []any{docskema.Definition{"q": docskema.Number}},
	}
}

func heroSchema(tb testing.TB, opts ...docskema.Option) *docskema.Schema {
	tb.Helper()
	s, err := docskema.NewSchema(heroDefinition(), opts...)
	if err != nil {
		tb.Fatalf("schema build failed: %v", err)
	}
	return s
}

// heroJSON returns an object with extraFields undeclared keys appended.
func heroJSON(extraFields int) []byte {
	var buf bytes.Buffer
	buf.WriteString(`{"name":" Link ","level":"7","meta":{"note":"x","free":1},"tags":["a","b"],"items":[{"q":1},{"q":"2"}]`)
	for k := 0; k < extraFields; k++ {
		fmt.Fprintf(&buf, `,"k%d":"v%d"`, k, k)
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

func heroRaw(tb testing.TB) map[string]any {
	tb.Helper()
	var m map[string]any
	if err := json.Unmarshal(heroJSON(0), &m); err != nil {
		tb.Fatalf("fixture: %v", err)
	}
	return m
}

// ---- Benchmarks ----

func BenchmarkNewSchema(b *testing.B) {
	def := heroDefinition()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := docskema.NewSchema(def); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkNewSchema_Embedded(b *testing.B) {
	def := heroDefinition()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := docskema.NewSchema(def, docskema.WithTypePojoToMixed(false)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkNewDocument(b *testing.B) {
	for _, tc := range []struct {
		name string
		opts []docskema.Option
	}{
		{"mixed", nil},
		{"embedded", []docskema.Option{docskema.WithTypePojoToMixed(false)}},
	} {
		b.Run(tc.name, func(b *testing.B) {
			s := heroSchema(b, tc.opts...)
			raw := heroRaw(b)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := docskema.NewDocument(s, raw); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkNewDocumentFromJSON(b *testing.B) {
	s := heroSchema(b)
	for _, extra := range []int{0, 16, 128} {
		data := heroJSON(extra)
		b.Run(fmt.Sprintf("extra=%d", extra), func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := docskema.NewDocumentFromJSON(s, data); err != nil {
					b.Fatal(err)
				}
			}
		})
		b.Run(fmt.Sprintf("stdlib+NewDocument/extra=%d", extra), func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				var m map[string]any
				if err := json.Unmarshal(data, &m); err != nil {
					b.Fatal(err)
				}
				if _, err := docskema.NewDocument(s, m); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkDocument_ValidateSync(b *testing.B) {
	s := heroSchema(b)
	doc, err := docskema.NewDocument(s, heroRaw(b))
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := doc.ValidateSync(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDocument_Marshal(b *testing.B) {
	doc, err := docskema.NewDocument(heroSchema(b), heroRaw(b))
	if err != nil {
		b.Fatal(err)
	}
	b.Run("json", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, err := doc.MarshalJSON(); err != nil {
				b.Fatal(err)
			}
		}
	})
	b.Run("bson", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, err := doc.MarshalBSON(); err != nil {
				b.Fatal(err)
			}
		}
	})
}
