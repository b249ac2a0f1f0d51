package docskema_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	docskema "github.com/reoring/docskema"
)

func TestSetGetDefaults(t *testing.T) {
	defer docskema.ResetDefaults()

	if docskema.Get("typePojoToMixed") != true || docskema.Get("typeKey") != "type" {
		t.Fatalf("built-in defaults changed")
	}
	if err := docskema.Set("typePojoToMixed", false); err != nil {
		t.Fatalf("set: %v", err)
	}
	def := docskema.Definition{"child": docskema.Definition{"type": docskema.Definition{"n": docskema.String}}}
	s := docskema.MustNewSchema(def)
	if s.Path("child").Instance() != docskema.InstanceEmbedded {
		t.Fatalf("global typePojoToMixed=false should apply")
	}
	if s := docskema.MustNewSchema(def, docskema.WithTypePojoToMixed(true)); s.Path("child").Instance() != docskema.InstanceMixed {
		t.Fatalf("schema option should override the global default")
	}

	if err := docskema.Set("strict", "throw"); err != nil {
		t.Fatalf("set strict: %v", err)
	}
	if docskema.Get("strict") != docskema.UnknownStrict {
		t.Fatalf("strict: %v", docskema.Get("strict"))
	}
	if err := docskema.Set("_id", false); err != nil {
		t.Fatalf("set _id: %v", err)
	}
	if docskema.MustNewSchema(docskema.Definition{"a": docskema.String}).Path("_id") != nil {
		t.Fatalf("global _id=false should apply")
	}

	for key, v := range map[string]any{"typePojoToMixed": "yes", "typeKey": "", "strict": 3, "_id": "no", "colour": 1} {
		if err := docskema.Set(key, v); err == nil {
			t.Fatalf("Set(%q, %v) should fail", key, v)
		}
	}

	docskema.ResetDefaults()
	if docskema.Get("typePojoToMixed") != true || docskema.Get("strict") != docskema.UnknownStrip || docskema.Get("nope") != nil {
		t.Fatalf("reset")
	}
}

func TestSchemaCachesOptions(t *testing.T) {
	defer docskema.ResetDefaults()
	def := docskema.Definition{"child": docskema.Definition{"type": docskema.Definition{"n": docskema.String}}}
	s := docskema.MustNewSchema(def)
	_ = docskema.Set("typePojoToMixed", false)
	if s.Path("child").Instance() != docskema.InstanceMixed || !s.Options().TypePojoToMixed {
		t.Fatalf("compiled schemas must not observe later global changes")
	}
}

func TestParseUnknownPolicy(t *testing.T) {
	cases := map[any]docskema.UnknownPolicy{
		true:          docskema.UnknownStrip,
		false:         docskema.UnknownPassthrough,
		"throw":       docskema.UnknownStrict,
		"strip":       docskema.UnknownStrip,
		"passthrough": docskema.UnknownPassthrough,
	}
	for in, want := range cases {
		got, err := docskema.ParseUnknownPolicy(in)
		if err != nil || got != want {
			t.Fatalf("%v: got %v (%v) want %v", in, got, err, want)
		}
	}
	if _, err := docskema.ParseUnknownPolicy("loose"); err == nil {
		t.Fatalf("unknown spelling should fail")
	}
	if docskema.UnknownStrict.String() != "throw" || docskema.PathNested.String() == "" {
		t.Fatalf("String methods")
	}
}

func TestWithLogger_Warnings(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := docskema.MustNewSchema(docskema.Definition{"schema": docskema.String, "a": docskema.String}, docskema.WithLogger(log))
	if !strings.Contains(buf.String(), "schema compile warning") {
		t.Fatalf("warnings should be logged, got %q", buf.String())
	}
	buf.Reset()
	if _, err := docskema.NewDocument(s, map[string]any{"zzz": 1}); err != nil {
		t.Fatalf("construct: %v", err)
	}
	if !strings.Contains(buf.String(), "path=zzz") {
		t.Fatalf("dropped keys should be logged at debug, got %q", buf.String())
	}
}
