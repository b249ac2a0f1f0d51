package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	j "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const def = `
options:
  _id: false
definition:
  name:
    type: String
    required: true
  meta:
    type:
      tag: String
  tags: [String]
`

func writeDef(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "def.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestRun_Usage(t *testing.T) {
	var out, errb bytes.Buffer
	assert.Equal(t, 2, run(nil, nil, &out, &errb))
	assert.Contains(t, errb.String(), "Usage")
	assert.Equal(t, 2, run([]string{"bogus"}, nil, &out, &errb))
}

func TestCompile_Text(t *testing.T) {
	p := writeDef(t, def)
	var out, errb bytes.Buffer
	code := run([]string{"compile", "-f", p}, nil, &out, &errb)
	require.Equal(t, 0, code, errb.String())
	assert.Equal(t, "meta\tMixed\nname\tString\trequired\ntags\tArray<String>\n", out.String())
}

func TestCompile_PojoFlag(t *testing.T) {
	p := writeDef(t, def)
	var out, errb bytes.Buffer
	code := run([]string{"compile", "-f", p, "-pojo-to-mixed=false"}, nil, &out, &errb)
	require.Equal(t, 0, code, errb.String())
	assert.Contains(t, out.String(), "meta\tEmbedded\n")
}

func TestCompile_JSON(t *testing.T) {
	p := writeDef(t, def)
	var out, errb bytes.Buffer
	require.Equal(t, 0, run([]string{"compile", "-f", p, "-format", "json"}, nil, &out, &errb), errb.String())

	var info schemaInfo
	require.NoError(t, j.Unmarshal(out.Bytes(), &info))
	require.Len(t, info.Paths, 3)
	assert.Equal(t, "tags", info.Paths[2].Path)
	assert.Equal(t, "String", info.Paths[2].Element)
}

func TestCompile_Dump(t *testing.T) {
	p := writeDef(t, def)
	var out, errb bytes.Buffer
	require.Equal(t, 0, run([]string{"compile", "-f", p, "-format", "dump"}, nil, &out, &errb), errb.String())
	assert.Contains(t, out.String(), "schemaInfo")
	assert.Contains(t, out.String(), "\"tags\"")
}

func TestCompile_Errors(t *testing.T) {
	var out, errb bytes.Buffer
	assert.Equal(t, 1, run([]string{"compile"}, nil, &out, &errb))

	p := writeDef(t, "a: Nope\n")
	errb.Reset()
	assert.Equal(t, 1, run([]string{"compile", "-f", p}, nil, &out, &errb))
	assert.Contains(t, errb.String(), "compile failed")
	assert.Contains(t, errb.String(), p+":1:1")

	p = writeDef(t, def)
	errb.Reset()
	assert.Equal(t, 1, run([]string{"compile", "-f", p, "-format", "xml"}, nil, &out, &errb))
}

func TestConstruct(t *testing.T) {
	p := writeDef(t, def)
	var out, errb bytes.Buffer
	in := strings.NewReader(`{"name":"zelda","meta":{"tag":"x","extra":1},"tags":"solo","junk":true}`)
	code := run([]string{"construct", "-f", p}, in, &out, &errb)
	require.Equal(t, 0, code, errb.String())

	var got map[string]any
	require.NoError(t, j.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "zelda", got["name"])
	assert.Equal(t, map[string]any{"tag": "x", "extra": float64(1)}, got["meta"])
	assert.Equal(t, []any{"solo"}, got["tags"])
	assert.NotContains(t, got, "junk")
}

func TestConstruct_ValidationFailure(t *testing.T) {
	p := writeDef(t, def)
	var out, errb bytes.Buffer
	code := run([]string{"construct", "-f", p}, strings.NewReader(`{"tags":[]}`), &out, &errb)
	assert.Equal(t, 1, code)
	assert.Contains(t, errb.String(), "name: ")
}

func TestConstruct_DuplicateKey(t *testing.T) {
	p := writeDef(t, def)
	var out, errb bytes.Buffer
	code := run([]string{"construct", "-f", p}, strings.NewReader(`{"name":"a","name":"b"}`), &out, &errb)
	assert.Equal(t, 1, code)
	assert.Contains(t, errb.String(), "construct failed")
}

func TestJSONSchema(t *testing.T) {
	p := writeDef(t, def)
	var out, errb bytes.Buffer
	require.Equal(t, 0, run([]string{"jsonschema", "-f", p, "-strict", "throw"}, nil, &out, &errb), errb.String())

	var got map[string]any
	require.NoError(t, j.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "object", got["type"])
	assert.Equal(t, false, got["additionalProperties"])
	assert.Equal(t, []any{"name"}, got["required"])
	props := got["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "string"}, props["name"])
	assert.Equal(t, map[string]any{"type": "array", "items": map[string]any{"type": "string"}}, props["tags"])
}
