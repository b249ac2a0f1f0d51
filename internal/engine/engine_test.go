package engine

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeObjectBytes_Basic(t *testing.T) {
	m, err := DecodeObjectBytes([]byte(`{"a":1,"b":"x","c":[true,null,{"d":2.5}]}`), Options{})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if n, ok := m["a"].(json.Number); !ok || n.String() != "1" {
		t.Fatalf("a: got %#v", m["a"])
	}
	if m["b"] != "x" {
		t.Fatalf("b: got %#v", m["b"])
	}
	arr, ok := m["c"].([]any)
	if !ok || len(arr) != 3 {
		t.Fatalf("c: got %#v", m["c"])
	}
	if arr[0] != true || arr[1] != nil {
		t.Fatalf("c elems: %#v", arr)
	}
	inner, ok := arr[2].(map[string]any)
	if !ok {
		t.Fatalf("c.2: got %#v", arr[2])
	}
	if n, ok := inner["d"].(json.Number); !ok || n.String() != "2.5" {
		t.Fatalf("c.2.d: got %#v", inner["d"])
	}
}

func TestDecodeObjectBytes_DuplicateError(t *testing.T) {
	_, err := DecodeObjectBytes([]byte(`{"a":{"b":1,"b":2}}`), Options{OnDuplicate: DupError})
	var ie IssueError
	if !errors.As(err, &ie) {
		t.Fatalf("expected IssueError, got %T %v", err, err)
	}
	if ie.Code != "duplicate_key" || ie.Path != "a.b" {
		t.Fatalf("unexpected issue: %+v", ie.SimpleIssue)
	}
}

func TestDecodeObjectBytes_DuplicateWarn(t *testing.T) {
	var got []SimpleIssue
	m, err := DecodeObjectBytes([]byte(`{"a":1,"a":2}`), Options{OnDuplicate: DupWarn, IssueSink: func(si SimpleIssue) { got = append(got, si) }})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(got) != 1 || got[0].Path != "a" {
		t.Fatalf("expected one duplicate issue, got %+v", got)
	}
	if n := m["a"].(json.Number); n.String() != "2" {
		t.Fatalf("last value should win, got %v", n)
	}
}

func TestDecodeObjectBytes_MaxDepth(t *testing.T) {
	_, err := DecodeObjectBytes([]byte(`{"a":{"b":{"c":1}}}`), Options{MaxDepth: 2})
	if err == nil {
		t.Fatalf("expected max depth error")
	}
}

func TestDecodeObjectBytes_NotObject(t *testing.T) {
	if _, err := DecodeObjectBytes([]byte(`[1,2]`), Options{}); err == nil {
		t.Fatalf("expected error for array root")
	}
	if _, err := DecodeObjectBytes([]byte(`{"a":1`), Options{}); err == nil {
		t.Fatalf("expected error for truncated input")
	}
}
