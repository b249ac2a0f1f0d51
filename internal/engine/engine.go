package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	j "github.com/goccy/go-json"
)

// DuplicateStrictness controls duplicate key handling while decoding.
type DuplicateStrictness int

const (
	DupIgnore DuplicateStrictness = iota
	DupWarn
	DupError
)

// SimpleIssue is a minimal issue representation used by internal helpers.
type SimpleIssue struct {
	Code    string
	Path    string
	Message string
}

// IssueError is a lightweight error carrying a SimpleIssue.
type IssueError struct{ SimpleIssue }

func (e IssueError) Error() string { return e.SimpleIssue.Message }

// Options controls decoding enforcement.
type Options struct {
	OnDuplicate DuplicateStrictness
	MaxDepth    int
	// IssueSink receives non-fatal issues (duplicate keys under DupWarn).
	IssueSink func(SimpleIssue)
}

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

// decoder walks go-json tokens, building map[string]any / []any values with
// numbers kept as encoding/json Number text.
type decoder struct {
	dec   *j.Decoder
	opt   Options
	depth int
}

// DecodeObject decodes a single JSON object from r.
func DecodeObject(r io.Reader, opt Options) (map[string]any, error) {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	d := &decoder{dec: dec, opt: opt}
	tok, err := dec.Token()
	if err != nil {
		return nil, parseError("", err)
	}
	if delim, ok := tok.(j.Delim); !ok || delim != '{' {
		return nil, IssueError{SimpleIssue{Code: "parse_error", Path: "", Message: "expected a JSON object"}}
	}
	v, err := d.container(kindObject, "")
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, IssueError{SimpleIssue{Code: "parse_error", Path: "", Message: "unexpected data after top-level object"}}
	}
	return v.(map[string]any), nil
}

// DecodeObjectBytes decodes a single JSON object from b.
func DecodeObjectBytes(b []byte, opt Options) (map[string]any, error) {
	return DecodeObject(bytes.NewReader(b), opt)
}

func (d *decoder) value(tok j.Token, path string) (any, error) {
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			return d.container(kindObject, path)
		case '[':
			return d.container(kindArray, path)
		}
		return nil, IssueError{SimpleIssue{Code: "parse_error", Path: path, Message: "unexpected delimiter " + v.String()}}
	case j.Number:
		return json.Number(v.String()), nil
	case float64:
		return json.Number(strconv.FormatFloat(v, 'g', -1, 64)), nil
	default:
		// string, bool, nil
		return v, nil
	}
}

func (d *decoder) container(kind containerKind, path string) (any, error) {
	d.depth++
	defer func() { d.depth-- }()
	if d.opt.MaxDepth > 0 && d.depth > d.opt.MaxDepth {
		return nil, IssueError{SimpleIssue{Code: "parse_error", Path: path, Message: "max depth exceeded"}}
	}
	if kind == kindArray {
		arr := []any{}
		for i := 0; ; i++ {
			tok, err := d.dec.Token()
			if err != nil {
				return nil, parseError(path, err)
			}
			if delim, ok := tok.(j.Delim); ok && delim == ']' {
				return arr, nil
			}
			v, err := d.value(tok, joinPath(path, strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
	}
	obj := map[string]any{}
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return nil, parseError(path, err)
		}
		if delim, ok := tok.(j.Delim); ok && delim == '}' {
			return obj, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, IssueError{SimpleIssue{Code: "parse_error", Path: path, Message: "expected object key"}}
		}
		kp := joinPath(path, key)
		if _, dup := obj[key]; dup && d.opt.OnDuplicate != DupIgnore {
			si := SimpleIssue{Code: "duplicate_key", Path: kp, Message: "key '" + key + "' duplicated"}
			if d.opt.OnDuplicate == DupError {
				return nil, IssueError{si}
			}
			if d.opt.IssueSink != nil {
				d.opt.IssueSink(si)
			}
		}
		vt, err := d.dec.Token()
		if err != nil {
			return nil, parseError(kp, err)
		}
		v, err := d.value(vt, kp)
		if err != nil {
			return nil, err
		}
		obj[key] = v
	}
}

func parseError(path string, err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return IssueError{SimpleIssue{Code: "parse_error", Path: path, Message: err.Error()}}
}

func joinPath(base, seg string) string {
	if base == "" {
		return seg
	}
	return base + "." + strings.ReplaceAll(seg, ".", "\\.")
}
