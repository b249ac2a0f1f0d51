// Package yamldef loads schema definitions from YAML or JSON files.
//
// A file is either a bare definition or a mapping with two blocks:
//
//	options:
//	  typePojoToMixed: false
//	  strict: throw
//	definition:
//	  name: String
//	  meta:
//	    type:
//	      tag: String
//
// Duplicate and non-scalar keys are rejected with their positions, and
// compile errors report the line and column of the offending key. JSON is a
// subset of YAML and loads through the same reader.
package yamldef

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/reoring/docskema"
)

// File is a decoded definition file.
type File struct {
	Options    map[string]any
	Definition docskema.Definition

	src    *source
	prefix string // key path of the definition block inside src
}

// Position returns where the definition path was declared in the file.
func (f *File) Position(path string) (Position, bool) {
	if f.src == nil {
		return Position{}, false
	}
	return f.src.locate(joinKey(f.prefix, path))
}

// SchemaOptions converts the options block into compile options.
func (f *File) SchemaOptions() ([]docskema.Option, error) {
	var out []docskema.Option
	for k, v := range f.Options {
		switch k {
		case "typePojoToMixed":
			b, ok := v.(bool)
			if !ok {
				return nil, errors.Errorf("options.%s: expected bool, got %T", k, v)
			}
			out = append(out, docskema.WithTypePojoToMixed(b))
		case "typeKey":
			s, ok := v.(string)
			if !ok || s == "" {
				return nil, errors.Errorf("options.%s: expected non-empty string, got %v", k, v)
			}
			out = append(out, docskema.WithTypeKey(s))
		case "strict":
			p, err := docskema.ParseUnknownPolicy(v)
			if err != nil {
				return nil, errors.Wrapf(err, "options.%s", k)
			}
			out = append(out, docskema.WithStrict(p))
		case "_id":
			b, ok := v.(bool)
			if !ok {
				return nil, errors.Errorf("options.%s: expected bool, got %T", k, v)
			}
			if !b {
				out = append(out, docskema.WithoutID())
			}
		default:
			return nil, errors.Errorf("options: unknown key %q", k)
		}
	}
	return out, nil
}

// Decode reads the first document of r as a definition file.
func Decode(r io.Reader) (*File, error) {
	src, err := readSource(r)
	if err != nil {
		return nil, err
	}
	root, ok := src.root.(map[string]any)
	if !ok {
		return nil, errors.Errorf("definition must be a mapping, got %T", src.root)
	}
	f := &File{src: src}
	def, hasDef := root["definition"].(map[string]any)
	if hasDef && onlyBlocks(root) {
		f.Definition = docskema.Definition(def)
		f.prefix = "definition"
		if raw, ok := root["options"]; ok && raw != nil {
			opts, ok := raw.(map[string]any)
			if !ok {
				return nil, errors.Errorf("%s: options must be a mapping, got %T", src.positions["options"], raw)
			}
			f.Options = opts
		}
		return f, nil
	}
	f.Definition = docskema.Definition(root)
	return f, nil
}

func onlyBlocks(root map[string]any) bool {
	for k := range root {
		if k != "definition" && k != "options" {
			return false
		}
	}
	return true
}

// Load decodes a definition from r and compiles it. Options from the file
// are applied first; opts override them.
func Load(r io.Reader, opts ...docskema.Option) (*docskema.Schema, error) {
	f, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return f.Compile(opts...)
}

// Compile compiles the definition with the file options followed by opts.
// A *docskema.SchemaDefinitionError comes back with Line and Column set to
// the declaration of its path.
func (f *File) Compile(opts ...docskema.Option) (*docskema.Schema, error) {
	fileOpts, err := f.SchemaOptions()
	if err != nil {
		return nil, err
	}
	s, err := docskema.NewSchema(f.Definition, append(fileOpts, opts...)...)
	if err != nil {
		var de *docskema.SchemaDefinitionError
		if errors.As(err, &de) {
			if pos, ok := f.Position(de.Path); ok {
				located := *de
				located.Line, located.Column = pos.Line, pos.Column
				return nil, &located
			}
		}
		return nil, err
	}
	return s, nil
}

// LoadFile reads and compiles the definition stored at path. Definition
// errors are prefixed with path:line:column.
func LoadFile(path string, opts ...docskema.Option) (*docskema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read definition")
	}
	s, err := Load(bytes.NewReader(data), opts...)
	if err != nil {
		var de *docskema.SchemaDefinitionError
		if errors.As(err, &de) && de.Line > 0 {
			return nil, errors.Wrapf(err, "%s:%d:%d", path, de.Line, de.Column)
		}
		return nil, errors.Wrap(err, path)
	}
	return s, nil
}
