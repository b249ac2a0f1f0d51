package docskema

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Schema is a compiled definition: a table of dotted path names to resolved
// path descriptors plus the set of nested containers. A Schema is immutable
// after NewSchema returns and safe for concurrent use.
type Schema struct {
	opts     Options
	paths    map[string]*SchemaType
	nested   map[string]bool
	order    []string
	warnings []string
}

// reservedNames collide with document methods in the originating data model;
// they compile but are reported as warnings.
var reservedNames = map[string]struct{}{
	"collection": {}, "emit": {}, "errors": {}, "get": {}, "init": {}, "isModified": {},
	"isNew": {}, "listeners": {}, "modelName": {}, "on": {}, "once": {}, "populated": {},
	"remove": {}, "removeListener": {}, "save": {}, "schema": {}, "set": {}, "toObject": {},
	"validate": {},
}

// NewSchema compiles def into a Schema.
//
// Each key is parsed into a descriptor (see classify) and resolved top-down:
// nested containers recurse into their keys, everything else yields exactly
// one path. A plain object under the type key resolves to Mixed when
// typePojoToMixed is true and to an Embedded single nested subdocument
// otherwise.
func NewSchema(def Definition, opts ...Option) (*Schema, error) {
	o := resolveOptions(opts)
	s, err := compile(def, o)
	if err != nil {
		return nil, err
	}
	if o.Logger != nil {
		for _, w := range s.warnings {
			o.Logger.Warn("schema compile warning", "warning", w)
		}
	}
	return s, nil
}

func compile(def map[string]any, o Options) (*Schema, error) {
	s := &Schema{opts: o, paths: map[string]*SchemaType{}, nested: map[string]bool{}}
	c := &compiler{schema: s, opts: o}
	if err := c.add(def, ""); err != nil {
		return nil, err
	}
	if o.ID && !c.idDisabled {
		if _, defined := s.paths["_id"]; !defined && !s.nested["_id"] {
			s.paths["_id"] = newIDType()
		}
	}
	s.order = slices.Sorted(maps.Keys(s.paths))
	s.warnings = c.warnings
	return s, nil
}

// MustNewSchema is like NewSchema but panics on error.
func MustNewSchema(def Definition, opts ...Option) *Schema {
	s, err := NewSchema(def, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

type compiler struct {
	schema     *Schema
	opts       Options
	warnings   []string
	idDisabled bool
}

func (c *compiler) warnf(format string, a ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, a...))
}

func (c *compiler) add(def map[string]any, prefix string) error {
	for _, key := range slices.Sorted(maps.Keys(def)) {
		v := def[key]
		full := prefix + key
		if slices.Contains(strings.Split(key, "."), "") {
			return &SchemaDefinitionError{Path: full, Reason: "invalid path name", Value: v}
		}
		if prefix == "" && key == "_id" {
			if b, ok := v.(bool); ok {
				if !b {
					c.idDisabled = true
				}
				continue
			}
		}
		if prefix == "" {
			if _, reserved := reservedNames[key]; reserved {
				c.warnf("%s: reserved document name, may be shadowed", key)
			}
		}
		d := classify(v, c.opts.TypeKey)
		switch d.kind {
		case descInvalid:
			return &SchemaDefinitionError{Path: full, Reason: d.reason, Value: v}
		case descNested:
			if err := c.markNested(full); err != nil {
				return err
			}
			if err := c.add(d.fields, full+"."); err != nil {
				return err
			}
		default:
			t, err := c.interpret(full, d)
			if err != nil {
				return err
			}
			if err := c.addPath(full, t); err != nil {
				return err
			}
		}
	}
	return nil
}

// markNested records full and all of its prefixes as nested containers.
func (c *compiler) markNested(full string) error {
	segs := strings.Split(full, ".")
	for i := 1; i <= len(segs); i++ {
		p := strings.Join(segs[:i], ".")
		if _, isPath := c.schema.paths[p]; isPath {
			return definitionErr(full, "cannot nest under %q because it is already a path", p)
		}
		c.schema.nested[p] = true
	}
	return nil
}

func (c *compiler) addPath(full string, t *SchemaType) error {
	if c.schema.nested[full] {
		return definitionErr(full, "path is already a nested container")
	}
	if _, dup := c.schema.paths[full]; dup {
		return definitionErr(full, "path is defined twice")
	}
	if i := strings.LastIndex(full, "."); i > 0 {
		if err := c.markNested(full[:i]); err != nil {
			return err
		}
	}
	c.schema.paths[full] = t
	return nil
}

// interpret resolves a non-container descriptor into a path type.
func (c *compiler) interpret(path string, d descriptor) (*SchemaType, error) {
	switch d.kind {
	case descScalar:
		return newScalarType(path, d.instance), nil
	case descSchema:
		return newEmbeddedType(path, d.schema), nil
	case descEmpty:
		return newMixedType(path), nil
	case descArray:
		return c.interpretArray(path, d.elems)
	case descWrapper:
		return c.interpretWrapper(path, d.fields)
	}
	return nil, definitionErr(path, "unsupported descriptor")
}

func (c *compiler) interpretWrapper(path string, fields map[string]any) (*SchemaType, error) {
	tv := fields[c.opts.TypeKey]
	options := make(map[string]any, len(fields)-1)
	for k, v := range fields {
		if k != c.opts.TypeKey {
			options[k] = v
		}
	}
	var t *SchemaType
	if pojo, ok := asMap(tv); ok {
		sub, err := c.pojoType(path, pojo)
		if err != nil {
			return nil, err
		}
		t = sub
	} else {
		td := classify(tv, c.opts.TypeKey)
		switch td.kind {
		case descInvalid:
			return nil, &SchemaDefinitionError{Path: path, Reason: "invalid " + c.opts.TypeKey + ": " + td.reason, Value: tv}
		case descScalar, descSchema, descArray:
			sub, err := c.interpret(path, td)
			if err != nil {
				return nil, err
			}
			t = sub
		default:
			return nil, &SchemaDefinitionError{Path: path, Reason: "invalid " + c.opts.TypeKey, Value: tv}
		}
	}
	if err := t.applyOptions(options); err != nil {
		return nil, err
	}
	return t, nil
}

// pojoType applies the typePojoToMixed policy to a plain object found under
// the type key.
func (c *compiler) pojoType(path string, pojo map[string]any) (*SchemaType, error) {
	if c.opts.TypePojoToMixed {
		return newMixedType(path), nil
	}
	sub, err := c.subSchema(path, pojo)
	if err != nil {
		return nil, err
	}
	return newEmbeddedType(path, sub), nil
}

// subSchema compiles def as a child schema inheriting this schema's options.
// Its warnings are repeated on the parent under path.
func (c *compiler) subSchema(path string, def map[string]any) (*Schema, error) {
	sub, err := compile(def, c.opts)
	if err != nil {
		var de *SchemaDefinitionError
		if errors.As(err, &de) {
			return nil, &SchemaDefinitionError{Path: joinPath(path, de.Path), Reason: de.Reason, Value: de.Value, Line: de.Line, Column: de.Column}
		}
		return nil, err
	}
	for _, w := range sub.warnings {
		c.warnings = append(c.warnings, joinPath(path, w))
	}
	return sub, nil
}

func (c *compiler) interpretArray(path string, elems []any) (*SchemaType, error) {
	t := &SchemaType{path: path, instance: InstanceArray, options: map[string]any{}, hasDefault: true}
	t.defaultFn = func() any { return []any{} }
	if len(elems) == 0 {
		t.caster = newMixedType(path)
		return t, nil
	}
	if len(elems) > 1 {
		c.warnf("%s: array definition has %d elements; only the first is used", path, len(elems))
	}
	ed := classify(elems[0], c.opts.TypeKey)
	switch ed.kind {
	case descInvalid:
		return nil, &SchemaDefinitionError{Path: path, Reason: "invalid array element: " + ed.reason, Value: elems[0]}
	case descNested:
		sub, err := c.subSchema(path, ed.fields)
		if err != nil {
			return nil, err
		}
		t.schema, t.docArray = sub, true
	case descSchema:
		t.schema, t.docArray = ed.schema, true
	default:
		caster, err := c.interpret(path, ed)
		if err != nil {
			return nil, err
		}
		if caster.instance == InstanceEmbedded {
			t.schema, t.docArray = caster.schema, true
		} else {
			t.caster = caster
		}
	}
	return t, nil
}

func joinPath(base, p string) string {
	switch {
	case base == "":
		return p
	case p == "":
		return base
	}
	return base + "." + p
}

// Path returns the compiled path named name, or nil.
func (s *Schema) Path(name string) *SchemaType { return s.paths[name] }

// Paths returns every compiled path name in ascending order.
func (s *Schema) Paths() []string { return slices.Clone(s.order) }

// EachPath calls fn for every compiled path in ascending order.
func (s *Schema) EachPath(fn func(name string, t *SchemaType)) {
	for _, p := range s.order {
		fn(p, s.paths[p])
	}
}

// Nested returns the nested container names in ascending order.
func (s *Schema) Nested() []string { return slices.Sorted(maps.Keys(s.nested)) }

// PathType classifies name as a real path, a nested container or neither.
func (s *Schema) PathType(name string) PathKind {
	if _, ok := s.paths[name]; ok {
		return PathReal
	}
	if s.nested[name] {
		return PathNested
	}
	return PathAdhocOrUndefined
}

// Options returns the resolved options the schema was compiled with.
func (s *Schema) Options() Options { return s.opts }

// Warnings returns non-fatal diagnostics produced while compiling.
func (s *Schema) Warnings() []string { return slices.Clone(s.warnings) }
