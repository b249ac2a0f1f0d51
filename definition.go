package docskema

import (
	"reflect"
	"strings"
)

// descriptorKind is the tagged variant a definition node is parsed into
// before compilation.
type descriptorKind int

const (
	descInvalid descriptorKind = iota
	descScalar                 // String, "number", ...
	descSchema                 // *Schema
	descArray                  // []any{elem}
	descWrapper                // {type: X, ...options}
	descNested                 // {a: ..., b: ...} container of fields
	descEmpty                  // {}
)

type descriptor struct {
	kind     descriptorKind
	instance Instance       // descScalar
	schema   *Schema        // descSchema
	elems    []any          // descArray
	fields   map[string]any // descWrapper, descNested
	reason   string         // descInvalid
}

// classify parses one definition node. The order of checks encodes the
// precedence rules for the type-key ambiguity:
//
//   - a map without the type key is a nested container;
//   - a map whose "type" value is itself a map with its own "type" key is also
//     a nested container ("type" is then an ordinary property). This only
//     applies when the type key is literally "type";
//   - any other map carrying the type key is a type wrapper.
func classify(v any, typeKey string) descriptor {
	switch t := v.(type) {
	case nil:
		return descriptor{kind: descInvalid, reason: "invalid value <nil>"}
	case *Schema:
		if t == nil {
			return descriptor{kind: descInvalid, reason: "nil *Schema"}
		}
		return descriptor{kind: descSchema, schema: t}
	case Type, string:
		inst, ok := lookupType(t)
		if !ok {
			return descriptor{kind: descInvalid, reason: "`" + typeName(t) + "` is not a valid type"}
		}
		return descriptor{kind: descScalar, instance: inst}
	}
	if m, ok := asMap(v); ok {
		if len(m) == 0 {
			return descriptor{kind: descEmpty}
		}
		tv, has := m[typeKey]
		if !has {
			return descriptor{kind: descNested, fields: m}
		}
		if typeKey == "type" {
			if inner, ok := asMap(tv); ok {
				if it, ok := inner["type"]; ok && it != nil {
					return descriptor{kind: descNested, fields: m}
				}
			}
		}
		return descriptor{kind: descWrapper, fields: m}
	}
	if elems, ok := asSlice(v); ok {
		return descriptor{kind: descArray, elems: elems}
	}
	return descriptor{kind: descInvalid, reason: "invalid value of type " + reflect.TypeOf(v).String()}
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case Definition:
		return t, true
	case map[string]any:
		return t, true
	}
	return nil, false
}

func asSlice(v any) ([]any, bool) {
	if a, ok := v.([]any); ok {
		return a, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func typeName(v any) string {
	switch t := v.(type) {
	case Type:
		return string(t)
	case string:
		return t
	}
	return ""
}

var builtinTypes = map[string]Instance{
	"string":   InstanceString,
	"number":   InstanceNumber,
	"boolean":  InstanceBoolean,
	"bool":     InstanceBoolean,
	"date":     InstanceDate,
	"objectid": InstanceObjectID,
	"uuid":     InstanceUUID,
	"mixed":    InstanceMixed,
	"object":   InstanceMixed,
}

// lookupType resolves a type name case-insensitively against the built-in
// and registered scalar types.
func lookupType(v any) (Instance, bool) {
	name := strings.ToLower(typeName(v))
	if name == "" {
		return "", false
	}
	if inst, ok := builtinTypes[name]; ok {
		return inst, true
	}
	if ct, ok := lookupCustomType(name); ok {
		return ct.instance, true
	}
	return "", false
}
