package docskema

import (
	"reflect"
	"slices"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type toObjectConfig struct {
	minimize bool
}

// ToObjectOption tunes Document.ToObject.
type ToObjectOption func(*toObjectConfig)

// Minimize drops empty nested containers from the snapshot (default true).
func Minimize(on bool) ToObjectOption { return func(c *toObjectConfig) { c.minimize = on } }

// ToObject returns a plain snapshot of the document: nested containers and
// embedded documents are flattened into map[string]any, document arrays into
// []any of maps. Mixed values keep their stored concrete types. The snapshot
// shares no containers with the document.
func (d *Document) ToObject(opts ...ToObjectOption) map[string]any {
	cfg := toObjectConfig{minimize: true}
	for _, fn := range opts {
		fn(&cfg)
	}
	return d.toObject(cfg)
}

func (d *Document) toObject(cfg toObjectConfig) map[string]any {
	return d.flattenMap("", d.values, cfg)
}

func (d *Document) flattenMap(prefix string, m map[string]any, cfg toObjectConfig) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		full := joinPath(prefix, k)
		if d.schema.nested[full] {
			if sub, ok := v.(map[string]any); ok {
				fm := d.flattenMap(full, sub, cfg)
				if cfg.minimize && len(fm) == 0 {
					continue
				}
				out[k] = fm
				continue
			}
		}
		out[k] = flattenValue(v, cfg)
	}
	return out
}

func flattenValue(v any, cfg toObjectConfig) any {
	switch x := v.(type) {
	case *Document:
		if x == nil {
			return nil
		}
		return x.toObject(cfg)
	case []any:
		if x == nil {
			return x
		}
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = flattenValue(e, cfg)
		}
		return out
	}
	return cloneValue(v)
}

// cloneValue deep-copies container values and keeps their concrete types.
// Typed maps and slices outside the document model are copied one level
// deep; scalars are returned as is.
func cloneValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return cloneMap(x)
	case Definition:
		return Definition(cloneMap(x))
	case primitive.M:
		return primitive.M(cloneMap(x))
	case primitive.D:
		if x == nil {
			return x
		}
		out := make(primitive.D, len(x))
		for i, e := range x {
			out[i] = primitive.E{Key: e.Key, Value: cloneValue(e.Value)}
		}
		return out
	case []any:
		return cloneSlice(x)
	case primitive.A:
		return primitive.A(cloneSlice(x))
	case []byte:
		return slices.Clone(x)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		reflect.Copy(out, rv)
		return out.Interface()
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		for it := rv.MapRange(); it.Next(); {
			out.SetMapIndex(it.Key(), it.Value())
		}
		return out.Interface()
	}
	return v
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneSlice(s []any) []any {
	if s == nil {
		return nil
	}
	out := make([]any, len(s))
	for i, e := range s {
		out[i] = cloneValue(e)
	}
	return out
}

// objectValue returns v as a map when it is object-shaped input. bson.D is
// read into a fresh map; the other map forms are returned without copying.
func objectValue(v any) (map[string]any, bool) {
	switch x := v.(type) {
	case primitive.D:
		out := make(map[string]any, len(x))
		for _, e := range x {
			out[e.Key] = e.Value
		}
		return out, true
	}
	return mapRef(v)
}

// mapRef returns the map behind v without copying, for in-place access.
func mapRef(v any) (map[string]any, bool) {
	switch x := v.(type) {
	case map[string]any:
		return x, true
	case Definition:
		return x, true
	case primitive.M:
		return x, true
	}
	return nil, false
}
