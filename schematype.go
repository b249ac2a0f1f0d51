package docskema

import (
	"context"
	"errors"
	"maps"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SchemaType is a compiled path: the resolved descriptor of one leaf or
// ambiguous node of a definition.
type SchemaType struct {
	path         string
	instance     Instance
	schema       *Schema     // Embedded and document-array element schema
	caster       *SchemaType // Array element type
	singleNested bool
	docArray     bool
	options      map[string]any
	cast         CastFunc
	setters      []func(any) any
	validators   []validator
	required     bool
	hasDefault   bool
	defaultFn    func() any
}

// Validator is a user-supplied validation rule for the "validate" option.
// Fn runs in both Validate and ValidateSync; CtxFn runs only in Validate.
type Validator struct {
	Fn      func(v any) bool
	CtxFn   func(ctx context.Context, v any) error
	Message string
}

type validator struct {
	code    string
	message string
	params  map[string]any
	async   bool
	check   func(ctx context.Context, v any) error
}

// errValidatorFailed is returned by built-in checks; the issue message comes
// from the validator's code.
var errValidatorFailed = errors.New("validator failed")

func newScalarType(path string, inst Instance) *SchemaType {
	return &SchemaType{path: path, instance: inst, cast: casterFor(inst), options: map[string]any{}}
}

func newMixedType(path string) *SchemaType { return newScalarType(path, InstanceMixed) }

func newEmbeddedType(path string, s *Schema) *SchemaType {
	return &SchemaType{path: path, instance: InstanceEmbedded, schema: s, singleNested: true, options: map[string]any{}}
}

// Path returns the dotted path name.
func (t *SchemaType) Path() string { return t.path }

// Instance returns the resolved type tag.
func (t *SchemaType) Instance() Instance { return t.instance }

// IsSingleNested reports whether the path is a single nested subdocument.
func (t *SchemaType) IsSingleNested() bool { return t.singleNested }

// IsDocumentArray reports whether the path is an array of subdocuments.
func (t *SchemaType) IsDocumentArray() bool { return t.docArray }

// Schema returns the sub-schema of an Embedded path or a document array.
func (t *SchemaType) Schema() *Schema { return t.schema }

// Caster returns the element type of a scalar Array path.
func (t *SchemaType) Caster() *SchemaType { return t.caster }

// IsRequired reports whether the path carries a required validator.
func (t *SchemaType) IsRequired() bool { return t.required }

// Option returns a raw option declared beside the type key.
func (t *SchemaType) Option(key string) (any, bool) {
	v, ok := t.options[key]
	return v, ok
}

// Options returns a copy of all declared options.
func (t *SchemaType) Options() map[string]any { return maps.Clone(t.options) }

// HasDefault reports whether a default value is declared (arrays always
// default to an empty array).
func (t *SchemaType) HasDefault() bool { return t.hasDefault }

// Default returns a fresh default value.
func (t *SchemaType) Default() any {
	if !t.hasDefault {
		return nil
	}
	if t.defaultFn != nil {
		return t.defaultFn()
	}
	return nil
}

// Cast coerces v for a scalar path and applies setters. Embedded and array
// paths are cast by the document constructor.
func (t *SchemaType) Cast(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	out, err := t.cast(v)
	if err != nil {
		return nil, err
	}
	for _, set := range t.setters {
		out = set(out)
	}
	return out, nil
}

// applyOptions interprets the keys declared beside the type key.
func (t *SchemaType) applyOptions(opts map[string]any) error {
	keys := slices.Sorted(maps.Keys(opts))
	for _, k := range keys {
		v := opts[k]
		t.options[k] = v
		target := t
		if t.instance == InstanceArray && t.caster != nil && isElementOption(k) {
			target = t.caster
			target.options[k] = v
		}
		if err := target.applyOption(k, v); err != nil {
			return err
		}
	}
	return nil
}

func isElementOption(k string) bool {
	switch k {
	case "enum", "min", "max", "minlength", "maxlength", "match", "trim", "lowercase", "uppercase":
		return true
	}
	return false
}

func (t *SchemaType) applyOption(k string, v any) error {
	switch k {
	case "required":
		switch r := v.(type) {
		case bool:
			if r {
				t.addRequired("")
			}
		case string:
			t.addRequired(r)
		default:
			return definitionErr(t.path, "required must be bool or message, got %T", v)
		}
	case "default":
		t.hasDefault = true
		if fn, ok := v.(func() any); ok {
			t.defaultFn = fn
		} else {
			t.defaultFn = func() any { return cloneValue(v) }
		}
	case "enum":
		vals, ok := asSlice(v)
		if !ok {
			return definitionErr(t.path, "enum must be a list, got %T", v)
		}
		allowed := make([]any, 0, len(vals))
		for _, ev := range vals {
			cv, err := t.Cast(ev)
			if err != nil {
				return definitionErr(t.path, "enum value %v is not a valid %s", ev, t.instance)
			}
			allowed = append(allowed, cv)
		}
		t.validators = append(t.validators, validator{
			code:   CodeEnum,
			params: map[string]any{"enum": allowed},
			check: func(_ context.Context, v any) error {
				for _, a := range allowed {
					if sameScalar(a, v) {
						return nil
					}
				}
				return errValidatorFailed
			},
		})
	case "min", "max":
		return t.addBound(k, v)
	case "minlength", "maxlength":
		n, ok := toFloat(v)
		if !ok {
			return definitionErr(t.path, "%s must be a number, got %T", k, v)
		}
		limit := int(n)
		t.validators = append(t.validators, validator{
			code:   k,
			params: map[string]any{k: limit},
			check: func(_ context.Context, v any) error {
				s, ok := v.(string)
				if !ok {
					return nil
				}
				l := len([]rune(s))
				if (k == "minlength" && l < limit) || (k == "maxlength" && l > limit) {
					return errValidatorFailed
				}
				return nil
			},
		})
	case "match":
		var re *regexp.Regexp
		switch m := v.(type) {
		case *regexp.Regexp:
			re = m
		case string:
			compiled, err := regexp.Compile(m)
			if err != nil {
				return definitionErr(t.path, "invalid match pattern: %v", err)
			}
			re = compiled
		default:
			return definitionErr(t.path, "match must be a pattern, got %T", v)
		}
		t.validators = append(t.validators, validator{
			code:   CodeMatch,
			params: map[string]any{"regexp": re.String()},
			check: func(_ context.Context, v any) error {
				s, ok := v.(string)
				if !ok || re.MatchString(s) {
					return nil
				}
				return errValidatorFailed
			},
		})
	case "trim", "lowercase", "uppercase":
		if on, _ := v.(bool); on && t.instance == InstanceString {
			t.setters = append(t.setters, stringSetter(k))
		}
	case "validate":
		return t.addUserValidators(v)
	}
	return nil
}

func (t *SchemaType) addRequired(msg string) {
	t.required = true
	t.validators = append([]validator{{
		code:    CodeRequired,
		message: msg,
		check: func(_ context.Context, v any) error {
			if isEmptyRequired(v) {
				return errValidatorFailed
			}
			return nil
		},
	}}, t.validators...)
}

func isEmptyRequired(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []any:
		return len(x) == 0
	case *Document:
		return x == nil
	}
	return false
}

func (t *SchemaType) addBound(k string, v any) error {
	var limit float64
	if t.instance == InstanceDate {
		d, err := castDate(v)
		if err != nil || d == nil {
			return definitionErr(t.path, "%s must be a date, got %v", k, v)
		}
		limit = float64(d.(time.Time).UnixMilli())
	} else {
		n, ok := toFloat(v)
		if !ok {
			return definitionErr(t.path, "%s must be a number, got %T", k, v)
		}
		limit = n
	}
	t.validators = append(t.validators, validator{
		code:   k,
		params: map[string]any{k: v},
		check: func(_ context.Context, v any) error {
			var got float64
			switch x := v.(type) {
			case float64:
				got = x
			case time.Time:
				got = float64(x.UnixMilli())
			default:
				return nil
			}
			if (k == "min" && got < limit) || (k == "max" && got > limit) {
				return errValidatorFailed
			}
			return nil
		},
	})
	return nil
}

func (t *SchemaType) addUserValidators(v any) error {
	if list, ok := v.([]any); ok {
		for _, item := range list {
			if err := t.addUserValidators(item); err != nil {
				return err
			}
		}
		return nil
	}
	uv := validator{code: CodeUserDefined}
	switch fn := v.(type) {
	case func(any) bool:
		uv.check = func(_ context.Context, v any) error {
			if fn(v) {
				return nil
			}
			return errValidatorFailed
		}
	case func(context.Context, any) error:
		uv.async = true
		uv.check = fn
	case Validator:
		uv.message = fn.Message
		switch {
		case fn.CtxFn != nil:
			uv.async = true
			uv.check = fn.CtxFn
		case fn.Fn != nil:
			check := fn.Fn
			uv.check = func(_ context.Context, v any) error {
				if check(v) {
					return nil
				}
				return errValidatorFailed
			}
		default:
			return definitionErr(t.path, "validator has no function")
		}
	default:
		return definitionErr(t.path, "validate must be a function or Validator, got %T", v)
	}
	t.validators = append(t.validators, uv)
	return nil
}

func sameScalar(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) || !reflect.TypeOf(a).Comparable() {
		return false
	}
	if ta, ok := a.(time.Time); ok {
		return ta.Equal(b.(time.Time))
	}
	return a == b
}

func stringSetter(kind string) func(any) any {
	return func(v any) any {
		s, ok := v.(string)
		if !ok {
			return v
		}
		switch kind {
		case "trim":
			return strings.TrimSpace(s)
		case "lowercase":
			return strings.ToLower(s)
		default:
			return strings.ToUpper(s)
		}
	}
}

func toFloat(v any) (float64, bool) {
	n, err := castNumber(v)
	if err != nil || n == nil {
		return 0, false
	}
	if _, isBool := v.(bool); isBool {
		return 0, false
	}
	return n.(float64), true
}

func newIDType() *SchemaType {
	t := newScalarType("_id", InstanceObjectID)
	t.hasDefault = true
	t.defaultFn = func() any { return primitive.NewObjectID() }
	t.options["auto"] = true
	return t
}
