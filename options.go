package docskema

import (
	"fmt"
	"log/slog"
	"sync"
)

// Options is the resolved configuration of a compiled schema. It is read once
// at compile time and cached on the schema.
type Options struct {
	// TypePojoToMixed resolves a plain nested object under the type key as
	// Mixed (true) or as an Embedded single nested subdocument (false).
	TypePojoToMixed bool
	// TypeKey is the key that marks a type wrapper. Defaults to "type".
	TypeKey string
	// Strict selects how undeclared keys are handled during construction.
	Strict UnknownPolicy
	// ID adds an auto-generated _id ObjectID path.
	ID bool
	// Logger receives compile warnings and strict-mode drops. Nil disables logging.
	Logger *slog.Logger
}

// Option configures a schema at compile time.
type Option func(*Options)

// WithTypePojoToMixed sets the typePojoToMixed flag for one schema.
func WithTypePojoToMixed(v bool) Option { return func(o *Options) { o.TypePojoToMixed = v } }

// WithTypeKey changes the key used to recognize type wrappers (e.g. "$type").
func WithTypeKey(k string) Option {
	return func(o *Options) {
		if k != "" {
			o.TypeKey = k
		}
	}
}

// WithStrict sets the unknown-key policy.
func WithStrict(p UnknownPolicy) Option { return func(o *Options) { o.Strict = p } }

// WithoutID disables the implicit _id path.
func WithoutID() Option { return func(o *Options) { o.ID = false } }

// WithLogger mirrors compile warnings to l.
func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }

var (
	defaultsMu sync.RWMutex
	defaults   = Options{TypePojoToMixed: true, TypeKey: "type", Strict: UnknownStrip, ID: true}
)

// Set changes a process-wide default used by schemas compiled afterwards.
// Recognized keys: "typePojoToMixed" (bool), "typeKey" (string),
// "strict" (bool, "throw" or UnknownPolicy) and "_id" (bool).
func Set(key string, value any) error {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	switch key {
	case "typePojoToMixed":
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("docskema: %s expects bool, got %T", key, value)
		}
		defaults.TypePojoToMixed = b
	case "typeKey":
		s, ok := value.(string)
		if !ok || s == "" {
			return fmt.Errorf("docskema: %s expects a non-empty string, got %v", key, value)
		}
		defaults.TypeKey = s
	case "strict":
		p, err := ParseUnknownPolicy(value)
		if err != nil {
			return err
		}
		defaults.Strict = p
	case "_id":
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("docskema: %s expects bool, got %T", key, value)
		}
		defaults.ID = b
	default:
		return fmt.Errorf("docskema: unknown option %q", key)
	}
	return nil
}

// Get returns a process-wide default, or nil for unknown keys.
func Get(key string) any {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()
	switch key {
	case "typePojoToMixed":
		return defaults.TypePojoToMixed
	case "typeKey":
		return defaults.TypeKey
	case "strict":
		return defaults.Strict
	case "_id":
		return defaults.ID
	}
	return nil
}

// ResetDefaults restores the built-in process-wide defaults.
func ResetDefaults() {
	defaultsMu.Lock()
	defaults = Options{TypePojoToMixed: true, TypeKey: "type", Strict: UnknownStrip, ID: true}
	defaultsMu.Unlock()
}

// ParseUnknownPolicy maps the configuration spellings of the strict option:
// true/"strip" → UnknownStrip, false/"passthrough" → UnknownPassthrough,
// "throw" → UnknownStrict.
func ParseUnknownPolicy(v any) (UnknownPolicy, error) {
	switch t := v.(type) {
	case UnknownPolicy:
		return t, nil
	case bool:
		if t {
			return UnknownStrip, nil
		}
		return UnknownPassthrough, nil
	case string:
		switch t {
		case "throw":
			return UnknownStrict, nil
		case "strip", "true":
			return UnknownStrip, nil
		case "passthrough", "false":
			return UnknownPassthrough, nil
		}
	}
	return UnknownStrip, fmt.Errorf("docskema: invalid strict value %v", v)
}

func resolveOptions(opts []Option) Options {
	defaultsMu.RLock()
	o := defaults
	defaultsMu.RUnlock()
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	if o.TypeKey == "" {
		o.TypeKey = "type"
	}
	return o
}
