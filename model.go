package docskema

import (
	"maps"
	"slices"
	"sync"
)

// Model binds a name to a compiled schema and constructs documents from it.
type Model struct {
	name   string
	schema *Schema
}

// Name returns the registered model name.
func (m *Model) Name() string { return m.name }

// Schema returns the schema the model was registered with.
func (m *Model) Schema() *Schema { return m.schema }

// New constructs a document from raw input.
func (m *Model) New(raw map[string]any) (*Document, error) { return NewDocument(m.schema, raw) }

// NewFromJSON constructs a document from a JSON object.
func (m *Model) NewFromJSON(data []byte, opts ...DecodeOption) (*Document, error) {
	return NewDocumentFromJSON(m.schema, data, opts...)
}

// NewFromBSON constructs a document from a BSON document.
func (m *Model) NewFromBSON(data []byte) (*Document, error) {
	return NewDocumentFromBSON(m.schema, data)
}

// Registry is a concurrency-safe set of named models.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*Model
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry { return &Registry{models: map[string]*Model{}} }

// Model registers s under name, or looks name up when s is nil.
// Registering a name again with the same schema returns the existing model;
// a different schema fails with *OverwriteModelError. Looking up an unknown
// name fails with *MissingSchemaError.
func (r *Registry) Model(name string, s *Schema) (*Model, error) {
	if s == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		m, ok := r.models[name]
		if !ok {
			return nil, &MissingSchemaError{Name: name}
		}
		return m, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.models[name]; ok {
		if m.schema != s {
			return nil, &OverwriteModelError{Name: name}
		}
		return m, nil
	}
	m := &Model{name: name, schema: s}
	r.models[name] = m
	return m, nil
}

// Models returns the registered model names in ascending order.
func (r *Registry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.models))
}

// Delete removes name from the registry. It reports whether it was present.
func (r *Registry) Delete(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.models[name]
	delete(r.models, name)
	return ok
}

var defaultRegistry = NewRegistry()

// RegisterModel registers s under name on the default registry.
func RegisterModel(name string, s *Schema) (*Model, error) { return defaultRegistry.Model(name, s) }

// LookupModel returns the model registered under name on the default registry.
func LookupModel(name string) (*Model, error) { return defaultRegistry.Model(name, nil) }
