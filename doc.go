// Package docskema compiles document schema definitions and constructs typed
// documents from raw input.
//
// A definition is a nested map. Each key is one of:
//
// - a scalar type tag (String, Number, Boolean, Date, ObjectID, UUID, Mixed or a registered custom type)
// - a type wrapper: a map with a "type" key plus options (required, default, enum, min, max, ...)
// - a nested container: a map without a type key
// - an array whose first element describes the elements
// - an already compiled *Schema (single nested subdocument)
//
// A plain object under the type key is ambiguous. The typePojoToMixed option
// decides: true (default) compiles it as Mixed, false as an Embedded
// subdocument with its own schema.
//
// Design policy:
// - Keep the public API in the root package; put decoders under internal/.
// - File loading lives in yamldef/, the CLI under cmd/docskema.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	s, err := docskema.NewSchema(docskema.Definition{
//	    "name":  docskema.String,
//	    "meta":  docskema.Definition{"type": docskema.Definition{"tag": docskema.String}},
//	    "score": docskema.Definition{"type": docskema.Number, "min": 0},
//	}, docskema.WithTypePojoToMixed(false))
//	doc, err := docskema.NewDocument(s, raw)
//	err = doc.Validate(ctx)
//	obj := doc.ToObject()
package docskema
