package docskema

import (
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MarshalBSON encodes the ToObject snapshot as a BSON document. UUIDs are
// written as binary subtype 4.
func (d *Document) MarshalBSON() ([]byte, error) {
	return bson.Marshal(bsonValue(d.ToObject()))
}

func bsonValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(bson.M, len(x))
		for k, e := range x {
			out[k] = bsonValue(e)
		}
		return out
	case primitive.M:
		return bsonValue(map[string]any(x))
	case primitive.D:
		out := make(bson.D, len(x))
		for i, e := range x {
			out[i] = bson.E{Key: e.Key, Value: bsonValue(e.Value)}
		}
		return out
	case []any:
		out := make(bson.A, len(x))
		for i, e := range x {
			out[i] = bsonValue(e)
		}
		return out
	case primitive.A:
		return bsonValue([]any(x))
	case uuid.UUID:
		return primitive.Binary{Subtype: 0x04, Data: x[:]}
	}
	return v
}

// NewDocumentFromBSON decodes a BSON document and constructs a document from
// it. The result reports IsNew() == false.
func NewDocumentFromBSON(s *Schema, data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, errors.New("docskema: empty BSON input")
	}
	var raw bson.D
	if err := bson.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	m := plainDocument(raw)
	if s == nil {
		return nil, errors.New("docskema: nil schema")
	}
	doc, err := newDocument(s, nil, m)
	if err != nil {
		return nil, err
	}
	doc.markStored()
	return doc, nil
}

// markStored flags the document tree as loaded from storage: not new and
// without modified paths.
func (d *Document) markStored() {
	d.isNew = false
	clear(d.modified)
	d.eachChild(func(_ string, child *Document) { child.markStored() })
}

// plainDocument converts decoded BSON containers into map[string]any and
// []any so stored documents read like documents built from Go values.
func plainDocument(d bson.D) map[string]any {
	out := make(map[string]any, len(d))
	for _, e := range d {
		out[e.Key] = plainValue(e.Value)
	}
	return out
}

func plainValue(v any) any {
	switch x := v.(type) {
	case primitive.D:
		return plainDocument(bson.D(x))
	case primitive.M:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = plainValue(e)
		}
		return out
	case primitive.A:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plainValue(e)
		}
		return out
	}
	return v
}
