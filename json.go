package docskema

import (
	"encoding/hex"
	"errors"
	"time"

	j "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/reoring/docskema/internal/engine"
)

// DuplicateKeyPolicy selects how repeated object keys in JSON input are
// treated.
type DuplicateKeyPolicy int

const (
	// DuplicateLastWins keeps the last occurrence silently.
	DuplicateLastWins DuplicateKeyPolicy = iota
	// DuplicateWarn keeps the last occurrence and reports a duplicate_key
	// issue through the decode options' sink.
	DuplicateWarn
	// DuplicateError rejects the input.
	DuplicateError
)

type decodeConfig struct {
	dup      DuplicateKeyPolicy
	maxDepth int
	onIssue  func(Issue)
}

// DecodeOption tunes JSON raw input decoding.
type DecodeOption func(*decodeConfig)

// WithDuplicateKeys sets the duplicate key policy (default DuplicateError).
func WithDuplicateKeys(p DuplicateKeyPolicy) DecodeOption {
	return func(c *decodeConfig) { c.dup = p }
}

// WithMaxDepth bounds container nesting; zero or less means unlimited.
func WithMaxDepth(n int) DecodeOption { return func(c *decodeConfig) { c.maxDepth = n } }

// WithIssueSink receives non-fatal decode issues such as warned duplicates.
func WithIssueSink(fn func(Issue)) DecodeOption { return func(c *decodeConfig) { c.onIssue = fn } }

// NewDocumentFromJSON decodes a JSON object and constructs a document from it.
// Decode failures are returned as Issues with code parse_error or
// duplicate_key.
func NewDocumentFromJSON(s *Schema, data []byte, opts ...DecodeOption) (*Document, error) {
	raw, err := DecodeJSONObject(data, opts...)
	if err != nil {
		return nil, err
	}
	return NewDocument(s, raw)
}

// DecodeJSONObject decodes data into a map, keeping numbers as json.Number.
func DecodeJSONObject(data []byte, opts ...DecodeOption) (map[string]any, error) {
	cfg := decodeConfig{dup: DuplicateError, maxDepth: 512}
	for _, fn := range opts {
		fn(&cfg)
	}
	eo := engine.Options{MaxDepth: cfg.maxDepth}
	switch cfg.dup {
	case DuplicateWarn:
		eo.OnDuplicate = engine.DupWarn
	case DuplicateError:
		eo.OnDuplicate = engine.DupError
	default:
		eo.OnDuplicate = engine.DupIgnore
	}
	if cfg.onIssue != nil {
		eo.IssueSink = func(si engine.SimpleIssue) {
			cfg.onIssue(Issue{Path: si.Path, Code: si.Code, Message: si.Message})
		}
	}
	m, err := engine.DecodeObjectBytes(data, eo)
	if err != nil {
		var ie engine.IssueError
		if errors.As(err, &ie) {
			return nil, Issues{{Path: ie.Path, Code: ie.Code, Message: ie.Message, Cause: err}}
		}
		return nil, err
	}
	return m, nil
}

// MarshalJSON encodes the ToObject snapshot. ObjectIDs become hex strings,
// dates RFC 3339 strings and UUIDs their canonical text.
func (d *Document) MarshalJSON() ([]byte, error) {
	return j.Marshal(jsonValue(d.ToObject()))
}

func jsonValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = jsonValue(e)
		}
		return out
	case primitive.M:
		return jsonValue(map[string]any(x))
	case primitive.D:
		m, _ := objectValue(x)
		return jsonValue(m)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = jsonValue(e)
		}
		return out
	case primitive.A:
		return jsonValue([]any(x))
	case primitive.ObjectID:
		return x.Hex()
	case uuid.UUID:
		return x.String()
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case primitive.DateTime:
		return x.Time().UTC().Format(time.RFC3339Nano)
	case primitive.Binary:
		return hex.EncodeToString(x.Data)
	case primitive.Decimal128:
		return x.String()
	}
	return v
}
