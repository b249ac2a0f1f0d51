package docskema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CastFunc coerces a raw input value into the representation stored for a
// scalar path. It is never called with nil.
type CastFunc func(v any) (any, error)

var errNotCastable = errors.New("value is not castable")

func casterFor(inst Instance) CastFunc {
	switch inst {
	case InstanceString:
		return castString
	case InstanceNumber:
		return castNumber
	case InstanceBoolean:
		return castBoolean
	case InstanceDate:
		return castDate
	case InstanceObjectID:
		return castObjectID
	case InstanceUUID:
		return castUUID
	case InstanceMixed:
		return castMixed
	}
	if ct, ok := lookupCustomType(strings.ToLower(string(inst))); ok {
		return ct.cast
	}
	return castMixed
}

// castMixed copies v so the document never shares the caller's containers.
func castMixed(v any) (any, error) { return cloneValue(v), nil }

func castString(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32), nil
	case int:
		return strconv.Itoa(t), nil
	case int32:
		return strconv.FormatInt(int64(t), 10), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	case primitive.ObjectID:
		return t.Hex(), nil
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano), nil
	case fmt.Stringer:
		return t.String(), nil
	}
	return nil, errNotCastable
}

func castNumber(v any) (any, error) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int8:
		f = float64(t)
	case int16:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint8:
		f = float64(t)
	case uint16:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case bool:
		if t {
			return float64(1), nil
		}
		return float64(0), nil
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return nil, err
		}
		f = n
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		f = n
	default:
		return nil, errNotCastable
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, errNotCastable
	}
	return f, nil
}

func castBoolean(v any) (any, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		switch t {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
	case json.Number:
		return castBoolean(t.String())
	default:
		if n, err := castNumber(v); err == nil && n != nil {
			switch n.(float64) {
			case 1:
				return true, nil
			case 0:
				return false, nil
			}
		}
	}
	return nil, errNotCastable
}

func castDate(v any) (any, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t == nil {
			return nil, nil
		}
		return *t, nil
	case primitive.DateTime:
		return t.Time().UTC(), nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, nil
		}
		if ts, err := parseRFC3339(s); err == nil {
			return ts, nil
		}
		if ts, err := time.Parse("2006-01-02", s); err == nil {
			return ts, nil
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC(), nil
		}
		return nil, errNotCastable
	}
	n, err := castNumber(v)
	if err != nil || n == nil {
		return nil, errNotCastable
	}
	return time.UnixMilli(int64(n.(float64))).UTC(), nil
}

func parseRFC3339(s string) (time.Time, error) {
	// Accept RFC3339Nano (trailing zeros optional)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return t, nil
}

func castObjectID(v any) (any, error) {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t, nil
	case [12]byte:
		return primitive.ObjectID(t), nil
	case string:
		return primitive.ObjectIDFromHex(t)
	case *Document:
		if id, ok := t.ID().(primitive.ObjectID); ok {
			return id, nil
		}
	}
	return nil, errNotCastable
}

func castUUID(v any) (any, error) {
	switch t := v.(type) {
	case uuid.UUID:
		return t, nil
	case string:
		return uuid.Parse(t)
	case []byte:
		return uuid.FromBytes(t)
	case primitive.Binary:
		if t.Subtype == 0x03 || t.Subtype == 0x04 {
			return uuid.FromBytes(t.Data)
		}
	}
	return nil, errNotCastable
}

type customType struct {
	instance Instance
	cast     CastFunc
}

var (
	customMu    sync.RWMutex
	customTypes = map[string]customType{}
)

// RegisterType adds a scalar type usable by name in definitions. Names are
// matched case-insensitively; built-in names cannot be replaced.
func RegisterType(name string, cast CastFunc) error {
	key := strings.ToLower(name)
	if key == "" || cast == nil {
		return errors.New("docskema: RegisterType requires a name and a cast function")
	}
	if _, ok := builtinTypes[key]; ok {
		return fmt.Errorf("docskema: %q is a built-in type", name)
	}
	customMu.Lock()
	customTypes[key] = customType{instance: Instance(name), cast: cast}
	customMu.Unlock()
	return nil
}

func lookupCustomType(key string) (customType, bool) {
	customMu.RLock()
	ct, ok := customTypes[key]
	customMu.RUnlock()
	return ct, ok
}
