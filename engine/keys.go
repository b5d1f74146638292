package engine

import (
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// PrimaryKey is a primary key value in one of the shapes the engine supports.
type PrimaryKey interface {
	// Values returns one value per primary key column, in column order.
	Values() []any
	// IsZero reports whether the key is absent or the default of its type.
	IsZero() bool
	String() string
}

// IntKey is an integer primary key.
type IntKey int64

func (k IntKey) Values() []any  { return []any{int64(k)} }
func (k IntKey) IsZero() bool   { return k == 0 }
func (k IntKey) String() string { return strconv.FormatInt(int64(k), 10) }

// TextKey is a text primary key.
type TextKey string

func (k TextKey) Values() []any  { return []any{string(k)} }
func (k TextKey) IsZero() bool   { return k == "" }
func (k TextKey) String() string { return string(k) }

// UUIDKey is a UUID primary key.
type UUIDKey uuid.UUID

func (k UUIDKey) Values() []any  { return []any{uuid.UUID(k)} }
func (k UUIDKey) IsZero() bool   { return uuid.UUID(k) == uuid.Nil }
func (k UUIDKey) String() string { return uuid.UUID(k).String() }

// CompositeKey spans several columns. It is zero if any part is zero.
type CompositeKey []PrimaryKey

func (k CompositeKey) Values() []any {
	values := make([]any, 0, len(k))
	for _, part := range k {
		values = append(values, part.Values()...)
	}
	return values
}

func (k CompositeKey) IsZero() bool {
	if len(k) == 0 {
		return true
	}
	for _, part := range k {
		if part == nil || part.IsZero() {
			return true
		}
	}
	return false
}

func (k CompositeKey) String() string {
	parts := make([]string, len(k))
	for i, part := range k {
		if part == nil {
			parts[i] = "<nil>"
			continue
		}
		parts[i] = part.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// KeyOf converts a primary key value to a PrimaryKey. A nil *T is treated as
// an absent key and rejected.
func KeyOf(v any) (PrimaryKey, error) {
	switch k := v.(type) {
	case nil:
		return nil, invalidArgument("primary key is nil")
	case PrimaryKey:
		return k, nil
	case int:
		return IntKey(k), nil
	case int8:
		return IntKey(k), nil
	case int16:
		return IntKey(k), nil
	case int32:
		return IntKey(k), nil
	case int64:
		return IntKey(k), nil
	case uint:
		return uintKey(uint64(k))
	case uint8:
		return IntKey(k), nil
	case uint16:
		return IntKey(k), nil
	case uint32:
		return IntKey(k), nil
	case uint64:
		return uintKey(k)
	case string:
		return TextKey(k), nil
	case uuid.UUID:
		return UUIDKey(k), nil
	case *int64:
		if k == nil {
			return nil, invalidArgument("primary key is nil")
		}
		return IntKey(*k), nil
	case *string:
		if k == nil {
			return nil, invalidArgument("primary key is nil")
		}
		return TextKey(*k), nil
	case *uuid.UUID:
		if k == nil {
			return nil, invalidArgument("primary key is nil")
		}
		return UUIDKey(*k), nil
	default:
		return nil, invalidArgument("unsupported primary key type %T", v)
	}
}

// uintKey rejects values SQLite cannot store as a signed 64-bit integer.
func uintKey(v uint64) (PrimaryKey, error) {
	if v > math.MaxInt64 {
		return nil, invalidArgument("primary key %d overflows int64", v)
	}
	return IntKey(v), nil
}

// RequireKey is KeyOf that additionally rejects zero keys.
func RequireKey(v any) (PrimaryKey, error) {
	key, err := KeyOf(v)
	if err != nil {
		return nil, err
	}
	if key.IsZero() {
		return nil, invalidArgument("primary key %q is the default value", key.String())
	}
	return key, nil
}

// IsNullOrDefault reports whether v is the zero value of its type.
func IsNullOrDefault[T comparable](v T) bool {
	var zero T
	return v == zero
}

// IsNullOrDefaultPtr reports whether p is nil or points to the zero value.
func IsNullOrDefaultPtr[T comparable](p *T) bool {
	return p == nil || IsNullOrDefault(*p)
}
