package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

var stringerType = reflect.TypeFor[fmt.Stringer]()

// defaultKeySerializer renders arguments deterministically with reflection.
// Keys longer than maxLength (when positive) collapse to an xxhash digest so
// that callers caching on large filter values do not keep huge strings alive.
type defaultKeySerializer struct {
	maxLength int
}

// NewDefaultKeySerializer creates a serializer that never hashes keys.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// NewHashingKeySerializer creates a serializer that hashes keys longer than maxLength bytes.
func NewHashingKeySerializer(maxLength int) KeySerializer {
	return &defaultKeySerializer{maxLength: maxLength}
}

// SerializeKey builds a cache key from method name and args.
func (s *defaultKeySerializer) SerializeKey(method string, args ...any) string {
	if len(args) == 0 {
		return method
	}

	parts := make([]string, 0, len(args)+1)
	parts = append(parts, method)
	for _, arg := range args {
		parts = append(parts, s.encode(reflect.ValueOf(arg)))
	}
	key := strings.Join(parts, KeySeparator)

	if s.maxLength > 0 && len(key) > s.maxLength {
		return method + KeySeparator + "xxh:" + strconv.FormatUint(xxhash.Sum64String(key), 16)
	}
	return key
}

func (s *defaultKeySerializer) encode(v reflect.Value) string {
	if !v.IsValid() {
		return "nil"
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return "nil"
		}
		return s.encode(v.Elem())
	case reflect.Func:
		return fmt.Sprintf("func:%#x", v.Pointer())
	case reflect.Chan:
		return fmt.Sprintf("chan:%#x", v.Pointer())
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		// fmt prints a reflect.Value's underlying value, unexported fields included
		return fmt.Sprint(v)
	}

	// Values like uuid.UUID, time.Time or filters know their canonical form.
	if v.CanInterface() && v.Type().Implements(stringerType) {
		return v.Interface().(fmt.Stringer).String()
	}

	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return "slice:nil"
		}
		return "[" + s.encodeElems(v) + "]"
	case reflect.Array:
		return "array[" + s.encodeElems(v) + "]"
	case reflect.Map:
		if v.IsNil() {
			return "map:nil"
		}
		return s.encodeMap(v)
	case reflect.Struct:
		return s.encodeStruct(v)
	}

	return s.jsonFallback(v)
}

func (s *defaultKeySerializer) encodeElems(v reflect.Value) string {
	parts := make([]string, v.Len())
	for i := range parts {
		parts[i] = s.encode(v.Index(i))
	}
	return strings.Join(parts, ",")
}

// encodeMap sorts pairs by their encoded key so map iteration order never leaks into keys.
func (s *defaultKeySerializer) encodeMap(v reflect.Value) string {
	pairs := make([]string, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		pairs = append(pairs, s.encode(iter.Key())+"="+s.encode(iter.Value()))
	}
	sort.Strings(pairs)
	return "map{" + strings.Join(pairs, ",") + "}"
}

func (s *defaultKeySerializer) encodeStruct(v reflect.Value) string {
	t := v.Type()
	parts := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		parts = append(parts, t.Field(i).Name+":"+s.encode(v.Field(i)))
	}
	return t.Name() + "{" + strings.Join(parts, ",") + "}"
}

func (s *defaultKeySerializer) jsonFallback(v reflect.Value) string {
	if !v.CanInterface() {
		return "opaque:" + v.Type().String()
	}
	data, err := json.Marshal(v.Interface())
	if err != nil {
		return "opaque:" + v.Type().String()
	}
	return "json:" + string(data)
}
