package cache

import "reflect"

// Dependent lets a type declare the entity types its cached instances depend
// on. It is the explicit form of "a type generic over its entities": Go cannot
// recover type arguments at runtime, so wrappers such as Page[Order] declare
// them instead.
type Dependent interface {
	CacheDependencies() []reflect.Type
}

var dependentType = reflect.TypeFor[Dependent]()

// TypeOf returns the dependency identifier for T with pointers stripped.
func TypeOf[T any]() reflect.Type {
	return normalize(reflect.TypeFor[T]())
}

// DependenciesOf computes the dependency set of values of type T unioned with
// extra. Containers depend on what they contain: []Order and map[uuid.UUID]*Order
// depend on Order (and uuid.UUID for the map key); a Dependent type depends on
// what it declares; anything else depends on itself. Order is preserved and
// duplicates are dropped. Nil entries in extra are kept so callers can reject them.
func DependenciesOf[T any](extra ...reflect.Type) []reflect.Type {
	deps := resolve(reflect.TypeFor[T]())
	for _, t := range extra {
		deps = append(deps, normalize(t))
	}
	return dedupe(deps)
}

func resolve(t reflect.Type) []reflect.Type {
	base := normalize(t)
	if base == nil {
		return nil
	}

	if declared, ok := declaredDependencies(base); ok {
		return declared
	}

	switch base.Kind() {
	case reflect.Slice, reflect.Array:
		return resolve(base.Elem())
	case reflect.Map:
		return append(resolve(base.Key()), resolve(base.Elem())...)
	}
	return []reflect.Type{base}
}

func declaredDependencies(t reflect.Type) ([]reflect.Type, bool) {
	if t.Kind() == reflect.Interface || !reflect.PointerTo(t).Implements(dependentType) {
		return nil, false
	}
	dependent := reflect.New(t).Interface().(Dependent)

	var out []reflect.Type
	for _, dep := range dependent.CacheDependencies() {
		if dep = normalize(dep); dep != nil {
			out = append(out, dep)
		}
	}
	return out, true
}

func normalize(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func dedupe(types []reflect.Type) []reflect.Type {
	seen := make(map[reflect.Type]struct{}, len(types))
	out := make([]reflect.Type, 0, len(types))
	for _, t := range types {
		if t == nil {
			out = append(out, t)
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
