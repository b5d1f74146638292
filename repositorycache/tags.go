package repositorycache

import (
	"context"
	"reflect"
	"slices"
)

type dependenciesContextKey struct{}

// WithDependencies attaches extra dependency types to reads made with ctx.
// A cached read normally depends on its entity type and the types of the
// relationships it loads; use this when the caller derives something from the
// result that also depends on other tables.
func WithDependencies(ctx context.Context, types ...reflect.Type) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	combined := dependenciesFromContext(ctx)
	for _, t := range types {
		for t != nil && t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t == nil || slices.Contains(combined, t) {
			continue
		}
		combined = append(combined, t)
	}
	if len(combined) == 0 {
		return ctx
	}

	return context.WithValue(ctx, dependenciesContextKey{}, combined)
}

func dependenciesFromContext(ctx context.Context) []reflect.Type {
	if ctx == nil {
		return nil
	}
	if types, ok := ctx.Value(dependenciesContextKey{}).([]reflect.Type); ok {
		return slices.Clone(types)
	}
	return nil
}
