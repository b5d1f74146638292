package repositorycache

import (
	"reflect"
	"strings"
	"unicode"
)

// toSnake turns a Go type name into a snake_case key namespace. Anything
// that is not a letter or digit (package dots, brackets of generic
// instantiations, pointer stars) collapses into a single underscore.
func toSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(runes) + len(runes)/2)

	sep := func() {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
			b.WriteByte('_')
		}
	}

	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					sep()
				}
			}
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsLower(r):
			b.WriteRune(r)
		case unicode.IsDigit(r):
			if i > 0 && unicode.IsLetter(runes[i-1]) {
				sep()
			}
			b.WriteRune(r)
		default:
			sep()
		}
	}

	return strings.Trim(b.String(), "_")
}

// namespaceOf builds the key namespace for an entity type: a readable
// snake_case prefix followed by the full type identity, so same-named types
// from different packages never share keys.
func namespaceOf(t reflect.Type) string {
	if t.PkgPath() == "" {
		return toSnake(t.String()) + "@" + t.String()
	}
	return toSnake(t.Name()) + "@" + t.PkgPath() + "." + t.Name()
}
