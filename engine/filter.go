package engine

import (
	"fmt"
	"strings"

	"github.com/uptrace/bun"
)

// Filter is a predicate applied to a select or delete. Placeholders use bun's
// "?" syntax.
type Filter struct {
	clauses []clause
}

type clause struct {
	query string
	args  []any
}

// Where builds a single clause filter.
func Where(query string, args ...any) Filter {
	if strings.TrimSpace(query) == "" {
		return Filter{}
	}
	return Filter{clauses: []clause{{query: query, args: args}}}
}

// And returns a filter requiring both f and other.
func (f Filter) And(other Filter) Filter {
	out := Filter{clauses: make([]clause, 0, len(f.clauses)+len(other.clauses))}
	out.clauses = append(out.clauses, f.clauses...)
	out.clauses = append(out.clauses, other.clauses...)
	return out
}

// IsZero reports whether the filter has no clauses.
func (f Filter) IsZero() bool {
	return len(f.clauses) == 0
}

// String renders the filter with arguments inlined, for diagnostics only.
func (f Filter) String() string {
	parts := make([]string, len(f.clauses))
	for i, c := range f.clauses {
		parts[i] = render(c)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	for i, p := range parts {
		parts[i] = "(" + p + ")"
	}
	return strings.Join(parts, " AND ")
}

func render(c clause) string {
	var b strings.Builder
	arg := 0
	for _, r := range c.query {
		if r == '?' && arg < len(c.args) {
			b.WriteString(literal(c.args[arg]))
			arg++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	case fmt.Stringer:
		return "'" + x.String() + "'"
	default:
		return fmt.Sprint(x)
	}
}

func applySelect(q *bun.SelectQuery, f Filter) *bun.SelectQuery {
	for _, c := range f.clauses {
		q = q.Where(c.query, c.args...)
	}
	return q
}

func applyDelete(q *bun.DeleteQuery, f Filter) *bun.DeleteQuery {
	for _, c := range f.clauses {
		q = q.Where(c.query, c.args...)
	}
	return q
}
