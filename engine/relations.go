package engine

import (
	"reflect"
	"sort"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// Load selects which relationships a read populates.
type Load struct {
	// Children loads the model's direct relationships.
	Children bool
	// Recursive follows relationships of related models as well. It implies Children.
	Recursive bool
}

func (l Load) any() bool {
	return l.Children || l.Recursive
}

func tableFor(db bun.IDB, typ reflect.Type) (*schema.Table, error) {
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, invalidArgument("%s is not a struct model", typ)
	}
	return db.Dialect().Tables().Get(typ), nil
}

// RelationPaths returns the bun relation paths for the model described by
// table. Direct relations are returned by name. In recursive mode nested
// relations are expanded to their deepest path ("Lines.Product") and a
// relation leading back to a table already on the path stops the walk.
func RelationPaths(table *schema.Table, recursive bool) []string {
	if table == nil {
		return nil
	}
	if !recursive {
		return sortedRelations(table)
	}

	var out []string
	visited := map[*schema.Table]bool{table: true}
	walkRelations(table, "", visited, &out)
	return out
}

func walkRelations(table *schema.Table, prefix string, visited map[*schema.Table]bool, out *[]string) {
	for _, name := range sortedRelations(table) {
		child := table.Relations[name].JoinTable
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}

		if visited[child] {
			// back references are still direct relations of the root
			if prefix == "" {
				*out = append(*out, path)
			}
			continue
		}

		visited[child] = true
		before := len(*out)
		walkRelations(child, path, visited, out)
		if len(*out) == before {
			*out = append(*out, path)
		}
		delete(visited, child)
	}
}

func sortedRelations(table *schema.Table) []string {
	names := make([]string, 0, len(table.Relations))
	for name := range table.Relations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func withRelations(q *bun.SelectQuery, table *schema.Table, load Load) *bun.SelectQuery {
	if !load.any() {
		return q
	}
	for _, path := range RelationPaths(table, load.Recursive) {
		q = q.Relation(path)
	}
	return q
}

// RelatedTypes returns the model types reachable through the relationships
// that a read with load would populate, in RelationPaths order.
func RelatedTypes(db bun.IDB, typ reflect.Type, load Load) ([]reflect.Type, error) {
	if !load.any() {
		return nil, nil
	}
	table, err := tableFor(db, typ)
	if err != nil {
		return nil, err
	}

	var out []reflect.Type
	seen := map[reflect.Type]bool{}
	for _, path := range RelationPaths(table, load.Recursive) {
		current := table
		for _, name := range strings.Split(path, ".") {
			rel, ok := current.Relations[name]
			if !ok {
				break
			}
			current = rel.JoinTable
			if !seen[current.Type] {
				seen[current.Type] = true
				out = append(out, current.Type)
			}
		}
	}
	return out, nil
}
