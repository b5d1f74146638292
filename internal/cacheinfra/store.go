package cacheinfra

import "reflect"

// Entry is an immutable cache record: the memoized value and the set of types
// it depends on. Invalidation replaces or removes whole entries, never edits them.
type Entry struct {
	Types []reflect.Type
	Value any
}

// NewEntry copies the dependency list so callers cannot mutate it afterwards.
func NewEntry(value any, types []reflect.Type) *Entry {
	return &Entry{
		Types: append([]reflect.Type(nil), types...),
		Value: value,
	}
}

// DependsOn reports whether t is part of the entry's dependency set.
func (e *Entry) DependsOn(t reflect.Type) bool {
	for _, dep := range e.Types {
		if dep == t {
			return true
		}
	}
	return false
}

// Store holds cache entries keyed by their serialized key.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the entry stored for key.
	Get(key string) (*Entry, bool)

	// Add stores entry if key is absent and returns whichever entry ends up
	// stored for key (the existing one when another writer got there first).
	Add(key string, entry *Entry) *Entry

	// Delete removes the entry for key, if any.
	Delete(key string)

	// Remove deletes key only while it still holds entry and reports whether
	// it did. An entry stored by another writer in the meantime is kept.
	Remove(key string, entry *Entry) bool

	// DeleteMatching removes every entry for which match returns true and
	// reports how many were removed.
	DeleteMatching(match func(*Entry) bool) int

	// Len returns the number of live entries.
	Len() int
}
