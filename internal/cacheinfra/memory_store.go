package cacheinfra

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// memoryStore is the default unbounded store. Entries live until they are
// deleted explicitly; there is no TTL and no capacity eviction.
type memoryStore struct {
	entries *xsync.MapOf[string, *Entry]
}

// NewMemoryStore creates an unbounded store backed by a concurrent hash map.
func NewMemoryStore() Store {
	return &memoryStore{entries: xsync.NewMapOf[string, *Entry]()}
}

func (s *memoryStore) Get(key string) (*Entry, bool) {
	return s.entries.Load(key)
}

func (s *memoryStore) Add(key string, entry *Entry) *Entry {
	actual, _ := s.entries.LoadOrStore(key, entry)
	return actual
}

func (s *memoryStore) Delete(key string) {
	s.entries.Delete(key)
}

func (s *memoryStore) Remove(key string, entry *Entry) bool {
	removed := false
	s.entries.Compute(key, func(current *Entry, loaded bool) (*Entry, bool) {
		removed = loaded && current == entry
		return current, !loaded || removed
	})
	return removed
}

func (s *memoryStore) DeleteMatching(match func(*Entry) bool) int {
	// Snapshot first so deletes never interleave with our own iteration.
	var stale []string
	s.entries.Range(func(key string, entry *Entry) bool {
		if match(entry) {
			stale = append(stale, key)
		}
		return true
	})

	for _, key := range stale {
		s.entries.Delete(key)
	}
	return len(stale)
}

func (s *memoryStore) Len() int {
	return s.entries.Size()
}
