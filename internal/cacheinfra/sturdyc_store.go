package cacheinfra

import (
	"sync"
	"time"

	"github.com/viccon/sturdyc"
)

// BoundedConfig holds the configuration for the sturdyc backed store.
// It trades the unbounded store's "live until invalidated" guarantee for a
// memory ceiling: entries may be evicted under capacity pressure or after TTL.
type BoundedConfig struct {
	// Capacity defines the maximum number of entries that the store can hold.
	// Must be greater than 0.
	Capacity int

	// NumShards determines the number of shards for concurrent access.
	// Must be greater than 0. Default: 64
	NumShards int

	// TTL is the time-to-live applied to every entry.
	// Must be greater than 0. Default: 24h
	TTL time.Duration

	// EvictionPercentage specifies what percentage of entries to evict
	// when the store reaches its capacity. Must be between 1-100.
	EvictionPercentage int

	// EvictionInterval sets how often expired entries are swept.
	// Zero value uses the sturdyc default.
	EvictionInterval time.Duration
}

// DefaultBoundedConfig returns a BoundedConfig with values suited to caching
// derived aggregates for a single embedded database.
func DefaultBoundedConfig() BoundedConfig {
	return BoundedConfig{
		Capacity:           10000,
		NumShards:          64,
		TTL:                24 * time.Hour,
		EvictionPercentage: 10,
		EvictionInterval:   0,
	}
}

// Validate checks if the configuration values are valid.
func (c BoundedConfig) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}

	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}

	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}

	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}

	if c.EvictionInterval < 0 {
		return &ConfigError{Field: "EvictionInterval", Message: "must be non-negative"}
	}

	return nil
}

func (c BoundedConfig) sturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option
	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}
	return options
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// boundedStore wraps a sturdyc client. sturdyc has no atomic insert-if-absent
// or compare-and-delete, so Add and Remove are serialized with a mutex; Get
// and Delete go straight to the shards.
type boundedStore struct {
	addMu  sync.Mutex
	client *sturdyc.Client[*Entry]
}

// NewBoundedStore validates cfg and creates a sturdyc backed store.
func NewBoundedStore(cfg BoundedConfig) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[*Entry](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.sturdycOptions()...,
	)

	return &boundedStore{client: client}, nil
}

func (s *boundedStore) Get(key string) (*Entry, bool) {
	entry, ok := s.client.Get(key)
	if !ok || entry == nil {
		return nil, false
	}
	return entry, true
}

func (s *boundedStore) Add(key string, entry *Entry) *Entry {
	s.addMu.Lock()
	defer s.addMu.Unlock()

	if existing, ok := s.Get(key); ok {
		return existing
	}
	s.client.Set(key, entry)
	return entry
}

func (s *boundedStore) Delete(key string) {
	s.client.Delete(key)
}

func (s *boundedStore) Remove(key string, entry *Entry) bool {
	s.addMu.Lock()
	defer s.addMu.Unlock()

	if current, ok := s.Get(key); !ok || current != entry {
		return false
	}
	s.client.Delete(key)
	return true
}

func (s *boundedStore) DeleteMatching(match func(*Entry) bool) int {
	removed := 0
	for _, key := range s.client.ScanKeys() {
		entry, ok := s.Get(key)
		if !ok || !match(entry) {
			continue
		}
		s.client.Delete(key)
		removed++
	}
	return removed
}

func (s *boundedStore) Len() int {
	return s.client.Size()
}
