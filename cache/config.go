package cache

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-modelstore/internal/cacheinfra"
)

// Supported entry store backends.
const (
	BackendMemory  = "memory"
	BackendBounded = "bounded"
)

// Config exposes cache configuration options for consumers of the cache package.
type Config struct {
	// Enabled switches memoization on. When false every GetOrAdd runs its loader.
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// Backend selects the entry store: "memory" keeps entries until they are
	// invalidated, "bounded" caps memory and may evict.
	Backend string `yaml:"backend" env:"BACKEND"`

	// MaxKeyLength hashes serialized keys longer than this many bytes. Zero disables hashing.
	MaxKeyLength int `yaml:"max_key_length" env:"MAX_KEY_LENGTH"`

	Bounded BoundedConfig `yaml:"bounded" envPrefix:"BOUNDED_"`
}

// BoundedConfig mirrors the sturdyc settings of the bounded backend.
type BoundedConfig struct {
	Capacity           int           `yaml:"capacity" env:"CAPACITY"`
	NumShards          int           `yaml:"num_shards" env:"NUM_SHARDS"`
	TTL                time.Duration `yaml:"ttl" env:"TTL"`
	EvictionPercentage int           `yaml:"eviction_percentage" env:"EVICTION_PERCENTAGE"`
	EvictionInterval   time.Duration `yaml:"eviction_interval" env:"EVICTION_INTERVAL"`
}

// DefaultConfig returns an enabled, unbounded cache configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		Backend:      BackendMemory,
		MaxKeyLength: 512,
		Bounded:      convertFromInternal(cacheinfra.DefaultBoundedConfig()),
	}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendMemory, BackendBounded)),
		validation.Field(&c.MaxKeyLength, validation.Min(0)),
	)
	if err != nil {
		return err
	}

	if c.Backend == BackendBounded {
		return c.Bounded.toInternal().Validate()
	}
	return nil
}

func (c Config) newStore() (cacheinfra.Store, error) {
	if c.Backend == BackendBounded {
		return cacheinfra.NewBoundedStore(c.Bounded.toInternal())
	}
	return cacheinfra.NewMemoryStore(), nil
}

func (c BoundedConfig) toInternal() cacheinfra.BoundedConfig {
	return cacheinfra.BoundedConfig{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		TTL:                c.TTL,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
	}
}

func convertFromInternal(cfg cacheinfra.BoundedConfig) BoundedConfig {
	return BoundedConfig{
		Capacity:           cfg.Capacity,
		NumShards:          cfg.NumShards,
		TTL:                cfg.TTL,
		EvictionPercentage: cfg.EvictionPercentage,
		EvictionInterval:   cfg.EvictionInterval,
	}
}
