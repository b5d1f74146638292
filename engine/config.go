package engine

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Supported database/sql driver names.
const (
	// DriverModernc is the pure Go SQLite driver and the default.
	DriverModernc = "sqlite"
	// DriverMattn is the cgo SQLite driver; only usable in cgo builds.
	DriverMattn = "sqlite3"
)

// Config describes how to open the single SQLite connection.
type Config struct {
	Driver string `yaml:"driver" env:"DRIVER"`
	Path   string `yaml:"path" env:"PATH"`

	// BusyTimeout lets SQLite wait for a lock before reporting SQLITE_BUSY.
	// Zero reports contention immediately and leaves recovery to the
	// repository's retry policy.
	BusyTimeout time.Duration `yaml:"busy_timeout" env:"BUSY_TIMEOUT"`

	ForeignKeys bool   `yaml:"foreign_keys" env:"FOREIGN_KEYS"`
	JournalMode string `yaml:"journal_mode" env:"JOURNAL_MODE"`
}

// DefaultConfig returns a Config for a database file in the working directory.
func DefaultConfig() Config {
	return Config{
		Driver:      DriverModernc,
		Path:        "modelstore.db",
		BusyTimeout: 0,
		ForeignKeys: true,
	}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.Required, validation.In(DriverModernc, DriverMattn)),
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.BusyTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.JournalMode, validation.In("DELETE", "TRUNCATE", "PERSIST", "MEMORY", "WAL", "OFF")),
	)
}
