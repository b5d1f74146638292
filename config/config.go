package config

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-modelstore/cache"
	"github.com/goliatone/go-modelstore/engine"
	"github.com/goliatone/go-modelstore/repository"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "MODELSTORE_"

// Config is the complete modelstore configuration.
type Config struct {
	Cache      cache.Config     `yaml:"cache" envPrefix:"CACHE_"`
	Engine     engine.Config    `yaml:"engine" envPrefix:"ENGINE_"`
	Repository RepositoryConfig `yaml:"repository" envPrefix:"REPOSITORY_"`
	Log        LogConfig        `yaml:"log" envPrefix:"LOG_"`
}

// RepositoryConfig holds the repository settings.
type RepositoryConfig struct {
	Retry repository.RetryPolicy `yaml:"retry" envPrefix:"RETRY_"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Cache:      cache.DefaultConfig(),
		Engine:     engine.DefaultConfig(),
		Repository: RepositoryConfig{Retry: repository.DefaultRetryPolicy()},
		Log:        LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds a configuration from the defaults, the YAML file at path when
// path is not empty, and MODELSTORE_ environment variables, in that order.
// The result is validated.
func Load(path string) (Config, error) {
	return load(path, nil)
}

// LoadEnvironment is Load with an explicit environment instead of the
// process environment.
func LoadEnvironment(path string, environ map[string]string) (Config, error) {
	if environ == nil {
		environ = map[string]string{}
	}
	return load(path, environ)
}

func load(path string, environ map[string]string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, zerr.With(zerr.Wrap(err, "read config file"), "path", path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, zerr.With(zerr.Wrap(err, "parse config file"), "path", path)
		}
	}

	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, zerr.Wrap(err, "parse environment")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Cache),
		validation.Field(&c.Engine),
		validation.Field(&c.Repository),
		validation.Field(&c.Log),
	)
}

// Validate checks the repository settings.
func (c RepositoryConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Retry),
	)
}

// Validate checks the log settings.
func (c LogConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Format, validation.In("text", "json")),
	)
}

// Logger builds a slog logger writing to w.
func (c LogConfig) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.level()}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (c LogConfig) level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// IsNotExist reports whether err came from a missing config file.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
