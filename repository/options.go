package repository

import (
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-modelstore/cache"
)

// RetryPolicy bounds how often a mutation is attempted when the database
// reports it is busy.
type RetryPolicy struct {
	// Attempts is the total number of tries, the first one included.
	Attempts int `yaml:"attempts" env:"ATTEMPTS"`
	// Delay is the fixed pause between tries.
	Delay time.Duration `yaml:"delay" env:"DELAY"`
}

// DefaultRetryPolicy returns 8 attempts spaced 80ms apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: 8,
		Delay:    80 * time.Millisecond,
	}
}

// Validate checks whether the policy values are valid.
func (p RetryPolicy) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Attempts, validation.Required, validation.Min(1)),
		validation.Field(&p.Delay, validation.Min(time.Duration(0))),
	)
}

// Option configures a Repository.
type Option func(*Repository)

// WithCache sets the dependency cache invalidated after writes.
func WithCache(c cache.Cache) Option {
	return func(r *Repository) {
		if c != nil {
			r.cache = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRetryPolicy overrides the busy retry policy. Invalid policies are ignored.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(r *Repository) {
		if p.Validate() == nil {
			r.policy = p
		}
	}
}

// WithTracerProvider sets the provider the repository's tracer comes from.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Repository) {
		if tp != nil {
			r.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithSleeper replaces time.Sleep between retries.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(r *Repository) {
		if sleep != nil {
			r.sleep = sleep
		}
	}
}
