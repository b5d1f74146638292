package repository

import "github.com/goliatone/go-modelstore/engine"

// ReadOption controls relationship loading for a read.
type ReadOption func(*engine.Load)

// WithChildren loads the direct relationships of each returned row.
func WithChildren() ReadOption {
	return func(l *engine.Load) {
		l.Children = true
	}
}

// Recursive loads relationships of related rows as well.
func Recursive() ReadOption {
	return func(l *engine.Load) {
		l.Children = true
		l.Recursive = true
	}
}

// LoadOf resolves opts to the relationship loading they select.
func LoadOf(opts ...ReadOption) engine.Load {
	var l engine.Load
	for _, opt := range opts {
		if opt != nil {
			opt(&l)
		}
	}
	return l
}
