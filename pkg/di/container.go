package di

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-modelstore/cache"
	"github.com/goliatone/go-modelstore/config"
	"github.com/goliatone/go-modelstore/engine"
	"github.com/goliatone/go-modelstore/repository"
	"github.com/goliatone/go-modelstore/repositorycache"
)

// Container wires the modelstore components from one configuration: a single
// connection, the dependency cache, the key serializer and the repository on
// top of them. Tables obtained from the container share all of these.
type Container struct {
	config        config.Config
	logger        *slog.Logger
	conn          *engine.Conn
	ownsConn      bool
	cache         *cache.ModelCache
	keySerializer cache.KeySerializer
	repo          *repository.Repository
}

// Option customizes container construction.
type Option func(*options)

type options struct {
	logger         *slog.Logger
	conn           *engine.Conn
	tracerProvider trace.TracerProvider
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithConn makes the container use an existing connection instead of opening
// one from the engine configuration. Close leaves it open.
func WithConn(conn *engine.Conn) Option {
	return func(o *options) {
		o.conn = conn
	}
}

// WithTracerProvider sets the provider for repository spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// NewContainer validates cfg and builds the component graph.
func NewContainer(ctx context.Context, cfg config.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	keySerializer := cache.NewHashingKeySerializer(cfg.Cache.MaxKeyLength)
	modelCache, err := cache.New(cfg.Cache, cache.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}

	conn := o.conn
	owned := false
	if conn == nil {
		conn, err = engine.Open(ctx, cfg.Engine, engine.WithLogger(o.logger))
		if err != nil {
			return nil, err
		}
		owned = true
	}

	repoOpts := []repository.Option{
		repository.WithCache(modelCache),
		repository.WithLogger(o.logger),
		repository.WithRetryPolicy(cfg.Repository.Retry),
	}
	if o.tracerProvider != nil {
		repoOpts = append(repoOpts, repository.WithTracerProvider(o.tracerProvider))
	}

	return &Container{
		config:        cfg,
		logger:        o.logger,
		conn:          conn,
		ownsConn:      owned,
		cache:         modelCache,
		keySerializer: keySerializer,
		repo:          repository.New(conn, repoOpts...),
	}, nil
}

// NewContainerWithDefaults builds a container from config.Default.
func NewContainerWithDefaults(ctx context.Context, opts ...Option) (*Container, error) {
	return NewContainer(ctx, config.Default(), opts...)
}

// Config returns the configuration the container was built from.
func (c *Container) Config() config.Config {
	return c.config
}

// Logger returns the shared logger.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Conn returns the connection.
func (c *Container) Conn() *engine.Conn {
	return c.conn
}

// Cache returns the dependency cache.
func (c *Container) Cache() cache.Cache {
	return c.cache
}

// KeySerializer returns the key serializer shared by cached tables.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Repository returns the repository.
func (c *Container) Repository() *repository.Repository {
	return c.repo
}

// Close closes the connection if the container opened it.
func (c *Container) Close() error {
	if !c.ownsConn {
		return nil
	}
	return c.conn.Close()
}

// NewTable returns the repository table for T.
//
// Since Go methods cannot have type parameters, this is provided as a package-level function.
// Example: NewTable[Order](container)
func NewTable[T any](c *Container) *repository.Table[T] {
	return repository.For[T](c.repo)
}

// NewCachedTable returns the table for T decorated with read-through caching
// in the container's cache.
func NewCachedTable[T any](c *Container) *repositorycache.CachedTable[T] {
	return repositorycache.New(repository.For[T](c.repo), c.cache, c.keySerializer)
}
