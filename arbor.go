package arbor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/arbor/pkg/config"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/adapters/redis"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/session"
	backend "github.com/redis/go-redis/v9"
)

// Version is the release of this module.
const Version = "0.1.0"

// Editor bundles a session manager with the store and metrics it was built from.
type Editor struct {
	Manager *session.Manager
	Store   ports.SessionStore
	Metrics *observability.Metrics

	logger  *slog.Logger
	store   ports.SessionStore
	extra   []session.Option
	closers []func() error
}

// Option configures Open.
type Option func(*Editor)

// WithLogger sets the logger shared by the editor's components.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithStore bypasses the configured driver and uses store instead.
func WithStore(store ports.SessionStore) Option {
	return func(e *Editor) {
		e.store = store
	}
}

// WithSessionOptions appends options applied to the session manager.
func WithSessionOptions(opts ...session.Option) Option {
	return func(e *Editor) {
		e.extra = append(e.extra, opts...)
	}
}

// Open builds an Editor from configuration.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Editor, error) {
	e := &Editor{
		Metrics: observability.NewMetrics(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	sessionOpts := []session.Option{
		session.WithLogger(e.logger),
		session.WithHistoryLimit(cfg.History.Limit),
		session.WithHooks(e.Metrics.Hooks(e.logger)),
	}

	// 1. Store
	switch {
	case e.store != nil:
		e.Store = e.store
	case cfg.Store.Driver == config.DriverMemory:
		e.Store = memory.NewStore()
	case cfg.Store.Driver == config.DriverFile:
		e.Store = file.New(cfg.Store.Path)
	case cfg.Store.Driver == config.DriverRedis:
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		e.closers = append(e.closers, client.Close)
		e.Store = redis.NewFromClient(client,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)

		// 2. Distributed Locking
		if cfg.Redis.Lock {
			sessionOpts = append(sessionOpts,
				session.WithLocker(redis.NewLocker(client, cfg.Redis.Prefix+"lock:")),
				session.WithLockTTL(cfg.Redis.LockTTL),
			)
		}
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", config.ErrInvalid, cfg.Store.Driver)
	}

	e.logger.Debug("Editor opened", "driver", cfg.Store.Driver, "history_limit", cfg.History.Limit)
	e.Manager = session.NewManager(e.Store, append(sessionOpts, e.extra...)...)
	return e, nil
}

// Close releases connections held by the store.
func (e *Editor) Close() error {
	var errs []error
	for _, c := range e.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
