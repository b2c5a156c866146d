package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisDialTimeout = 5 * time.Second

// IdempotencyStoreFactory picks the store behind the Idempotency-Key
// middleware: Redis when configured and reachable, memory otherwise
type IdempotencyStoreFactory struct {
	redisConfig config.RedisConfig
	client      redis.UniversalClient
	logger      *zap.Logger
	fallback    bool
}

// IdempotencyStoreFactoryOption configures the factory
type IdempotencyStoreFactoryOption func(*IdempotencyStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) { f.logger = logger }
}

// WithClient shares an already connected client, typically the one serving
// the change feed and number sequences. The store does not close it.
func WithClient(client redis.UniversalClient) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) { f.client = client }
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// the in-memory store. Default is true.
func WithInMemoryFallback(allow bool) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) { f.fallback = allow }
}

// NewIdempotencyStoreFactory creates a factory for cfg
func NewIdempotencyStoreFactory(cfg config.RedisConfig, opts ...IdempotencyStoreFactoryOption) *IdempotencyStoreFactory {
	f := &IdempotencyStoreFactory{
		redisConfig: cfg,
		logger:      zap.NewNop(),
		fallback:    true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns a Redis store over the shared client, or dials Redis and
// falls back to memory when that fails and fallback is allowed
func (f *IdempotencyStoreFactory) CreateStore(ctx context.Context) (IdempotencyStore, error) {
	if f.client != nil {
		f.logger.Info("using shared Redis client for idempotency keys")
		return NewRedisIdempotencyStore(f.client, ""), nil
	}

	store, err := f.dial(ctx)
	if err == nil {
		f.logger.Info("using Redis idempotency store", zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}
	if !f.fallback {
		return nil, fmt.Errorf("redis required for idempotency but unavailable: %w", err)
	}
	f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store", zap.Error(err))
	return NewInMemoryIdempotencyStore(0), nil
}

// dial connects a dedicated client owned by the returned store
func (f *IdempotencyStoreFactory) dial(ctx context.Context) (*RedisIdempotencyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	store := NewRedisIdempotencyStore(client, "")
	store.ownClient = true
	return store, nil
}
