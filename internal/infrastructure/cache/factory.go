package cache

import (
	"context"
	"fmt"

	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/foodontracks/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Factory builds the Redis-backed stores, or their in-memory fallbacks
// when Redis is disabled or unreachable.
type Factory struct {
	client                *redis.Client
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis is an error.
// Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory connects to Redis when it is enabled
func NewFactory(ctx context.Context, cfg config.RedisConfig, opts ...FactoryOption) (*Factory, error) {
	f := &Factory{
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}

	if !cfg.Enabled {
		f.logger.Info("Redis disabled, using in-memory stores")
		return f, nil
	}

	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("redis required but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory stores. "+
			"Idempotency keys and token revocations will not be shared between instances.",
			zap.Error(err))
		return f, nil
	}

	f.logger.Info("Connected to Redis", zap.String("addr", cfg.Addr()))
	f.client = client
	return f, nil
}

// Client returns the Redis client, or nil when running in-memory
func (f *Factory) Client() *redis.Client {
	return f.client
}

// IdempotencyStore returns the request idempotency store
func (f *Factory) IdempotencyStore() shared.IdempotencyStore {
	if f.client != nil {
		return NewRedisIdempotencyStore(f.client, "")
	}
	return NewInMemoryIdempotencyStore()
}

// CatalogCache returns the restaurant/menu cache
func (f *Factory) CatalogCache(cfg config.CacheConfig) *CatalogCache {
	opts := []CatalogCacheOption{
		WithTTLs(cfg.MenuTTL, cfg.RestaurantTTL),
		WithCacheLogger(f.logger.Named("catalog_cache")),
	}
	if f.client != nil {
		return NewRedisCatalogCache(f.client, opts...)
	}
	return NewInMemoryCatalogCache(opts...)
}

// Ping checks Redis health. Always nil when running in-memory.
func (f *Factory) Ping(ctx context.Context) error {
	if f.client == nil {
		return nil
	}
	return f.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (f *Factory) Close() error {
	if f.client == nil {
		return nil
	}
	return f.client.Close()
}
