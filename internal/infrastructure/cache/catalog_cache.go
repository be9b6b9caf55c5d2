package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/foodontracks/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	menuKeyPrefix       = "fot:menu:"
	restaurantKeyPrefix = "fot:restaurant:"

	defaultMenuTTL       = 5 * time.Minute
	defaultRestaurantTTL = 10 * time.Minute
)

// CatalogCache caches restaurant menus and restaurant details as JSON.
// Misses and decode failures fall through to the database; write errors
// are logged and swallowed so the cache can never fail a request.
type CatalogCache struct {
	store         byteStore
	memory        *memoryStore
	menuTTL       time.Duration
	restaurantTTL time.Duration
	logger        *zap.Logger

	hits   int64
	misses int64
}

// CatalogCacheOption configures a CatalogCache
type CatalogCacheOption func(*CatalogCache)

// WithTTLs overrides the entry lifetimes. Zero keeps the default.
func WithTTLs(menu, restaurant time.Duration) CatalogCacheOption {
	return func(c *CatalogCache) {
		if menu > 0 {
			c.menuTTL = menu
		}
		if restaurant > 0 {
			c.restaurantTTL = restaurant
		}
	}
}

// WithCacheLogger sets the logger for the cache
func WithCacheLogger(logger *zap.Logger) CatalogCacheOption {
	return func(c *CatalogCache) {
		c.logger = logger
	}
}

// NewRedisCatalogCache creates a cache shared by all instances
func NewRedisCatalogCache(client *redis.Client, opts ...CatalogCacheOption) *CatalogCache {
	return newCatalogCache(&redisStore{client: client}, nil, opts...)
}

// NewInMemoryCatalogCache creates a per-process cache
func NewInMemoryCatalogCache(opts ...CatalogCacheOption) *CatalogCache {
	mem := newMemoryStore()
	return newCatalogCache(mem, mem, opts...)
}

func newCatalogCache(store byteStore, mem *memoryStore, opts ...CatalogCacheOption) *CatalogCache {
	c := &CatalogCache{
		store:         store,
		memory:        mem,
		menuTTL:       defaultMenuTTL,
		restaurantTTL: defaultRestaurantTTL,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func menuKey(restaurantID uuid.UUID) string {
	return menuKeyPrefix + restaurantID.String()
}

func restaurantKey(restaurantID uuid.UUID) string {
	return restaurantKeyPrefix + restaurantID.String()
}

// GetMenu returns the cached menu. ok is false on a miss.
func (c *CatalogCache) GetMenu(ctx context.Context, restaurantID uuid.UUID) ([]*catalog.MenuItem, bool) {
	var items []*catalog.MenuItem
	if !c.load(ctx, menuKey(restaurantID), &items) {
		return nil, false
	}
	return items, true
}

// SetMenu stores a restaurant's full menu
func (c *CatalogCache) SetMenu(ctx context.Context, restaurantID uuid.UUID, items []*catalog.MenuItem) {
	c.save(ctx, menuKey(restaurantID), items, c.menuTTL)
}

// GetRestaurant returns cached restaurant details
func (c *CatalogCache) GetRestaurant(ctx context.Context, restaurantID uuid.UUID) (*catalog.Restaurant, bool) {
	var r catalog.Restaurant
	if !c.load(ctx, restaurantKey(restaurantID), &r) {
		return nil, false
	}
	return &r, true
}

// SetRestaurant stores restaurant details
func (c *CatalogCache) SetRestaurant(ctx context.Context, r *catalog.Restaurant) {
	if r == nil {
		return
	}
	c.save(ctx, restaurantKey(r.ID), r, c.restaurantTTL)
}

// Invalidate drops everything cached for a restaurant
func (c *CatalogCache) Invalidate(ctx context.Context, restaurantID uuid.UUID) {
	if err := c.store.del(ctx, menuKey(restaurantID), restaurantKey(restaurantID)); err != nil {
		c.logger.Warn("Failed to invalidate catalog cache",
			zap.String("restaurant_id", restaurantID.String()),
			zap.Error(err))
	}
}

// Stats returns hit and miss counters
func (c *CatalogCache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Close stops the in-memory sweeper, if any
func (c *CatalogCache) Close() {
	if c.memory != nil {
		c.memory.close()
	}
}

func (c *CatalogCache) load(ctx context.Context, key string, dst any) bool {
	data, ok, err := c.store.get(ctx, key)
	if err != nil {
		c.logger.Warn("Catalog cache read failed", zap.String("key", key), zap.Error(err))
		atomic.AddInt64(&c.misses, 1)
		return false
	}
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Warn("Dropping corrupt catalog cache entry", zap.String("key", key), zap.Error(err))
		_ = c.store.del(ctx, key)
		atomic.AddInt64(&c.misses, 1)
		return false
	}
	atomic.AddInt64(&c.hits, 1)
	return true
}

func (c *CatalogCache) save(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Failed to encode catalog cache entry", zap.String("key", key), zap.Error(fmt.Errorf("marshal: %w", err)))
		return
	}
	if err := c.store.set(ctx, key, data, ttl); err != nil {
		c.logger.Warn("Catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}
