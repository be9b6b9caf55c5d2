package cache

import (
	"context"
	"time"

	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const defaultIdempotencyPrefix = "fot:idempotency:"

// IdempotencyStore reserves Idempotency-Key values for order placement.
// On Redis the reservation is a SET NX shared by every API instance; the
// in-memory variant only covers the current process.
type IdempotencyStore struct {
	store  byteStore
	prefix string
	memory *memoryStore
}

// NewRedisIdempotencyStore uses a shared client; the caller keeps ownership
// of it. An empty prefix selects fot:idempotency:.
func NewRedisIdempotencyStore(client *redis.Client, prefix string) *IdempotencyStore {
	if prefix == "" {
		prefix = defaultIdempotencyPrefix
	}
	return &IdempotencyStore{store: &redisStore{client: client}, prefix: prefix}
}

// NewInMemoryIdempotencyStore starts a sweeper that Close stops
func NewInMemoryIdempotencyStore() *IdempotencyStore {
	mem := newMemoryStore()
	return &IdempotencyStore{store: mem, prefix: defaultIdempotencyPrefix, memory: mem}
}

// MarkProcessed returns false while an earlier reservation of key is live
func (s *IdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	stamp := shared.Now().Format(time.RFC3339Nano)
	return s.store.setNX(ctx, s.prefix+key, []byte(stamp), ttl)
}

func (s *IdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	_, found, err := s.store.get(ctx, s.prefix+key)
	return found, err
}

// Release lets a failed placement be retried with the same key
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.store.del(ctx, s.prefix+key)
}

func (s *IdempotencyStore) Close() error {
	if s.memory != nil {
		s.memory.close()
	}
	return nil
}

var _ shared.IdempotencyStore = (*IdempotencyStore)(nil)
