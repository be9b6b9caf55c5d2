package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// byteStore is the raw key/value layer under the typed caches
type byteStore interface {
	get(ctx context.Context, key string) ([]byte, bool, error)
	set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// setNX writes only when key is absent or expired
	setNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	del(ctx context.Context, keys ...string) error
}

type redisStore struct {
	client *redis.Client
}

func (s *redisStore) get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, true, nil
}

func (s *redisStore) set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *redisStore) setNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return ok, nil
}

func (s *redisStore) del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func newMemoryEntry(value []byte, ttl time.Duration) *memoryEntry {
	return &memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
}

func (e *memoryEntry) expired(now time.Time) bool { return !now.Before(e.expiresAt) }

// memoryStore is a TTL map with a background sweeper
type memoryStore struct {
	entries sync.Map
	stopCh  chan struct{}
	stopped atomic.Bool
}

const defaultCleanupInterval = 30 * time.Second

func newMemoryStore() *memoryStore {
	s := &memoryStore{stopCh: make(chan struct{})}
	go s.sweep(defaultCleanupInterval)
	return s
}

func (s *memoryStore) get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.entries.Load(key)
	if !ok {
		return nil, false, nil
	}
	e := v.(*memoryEntry)
	if e.expired(time.Now()) {
		s.entries.CompareAndDelete(key, e)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (s *memoryStore) set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.entries.Store(key, newMemoryEntry(value, ttl))
	return nil
}

func (s *memoryStore) setNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	fresh := newMemoryEntry(value, ttl)
	for {
		v, loaded := s.entries.LoadOrStore(key, fresh)
		if !loaded {
			return true, nil
		}
		if !v.(*memoryEntry).expired(time.Now()) {
			return false, nil
		}
		if s.entries.CompareAndSwap(key, v, fresh) {
			return true, nil
		}
	}
}

func (s *memoryStore) del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		s.entries.Delete(k)
	}
	return nil
}

func (s *memoryStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case now := <-ticker.C:
			s.purge(now)
		}
	}
}

// purge drops entries that expired before now
func (s *memoryStore) purge(now time.Time) {
	s.entries.Range(func(k, v any) bool {
		if v.(*memoryEntry).expired(now) {
			s.entries.CompareAndDelete(k, v)
		}
		return true
	})
}

func (s *memoryStore) len() int {
	n := 0
	s.entries.Range(func(_, _ any) bool { n++; return true })
	return n
}

func (s *memoryStore) close() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stopCh)
	}
}
