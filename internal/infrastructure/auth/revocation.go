package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRef identifies an issued token. An empty JTI or UserID skips that
// half of the check.
type TokenRef struct {
	JTI      string
	UserID   string
	IssuedAt time.Time
}

// Ref returns the revocation reference of the claims
func (c *Claims) Ref() TokenRef {
	return TokenRef{JTI: c.ID, UserID: c.UserID, IssuedAt: c.IssuedAtTime()}
}

// RevocationStore records tokens that must be rejected before they expire.
// Single tokens are revoked on logout and refresh rotation; whole users
// are revoked when an administrator deactivates the account.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	// RevokeUser rejects every token issued to userID up to now
	RevokeUser(ctx context.Context, userID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, ref TokenRef) (bool, error)
}

const revocationPrefix = "fot:revoked:"

// RedisRevocationStore keeps revocations in Redis so that every replica
// sees them. Entries expire with the tokens they cover.
type RedisRevocationStore struct {
	client *redis.Client
}

func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

func jtiKey(jti string) string     { return revocationPrefix + "jti:" + jti }
func userKey(userID string) string { return revocationPrefix + "user:" + userID }

func (s *RedisRevocationStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, jtiKey(jti), 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// RevokeUser stores the cutoff in nanoseconds. Tokens issued in the same
// second as the cutoff are rejected as well.
func (s *RedisRevocationStore) RevokeUser(ctx context.Context, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, userKey(userID), time.Now().UnixNano(), ttl).Err(); err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}

// IsRevoked checks both keys in one round trip
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, ref TokenRef) (bool, error) {
	var (
		jtiCmd  *redis.IntCmd
		userCmd *redis.StringCmd
	)
	_, err := s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		if ref.JTI != "" {
			jtiCmd = p.Exists(ctx, jtiKey(ref.JTI))
		}
		if ref.UserID != "" {
			userCmd = p.Get(ctx, userKey(ref.UserID))
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("check revocation: %w", err)
	}

	if jtiCmd != nil && jtiCmd.Val() > 0 {
		return true, nil
	}
	if userCmd == nil || errors.Is(userCmd.Err(), redis.Nil) {
		return false, nil
	}
	cutoff, err := strconv.ParseInt(userCmd.Val(), 10, 64)
	if err != nil {
		return false, fmt.Errorf("parse revocation cutoff: %w", err)
	}
	return issuedBefore(ref.IssuedAt, time.Unix(0, cutoff)), nil
}

// issuedBefore compares at second precision, the resolution of the iat claim
func issuedBefore(issuedAt, cutoff time.Time) bool {
	return issuedAt.Unix() <= cutoff.Unix()
}

var _ RevocationStore = (*RedisRevocationStore)(nil)

// MemoryRevocationStore is the single-process fallback used when Redis is
// disabled and in tests
type MemoryRevocationStore struct {
	mu      sync.Mutex
	tokens  map[string]time.Time
	cutoffs map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{
		tokens:  make(map[string]time.Time),
		cutoffs: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryRevocationStore) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	s.tokens[jti] = s.now().Add(ttl)
	s.mu.Unlock()
	return nil
}

func (s *MemoryRevocationStore) RevokeUser(_ context.Context, userID string, _ time.Duration) error {
	s.mu.Lock()
	s.cutoffs[userID] = s.now()
	s.mu.Unlock()
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(_ context.Context, ref TokenRef) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ref.JTI != "" {
		if until, ok := s.tokens[ref.JTI]; ok {
			if s.now().Before(until) {
				return true, nil
			}
			delete(s.tokens, ref.JTI)
		}
	}
	if ref.UserID != "" {
		if cutoff, ok := s.cutoffs[ref.UserID]; ok {
			return issuedBefore(ref.IssuedAt, cutoff), nil
		}
	}
	return false, nil
}

var _ RevocationStore = (*MemoryRevocationStore)(nil)
