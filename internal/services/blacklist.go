package services

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sinar-app/sinar-api/internal/utils"
)

// TokenBlacklist remembers revoked tokens until they would have expired.
type TokenBlacklist interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

const blacklistPrefix = "blacklist:"

// RedisBlacklist stores one key per revoked token, keyed by its SHA-256,
// with a TTL equal to the token's remaining lifetime.
type RedisBlacklist struct {
	client *redis.Client
}

func NewRedisBlacklist(client *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{client: client}
}

func (b *RedisBlacklist) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, blacklistPrefix+utils.TokenFingerprint(token), 1, ttl).Err()
}

func (b *RedisBlacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := b.client.Exists(ctx, blacklistPrefix+utils.TokenFingerprint(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryBlacklist is a process-local blacklist for tests and single-node
// development. Expired entries are dropped on access.
type MemoryBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{entries: map[string]time.Time{}, now: time.Now}
}

func (b *MemoryBlacklist) Revoke(_ context.Context, token string, expiresAt time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !expiresAt.After(b.now()) {
		return nil
	}
	b.entries[utils.TokenFingerprint(token)] = expiresAt
	return nil
}

func (b *MemoryBlacklist) IsRevoked(_ context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := utils.TokenFingerprint(token)
	exp, ok := b.entries[key]
	if !ok {
		return false, nil
	}
	if !exp.After(b.now()) {
		delete(b.entries, key)
		return false, nil
	}
	return true, nil
}

// Len counts entries that have not expired yet.
func (b *MemoryBlacklist) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	n := 0
	for key, exp := range b.entries {
		if exp.After(now) {
			n++
		} else {
			delete(b.entries, key)
		}
	}
	return n
}
