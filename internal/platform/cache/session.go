// Package cache holds the session-scoped cache shared across gateway
// instances. Claimed patient profiles live here keyed by session id, with a
// TTL matching the session's remaining validity, so revocation and expiry
// take effect on every instance at once.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/medrec/gateway/internal/platform/ledger"
)

// ErrCacheMiss indicates the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// KVStore abstracts the KV backend so tests can substitute an in-memory map.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// RedisKVStore is the go-redis backed implementation.
type RedisKVStore struct {
	client *redis.Client
}

func NewRedisKVStore(client *redis.Client) *RedisKVStore {
	return &RedisKVStore{client: client}
}

func (r *RedisKVStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrCacheMiss
		}
		return "", err
	}
	return val, nil
}

func (r *RedisKVStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKVStore) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

// SessionCache stores claimed patient profiles keyed by session id.
type SessionCache struct {
	kv KVStore
}

func NewSessionCache(kv KVStore) *SessionCache {
	return &SessionCache{kv: kv}
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

// PutProfile caches a claimed profile until the session expires. Sessions
// already past their expiry are not cached.
func (c *SessionCache) PutProfile(ctx context.Context, sessionID string, p *ledger.PatientWithNIK, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode session profile: %w", err)
	}
	return c.kv.Set(ctx, sessionKey(sessionID), string(raw), ttl)
}

// GetProfile returns the cached profile for a session, or ErrCacheMiss.
func (c *SessionCache) GetProfile(ctx context.Context, sessionID string) (*ledger.PatientWithNIK, error) {
	raw, err := c.kv.Get(ctx, sessionKey(sessionID))
	if err != nil {
		return nil, err
	}
	var p ledger.PatientWithNIK
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode session profile: %w", err)
	}
	return &p, nil
}

// Invalidate drops the cached profiles for the given sessions. Called after
// a successful revocation so no instance keeps serving revoked sessions.
func (c *SessionCache) Invalidate(ctx context.Context, sessionIDs ...string) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	keys := make([]string, len(sessionIDs))
	for i, id := range sessionIDs {
		keys[i] = sessionKey(id)
	}
	return c.kv.Del(ctx, keys...)
}
