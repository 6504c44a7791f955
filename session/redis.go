package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix is the key prefix used when NewRedisStore gets an empty one.
const DefaultRedisPrefix = "authdash"

// RedisStore keeps the token under one Redis key so several processes can share a
// logged-in slot. Keys carry no TTL.
type RedisStore struct {
	redis redis.UniversalClient
	key   string
}

// NewRedisStore returns a RedisStore using key <prefix>:<scope>:<name>.
func NewRedisStore(client redis.UniversalClient, prefix, scope, name string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	if name == "" {
		name = DefaultStorageName
	}
	return &RedisStore{
		redis: client,
		key:   prefix + ":" + scope + ":" + name,
	}
}

// Key returns the Redis key holding the token.
func (s *RedisStore) Key() string {
	return s.key
}

// Get reads the token. redis.Nil is an empty slot.
func (s *RedisStore) Get(ctx context.Context) (string, bool, error) {
	v, err := s.redis.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return v, true, nil
}

// Set stores token with no expiration.
func (s *RedisStore) Set(ctx context.Context, token string) error {
	if err := s.redis.Set(ctx, s.key, token, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Clear deletes the key. DEL on a missing key is not an error.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
