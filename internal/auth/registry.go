package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/surveychain/internal/config"
)

// Registry remembers which token ids are logged in.
type Registry interface {
	Register(ctx context.Context, tokenID, principal string, ttl time.Duration) error
	// Lookup returns the registered principal, or ErrSessionNotFound.
	Lookup(ctx context.Context, tokenID string) (string, error)
	Revoke(ctx context.Context, tokenID string) error
}

// RedisRegistry stores sessions under auth:session:<jti>.
type RedisRegistry struct {
	rdb *redis.Client
}

func NewRedisRegistry(rdb *redis.Client) *RedisRegistry {
	return &RedisRegistry{rdb: rdb}
}

func (r *RedisRegistry) Register(ctx context.Context, tokenID, principal string, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, config.CacheKey.AuthSessionKey(tokenID), principal, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (r *RedisRegistry) Lookup(ctx context.Context, tokenID string) (string, error) {
	principal, err := r.rdb.Get(ctx, config.CacheKey.AuthSessionKey(tokenID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("check session: %w", err)
	}
	return principal, nil
}

func (r *RedisRegistry) Revoke(ctx context.Context, tokenID string) error {
	if err := r.rdb.Del(ctx, config.CacheKey.AuthSessionKey(tokenID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
